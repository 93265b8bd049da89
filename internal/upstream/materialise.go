// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package upstream

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"github.com/brunnsviken/skool-api/internal/domain"
)

// lessonNamespace is the fixed UUIDv5 namespace every lesson id is derived
// from, carried forward unchanged so that ids stay stable across a
// rewrite of the adapter.
var lessonNamespace = uuid.Must(uuid.FromBytes([]byte{
	0x66, 0x2c, 0x31, 0x31, 0xb1, 0x81, 0x40, 0xdc,
	0x88, 0xb4, 0x05, 0x2b, 0x18, 0xce, 0x53, 0x4b,
}))

// SystemSkolplattformen tags SchoolHash inputs as belonging to this upstream,
// distinguishing it from any other system hashed the same way in the future.
const SystemSkolplattformen byte = 1

var (
	errNonExistentLocalTime = errors.New("local time does not exist (DST spring-forward gap)")
	errAmbiguousLocalTime   = errors.New("local time is ambiguous (DST fall-back fold)")
)

var stockholm = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		panic("upstream: Europe/Stockholm timezone data unavailable: " + err.Error())
	}

	return loc
}()

// SchoolHash computes the 32-byte stable identifier for a (system, unit)
// pair: BLAKE3(system_tag_byte || unit_guid_bytes).
func SchoolHash(system byte, unitGUID string) domain.SchoolHash {
	input := make([]byte, 0, 1+len(unitGUID))
	input = append(input, system)
	input = append(input, unitGUID...)

	return domain.SchoolHash(blake3.Sum256(input))
}

// lessonID derives the stable UUIDv5 lesson id from an upstream lesson guid.
func lessonID(lessonGUID string) uuid.UUID {
	return uuid.NewSHA1(lessonNamespace, []byte(lessonGUID))
}

// isoWeekday maps the upstream's 1..7 (Mon..Sun) day-of-week number to a
// time.Weekday. Any other value is not representable and the caller must
// drop the lesson.
func isoWeekday(n int) (time.Weekday, bool) {
	switch {
	case n == 7:
		return time.Sunday, true
	case n >= 1 && n <= 6:
		return time.Weekday(n), true
	default:
		return 0, false
	}
}

// dateForISOWeek computes the calendar date of the given weekday within
// the given ISO (year, week), in loc.
func dateForISOWeek(loc *time.Location, isoYear, isoWeek int, weekday time.Weekday) time.Time {
	jan4 := time.Date(isoYear, time.January, 4, 0, 0, 0, 0, loc)

	jan4ISOWeekday := int(jan4.Weekday())
	if jan4ISOWeekday == 0 {
		jan4ISOWeekday = 7
	}

	week1Monday := jan4.AddDate(0, 0, -(jan4ISOWeekday - 1))

	targetWeekday := int(weekday)
	if targetWeekday == 0 {
		targetWeekday = 7
	}

	return week1Monday.AddDate(0, 0, (isoWeek-1)*7+(targetWeekday-1))
}

// parseClockTolerant parses an upstream time-of-day literal, tolerating
// both HH:MM:SS and HH:MM (the upstream's own format string omits seconds
// inconsistently).
func parseClockTolerant(value string) (hour, min, sec int, err error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, perr := time.Parse(layout, value); perr == nil {
			return t.Hour(), t.Minute(), t.Second(), nil
		}
	}

	return 0, 0, 0, errors.New("unparseable time-of-day: " + value)
}

// localToUTCStrict builds the UTC instant for the given Stockholm
// wall-clock date/time, rejecting times that do not exist (spring-forward
// gap) or are ambiguous (fall-back fold).
func localToUTCStrict(date time.Time, hour, min, sec int) (time.Time, error) {
	y, m, d := date.Date()
	t := time.Date(y, m, d, hour, min, sec, 0, stockholm)

	if yy, mm, dd := t.Date(); yy != y || mm != m || dd != d {
		return time.Time{}, errNonExistentLocalTime
	}

	if hh, mi, ss := t.Clock(); hh != hour || mi != min || ss != sec {
		return time.Time{}, errNonExistentLocalTime
	}

	earlier := t.Add(-time.Hour)
	if hh, mi, ss := earlier.In(stockholm).Clock(); hh == hour && mi == min && ss == sec {
		return time.Time{}, errAmbiguousLocalTime
	}

	return t.UTC(), nil
}

// splitTexts applies the tri-ary texts[] heuristic: after discarding empty
// strings, course = first, location = last, and teacher = middle only
// when exactly three elements remain. Any other length maps conservatively
// — only the first element becomes course.
func splitTexts(raw []string) (course, teacher, location string) {
	nonEmpty := make([]string, 0, len(raw))

	for _, s := range raw {
		if strings.TrimSpace(s) != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}

	if len(nonEmpty) == 0 {
		return "", "", ""
	}

	course = nonEmpty[0]

	switch len(nonEmpty) {
	case 2:
		location = nonEmpty[len(nonEmpty)-1]
	case 3:
		teacher = nonEmpty[1]
		location = nonEmpty[len(nonEmpty)-1]
	}

	return course, teacher, location
}

// colorMap flattens boxList[].lessonGuids against boxList[].bColor into a
// lessonGuid -> hex color lookup.
func colorMap(boxes []renderBox) map[string]string {
	m := make(map[string]string)

	for _, b := range boxes {
		for _, guid := range b.LessonGUIDs {
			m[guid] = b.BColor
		}
	}

	return m
}

// MaterialiseLessons converts one week's raw upstream render response into
// domain lessons, dropping any entry this layer cannot confidently
// interpret.
func MaterialiseLessons(isoYear, isoWeek int, resp renderTimetableResponse) []domain.Lesson {
	return materialiseLessons(isoYear, isoWeek, resp)
}

func materialiseLessons(isoYear, isoWeek int, resp renderTimetableResponse) []domain.Lesson {
	colors := colorMap(resp.BoxList)
	out := make([]domain.Lesson, 0, len(resp.LessonInfo))

	for _, li := range resp.LessonInfo {
		weekday, ok := isoWeekday(li.DayOfWeekNumber)
		if !ok {
			continue
		}

		date := dateForISOWeek(stockholm, isoYear, isoWeek, weekday)

		sh, sm, ss, err := parseClockTolerant(li.TimeStart)
		if err != nil {
			continue
		}

		eh, em, es, err := parseClockTolerant(li.TimeEnd)
		if err != nil {
			continue
		}

		start, err := localToUTCStrict(date, sh, sm, ss)
		if err != nil {
			continue
		}

		end, err := localToUTCStrict(date, eh, em, es)
		if err != nil {
			continue
		}

		course, teacher, location := splitTexts(li.Texts)

		lesson := domain.Lesson{
			ID:       lessonID(li.GUIDID),
			Course:   course,
			Teacher:  teacher,
			Location: location,
			Start:    start,
			End:      end,
		}

		if hexColor, ok := colors[li.GUIDID]; ok {
			if rgba, ok := parseHexColor(hexColor); ok {
				lesson.Color = &rgba
			}
		}

		out = append(out, lesson)
	}

	return out
}

func parseHexColor(s string) (domain.RGBA, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return domain.RGBA{}, false
	}

	var v [3]uint64

	for i := range v {
		n, err := parseHexByte(s[i*2 : i*2+2])
		if err != nil {
			return domain.RGBA{}, false
		}

		v[i] = n
	}

	return domain.RGBA{R: uint8(v[0]), G: uint8(v[1]), B: uint8(v[2]), A: 0xFF}, true
}

func parseHexByte(s string) (uint64, error) {
	var n uint64

	for _, c := range s {
		n <<= 4

		switch {
		case c >= '0' && c <= '9':
			n |= uint64(c - '0')
		case c >= 'a' && c <= 'f':
			n |= uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			n |= uint64(c-'A') + 10
		default:
			return 0, errors.New("invalid hex digit")
		}
	}

	return n, nil
}
