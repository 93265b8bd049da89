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
	"testing"
	"time"
)

func TestMaterialiseLessonsMapping(t *testing.T) {
	t.Parallel()

	resp := renderTimetableResponse{
		LessonInfo: []lessonInfo{
			{
				GUIDID:          "L1",
				Texts:           []string{"Math", "Mr A", "R12"},
				TimeStart:       "08:00",
				TimeEnd:         "08:45",
				DayOfWeekNumber: 1,
			},
		},
		BoxList: []renderBox{
			{BColor: "#abcdef", LessonGUIDs: []string{"L1"}},
		},
	}

	lessons := materialiseLessons(2024, 10, resp)
	if len(lessons) != 1 {
		t.Fatalf("len(lessons) = %d, want 1", len(lessons))
	}

	l := lessons[0]
	if l.Course != "Math" || l.Teacher != "Mr A" || l.Location != "R12" {
		t.Errorf("got course=%q teacher=%q location=%q", l.Course, l.Teacher, l.Location)
	}

	wantStart := time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 4, 7, 45, 0, 0, time.UTC)

	if !l.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", l.Start, wantStart)
	}

	if !l.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", l.End, wantEnd)
	}

	if l.Color == nil || l.Color.R != 0xab || l.Color.G != 0xcd || l.Color.B != 0xef {
		t.Errorf("Color = %+v, want R=ab G=cd B=ef", l.Color)
	}

	wantID := lessonID("L1")
	if l.ID != wantID {
		t.Errorf("ID = %v, want %v", l.ID, wantID)
	}
}

func TestSplitTextsTwoElements(t *testing.T) {
	t.Parallel()

	course, teacher, location := splitTexts([]string{"Math", "R12"})
	if course != "Math" || teacher != "" || location != "R12" {
		t.Errorf("got course=%q teacher=%q location=%q", course, teacher, location)
	}
}

func TestSplitTextsThreeElements(t *testing.T) {
	t.Parallel()

	course, teacher, location := splitTexts([]string{"Math", "Mr A", "R12"})
	if course != "Math" || teacher != "Mr A" || location != "R12" {
		t.Errorf("got course=%q teacher=%q location=%q", course, teacher, location)
	}
}

func TestSplitTextsSkipsEmpties(t *testing.T) {
	t.Parallel()

	course, teacher, location := splitTexts([]string{"", "Math", "", "R12", ""})
	if course != "Math" || teacher != "" || location != "R12" {
		t.Errorf("got course=%q teacher=%q location=%q", course, teacher, location)
	}
}

func TestLessonIDStability(t *testing.T) {
	t.Parallel()

	a := lessonID("same-guid")
	b := lessonID("same-guid")

	if a != b {
		t.Errorf("lessonID not stable: %v != %v", a, b)
	}
}

func TestSchoolHashStability(t *testing.T) {
	t.Parallel()

	a := SchoolHash(SystemSkolplattformen, "unit-1")
	b := SchoolHash(SystemSkolplattformen, "unit-1")
	c := SchoolHash(SystemSkolplattformen, "unit-2")

	if a != b {
		t.Error("SchoolHash not deterministic for identical inputs")
	}

	if a == c {
		t.Error("SchoolHash collided for distinct inputs")
	}
}

func TestLocalToUTCStrictRejectsSpringForwardGap(t *testing.T) {
	t.Parallel()

	// 2024-03-31 is the Stockholm spring-forward date; 02:30 never occurs.
	date := time.Date(2024, 3, 31, 0, 0, 0, 0, stockholm)

	if _, err := localToUTCStrict(date, 2, 30, 0); err == nil {
		t.Error("want error for non-existent local time, got nil")
	}
}

func TestLocalToUTCStrictRejectsFallBackFold(t *testing.T) {
	t.Parallel()

	// 2024-10-27 is the Stockholm fall-back date; 02:30 occurs twice.
	date := time.Date(2024, 10, 27, 0, 0, 0, 0, stockholm)

	if _, err := localToUTCStrict(date, 2, 30, 0); err == nil {
		t.Error("want error for ambiguous local time, got nil")
	}
}

func TestLocalToUTCStrictRoundTrip(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 6, 10, 0, 0, 0, 0, stockholm)

	got, err := localToUTCStrict(date, 14, 30, 0)
	if err != nil {
		t.Fatalf("localToUTCStrict() error = %v", err)
	}

	back := got.In(stockholm)
	if back.Hour() != 14 || back.Minute() != 30 {
		t.Errorf("round trip = %02d:%02d, want 14:30", back.Hour(), back.Minute())
	}
}
