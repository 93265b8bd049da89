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

package aggregate

import (
	"bytes"

	"github.com/jordic/goics"

	"github.com/brunnsviken/skool-api/internal/domain"
)

const icalDateLayout = "20060102T150405Z"

// lessonEvent adapts one domain.Lesson to goics' EmitICal contract, treating
// DTSTART/SUMMARY/DESCRIPTION as the load-bearing fields in the write
// direction.
type lessonEvent struct {
	lesson domain.Lesson
}

func (e lessonEvent) EmitICal() goics.Componenter {
	c := goics.NewComponent()
	c.SetType("VEVENT")

	c.AddProperty("UID", e.lesson.ID.String())
	c.AddProperty("DTSTART", e.lesson.Start.UTC().Format(icalDateLayout))
	c.AddProperty("DTEND", e.lesson.End.UTC().Format(icalDateLayout))

	summary := e.lesson.Course
	if summary == "" {
		summary = "(Namnlös)"
	}

	c.AddProperty("SUMMARY", summary)

	if e.lesson.Location != "" {
		c.AddProperty("LOCATION", e.lesson.Location)
	}

	if e.lesson.Teacher != "" {
		c.AddProperty("DESCRIPTION", e.lesson.Teacher)
	}

	return c
}

// lessonCalendar wraps a flat lesson list as a single VCALENDAR document.
type lessonCalendar struct {
	lessons []domain.Lesson
}

func (cal lessonCalendar) EmitICal() goics.Componenter {
	c := goics.NewComponent()
	c.SetType("VCALENDAR")
	c.AddProperty("VERSION", "2.0")
	c.AddProperty("PRODID", "-//skool-api//timetable//SV")

	for _, lesson := range cal.lessons {
		c.AddComponent(lessonEvent{lesson: lesson}.EmitICal())
	}

	return c
}

// EncodeICalendar renders lessons as a single VCALENDAR document.
func EncodeICalendar(lessons []domain.Lesson) ([]byte, error) {
	var buf bytes.Buffer

	enc := goics.NewICalEncode(&buf)
	if err := enc.Encode(lessonCalendar{lessons: lessons}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
