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

package shareengine

import (
	"testing"
	"time"

	"github.com/brunnsviken/skool-api/internal/domain"
)

func TestParseIDRoundTrip(t *testing.T) {
	t.Parallel()

	var want [linkIDSize]byte
	for i := range want {
		want[i] = byte(i)
	}

	id, err := ParseID("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	if err != nil {
		t.Fatalf("ParseID() error = %v", err)
	}

	if id != want {
		t.Errorf("ParseID() = %x, want %x", id, want)
	}
}

func TestParseIDRejectsWrongLength(t *testing.T) {
	t.Parallel()

	if _, err := ParseID("abcd"); err == nil {
		t.Error("ParseID() error = nil, want error for short id")
	}
}

func TestIsoWeekStartMatchesGoISOWeek(t *testing.T) {
	t.Parallel()

	loc := time.UTC

	monday := isoWeekStart(loc, 2024, 10)

	gotYear, gotWeek := monday.ISOWeek()
	if gotYear != 2024 || gotWeek != 10 {
		t.Errorf("isoWeekStart(2024, 10) landed in ISOWeek() = (%d, %d)", gotYear, gotWeek)
	}

	if monday.Weekday() != time.Monday {
		t.Errorf("isoWeekStart() weekday = %v, want Monday", monday.Weekday())
	}
}

func TestEnforceWeekRejectsOutsideRange(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	allowed := domain.DateRange{Start: &start, End: &end}

	if err := EnforceWeek(loc, allowed, 2024, 20); err == nil {
		t.Error("EnforceWeek() error = nil, want InvalidShareLink for out-of-range week")
	}
}

func TestEnforceWeekAcceptsWithinRange(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, loc)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, loc)
	allowed := domain.DateRange{Start: &start, End: &end}

	if err := EnforceWeek(loc, allowed, 2024, 10); err != nil {
		t.Errorf("EnforceWeek() error = %v, want nil", err)
	}
}

func TestEnumerateICalWeeksCapped(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)

	weeks := EnumerateICalWeeks(loc, domain.DateRange{}, today)

	if len(weeks) != maxICalWeeks {
		t.Errorf("EnumerateICalWeeks() len = %d, want %d when unbounded", len(weeks), maxICalWeeks)
	}
}

func TestEnumerateICalWeeksStopsAtRangeBoundary(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)

	// Monday 2024-04-29 opens ISO week 18, the week the 4-week lookback
	// lands in; the range ends inside week 23.
	start := today.AddDate(0, 0, -33)
	end := today.AddDate(0, 0, 7)
	allowed := domain.DateRange{Start: &start, End: &end}

	weeks := EnumerateICalWeeks(loc, allowed, today)

	if len(weeks) == 0 || len(weeks) >= maxICalWeeks {
		t.Errorf("EnumerateICalWeeks() len = %d, want a small bounded count", len(weeks))
	}
}
