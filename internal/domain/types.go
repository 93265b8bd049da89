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

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lesson is a single scheduled timetable entry, already normalised to UTC.
type Lesson struct {
	ID       uuid.UUID
	Course   string
	Teacher  string
	Location string
	Start    time.Time
	End      time.Time
	Color    *RGBA
}

// RGBA is a render color carried through from the upstream timetable box
// palette. It is informational only; no component branches on it.
type RGBA struct {
	R, G, B, A uint8
}

// SchoolHash is BLAKE3(system_tag || unit_guid_bytes), 32 bytes, uniquely
// identifying a (system, unit) pair across upstream services.
type SchoolHash [32]byte

// Class identifies a timetable-bearing group within a school.
type Class struct {
	School      SchoolHash
	Reference   string
	DisplayName string
}

// Service names the upstream system a set of credentials belongs to.
type Service string

const (
	ServiceSkolplattformen Service = "skolplattformen"
)

// Credentials is a user's stored (sealed) login for one upstream service.
// School and ClassReference are populated once the owner's class has been
// resolved at least once; they let classmate aggregation find a peer's
// credentials by (school, class_reference) without ever exposing the
// peer's password to the requester.
type Credentials struct {
	UserID         uuid.UUID
	Service        Service
	Username       string
	SealedPassword []byte
	School         *SchoolHash
	ClassReference *string
	UpdatedAt      time.Time
}

// DateRange is an inclusive-exclusive date window, mirroring Postgres'
// DATERANGE semantics: [Start, End).
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls within the range. A nil bound is
// unbounded on that side.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}

	if r.End != nil && !t.Before(*r.End) {
		return false
	}

	return true
}

// ShareLink grants read access to one owner's timetable, within an
// optional expiry and a bounded date range.
type ShareLink struct {
	ID          [32]byte
	OwnerUserID uuid.UUID
	ExpiresAt   *time.Time
	Range       DateRange
	LastUsed    *time.Time
}

// SelectionKind tags which variant of Selection is populated.
type SelectionKind int

const (
	SelectionCurrentUser SelectionKind = iota
	SelectionClass
	SelectionOtherUser
)

// Selection is the tagged union describing whose timetable a request wants:
// the caller's own, a named class's, or another user's via a share link.
type Selection struct {
	Kind      SelectionKind
	Reference string // set when Kind == SelectionClass
	ShareID   string // set when Kind == SelectionOtherUser, hex-encoded
}
