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

// Package shareengine creates, resolves and enforces share links: bearer
// tokens that grant read-only access to one owner's timetable within a
// bounded date range.
package shareengine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brunnsviken/skool-api/internal/domain"
	"github.com/brunnsviken/skool-api/internal/sessionresolver"
	"github.com/brunnsviken/skool-api/internal/store"
	"github.com/brunnsviken/skool-api/internal/upstream"
	"github.com/brunnsviken/skool-api/logger"
)

const linkIDSize = 32

// Options describes a caller's request to mint a new share link.
type Options struct {
	ExpiresAt *time.Time
	Range     domain.DateRange
}

// Engine creates and resolves share links against the store, delegating
// session resolution to a sessionresolver.Resolver.
type Engine struct {
	store    *store.Store
	resolver *sessionresolver.Resolver
}

// New builds an Engine over the given store and session resolver.
func New(st *store.Store, resolver *sessionresolver.Resolver) *Engine {
	return &Engine{store: st, resolver: resolver}
}

// Create mints a fresh bearer id for ownerID and persists the link.
func (e *Engine) Create(ctx context.Context, ownerID uuid.UUID, opts Options) (domain.ShareLink, error) {
	var id [linkIDSize]byte
	if _, err := rand.Read(id[:]); err != nil {
		return domain.ShareLink{}, domain.Internal(fmt.Errorf("drawing share link id: %w", err))
	}

	link := domain.ShareLink{
		ID:          id,
		OwnerUserID: ownerID,
		ExpiresAt:   opts.ExpiresAt,
		Range:       opts.Range,
	}

	if err := e.store.InsertLink(ctx, link); err != nil {
		return domain.ShareLink{}, domain.Internal(err)
	}

	return link, nil
}

// List returns every link ownerID has created.
func (e *Engine) List(ctx context.Context, ownerID uuid.UUID) ([]domain.ShareLink, error) {
	links, err := e.store.ListLinks(ctx, ownerID)
	if err != nil {
		return nil, domain.Internal(err)
	}

	return links, nil
}

// Revoke deletes a link owned by ownerID.
func (e *Engine) Revoke(ctx context.Context, id [linkIDSize]byte, ownerID uuid.UUID) error {
	if err := e.store.DeleteLink(ctx, id, ownerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.NotFound("share link not found")
		}

		return domain.Internal(err)
	}

	return nil
}

// ParseID hex-decodes a share id from a query string, rejecting anything
// that isn't exactly linkIDSize bytes.
func ParseID(raw string) ([linkIDSize]byte, error) {
	var id [linkIDSize]byte

	decoded, err := hex.DecodeString(raw)
	if err != nil || len(decoded) != linkIDSize {
		return id, domain.InvalidShareLink()
	}

	copy(id[:], decoded)

	return id, nil
}

// Resolved is the outcome of resolving a share id: the owner's session,
// plus the date range within which the link permits reads.
type Resolved struct {
	Session upstream.Session
	Range   domain.DateRange
}

// Resolve fetches the link, checks expiry, and resolves the owner's
// session, bumping last_used best-effort on success.
func (e *Engine) Resolve(ctx context.Context, id [linkIDSize]byte) (Resolved, error) {
	link, err := e.store.GetLink(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Resolved{}, domain.InvalidShareLink()
		}

		return Resolved{}, domain.Internal(err)
	}

	if link.ExpiresAt != nil && !link.ExpiresAt.After(timeNow()) {
		return Resolved{}, domain.InvalidShareLink()
	}

	sess, err := e.resolver.Resolve(ctx, link.OwnerUserID)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Code == domain.CodeMissingCredentials {
			return Resolved{}, domain.InvalidShareLink()
		}

		return Resolved{}, err
	}

	if err := e.store.TouchLink(ctx, id); err != nil {
		logger.Warn().Err(err).Msg("share link last_used touch failed")
	}

	return Resolved{Session: sess, Range: link.Range}, nil
}

// EnforceWeek checks that both the Monday and Sunday of the given ISO week
// fall within allowed.
func EnforceWeek(loc *time.Location, allowed domain.DateRange, isoYear, isoWeek int) error {
	monday := isoWeekStart(loc, isoYear, isoWeek)
	sunday := monday.AddDate(0, 0, 6)

	if !allowed.Contains(monday) || !allowed.Contains(sunday) {
		return domain.InvalidShareLink()
	}

	return nil
}

const maxICalWeeks = 28

// EnumerateICalWeeks lists the (isoYear, isoWeek) pairs to include in an
// iCalendar export: starting 4 weeks before today, stopping as soon as a
// week falls outside allowed, capped at maxICalWeeks entries.
func EnumerateICalWeeks(loc *time.Location, allowed domain.DateRange, today time.Time) []WeekRef {
	const lookback = 4 * 7

	cursor := today.In(loc).AddDate(0, 0, -lookback)

	var out []WeekRef

	for len(out) < maxICalWeeks {
		year, week := cursor.ISOWeek()
		monday := isoWeekStart(loc, year, week)
		sunday := monday.AddDate(0, 0, 6)

		if !allowed.Contains(monday) || !allowed.Contains(sunday) {
			break
		}

		out = append(out, WeekRef{Year: year, Week: week})
		cursor = cursor.AddDate(0, 0, 7)
	}

	return out
}

// WeekRef names one ISO (year, week) pair.
type WeekRef struct {
	Year int
	Week int
}

// isoWeekStart computes the Monday of the given ISO (year, week) in loc,
// using the Jan-4 anchor rule: Jan 4 always falls in ISO week 1.
func isoWeekStart(loc *time.Location, isoYear, isoWeek int) time.Time {
	jan4 := time.Date(isoYear, time.January, 4, 0, 0, 0, 0, loc)

	jan4Weekday := int(jan4.Weekday())
	if jan4Weekday == 0 {
		jan4Weekday = 7
	}

	week1Monday := jan4.AddDate(0, 0, -(jan4Weekday - 1))

	return week1Monday.AddDate(0, 0, (isoWeek-1)*7)
}

// timeNow is indirected so expiry checks are deterministically testable.
var timeNow = time.Now
