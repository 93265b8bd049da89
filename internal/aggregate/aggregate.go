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

// Package aggregate fetches one or more ISO weeks of lessons from upstream
// and flattens them into a single list, bounding fan-out for multi-week
// (iCalendar) requests.
package aggregate

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brunnsviken/skool-api/internal/domain"
	"github.com/brunnsviken/skool-api/internal/shareengine"
	"github.com/brunnsviken/skool-api/internal/store"
	"github.com/brunnsviken/skool-api/internal/upstream"
)

// MaxConcurrentWeeks bounds how many week RPCs may be outstanding at once
// during a multi-week fetch.
const MaxConcurrentWeeks = 8

// Aggregator fetches timetable weeks for a resolved upstream session.
type Aggregator struct {
	store *store.Store
}

// New builds an Aggregator over the given store, used for classmate lookup.
func New(st *store.Store) *Aggregator {
	return &Aggregator{store: st}
}

// Target names the unit and selection a week fetch runs against.
type Target struct {
	HostName  string
	UnitGUID  string
	Selection upstream.WeekSelection
}

// FetchWeek fetches and materialises a single ISO week.
func (a *Aggregator) FetchWeek(ctx context.Context, client *upstream.Client, target Target, isoYear, isoWeek int) ([]domain.Lesson, error) {
	resp, err := client.LessonsByWeek(ctx, target.HostName, target.UnitGUID, target.Selection, isoYear, isoWeek)
	if err != nil {
		return nil, err
	}

	return upstream.MaterialiseLessons(isoYear, isoWeek, resp), nil
}

// FetchWeeks fetches every week in weeks concurrently, bounded by
// MaxConcurrentWeeks outstanding requests. Any single RPC error aborts the
// whole aggregation: partial results are discarded, matching the
// all-or-nothing contract multi-week callers (iCalendar export) require.
func (a *Aggregator) FetchWeeks(ctx context.Context, client *upstream.Client, target Target, weeks []shareengine.WeekRef) ([]domain.Lesson, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentWeeks)

	lessonsByWeek := make([][]domain.Lesson, len(weeks))

	for i, w := range weeks {
		i, w := i, w

		g.Go(func() error {
			lessons, err := a.FetchWeek(gctx, client, target, w.Year, w.Week)
			if err != nil {
				return err
			}

			lessonsByWeek[i] = lessons

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Lesson
	for _, wk := range lessonsByWeek {
		out = append(out, wk...)
	}

	return out, nil
}

// ResolveClassmateCredentials finds the stored credentials of whichever
// user has registered against (school, reference), excluding caller.
// Classmate aggregation then logs in under that owner's credentials; the
// caller never observes them directly.
func (a *Aggregator) ResolveClassmateCredentials(ctx context.Context, school domain.SchoolHash, reference string, caller uuid.UUID) (domain.Credentials, error) {
	creds, err := a.store.FindClassmateCredentials(ctx, school, reference, caller)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Credentials{}, domain.NotFound("class not found")
		}

		return domain.Credentials{}, domain.Internal(err)
	}

	return creds, nil
}
