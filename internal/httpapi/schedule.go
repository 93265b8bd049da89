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

package httpapi

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brunnsviken/skool-api/internal/aggregate"
	"github.com/brunnsviken/skool-api/internal/domain"
	"github.com/brunnsviken/skool-api/internal/shareengine"
	"github.com/brunnsviken/skool-api/internal/upstream"
)

// resolvedSchedule is everything a week or iCalendar fetch needs once the
// request's Selection has been authorised: a live client and the target
// unit/selection to render.
type resolvedSchedule struct {
	client  *upstream.Client
	target  aggregate.Target
	allowed domain.DateRange
}

// parseSelection rejects contradictory query strings at parse time, per
// the tagged-union design: at most one of class/share may be set.
func parseSelection(c *gin.Context) (domain.Selection, error) {
	class := c.Query("class")
	share := c.Query("share")

	switch {
	case class != "" && share != "":
		return domain.Selection{}, domain.BadRequest("class and share are mutually exclusive")
	case share != "":
		return domain.Selection{Kind: domain.SelectionOtherUser, ShareID: share}, nil
	case class != "":
		return domain.Selection{Kind: domain.SelectionClass, Reference: class}, nil
	default:
		return domain.Selection{Kind: domain.SelectionCurrentUser}, nil
	}
}

func parseYearWeek(c *gin.Context) (year, week int, err error) {
	year, err = strconv.Atoi(c.Query("year"))
	if err != nil {
		return 0, 0, domain.BadRequest("missing or invalid year")
	}

	week, err = strconv.Atoi(c.Query("week"))
	if err != nil || week < 1 || week > 53 {
		return 0, 0, domain.BadRequest("missing or invalid week")
	}

	return year, week, nil
}

// resolve authorises sel and returns the client/target to fetch lessons
// with, and the range a share link restricts reads to (unbounded for an
// authenticated own-user or class request).
func (s *Server) resolve(c *gin.Context, sel domain.Selection) (resolvedSchedule, error) {
	ctx := c.Request.Context()

	switch sel.Kind {
	case domain.SelectionOtherUser:
		return s.resolveShare(ctx, sel.ShareID)
	case domain.SelectionCurrentUser:
		return s.resolveSelf(c, ctx)
	case domain.SelectionClass:
		return s.resolveClass(c, ctx, sel.Reference)
	default:
		return resolvedSchedule{}, domain.BadRequest("unrecognised selection")
	}
}

func (s *Server) resolveShare(ctx context.Context, shareID string) (resolvedSchedule, error) {
	id, err := shareengine.ParseID(shareID)
	if err != nil {
		return resolvedSchedule{}, err
	}

	res, err := s.shares.Resolve(ctx, id)
	if err != nil {
		return resolvedSchedule{}, err
	}

	client, err := upstream.FromSession(res.Session)
	if err != nil {
		return resolvedSchedule{}, domain.Internal(err)
	}

	timetables, err := client.ListTimetables(ctx)
	if err != nil {
		return resolvedSchedule{}, err
	}

	if len(timetables) == 0 {
		return resolvedSchedule{}, domain.TimetableNotFound()
	}

	tt := timetables[0]

	return resolvedSchedule{
		client: client,
		target: aggregate.Target{
			HostName:  upstream.FnsHost,
			UnitGUID:  tt.UnitGUID,
			Selection: upstream.WeekSelection{GUID: tt.PersonGUID, IsClass: false},
		},
		allowed: res.Range,
	}, nil
}

func (s *Server) resolveSelf(c *gin.Context, ctx context.Context) (resolvedSchedule, error) {
	uid := userID(c)

	sess, err := s.resolver.Resolve(ctx, uid)
	if err != nil {
		return resolvedSchedule{}, err
	}

	client, err := upstream.FromSession(sess)
	if err != nil {
		return resolvedSchedule{}, domain.Internal(err)
	}

	timetables, err := client.ListTimetables(ctx)
	if err != nil {
		return resolvedSchedule{}, err
	}

	if len(timetables) == 0 {
		return resolvedSchedule{}, domain.TimetableNotFound()
	}

	tt := timetables[0]

	return resolvedSchedule{
		client: client,
		target: aggregate.Target{
			HostName:  upstream.FnsHost,
			UnitGUID:  tt.UnitGUID,
			Selection: upstream.WeekSelection{GUID: tt.PersonGUID, IsClass: false},
		},
	}, nil
}

// resolveClass implements classmate selection: resolve the caller's own
// school hash from the unit of their first timetable, then find whichever
// other user has registered under that (school, reference) pair and run
// the fetch under that owner's session. The reference is taken from the
// request as given; it is not checked against the caller's own available
// filters. The caller never sees the peer's credentials.
func (s *Server) resolveClass(c *gin.Context, ctx context.Context, reference string) (resolvedSchedule, error) {
	uid := userID(c)

	sess, err := s.resolver.Resolve(ctx, uid)
	if err != nil {
		return resolvedSchedule{}, err
	}

	selfClient, err := upstream.FromSession(sess)
	if err != nil {
		return resolvedSchedule{}, domain.Internal(err)
	}

	timetables, err := selfClient.ListTimetables(ctx)
	if err != nil {
		return resolvedSchedule{}, err
	}

	if len(timetables) == 0 {
		return resolvedSchedule{}, domain.TimetableNotFound()
	}

	school := upstream.SchoolHash(upstream.SystemSkolplattformen, timetables[0].UnitGUID)

	peerCreds, err := s.aggregator.ResolveClassmateCredentials(ctx, school, reference, uid)
	if err != nil {
		return resolvedSchedule{}, err
	}

	peerSess, err := s.resolver.Resolve(ctx, peerCreds.UserID)
	if err != nil {
		return resolvedSchedule{}, err
	}

	peerClient, err := upstream.FromSession(peerSess)
	if err != nil {
		return resolvedSchedule{}, domain.Internal(err)
	}

	peerTimetables, err := peerClient.ListTimetables(ctx)
	if err != nil {
		return resolvedSchedule{}, err
	}

	if len(peerTimetables) == 0 {
		return resolvedSchedule{}, domain.TimetableNotFound()
	}

	tt := peerTimetables[0]

	return resolvedSchedule{
		client: peerClient,
		target: aggregate.Target{
			HostName:  upstream.FnsHost,
			UnitGUID:  tt.UnitGUID,
			Selection: upstream.WeekSelection{GUID: tt.PersonGUID, IsClass: false},
		},
	}, nil
}

func (s *Server) handleSchedule(c *gin.Context) {
	sel, err := parseSelection(c)
	if err != nil {
		writeError(c, err)

		return
	}

	if sel.Kind != domain.SelectionOtherUser {
		requireUser()(c)
		if c.IsAborted() {
			return
		}
	}

	year, week, err := parseYearWeek(c)
	if err != nil {
		writeError(c, err)

		return
	}

	rs, err := s.resolve(c, sel)
	if err != nil {
		writeError(c, err)

		return
	}

	if sel.Kind == domain.SelectionOtherUser {
		if err := shareengine.EnforceWeek(s.stockholm, rs.allowed, year, week); err != nil {
			writeError(c, err)

			return
		}
	}

	lessons, err := s.aggregator.FetchWeek(c.Request.Context(), rs.client, rs.target, year, week)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(200, lessons)
}

func (s *Server) handleScheduleICal(c *gin.Context) {
	shareID := c.Query("share")
	if shareID == "" {
		writeError(c, domain.InvalidShareLink())

		return
	}

	sel := domain.Selection{Kind: domain.SelectionOtherUser, ShareID: shareID}

	rs, err := s.resolve(c, sel)
	if err != nil {
		writeError(c, err)

		return
	}

	weeks := shareengine.EnumerateICalWeeks(s.stockholm, rs.allowed, timeNow())

	lessons, err := s.aggregator.FetchWeeks(c.Request.Context(), rs.client, rs.target, weeks)
	if err != nil {
		writeError(c, err)

		return
	}

	body, err := aggregate.EncodeICalendar(lessons)
	if err != nil {
		writeError(c, domain.Internal(err))

		return
	}

	c.Data(200, "text/calendar", body)
}

func (s *Server) handleListTimetables(c *gin.Context) {
	uid := userID(c)

	sess, err := s.resolver.Resolve(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)

		return
	}

	client, err := upstream.FromSession(sess)
	if err != nil {
		writeError(c, domain.Internal(err))

		return
	}

	timetables, err := client.ListTimetables(c.Request.Context())
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(200, timetables)
}

func (s *Server) handleGetTimetable(c *gin.Context) {
	id := c.Param("id")

	uid := userID(c)

	sess, err := s.resolver.Resolve(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)

		return
	}

	client, err := upstream.FromSession(sess)
	if err != nil {
		writeError(c, domain.Internal(err))

		return
	}

	timetables, err := client.ListTimetables(c.Request.Context())
	if err != nil {
		writeError(c, err)

		return
	}

	for _, tt := range timetables {
		if tt.TimetableID == id {
			c.JSON(200, tt)

			return
		}
	}

	writeError(c, domain.TimetableNotFound())
}
