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
	"encoding/hex"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brunnsviken/skool-api/internal/domain"
	"github.com/brunnsviken/skool-api/internal/store"
	"github.com/brunnsviken/skool-api/internal/upstream"
	"github.com/brunnsviken/skool-api/logger"
)

// PublicCredentials is what a caller may see of their own stored
// credentials: everything except the sealed password. A failed class
// discovery degrades School and ClassReference to null rather than
// failing the request.
type PublicCredentials struct {
	Service        string    `json:"service"`
	Username       string    `json:"username"`
	School         *string   `json:"school,omitempty"`
	ClassReference *string   `json:"classReference,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// publicCredentialsFrom projects a stored domain.Credentials into its
// public response shape, hex-encoding School and stripping the sealed
// password entirely.
func publicCredentialsFrom(creds domain.Credentials) PublicCredentials {
	return PublicCredentials{
		Service:        string(creds.Service),
		Username:       creds.Username,
		School:         encodeSchool(creds.School),
		ClassReference: creds.ClassReference,
		UpdatedAt:      creds.UpdatedAt,
	}
}

func encodeSchool(school *domain.SchoolHash) *string {
	if school == nil {
		return nil
	}

	s := hex.EncodeToString(school[:])

	return &s
}

type putCredentialsRequest struct {
	Service  string `json:"service" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handlePutCredentials(c *gin.Context) {
	var req putCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.BadRequest("malformed credentials payload"))

		return
	}

	if req.Service != string(domain.ServiceSkolplattformen) {
		writeError(c, domain.BadRequest("unsupported service"))

		return
	}

	uid := userID(c)

	sealedPassword, err := s.sealer.SealPassword(req.Password)
	if err != nil {
		writeError(c, domain.Internal(err))

		return
	}

	creds := domain.Credentials{
		UserID:         uid,
		Service:        domain.Service(req.Service),
		Username:       req.Username,
		SealedPassword: sealedPassword,
	}

	class := s.discoverClass(c, req.Username, req.Password)

	if err := s.store.UpsertCredentials(c.Request.Context(), creds, class); err != nil {
		writeError(c, domain.Internal(err))

		return
	}

	if err := s.resolver.Purge(c.Request.Context(), uid); err != nil {
		logger.Warn().Err(err).Msg("session cache purge after credential update failed")
	}

	stored, err := s.store.GetCredentials(c.Request.Context(), uid)
	if err != nil {
		writeError(c, domain.Internal(err))

		return
	}

	c.JSON(201, publicCredentialsFrom(stored))
}

// discoverClass logs in with the freshly submitted credentials once to
// resolve the owner's (school, class) pair, so classmate aggregation can
// later find this row. A failure here is logged and degrades to a nil
// class; the credential save itself still succeeds.
func (s *Server) discoverClass(c *gin.Context, username, password string) *domain.Class {
	ctx := c.Request.Context()

	client, err := upstream.NewClient(username, password)
	if err != nil {
		logger.Warn().Err(err).Msg("class discovery: building client failed")

		return nil
	}

	if _, err := client.Login(ctx); err != nil {
		logger.Warn().Err(err).Msg("class discovery: login failed")

		return nil
	}

	return classFromClient(ctx, client)
}

// classFromClient resolves the (school, class) pair visible to an already
// authenticated client: its single timetable, then the one class its
// available filters resolve to. A failure here is logged and degrades to
// a nil class rather than failing the caller's request.
func classFromClient(ctx context.Context, client *upstream.Client) *domain.Class {
	timetables, err := client.ListTimetables(ctx)
	if err != nil || len(timetables) == 0 {
		logger.Warn().Err(err).Msg("class discovery: list timetables failed")

		return nil
	}

	tt := timetables[0]

	filters, err := client.AvailableFilters(ctx, upstream.FnsHost, tt.UnitGUID)
	if err != nil || len(filters.Classes) != 1 {
		logger.Warn().Err(err).Msg("class discovery: available filters did not resolve a single class")

		return nil
	}

	school := upstream.SchoolHash(upstream.SystemSkolplattformen, tt.UnitGUID)

	return &domain.Class{
		School:      school,
		Reference:   filters.Classes[0].GroupGUID,
		DisplayName: filters.Classes[0].GroupName,
	}
}

func (s *Server) handleGetCredentials(c *gin.Context) {
	creds, err := s.store.GetCredentials(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(c, domain.NotFound("no credentials set"))

			return
		}

		writeError(c, domain.Internal(err))

		return
	}

	c.JSON(200, publicCredentialsFrom(creds))
}

func (s *Server) handleDeleteCredentials(c *gin.Context) {
	uid := userID(c)
	ctx := c.Request.Context()

	if err := s.store.DeleteCredentials(ctx, uid); err != nil {
		writeError(c, domain.Internal(err))

		return
	}

	if err := s.resolver.Purge(ctx, uid); err != nil {
		logger.Warn().Err(err).Msg("session cache purge on logout failed")
	}

	c.Status(204)
}
