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

// Package httpapi is the gin-based HTTP surface: credentials, classes,
// schedule reads and share-link management.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brunnsviken/skool-api/internal/aggregate"
	"github.com/brunnsviken/skool-api/internal/cryptutil"
	"github.com/brunnsviken/skool-api/internal/sessionresolver"
	"github.com/brunnsviken/skool-api/internal/shareengine"
	"github.com/brunnsviken/skool-api/internal/store"
	"github.com/brunnsviken/skool-api/logger"
	"github.com/brunnsviken/skool-api/version"
)

// Server bundles every component a handler needs.
type Server struct {
	store      *store.Store
	resolver   *sessionresolver.Resolver
	shares     *shareengine.Engine
	aggregator *aggregate.Aggregator
	sealer     *cryptutil.Sealer
	stockholm  *time.Location
}

// New builds a Server from its component dependencies.
func New(
	st *store.Store,
	resolver *sessionresolver.Resolver,
	shares *shareengine.Engine,
	aggregator *aggregate.Aggregator,
	sealer *cryptutil.Sealer,
	stockholm *time.Location,
) *Server {
	return &Server{
		store:      st,
		resolver:   resolver,
		shares:     shares,
		aggregator: aggregator,
		sealer:     sealer,
		stockholm:  stockholm,
	}
}

// Router builds the gin.Engine serving every route this server exposes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())

	r.GET("/health", s.handleHealth)

	authed := r.Group("/", requireUser())
	authed.PUT("/credentials", s.handlePutCredentials)
	authed.GET("/credentials", s.handleGetCredentials)
	authed.DELETE("/credentials", s.handleDeleteCredentials)
	authed.GET("/classes", s.handleListClasses)
	authed.GET("/schedule/links", s.handleListLinks)
	authed.POST("/schedule/links", s.handleCreateLink)
	authed.DELETE("/schedule/links/:id", s.handleDeleteLink)

	// /schedule accepts either an authenticated user or a share id; it
	// performs its own auth branching rather than the requireUser gate.
	r.GET("/schedule", s.handleSchedule)
	r.GET("/schedule/ical", s.handleScheduleICal)

	r.GET("/schedule/timetables", requireUser(), s.handleListTimetables)
	r.GET("/schedule/timetables/:id", requireUser(), s.handleGetTimetable)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{"version": version.ReadVersion("github.com/brunnsviken/skool-api")})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := timeNow()

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", timeNow().Sub(start)).
			Msg("request")
	}
}

var timeNow = time.Now
