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
	"encoding/hex"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brunnsviken/skool-api/internal/domain"
	"github.com/brunnsviken/skool-api/internal/shareengine"
)

// linkView is the wire representation of a domain.ShareLink: the id is
// hex-encoded for transport, matching shareengine.ParseID's expectations
// on the read side.
type linkView struct {
	ID        string     `json:"id"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Start     *time.Time `json:"rangeStart,omitempty"`
	End       *time.Time `json:"rangeEnd,omitempty"`
	LastUsed  *time.Time `json:"lastUsed,omitempty"`
}

func toLinkView(link domain.ShareLink) linkView {
	return linkView{
		ID:        hex.EncodeToString(link.ID[:]),
		ExpiresAt: link.ExpiresAt,
		Start:     link.Range.Start,
		End:       link.Range.End,
		LastUsed:  link.LastUsed,
	}
}

type createLinkRequest struct {
	ExpiresAt *time.Time `json:"expiresAt"`
	RangeFrom *time.Time `json:"rangeStart" binding:"required"`
	RangeTo   *time.Time `json:"rangeEnd" binding:"required"`
}

func (s *Server) handleCreateLink(c *gin.Context) {
	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.BadRequest("malformed link options"))

		return
	}

	if req.RangeFrom != nil && req.RangeTo != nil && !req.RangeFrom.Before(*req.RangeTo) {
		writeError(c, domain.BadRequest("range start must precede range end"))

		return
	}

	opts := shareengine.Options{
		ExpiresAt: req.ExpiresAt,
		Range:     domain.DateRange{Start: req.RangeFrom, End: req.RangeTo},
	}

	link, err := s.shares.Create(c.Request.Context(), userID(c), opts)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(201, toLinkView(link))
}

func (s *Server) handleListLinks(c *gin.Context) {
	links, err := s.shares.List(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)

		return
	}

	views := make([]linkView, 0, len(links))
	for _, link := range links {
		views = append(views, toLinkView(link))
	}

	c.JSON(200, views)
}

func (s *Server) handleDeleteLink(c *gin.Context) {
	id, err := shareengine.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, domain.NotFound("share link not found"))

		return
	}

	if err := s.shares.Revoke(c.Request.Context(), id, userID(c)); err != nil {
		writeError(c, err)

		return
	}

	c.Status(204)
}
