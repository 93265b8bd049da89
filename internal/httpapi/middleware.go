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
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brunnsviken/skool-api/internal/domain"
	"github.com/brunnsviken/skool-api/logger"
)

// userIDHeader carries the caller's identity, established upstream of this
// service by whatever authenticates the request (session cookie exchange,
// reverse proxy, etc.) — this service trusts it as-is.
const userIDHeader = "X-User-ID"

const ctxUserIDKey = "userID"

// requireUser rejects requests without a valid X-User-ID header.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(userIDHeader)

		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(c, domain.MissingCredentials())
			c.Abort()

			return
		}

		c.Set(ctxUserIDKey, id)
		c.Next()
	}
}

func userID(c *gin.Context) uuid.UUID {
	return c.MustGet(ctxUserIDKey).(uuid.UUID) //nolint:forcetypeassert
}

// writeError maps a domain error to its HTTP status, logging the ones
// marked server-side-only before responding with a generic body.
func writeError(c *gin.Context, err error) {
	de := domain.AsError(err)

	if de.LoggedServerSide() {
		logger.Error().Err(de.Unwrap()).Str("reason", de.Reason).Str("details", de.Details).Msg("request failed")
	}

	body := gin.H{"error": de.Reason}
	if !de.LoggedServerSide() && de.Details != "" {
		body["details"] = de.Details
	}

	c.JSON(de.Code.Status(), body)
}
