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
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brunnsviken/skool-api/internal/domain"
	"github.com/brunnsviken/skool-api/internal/store"
	"github.com/brunnsviken/skool-api/internal/upstream"
	"github.com/brunnsviken/skool-api/logger"
)

// handleListClasses re-derives the caller's own (school, class) from a live
// session on every call and upserts it before listing, so a class
// discovery that degraded to null at credential-save time self-heals on
// the next successful list instead of staying null for the credential
// row's lifetime.
func (s *Server) handleListClasses(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	creds, err := s.store.GetCredentials(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(c, domain.MissingCredentials())

			return
		}

		writeError(c, domain.Internal(err))

		return
	}

	school := creds.School

	if class := s.rederiveClass(ctx, uid); class != nil {
		school = &class.School
	}

	if school == nil {
		c.JSON(200, []domain.Class{})

		return
	}

	classes, err := s.store.ListClasses(ctx, *school)
	if err != nil {
		writeError(c, domain.Internal(err))

		return
	}

	c.JSON(200, classes)
}

// rederiveClass resolves the caller's session, asks it for its current
// (school, class), and upserts the result. Any failure along the way is
// logged and treated as "no update this time" — the caller falls back to
// whatever class was already on file.
func (s *Server) rederiveClass(ctx context.Context, uid uuid.UUID) *domain.Class {
	sess, err := s.resolver.Resolve(ctx, uid)
	if err != nil {
		logger.Warn().Err(err).Msg("class re-derivation: session resolve failed")

		return nil
	}

	client, err := upstream.FromSession(sess)
	if err != nil {
		logger.Warn().Err(err).Msg("class re-derivation: rebuilding client failed")

		return nil
	}

	class := classFromClient(ctx, client)
	if class == nil {
		return nil
	}

	if err := s.store.UpdateCredentialsClass(ctx, uid, class); err != nil {
		logger.Warn().Err(err).Msg("class re-derivation: persisting class failed")
	}

	return class
}
