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

// Package domain holds the data model and error taxonomy shared across the
// upstream adapter, cache, persistence and HTTP layers.
package domain

import (
	"fmt"
	"net/http"
)

// Code identifies a class of request-facing failure and its HTTP status.
type Code int

const (
	CodeBadCredentials Code = iota
	CodeMissingCredentials
	CodeInvalidShareLink
	CodeTimetableNotFound
	CodeNotFound
	CodeBadRequest
	CodeScrapingFailed
	CodeUpstreamHTTP
	CodeInternal
)

// Status returns the HTTP status code this Code maps to.
func (c Code) Status() int {
	switch c {
	case CodeBadCredentials, CodeBadRequest:
		return http.StatusBadRequest
	case CodeMissingCredentials, CodeInvalidShareLink:
		return http.StatusUnauthorized
	case CodeTimetableNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeScrapingFailed, CodeUpstreamHTTP, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// loggedServerSide reports whether errors of this Code are logged as
// server errors before being turned into a response.
func (c Code) loggedServerSide() bool {
	switch c {
	case CodeScrapingFailed, CodeUpstreamHTTP, CodeInternal:
		return true
	default:
		return false
	}
}

// Error is the request-facing error type: every error that crosses from a
// component into the HTTP layer is, or wraps into, an *Error.
type Error struct {
	Code    Code
	Reason  string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Details)
	}

	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

// LoggedServerSide reports whether this error should be logged at error
// level server-side before conversion to a response.
func (e *Error) LoggedServerSide() bool {
	return e.Code.loggedServerSide()
}

// BadCredentials wraps an upstream login rejection.
func BadCredentials() *Error {
	return &Error{Code: CodeBadCredentials, Reason: "bad credentials"}
}

// MissingCredentials reports that the caller has no stored credentials.
func MissingCredentials() *Error {
	return &Error{Code: CodeMissingCredentials, Reason: "missing credentials"}
}

// InvalidShareLink reports a share id that does not resolve, has expired,
// or falls outside its validity range.
func InvalidShareLink() *Error {
	return &Error{Code: CodeInvalidShareLink, Reason: "invalid share link"}
}

// TimetableNotFound reports that the resolved selection has no timetable.
func TimetableNotFound() *Error {
	return &Error{Code: CodeTimetableNotFound, Reason: "timetable not found"}
}

// NotFound reports a generic missing-resource condition with a reason.
func NotFound(reason string) *Error {
	return &Error{Code: CodeNotFound, Reason: reason}
}

// BadRequest reports a malformed or contradictory request with a reason.
func BadRequest(reason string) *Error {
	return &Error{Code: CodeBadRequest, Reason: reason}
}

// ScrapingFailed reports that upstream HTML no longer matches what the
// adapter expects. Logged server-side only; clients see a generic 500.
func ScrapingFailed(details string, err error) *Error {
	return &Error{Code: CodeScrapingFailed, Reason: "scraping failed", Details: details, Err: err}
}

// Http wraps a transport-level failure talking to upstream.
func Http(err error) *Error { //nolint:revive,stylecheck
	return &Error{Code: CodeUpstreamHTTP, Reason: "upstream transport error", Err: err}
}

// Internal wraps an unexpected internal failure.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Reason: "internal error", Err: err}
}

// AsError unwraps err into a *Error, falling back to Internal(err) when err
// is not already one of our typed errors.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var de *Error
	if ok := asDomainError(err, &de); ok {
		return de
	}

	return Internal(err)
}

func asDomainError(err error, target **Error) bool {
	for err != nil {
		if de, ok := err.(*Error); ok { //nolint:errorlint
			*target = de

			return true
		}

		u, ok := err.(interface{ Unwrap() error }) //nolint:errorlint
		if !ok {
			return false
		}

		err = u.Unwrap()
	}

	return false
}
