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

package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/avast/retry-go/v4"

	"github.com/brunnsviken/skool-api/internal/domain"
)

const rpcRetries = 2

var errValidationFailed = errors.New("upstream rpc validation errors")

// rpcCall is a transparent-retry-on-transport-error POST to an upstream
// JSON endpoint, unwrapping the {data, validation} envelope. Retries are
// permitted at this layer only — never around the login leg sequence.
func rpcCall[T any](ctx context.Context, c *Client, url string, body any) (T, error) {
	var out responseWrapper[T]

	err := retry.Do(
		func() error {
			raw, err := json.Marshal(body)
			if err != nil {
				return retry.Unrecoverable(domain.Internal(err))
			}

			resp, err := c.doRequest(ctx, http.MethodPost, url, raw, "application/json")
			if err != nil {
				var de *domain.Error
				if errors.As(err, &de) && de.Code == domain.CodeUpstreamHTTP {
					return err // transport error: eligible for retry
				}

				return retry.Unrecoverable(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(domain.Http(fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)))
			}

			payload, err := io.ReadAll(resp.Body)
			if err != nil {
				return err // transport-ish read failure: eligible for retry
			}

			if err := json.Unmarshal(payload, &out); err != nil {
				return retry.Unrecoverable(domain.ScrapingFailed("malformed rpc response", err))
			}

			if len(out.Validation) > 0 {
				return retry.Unrecoverable(domain.ScrapingFailed(
					fmt.Sprintf("upstream validation errors: %v", out.Validation), errValidationFailed))
			}

			return nil
		},
		retry.Attempts(rpcRetries),
		retry.Context(ctx),
	)
	if err != nil {
		var zero T

		return zero, err
	}

	return out.Data, nil
}

// ListTimetables returns every timetable binding available to this
// session's user. An absent studentTimetables field yields an empty list,
// not an error.
func (c *Client) ListTimetables(ctx context.Context) ([]Timetable, error) {
	req := map[string]any{
		"getPersonalTimetablesRequest": map[string]any{
			"hostName": FnsHost,
		},
	}

	out, err := rpcCall[listTimetablesResponse](ctx, c, listTimetablesURL, req)
	if err != nil {
		return nil, err
	}

	return out.GetPersonalTimetablesResponse.StudentTimetables, nil
}

// AvailableFilters returns the classes and students selectable within unitGUID.
func (c *Client) AvailableFilters(ctx context.Context, hostName, unitGUID string) (AvailableFilters, error) {
	req := map[string]any{
		"hostName": hostName,
		"unitGuid": unitGUID,
	}

	return rpcCall[AvailableFilters](ctx, c, availableFiltersURL, req)
}

// renderKey requests a fresh one-shot render key; request-scoped, must be
// re-obtained for every LessonsByWeek call.
func (c *Client) renderKey(ctx context.Context) (string, error) {
	out, err := rpcCall[renderKeyResponse](ctx, c, renderKeyURL, "")
	if err != nil {
		return "", err
	}

	return out.Key, nil
}

// WeekSelection flattens a domain.Selection into the selection/selectionType
// pair the render RPC expects: 0 for a class group, 5 for a single student.
type WeekSelection struct {
	GUID     string
	IsClass  bool
}

// LessonsByWeek fetches one ISO week of lessons for unitGUID under the
// given selection, re-fetching a render key for this single call.
func (c *Client) LessonsByWeek(ctx context.Context, hostName, unitGUID string, sel WeekSelection, isoYear, isoWeek int) (renderTimetableResponse, error) {
	key, err := c.renderKey(ctx)
	if err != nil {
		return renderTimetableResponse{}, err
	}

	selectionType := selectionTypeStudent
	if sel.IsClass {
		selectionType = selectionTypeClass
	}

	req := map[string]any{
		"renderKey":     key,
		"host":          hostName,
		"unitGuid":      unitGUID,
		"width":         renderWidth,
		"height":        renderHeight,
		"selectionType": selectionType,
		"selection":     sel.GUID,
		"week":          isoWeek,
		"year":          isoYear,
	}

	return rpcCall[renderTimetableResponse](ctx, c, renderTimetableURL, req)
}
