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

// Package upstream is the adapter for the vendor SAML SSO + Skola24 JSON
// backend: login, RPC calls and materialisation of raw upstream shapes into
// the domain.Lesson model.
package upstream

import (
	"net/http"
	"time"
)

// Upstream endpoints. These are vars, not consts, so tests can point the
// adapter at an httptest server instead of the real vendor hosts.
var (
	ssoBootstrapURL  = "https://fnsservicesso1.stockholm.se/sso-ng/saml-2.0/authenticate?customer=https://login001.stockholm.se"
	samlResponseURL  = "https://fnsservicesso1.stockholm.se/sso-ng/saml-2.0/response"
	loginFccURL      = "https://login001.stockholm.se/siteminderagent/forms/login.fcc"
	saml2SSOURL      = "https://login001.stockholm.se/affwebservices/public/saml2sso"
	timetableViewURL = "https://fns.stockholm.se/ng/portal/start/timetable/timetable-viewer"

	listTimetablesURL   = "https://fns.stockholm.se/ng/api/get/personal/timetables"
	renderKeyURL        = "https://fns.stockholm.se/ng/api/get/timetable/render/key"
	renderTimetableURL  = "https://fns.stockholm.se/ng/api/render/timetable"
	availableFiltersURL = "https://fns.stockholm.se/ng/api/get/timetable/selection/filters"

	loginHostBase = "https://login001.stockholm.se"
)

// FnsHost is the fixed host value the render and filter RPCs expect in
// their request body, independent of which URL the request is actually
// sent to.
const FnsHost = "fns.stockholm.se"

const (
	renderWidth  = 732
	renderHeight = 550

	selectionTypeClass   = 0
	selectionTypeStudent = 5

	userAgentFallback = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:95.0) Gecko/20100101 Firefox/95.0"
)

// Cookie is the subset of RFC 6265 cookie attributes the session snapshot
// persists. It is its own type (rather than http.Cookie) so that it
// round-trips cleanly through MessagePack.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	Secure   bool
	HTTPOnly bool
}

// Session is the authenticated materialisation required to call upstream:
// a cookie jar snapshot plus the scope token harvested from the landing
// page, used as the X-Scope header on every RPC call.
type Session struct {
	Cookies []Cookie
	Scope   string
}

// Timetable is the upstream echo of one student's timetable binding.
type Timetable struct {
	SchoolGUID   string `json:"schoolGuid"`
	UnitGUID     string `json:"unitGuid"`
	SchoolID     string `json:"schoolId"`
	TimetableID  string `json:"timetableId"`
	PersonGUID   string `json:"personGuid"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
}

type responseWrapper[T any] struct {
	Data       T        `json:"data"`
	Validation []string `json:"validation"`
}

type listTimetablesResponse struct {
	GetPersonalTimetablesResponse struct {
		StudentTimetables []Timetable `json:"studentTimetables"`
	} `json:"getPersonalTimetablesResponse"`
}

type renderKeyResponse struct {
	Key string `json:"key"`
}

type filterGroup struct {
	GroupGUID string `json:"groupGuid"`
	GroupName string `json:"groupName"`
}

type filterStudent struct {
	PersonGUID string `json:"personGuid"`
}

// AvailableFilters is the set of classes and students selectable within a
// unit, as returned by the filters RPC.
type AvailableFilters struct {
	Classes  []filterGroup   `json:"classes"`
	Students []filterStudent `json:"students"`
}

type renderBox struct {
	BColor      string   `json:"bColor"`
	LessonGUIDs []string `json:"lessonGuids"`
}

type lessonInfo struct {
	GUIDID          string   `json:"guidId"`
	Texts           []string `json:"texts"`
	TimeStart       string   `json:"timeStart"`
	TimeEnd         string   `json:"timeEnd"`
	DayOfWeekNumber int      `json:"dayOfWeekNumber"`
}

type renderTimetableResponse struct {
	LessonInfo []lessonInfo `json:"lessonInfo"`
	BoxList    []renderBox  `json:"boxList"`
}

// httpDoer is the minimal surface *http.Client satisfies. Client holds a
// concrete *http.Client, not an httpDoer; tests swap Client.httpClient.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
