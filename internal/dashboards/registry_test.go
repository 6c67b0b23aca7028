package dashboards

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/yogadesk/internal/email"
	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/studioapi"
)

type studioRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

// fakeStudio serves canned collections and records every request.
type fakeStudio struct {
	mu          sync.Mutex
	collections map[string]string
	requests    []studioRequest
}

func newFakeStudio(t *testing.T, collections map[string]string) (*fakeStudio, *studioapi.Client) {
	t.Helper()
	fs := &fakeStudio{collections: collections}
	srv := httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(srv.Close)
	client, err := studioapi.New(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("studioapi.New: %v", err)
	}
	return fs, client
}

func (fs *fakeStudio) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fs.mu.Lock()
	fs.requests = append(fs.requests, studioRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: string(body)})
	data, ok := fs.collections[r.URL.Path]
	fs.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && ok:
		_, _ = io.WriteString(w, data)
	case r.Method == http.MethodGet:
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	case r.URL.Path == "/api/upload":
		_, _ = io.WriteString(w, `{"imageUrl":"/uploads/new.png"}`)
	default:
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	}
}

func (fs *fakeStudio) find(method, path string) []studioRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []studioRequest
	for _, req := range fs.requests {
		if req.Method == method && req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

type sentStatusEmail struct {
	Recipient string
	Subject   string
	Body      string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentStatusEmail
}

func (s *recordingSender) Send(_ context.Context, recipient, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentStatusEmail{Recipient: recipient, Subject: subject, Body: body})
	return nil
}

const (
	servicesJSON = `[{"_id":"svc-1","service_name":"Hatha Flow","description":"Gentle flow","what_to_expect":"[\"Breathing\",\"Stretching\"]"}]`
	bookingsJSON = `[
		{"_id":"b-1","client_name":"Asha Rao","client_email":"asha@example.com","client_phone":"9876543210","date":"2026-10-20","time":"07:00","status":"pending","service":"svc-1"},
		{"_id":"b-2","client_name":"Ben Ode","client_email":"ben@example.com","date":"2026-10-18","time":"18:00","status":"approve","service":"svc-missing"}
	]`
	classBookingsJSON = `[{"_id":"c-1","clientDetails":{"name":"Cal Moss","email":"cal@example.com"},"status":"complete","schedule":{"_id":"sch-1","date":"2026-10-21","start_time":"18:00","end_time":"19:00","service":"svc-1"}}]`
	slotsJSON         = `[{"_id":"slot-1","date":"2026-10-20","time":"07:00","timezone":"IST","isAvailable":true}]`
)

var registryNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newTestRegistry(t *testing.T, collections map[string]string, notifier *email.Notifier) (*fakeStudio, http.Handler) {
	t.Helper()
	return newPolicyRegistry(t, collections, notifier, models.PermissivePolicy)
}

func newPolicyRegistry(t *testing.T, collections map[string]string, notifier *email.Notifier, policy models.TransitionPolicy) (*fakeStudio, http.Handler) {
	t.Helper()
	fs, client := newFakeStudio(t, collections)
	reg := New(Deps{
		Client:   client,
		Policy:   policy,
		Notifier: notifier,
		Now:      func() time.Time { return registryNow },
	})
	mux := http.NewServeMux()
	reg.Register(mux)
	return fs, mux
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegistryMountsDashboardsInMenuOrder(t *testing.T) {
	_, client := newFakeStudio(t, nil)
	reg := New(Deps{Client: client})

	want := []string{
		KeyServices, KeyInstructors, KeySchedules, KeyTimeSlots, KeyClassBookings,
		KeyBookings, KeyEvents, KeyRegistrations, KeyPosts, KeyContacts, KeyUsers,
	}
	pages := reg.Pages()
	if len(pages) != len(want) {
		t.Fatalf("pages = %d, want %d", len(pages), len(want))
	}
	for i, key := range want {
		if pages[i].Key() != key {
			t.Fatalf("page %d = %q, want %q", i, pages[i].Key(), key)
		}
	}
	if p, ok := reg.Page(KeyBookings); !ok || p.Path() != "/admin/bookings" {
		t.Fatalf("bookings page = %v %v", p, ok)
	}
	if _, ok := reg.Page("memberships"); ok {
		t.Fatalf("unknown key should not resolve")
	}
}

func TestBookingsNameServicesByID(t *testing.T) {
	_, h := newTestRegistry(t, map[string]string{
		"/api/services": servicesJSON,
		"/api/bookings": bookingsJSON,
	}, nil)

	rec := get(t, h, "/admin/bookings")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Asha Rao", "Ben Ode", "Hatha Flow", "Unknown Service"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in bookings page", want)
		}
	}
}

func TestBookingStatusChangeSendsEmail(t *testing.T) {
	sender := &recordingSender{}
	notifier := email.NewNotifier(sender, "Lotus Studio")
	fs, h := newTestRegistry(t, map[string]string{
		"/api/services": servicesJSON,
		"/api/bookings": bookingsJSON,
	}, notifier)

	if rec := get(t, h, "/admin/bookings"); rec.Code != http.StatusOK {
		t.Fatalf("load status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/bookings/b-1/status", strings.NewReader("status=approve"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	patches := fs.find(http.MethodPatch, "/api/bookings/b-1/status")
	if len(patches) != 1 || !strings.Contains(patches[0].Body, `"approve"`) {
		t.Fatalf("patch requests = %+v", patches)
	}

	notifier.Wait()
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.Recipient != "asha@example.com" {
		t.Fatalf("recipient = %q", got.Recipient)
	}
	if !strings.Contains(got.Body, "Hatha Flow") {
		t.Fatalf("expected service name in email body, got %q", got.Body)
	}
}

func TestTimeSlotBackendFilters(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantZone string
		wantDate string
	}{
		{name: "default sends no timezone", target: "/admin/timeslots"},
		{name: "all sends no timezone", target: "/admin/timeslots?timezone=ALL"},
		{name: "timezone forwarded", target: "/admin/timeslots?timezone=BST", wantZone: "BST"},
		{name: "date forwarded", target: "/admin/timeslots?date=2026-10-20", wantDate: "2026-10-20"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs, h := newTestRegistry(t, map[string]string{"/api/timeslots": slotsJSON}, nil)
			if rec := get(t, h, tc.target); rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			lists := fs.find(http.MethodGet, "/api/timeslots")
			if len(lists) == 0 {
				t.Fatalf("expected a list request")
			}
			q := lists[len(lists)-1].Query
			if got := q.Get("timezone"); got != tc.wantZone {
				t.Fatalf("timezone = %q, want %q", got, tc.wantZone)
			}
			if got := q.Get("date"); got != tc.wantDate {
				t.Fatalf("date = %q, want %q", got, tc.wantDate)
			}
		})
	}
}

func TestTimeSlotToggleSendsPartialUpdate(t *testing.T) {
	fs, h := newTestRegistry(t, map[string]string{"/api/timeslots": slotsJSON}, nil)
	if rec := get(t, h, "/admin/timeslots"); rec.Code != http.StatusOK {
		t.Fatalf("load status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/timeslots/slot-1/toggle", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	puts := fs.find(http.MethodPut, "/api/timeslots/slot-1")
	if len(puts) != 1 {
		t.Fatalf("put requests = %d, want 1", len(puts))
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(puts[0].Body), &fields); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(fields) != 1 || fields["isAvailable"] != false {
		t.Fatalf("fields = %v", fields)
	}
}

func multipartPost(t *testing.T, target string, fields map[string]string, fileField, fileName string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		_, _ = part.Write(data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("HX-Request", "true")
	return req
}

func TestPostImageMustBeAnImage(t *testing.T) {
	fs, h := newTestRegistry(t, map[string]string{"/api/posts": `[]`}, nil)
	fields := map[string]string{"title": "Morning practice", "author": "Mira", "content": "Start slow."}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartPost(t, "/admin/posts", fields, "image", "notes.txt", []byte("plain text, not a picture")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("HX-Retarget"); got != "#modal" {
		t.Fatalf("HX-Retarget = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "must be a JPEG, PNG or GIF image") {
		t.Fatalf("expected image error, got %s", rec.Body.String())
	}
	if n := len(fs.find(http.MethodPost, "/api/upload")); n != 0 {
		t.Fatalf("upload calls = %d, want 0", n)
	}
	if n := len(fs.find(http.MethodPost, "/api/posts")); n != 0 {
		t.Fatalf("create calls = %d, want 0", n)
	}
}

func TestPostImageUploadedBeforeCreate(t *testing.T) {
	fs, h := newTestRegistry(t, map[string]string{"/api/posts": `[]`}, nil)
	fields := map[string]string{"title": "Morning practice", "author": "Mira", "content": "Start slow."}
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartPost(t, "/admin/posts", fields, "image", "sun.png", png))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if n := len(fs.find(http.MethodPost, "/api/upload")); n != 1 {
		t.Fatalf("upload calls = %d, want 1", n)
	}
	creates := fs.find(http.MethodPost, "/api/posts")
	if len(creates) != 1 {
		t.Fatalf("create calls = %d, want 1", len(creates))
	}
	if !strings.Contains(creates[0].Body, `"image_url":"/uploads/new.png"`) {
		t.Fatalf("create body = %s", creates[0].Body)
	}
}

func TestServiceMultipartEncodesLists(t *testing.T) {
	fs, h := newTestRegistry(t, map[string]string{"/api/services": servicesJSON}, nil)
	fields := map[string]string{
		"service_name":   "Yin",
		"description":    "Long holds",
		"what_to_expect": "Stillness\nProps",
		"benefits":       "Flexibility",
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartPost(t, "/admin/services", fields, "image", "yin.png", []byte("\x89PNG\r\n\x1a\n0000")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	creates := fs.find(http.MethodPost, "/api/services")
	if len(creates) != 1 {
		t.Fatalf("create calls = %d, want 1", len(creates))
	}
	if !strings.Contains(creates[0].Body, `["Stillness","Props"]`) {
		t.Fatalf("expected JSON list in multipart body, got %s", creates[0].Body)
	}
}

func TestContactsFilterByInterest(t *testing.T) {
	_, h := newTestRegistry(t, map[string]string{
		"/api/submit": `[
			{"_id":"c-1","name":"Dev","email":"dev@example.com","message":"Group rates?","public_group":true,"createdAt":"2026-10-10"},
			{"_id":"c-2","name":"Ira","email":"ira@example.com","message":"One to one please","private_1_1":true,"createdAt":"2026-10-11"}
		]`,
	}, nil)

	rec := get(t, h, "/admin/contacts/rows?filter="+models.InterestPrivate1to1)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Ira") || strings.Contains(body, "Dev") {
		t.Fatalf("unexpected rows: %s", body)
	}
	if strings.Contains(body, `href="/admin/contacts/new"`) {
		t.Fatalf("contacts should not offer create")
	}
}

func TestWithEventDetailsFillsBlanks(t *testing.T) {
	event := models.Event{ID: "e-1", Title: "Full Moon Flow", Date: "2026-10-25T00:00:00.000Z", Time: "19:00", Location: "Rooftop"}

	got := withEventDetails(models.Registration{Name: "Kai", Event: models.Ref{ID: "e-1"}}, event)
	if got.Title != "Full Moon Flow" || got.Date != "2026-10-25" || got.Time != "19:00" || got.Location != "Rooftop" {
		t.Fatalf("registration = %+v", got)
	}

	kept := withEventDetails(models.Registration{Name: "Kai", Location: "Main hall"}, event)
	if kept.Location != "Main hall" {
		t.Fatalf("location overwritten: %q", kept.Location)
	}
}

func TestImageType(t *testing.T) {
	tests := []struct {
		name string
		file studioapi.File
		want string
	}{
		{name: "declared", file: studioapi.File{ContentType: "image/jpeg"}, want: "image/jpeg"},
		{name: "parameters stripped", file: studioapi.File{ContentType: "Image/PNG; q=1"}, want: "image/png"},
		{name: "sniffed gif", file: studioapi.File{ContentType: "application/octet-stream", Data: []byte("GIF89a......")}, want: "image/gif"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := imageType(tc.file); got != tc.want {
				t.Fatalf("imageType = %q, want %q", got, tc.want)
			}
		})
	}
}

func formPost(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return req
}

func classBookingForm(status string) url.Values {
	return url.Values{
		"client_name":  {"Cal Moss-Reid"},
		"client_email": {"cal@example.com"},
		"sms_reminder": {"on"},
		"date":         {"2026-10-22"},
		"start_time":   {"18:30"},
		"end_time":     {"19:30"},
		"status":       {status},
	}
}

func TestClassBookingEditSendsNestedUpdate(t *testing.T) {
	fs, h := newTestRegistry(t, map[string]string{
		"/api/services":   servicesJSON,
		"/api/book-class": classBookingsJSON,
	}, nil)
	if rec := get(t, h, "/admin/class-bookings"); rec.Code != http.StatusOK {
		t.Fatalf("load status = %d", rec.Code)
	}

	rec := get(t, h, "/admin/class-bookings/c-1/edit")
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d", rec.Code)
	}
	for _, want := range []string{`name="start_time"`, `value="18:00"`, `<select id="field-status" name="status"`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("expected %q in edit form", want)
		}
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, formPost("/admin/class-bookings/c-1", classBookingForm("approve")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	puts := fs.find(http.MethodPut, "/api/book-class/c-1")
	if len(puts) != 1 {
		t.Fatalf("put requests = %d, want 1", len(puts))
	}
	var body struct {
		ClientDetails struct {
			Name        string `json:"name"`
			SMSReminder bool   `json:"smsReminder"`
		} `json:"clientDetails"`
		Schedule struct {
			ID        string `json:"_id"`
			Date      string `json:"date"`
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
		} `json:"schedule"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(puts[0].Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ClientDetails.Name != "Cal Moss-Reid" || !body.ClientDetails.SMSReminder {
		t.Fatalf("client details = %+v", body.ClientDetails)
	}
	if body.Schedule.ID != "sch-1" || body.Schedule.Date != "2026-10-22" || body.Schedule.StartTime != "18:30" || body.Schedule.EndTime != "19:30" {
		t.Fatalf("schedule = %+v", body.Schedule)
	}
	if body.Status != "approve" {
		t.Fatalf("status = %q", body.Status)
	}
}

func TestClassBookingEditRejectsReversedTimes(t *testing.T) {
	fs, h := newTestRegistry(t, map[string]string{"/api/book-class": classBookingsJSON}, nil)
	get(t, h, "/admin/class-bookings")

	form := classBookingForm("complete")
	form.Set("end_time", "18:00")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, formPost("/admin/class-bookings/c-1", form))
	if !strings.Contains(rec.Body.String(), "must be after the start time") {
		t.Fatalf("expected time error, got %s", rec.Body.String())
	}
	if n := len(fs.find(http.MethodPut, "/api/book-class/c-1")); n != 0 {
		t.Fatalf("put requests = %d, want 0", n)
	}
}

func TestStrictPolicyChecksFormStatus(t *testing.T) {
	fs, h := newPolicyRegistry(t, map[string]string{
		"/api/services":   servicesJSON,
		"/api/book-class": classBookingsJSON,
		"/api/bookings":   bookingsJSON,
	}, nil, models.StrictPolicy)
	get(t, h, "/admin/class-bookings")

	// complete -> approve is refused under the strict policy.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, formPost("/admin/class-bookings/c-1", classBookingForm("approve")))
	if got := rec.Header().Get("HX-Retarget"); got != "#modal" {
		t.Fatalf("HX-Retarget = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "status transition not allowed") {
		t.Fatalf("expected policy error, got %s", rec.Body.String())
	}
	if n := len(fs.find(http.MethodPut, "/api/book-class/c-1")); n != 0 {
		t.Fatalf("put requests = %d, want 0", n)
	}

	// Service bookings offer only the allowed statuses and accept them.
	get(t, h, "/admin/bookings")
	rec = get(t, h, "/admin/bookings/b-1/edit")
	form := rec.Body.String()
	if !strings.Contains(form, `<option value="approve">Approve</option>`) || strings.Contains(form, `<option value="complete">`) {
		t.Fatalf("status options = %s", form)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, formPost("/admin/bookings/b-1", url.Values{
		"client_name":  {"Asha Rao"},
		"client_email": {"asha@example.com"},
		"date":         {"2026-10-20"},
		"time":         {"07:00"},
		"service":      {"svc-1"},
		"status":       {"approve"},
	}))
	puts := fs.find(http.MethodPut, "/api/bookings/b-1")
	if len(puts) != 1 || !strings.Contains(puts[0].Body, `"status":"approve"`) {
		t.Fatalf("put requests = %+v", puts)
	}
}

func TestUsersAreReadOnly(t *testing.T) {
	fs, h := newTestRegistry(t, map[string]string{
		"/api/users": `[
			{"_id":"u-1","firstName":"Mira","lastName":"Sen","email":"mira@example.com"},
			{"_id":"u-2","firstName":"Kai","lastName":"","email":"kai@example.com"}
		]`,
	}, nil)

	rec := get(t, h, "/admin/users")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Mira Sen", "mira@example.com", "Kai", `href="/admin/users/export.csv`, `href="/admin/users/print`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q on users page", want)
		}
	}
	for _, unwanted := range []string{"<th>Actions</th>", `/admin/users/u-1/delete`, `/admin/users/u-1/edit`, `hx-get="/admin/users/new"`} {
		if strings.Contains(body, unwanted) {
			t.Fatalf("users page should not offer %q", unwanted)
		}
	}

	if rec := get(t, h, "/admin/users/u-1/delete"); rec.Code != http.StatusNotFound {
		t.Fatalf("delete confirmation = %d, want 404", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, formPost("/admin/users/u-1", url.Values{"email": {"x@example.com"}}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("update = %d, want 404", rec.Code)
	}
	for _, req := range fs.requests {
		if req.Method != http.MethodGet {
			t.Fatalf("read-only dashboard sent %s %s", req.Method, req.Path)
		}
	}

	csv := get(t, h, "/admin/users/export.csv")
	if !strings.Contains(csv.Body.String(), `"Name","Email"`) || !strings.Contains(csv.Body.String(), `"Mira Sen","mira@example.com"`) {
		t.Fatalf("csv = %q", csv.Body.String())
	}
}
