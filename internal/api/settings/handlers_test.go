package settings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codr1/yogadesk/internal/api/authz"
	"github.com/codr1/yogadesk/internal/db"
	"github.com/codr1/yogadesk/internal/testutil"
	settingstempl "github.com/codr1/yogadesk/internal/templates/components/settings"
)

func setupSettings(t *testing.T) (*db.DB, *http.ServeMux) {
	t.Helper()
	database := testutil.NewTestDB(t)
	h := New(database.Queries, Options{
		AppName:  "Lotus Studio",
		Settings: []settingstempl.Setting{{Label: "Status policy", Value: "strict"}},
		Entities: []Entity{{Name: "bookings", Title: "Bookings"}, {Name: "services", Title: "Services"}},
	})
	mux := http.NewServeMux()
	h.Register(mux)
	return database, mux
}

func asOperator(r *http.Request) *http.Request {
	ctx := authz.ContextWithOperator(r.Context(), &authz.Operator{Username: "maya"})
	return r.WithContext(ctx)
}

func TestSettingsPageDefaultsToAppName(t *testing.T) {
	_, mux := setupSettings(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, asOperator(httptest.NewRequest(http.MethodGet, "/admin/settings", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`value="Lotus Studio"`, "Status policy", "strict", "No activity recorded"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in settings page", want)
		}
	}
}

func TestSettingsSavePersistsPreferences(t *testing.T) {
	database, mux := setupSettings(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/settings", strings.NewReader("siteName=Sunrise+Yoga&email=desk%40sunrise.example"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, asOperator(req))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Settings saved") {
		t.Fatalf("expected notice, got %s", rec.Body.String())
	}

	ctx := context.Background()
	name, ok, err := database.Queries.GetPreference(ctx, "maya", SiteNameKey)
	if err != nil || !ok || name != "Sunrise Yoga" {
		t.Fatalf("site name = %q %v %v", name, ok, err)
	}
	email, ok, err := database.Queries.GetPreference(ctx, "maya", ContactEmailKey)
	if err != nil || !ok || email != "desk@sunrise.example" {
		t.Fatalf("email = %q %v %v", email, ok, err)
	}
}

func TestSettingsSaveValidates(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		htmx     bool
		wantCode int
		want     string
	}{
		{name: "missing site name", body: "siteName=&email=desk%40sunrise.example", htmx: true, wantCode: http.StatusOK, want: "Site Name is required"},
		{name: "bad email", body: "siteName=Sunrise&email=not-an-email", htmx: false, wantCode: http.StatusUnprocessableEntity, want: `value="not-an-email"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			database, mux := setupSettings(t)
			req := httptest.NewRequest(http.MethodPost, "/admin/settings", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tc.htmx {
				req.Header.Set("HX-Request", "true")
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, asOperator(req))
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tc.want) {
				t.Fatalf("expected %q in %s", tc.want, rec.Body.String())
			}
			if _, ok, _ := database.Queries.GetPreference(context.Background(), "maya", SiteNameKey); ok {
				t.Fatalf("invalid form must not be saved")
			}
		})
	}
}

func TestAuditFilterByEntity(t *testing.T) {
	database, mux := setupSettings(t)
	ctx := context.Background()
	for _, e := range []db.AuditEntry{
		{Operator: "maya", Entity: "bookings", RecordID: "b-1", Action: "status", Outcome: "ok", Detail: "approve"},
		{Operator: "maya", Entity: "services", RecordID: "svc-9", Action: "delete", Outcome: "ok"},
	} {
		if _, err := database.Queries.InsertAuditEntry(ctx, e); err != nil {
			t.Fatalf("insert audit entry: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/settings/audit?entity=services", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "svc-9") || strings.Contains(body, "b-1") {
		t.Fatalf("unexpected audit rows: %s", body)
	}
}
