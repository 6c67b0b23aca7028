package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/codr1/yogadesk/internal/models"
	"github.com/codr1/yogadesk/internal/studioapi"
)

func newTestOverview(t *testing.T, opts OverviewOptions) (*Overview, *fakeStudio) {
	t.Helper()
	studio, client := newFakeStudio(t)
	services := studioapi.NewResource(client, "/api/bookings", bookingCodec())
	classes := studioapi.NewResource(client, "/api/book-class", studioapi.Codec[models.Booking]{
		Decode: models.DecodeClassBooking,
		Encode: models.EncodeBooking,
	})
	return NewOverview(services, classes, opts), studio
}

func TestComputeStatsCountsMissingAsPending(t *testing.T) {
	stats := ComputeStats([]models.Booking{
		{Status: ""},
		{Status: models.StatusPending},
		{Status: models.StatusApprove},
		{Status: models.StatusComplete},
		{Status: models.StatusDecline},
		{Status: models.StatusDecline},
	})
	want := Stats{Total: 6, Pending: 2, Approve: 1, Decline: 2, Complete: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
	if stats.Count("") != 2 {
		t.Fatalf("Count(\"\") = %d", stats.Count(""))
	}
}

func TestOverviewMergesBothCollections(t *testing.T) {
	reg := prometheus.NewRegistry()
	overview, studio := newTestOverview(t, OverviewOptions{Registerer: reg})
	studio.seed("bookings",
		map[string]any{"_id": "b1", "client_name": "Amy", "service": map[string]any{"_id": "s1", "service_name": "Hatha"}},
		map[string]any{"_id": "b2", "client_name": "Bea", "status": "approve"},
	)
	studio.seed("book-class",
		map[string]any{"_id": "c1", "clientDetails": map[string]any{"name": "Cal"}, "status": "complete",
			"schedule": map[string]any{"_id": "sc1", "date": "2025-04-01", "service": map[string]any{"_id": "s2", "service_name": "Vinyasa"}}},
	)

	snap, err := overview.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(snap.Bookings) != 3 {
		t.Fatalf("expected 3 bookings, got %d", len(snap.Bookings))
	}
	if snap.Bookings[0].Kind != models.KindService || snap.Bookings[2].Kind != models.KindClass {
		t.Fatalf("kinds = %s, %s", snap.Bookings[0].Kind, snap.Bookings[2].Kind)
	}
	if snap.Bookings[0].ServiceName() != "Hatha" || snap.Bookings[1].ServiceName() != "No Service" || snap.Bookings[2].ServiceName() != "Vinyasa" {
		t.Fatalf("service names = %q, %q, %q", snap.Bookings[0].ServiceName(), snap.Bookings[1].ServiceName(), snap.Bookings[2].ServiceName())
	}
	want := Stats{Total: 3, Pending: 1, Approve: 1, Complete: 1}
	if snap.Stats != want {
		t.Fatalf("stats = %+v, want %+v", snap.Stats, want)
	}
	if got := testutil.ToFloat64(overview.gauge.WithLabelValues("pending")); got != 1 {
		t.Fatalf("pending gauge = %v", got)
	}
}

func TestOverviewRecentIsFirstFive(t *testing.T) {
	overview, studio := newTestOverview(t, OverviewOptions{})
	for _, id := range []string{"b1", "b2", "b3", "b4", "b5", "b6"} {
		studio.seed("bookings", map[string]any{"_id": id, "client_name": id})
	}
	snap, err := overview.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(snap.Recent) != 5 || snap.Recent[0].ID != "b1" || snap.Recent[4].ID != "b5" {
		t.Fatalf("recent = %+v", snap.Recent)
	}
}

func TestOverviewFailureKeepsPreviousSnapshot(t *testing.T) {
	overview, studio := newTestOverview(t, OverviewOptions{})
	studio.seed("bookings", map[string]any{"_id": "b1", "client_name": "Amy"})
	ctx := context.Background()
	if _, err := overview.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	studio.failWith("book-class", http.StatusInternalServerError)
	snap, err := overview.Refresh(ctx)
	if err == nil {
		t.Fatal("expected refresh to fail")
	}
	if len(snap.Bookings) != 1 || snap.Err == "" {
		t.Fatalf("snapshot after failure = %+v", snap)
	}
}

func TestOverviewSetStatusRoutesByKind(t *testing.T) {
	overview, studio := newTestOverview(t, OverviewOptions{})
	studio.seed("bookings", map[string]any{"_id": "b1", "client_name": "Amy"})
	studio.seed("book-class", map[string]any{"_id": "c1", "clientDetails": map[string]any{"name": "Cal"}})
	ctx := context.Background()
	if _, err := overview.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if err := overview.SetStatus(ctx, models.KindClass, "c1", models.StatusApprove); err != nil {
		t.Fatalf("set class status: %v", err)
	}
	if err := overview.SetStatus(ctx, models.KindService, "b1", models.StatusDecline); err != nil {
		t.Fatalf("set booking status: %v", err)
	}

	var patched []string
	for _, call := range studio.requests() {
		if len(call) > 6 && call[:6] == "PATCH " {
			patched = append(patched, call[6:])
		}
	}
	if len(patched) != 2 || patched[0] != "/api/book-class/c1/status" || patched[1] != "/api/bookings/b1/status" {
		t.Fatalf("patched = %v", patched)
	}
	if got := overview.Snapshot().Stats; got.Approve != 1 || got.Decline != 1 {
		t.Fatalf("stats after updates = %+v", got)
	}

	if err := overview.SetStatus(ctx, "other", "x", models.StatusApprove); err == nil {
		t.Fatal("expected unknown kind to fail")
	}
}

func TestOverviewStrictPolicy(t *testing.T) {
	overview, studio := newTestOverview(t, OverviewOptions{Policy: models.StrictPolicy})
	studio.seed("bookings", map[string]any{"_id": "b1", "client_name": "Amy", "status": "complete"})
	ctx := context.Background()
	if _, err := overview.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := overview.SetStatus(ctx, models.KindService, "b1", models.StatusPending); !errors.Is(err, models.ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}
}

func TestOverviewSetStatusBeforeRefresh(t *testing.T) {
	overview, studio := newTestOverview(t, OverviewOptions{Policy: models.StrictPolicy})
	studio.seed("bookings", map[string]any{"_id": "b1", "client_name": "Amy", "status": "complete"})
	ctx := context.Background()

	if err := overview.SetStatus(ctx, models.KindService, "b1", models.StatusApprove); !errors.Is(err, models.ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}
	if err := overview.SetStatus(ctx, models.KindService, "gone", models.StatusApprove); !errors.Is(err, ErrUnknownRecord) {
		t.Fatalf("expected ErrUnknownRecord, got %v", err)
	}
	for _, call := range studio.requests() {
		if strings.HasPrefix(call, "PATCH ") {
			t.Fatalf("status was dispatched: %s", call)
		}
	}
}
