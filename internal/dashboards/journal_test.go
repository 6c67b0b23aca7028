package dashboards

import (
	"context"
	"testing"

	"github.com/codr1/yogadesk/internal/dashboard"
	"github.com/codr1/yogadesk/internal/testutil"
)

func TestAuditJournalPersistsEntries(t *testing.T) {
	database := testutil.NewTestDB(t)
	journal := NewAuditJournal(database.Queries)
	ctx := context.Background()

	entries := []dashboard.Entry{
		{Operator: "maya", Entity: "bookings", RecordID: "b-1", Action: "status:approve", Outcome: "ok"},
		{Operator: "maya", Entity: "services", RecordID: "svc-1", Action: "delete", Outcome: "failed", Detail: "backend unavailable"},
	}
	for _, e := range entries {
		if err := journal.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := database.Queries.ListAuditEntries(ctx, "bookings", 10)
	if err != nil {
		t.Fatalf("ListAuditEntries: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("entries = %d, want 1", len(got))
	}
	if got[0].Operator != "maya" || got[0].RecordID != "b-1" || got[0].Action != "status:approve" {
		t.Fatalf("entry = %+v", got[0])
	}

	all, err := database.Queries.ListAuditEntries(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListAuditEntries: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("entries = %d, want 2", len(all))
	}
}
