package dashboards

import (
	"context"
	"fmt"

	"github.com/codr1/yogadesk/internal/dashboard"
	"github.com/codr1/yogadesk/internal/db"
)

// AuditStore persists journal entries. *db.Queries satisfies it.
type AuditStore interface {
	InsertAuditEntry(ctx context.Context, e db.AuditEntry) (int64, error)
}

// AuditJournal writes dashboard mutations to the audit_log table.
type AuditJournal struct {
	store AuditStore
}

func NewAuditJournal(store AuditStore) *AuditJournal {
	return &AuditJournal{store: store}
}

func (j *AuditJournal) Record(ctx context.Context, entry dashboard.Entry) error {
	_, err := j.store.InsertAuditEntry(ctx, db.AuditEntry{
		Operator: entry.Operator,
		Entity:   entry.Entity,
		RecordID: entry.RecordID,
		Action:   entry.Action,
		Outcome:  entry.Outcome,
		Detail:   entry.Detail,
	})
	if err != nil {
		return fmt.Errorf("record %s %s: %w", entry.Entity, entry.Action, err)
	}
	return nil
}
