package shared

import (
	"encoding/json"
	"errors"
	"time"
)

// AuditRecord represents a row in audit_logs. Rows are append-only and are
// written inside the same transaction as the mutation they describe.
type AuditRecord struct {
	ActorID  int64
	Action   string
	Table    string
	RecordID string
	OldValue map[string]any
	NewValue map[string]any
	At       time.Time
}

// Validate ensures the record carries enough to be traceable.
func (r AuditRecord) Validate() error {
	if r.Action == "" || r.Table == "" || r.RecordID == "" {
		return errors.New("audit record requires action/table/record_id")
	}
	return nil
}

// MarshalValues serialises the old/new snapshots for storage.
func (r AuditRecord) MarshalValues() (oldJSON, newJSON []byte, err error) {
	oldJSON, err = json.Marshal(r.OldValue)
	if err != nil {
		return nil, nil, err
	}
	newJSON, err = json.Marshal(r.NewValue)
	if err != nil {
		return nil, nil, err
	}
	return oldJSON, newJSON, nil
}

// Snapshot builds a value map from arbitrary JSON-serialisable state.
func Snapshot(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
