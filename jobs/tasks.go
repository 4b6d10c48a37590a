// Package jobs contains the background workers: nightly book
// reconciliation and low-stock alerting.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBookReconcile replays every subsidiary book and compares the
	// replayed running balances against the stored ones.
	TaskBookReconcile = "books:reconcile"
	// TaskStockAlerts scans for items at or below their minimum stock level.
	TaskStockAlerts = "stock:alerts"
)

// BookReconcilePayload carries scheduling metadata.
type BookReconcilePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewBookReconcileTask constructs an Asynq task for book reconciliation.
func NewBookReconcileTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(BookReconcilePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBookReconcile, body, asynq.Queue(QueueDefault)), nil
}

// StockAlertsPayload carries scheduling metadata.
type StockAlertsPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewStockAlertsTask constructs an Asynq task for low-stock alerting.
func NewStockAlertsTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(StockAlertsPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockAlerts, body, asynq.Queue(QueueDefault)), nil
}
