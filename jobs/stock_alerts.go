package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockAlertsJob scans for items at or below their minimum stock level and
// logs them for the operator. Negative quantities from authorized overrides
// show up here as well.
type StockAlertsJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStockAlertsJob constructs the job.
func NewStockAlertsJob(pool *pgxpool.Pool, logger *slog.Logger) *StockAlertsJob {
	return &StockAlertsJob{pool: pool, logger: logger}
}

// Handle processes TaskStockAlerts tasks.
func (j *StockAlertsJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload StockAlertsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	rows, err := j.pool.Query(ctx, `SELECT tenant_id, id, sku, name, qty, min_stock
FROM inventory_items WHERE qty <= min_stock ORDER BY tenant_id, qty ASC`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var flagged int
	for rows.Next() {
		var tenantID, sku, name string
		var id, qty, minStock int64
		if err := rows.Scan(&tenantID, &id, &sku, &name, &qty, &minStock); err != nil {
			return err
		}
		flagged++
		j.logger.Warn("item below minimum stock",
			slog.String("tenant", tenantID),
			slog.Int64("item_id", id),
			slog.String("sku", sku),
			slog.Int64("qty", qty),
			slog.Int64("min_stock", minStock))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	j.logger.Info("stock alert scan finished", slog.Int("flagged", flagged))
	return nil
}
