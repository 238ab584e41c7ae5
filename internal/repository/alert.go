package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shenikar/geofence_monitor/internal/models"
	"github.com/shenikar/geofence_monitor/internal/service"
)

type AlertRepository struct {
	db *pgxpool.Pool
}

func NewAlertRepository(db *pgxpool.Pool) service.AlertRepository {
	return &AlertRepository{db: db}
}

// Create сохраняет оповещение
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (type, title, message, severity, employee_id, geofence_id, is_read, timestamp)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, COALESCE($8, NOW()))
		RETURNING id, timestamp;
	`
	var ts any
	if !alert.Timestamp.IsZero() {
		ts = alert.Timestamp
	}
	err := r.db.QueryRow(ctx, query,
		alert.Type,
		alert.Title,
		alert.Message,
		alert.Severity,
		alert.EmployeeID,
		alert.GeofenceID,
		alert.IsRead,
		ts,
	).Scan(&alert.ID, &alert.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// List возвращает оповещения от новых к старым, isRead == nil - без фильтра
func (r *AlertRepository) List(ctx context.Context, isRead *bool, page, pageSize int) ([]*models.Alert, error) {
	offset := (page - 1) * pageSize
	query := `
		SELECT id, type, title, message, severity, COALESCE(employee_id, ''), geofence_id, is_read, timestamp
		FROM alerts
		WHERE $1::boolean IS NULL OR is_read = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.db.Query(ctx, query, isRead, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]*models.Alert, 0)
	for rows.Next() {
		alert := &models.Alert{}
		if err := rows.Scan(
			&alert.ID,
			&alert.Type,
			&alert.Title,
			&alert.Message,
			&alert.Severity,
			&alert.EmployeeID,
			&alert.GeofenceID,
			&alert.IsRead,
			&alert.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return alerts, nil
}

// MarkRead помечает оповещение прочитанным
func (r *AlertRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE alerts SET is_read = TRUE WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to mark alert as read: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("alert with id %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// CountUnread возвращает количество непрочитанных оповещений
func (r *AlertRepository) CountUnread(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE NOT is_read;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread alerts: %w", err)
	}
	return count, nil
}
