package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shenikar/geofence_monitor/internal/models"
	"github.com/shenikar/geofence_monitor/internal/service"
)

type AttendanceRepository struct {
	db *pgxpool.Pool
}

func NewAttendanceRepository(db *pgxpool.Pool) service.AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create сохраняет отметку; GeofenceID == nil - отметка без геозоны
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (employee_id, geofence_id, type, location, notes, timestamp)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326), NULLIF($6, ''), $7)
		RETURNING id;
	`
	err := r.db.QueryRow(ctx, query,
		record.EmployeeID,
		record.GeofenceID,
		record.Type,
		record.Location.Longitude,
		record.Location.Latitude,
		record.Notes,
		record.Timestamp,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to create attendance record: %w", err)
	}
	return nil
}

// List возвращает отметки по фильтру, новые первыми
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]*models.AttendanceRecord, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if filter.Date != nil {
		start := *filter.Date
		args = append(args, start, start.AddDate(0, 0, 1))
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d AND timestamp < $%d", len(args)-1, len(args)))
	}

	query := `
		SELECT id, employee_id, geofence_id, type,
			ST_Y(location::geometry), ST_X(location::geometry), COALESCE(notes, ''), timestamp
		FROM attendance_records`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC;"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.AttendanceRecord, 0)
	for rows.Next() {
		rec := &models.AttendanceRecord{}
		if err := rows.Scan(
			&rec.ID,
			&rec.EmployeeID,
			&rec.GeofenceID,
			&rec.Type,
			&rec.Location.Latitude,
			&rec.Location.Longitude,
			&rec.Notes,
			&rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return records, nil
}
