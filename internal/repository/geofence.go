package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shenikar/geofence_monitor/internal/models"
	"github.com/shenikar/geofence_monitor/internal/service"
)

const geofenceColumns = `
	id,
	name,
	type,
	ST_Y(center::geometry) AS latitude,
	ST_X(center::geometry) AS longitude,
	radius_meters,
	start_time,
	end_time,
	entry_notify,
	exit_notify,
	violation_alert,
	is_active,
	activated_at,
	created_at,
	updated_at`

type GeofenceRepository struct {
	db *pgxpool.Pool
}

func NewGeofenceRepository(db *pgxpool.Pool) service.GeofenceRepository {
	return &GeofenceRepository{db: db}
}

// Create создает новую геозону в бд
func (r *GeofenceRepository) Create(ctx context.Context, g *models.Geofence) error {
	query := `
		INSERT INTO geofences (name, type, center, radius_meters, start_time, end_time,
			entry_notify, exit_notify, violation_alert, is_active)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326), $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, activated_at, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		g.Name,
		g.Type,
		g.Center.Longitude,
		g.Center.Latitude,
		g.RadiusMeters,
		g.ActiveWindow.Start.String(),
		g.ActiveWindow.End.String(),
		g.EntryNotify,
		g.ExitNotify,
		g.ViolationAlert,
		g.IsActive,
	).Scan(&g.ID, &g.ActivatedAt, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create geofence: %w", err)
	}
	return nil
}

// GetByID возвращает геозону по её UUID
func (r *GeofenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Geofence, error) {
	query := `SELECT ` + geofenceColumns + ` FROM geofences WHERE id = $1;`

	g, err := scanGeofence(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("geofence with id %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get geofence by id: %w", err)
	}
	return g, nil
}

// Update перезаписывает геозону. В SET is_active - значение до обновления,
// поэтому activated_at сдвигается только при переходе из неактивного состояния.
func (r *GeofenceRepository) Update(ctx context.Context, g *models.Geofence) error {
	query := `
		UPDATE geofences SET
			activated_at = CASE WHEN NOT is_active AND $11 THEN NOW() ELSE activated_at END,
			name = $1,
			type = $2,
			center = ST_SetSRID(ST_MakePoint($3, $4), 4326),
			radius_meters = $5,
			start_time = $6,
			end_time = $7,
			entry_notify = $8,
			exit_notify = $9,
			violation_alert = $10,
			is_active = $11,
			updated_at = NOW()
		WHERE id = $12
		RETURNING activated_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		g.Name,
		g.Type,
		g.Center.Longitude,
		g.Center.Latitude,
		g.RadiusMeters,
		g.ActiveWindow.Start.String(),
		g.ActiveWindow.End.String(),
		g.EntryNotify,
		g.ExitNotify,
		g.ViolationAlert,
		g.IsActive,
		g.ID,
	).Scan(&g.ActivatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("geofence with id %s for update: %w", g.ID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to update geofence: %w", err)
	}
	return nil
}

// Deactivate снимает флаг is_active, запись остается в бд
func (r *GeofenceRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE geofences SET
			is_active = FALSE,
			updated_at = NOW()
		WHERE id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate geofence: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("geofence with id %s for deactivate: %w", id, models.ErrNotFound)
	}
	return nil
}

// Delete физически удаляет геозону
func (r *GeofenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM geofences WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete geofence: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("geofence with id %s for delete: %w", id, models.ErrNotFound)
	}
	return nil
}

// List возвращает список геозон с пагинацией
func (r *GeofenceRepository) List(ctx context.Context, page, pageSize int) ([]*models.Geofence, error) {
	offset := (page - 1) * pageSize

	query := `SELECT ` + geofenceColumns + `
		FROM geofences
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;`

	rows, err := r.db.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list geofences: %w", err)
	}
	return collectGeofences(rows)
}

// ListActive возвращает все активные геозоны в порядке создания
func (r *GeofenceRepository) ListActive(ctx context.Context) ([]*models.Geofence, error) {
	query := `SELECT ` + geofenceColumns + `
		FROM geofences
		WHERE is_active
		ORDER BY created_at, id;`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active geofences: %w", err)
	}
	return collectGeofences(rows)
}

func collectGeofences(rows pgx.Rows) ([]*models.Geofence, error) {
	defer rows.Close()

	geofences := make([]*models.Geofence, 0)
	for rows.Next() {
		g, err := scanGeofence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan geofence row: %w", err)
		}
		geofences = append(geofences, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return geofences, nil
}

func scanGeofence(row pgx.Row) (*models.Geofence, error) {
	g := &models.Geofence{}
	var start, end string
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Type,
		&g.Center.Latitude,
		&g.Center.Longitude,
		&g.RadiusMeters,
		&start,
		&end,
		&g.EntryNotify,
		&g.ExitNotify,
		&g.ViolationAlert,
		&g.IsActive,
		&g.ActivatedAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if g.ActiveWindow.Start, err = models.ParseTimeOfDay(start); err != nil {
		return nil, fmt.Errorf("geofence %s start_time: %w", g.ID, err)
	}
	if g.ActiveWindow.End, err = models.ParseTimeOfDay(end); err != nil {
		return nil, fmt.Errorf("geofence %s end_time: %w", g.ID, err)
	}
	return g, nil
}
