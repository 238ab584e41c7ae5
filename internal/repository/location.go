package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shenikar/geofence_monitor/internal/models"
	"github.com/shenikar/geofence_monitor/internal/service"
)

type LocationRepository struct {
	db *pgxpool.Pool
}

func NewLocationRepository(db *pgxpool.Pool) service.LocationRepository {
	return &LocationRepository{db: db}
}

// SaveSample сохраняет наблюдение местоположения в бд
func (r *LocationRepository) SaveSample(ctx context.Context, sample *models.LocationSample) error {
	query := `
		INSERT INTO location_samples (subject_id, location, observed_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326), $4) RETURNING id;
	`
	err := r.db.QueryRow(ctx, query,
		sample.SubjectID,
		sample.Point.Longitude,
		sample.Point.Latitude,
		sample.ObservedAt,
	).Scan(&sample.ID)
	if err != nil {
		return fmt.Errorf("failed to save location sample: %w", err)
	}
	return nil
}

// CountActiveSubjects возвращает количество уникальных сотрудников, приславших координаты за последние minutes минут
func (r *LocationRepository) CountActiveSubjects(ctx context.Context, minutes int) (int, error) {
	query := `
		SELECT COUNT(DISTINCT subject_id)
		FROM location_samples
		WHERE received_at >= NOW() - ($1 * INTERVAL '1 minute');
	`
	var count int
	err := r.db.QueryRow(ctx, query, minutes).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get active subjects count: %w", err)
	}
	return count, nil
}
