package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"railroad-api/internal/model"
)

const stationColumns = `id, name, open_hour, close_hour, image, created_at, updated_at`

type StationRepository struct {
	pool *pgxpool.Pool
}

func NewStationRepository(pool *pgxpool.Pool) *StationRepository {
	return &StationRepository{pool: pool}
}

func scanStation(row pgx.Row) (model.Station, error) {
	var s model.Station
	err := row.Scan(&s.ID, &s.Name, &s.OpenHour, &s.CloseHour, &s.Image, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *StationRepository) List(ctx context.Context) ([]model.Station, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+stationColumns+` FROM stations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	stations := make([]model.Station, 0)
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

func (r *StationRepository) FindByID(ctx context.Context, id string) (model.Station, error) {
	s, err := scanStation(r.pool.QueryRow(ctx, `SELECT `+stationColumns+` FROM stations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
		return model.Station{}, model.ErrStationNotFound
	}
	if err != nil {
		return model.Station{}, fmt.Errorf("find station: %w", err)
	}
	return s, nil
}

func (r *StationRepository) ExistsByName(ctx context.Context, name string, exceptID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM stations WHERE lower(name) = lower($1) AND ($2 = '' OR id::text <> $2))`,
		name, exceptID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check station exists: %w", err)
	}
	return exists, nil
}

func (r *StationRepository) Create(ctx context.Context, s model.Station) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO stations (`+stationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.Name, s.OpenHour, s.CloseHour, s.Image, s.CreatedAt, s.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrStationAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create station: %w", err)
	}
	return nil
}

func (r *StationRepository) Update(ctx context.Context, s model.Station) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE stations SET name = $2, open_hour = $3, close_hour = $4, image = $5, updated_at = $6 WHERE id = $1`,
		s.ID, s.Name, s.OpenHour, s.CloseHour, s.Image, s.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrStationAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("update station: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrStationNotFound
	}
	return nil
}

// Delete removes the station together with every train that starts or ends
// there. Tickets of those trains go with them through the tickets foreign key.
func (r *StationRepository) Delete(ctx context.Context, id string) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin station delete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM stations WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
		return 0, model.ErrStationNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock station: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM trains WHERE start_station = $1 OR end_station = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete station trains: %w", err)
	}
	removedTrains := tag.RowsAffected()

	if _, err := tx.Exec(ctx, `DELETE FROM stations WHERE id = $1`, id); err != nil {
		return 0, fmt.Errorf("delete station: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit station delete: %w", err)
	}
	return removedTrains, nil
}
