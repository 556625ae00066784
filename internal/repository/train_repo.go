package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"railroad-api/internal/model"
)

const trainColumns = `id, name, start_station, end_station, time_of_departure, created_at, updated_at`

// Sort keys are whitelisted here; they are interpolated into ORDER BY.
var trainSortColumns = map[string]string{
	model.TrainSortName:            "name",
	model.TrainSortStartStation:    "start_station",
	model.TrainSortEndStation:      "end_station",
	model.TrainSortTimeOfDeparture: "time_of_departure",
}

type TrainRepository struct {
	pool *pgxpool.Pool
}

func NewTrainRepository(pool *pgxpool.Pool) *TrainRepository {
	return &TrainRepository{pool: pool}
}

func scanTrain(row pgx.Row) (model.Train, error) {
	var t model.Train
	err := row.Scan(&t.ID, &t.Name, &t.StartStation, &t.EndStation, &t.TimeOfDeparture, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TrainRepository) List(ctx context.Context, query model.TrainQuery) ([]model.Train, int, error) {
	column, ok := trainSortColumns[query.Sort]
	if !ok {
		column = "name"
	}
	direction := "ASC"
	if query.Descending() {
		direction = "DESC"
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trains`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count trains: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM trains ORDER BY %s %s, id ASC LIMIT $1 OFFSET $2`, trainColumns, column, direction),
		query.Limit, query.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list trains: %w", err)
	}
	defer rows.Close()

	trains := make([]model.Train, 0, query.Limit)
	for rows.Next() {
		t, err := scanTrain(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan train: %w", err)
		}
		trains = append(trains, t)
	}
	return trains, total, rows.Err()
}

func (r *TrainRepository) FindByID(ctx context.Context, id string) (model.Train, error) {
	t, err := scanTrain(r.pool.QueryRow(ctx, `SELECT `+trainColumns+` FROM trains WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
		return model.Train{}, model.ErrTrainNotFound
	}
	if err != nil {
		return model.Train{}, fmt.Errorf("find train: %w", err)
	}
	return t, nil
}

func (r *TrainRepository) ExistsByName(ctx context.Context, name string, exceptID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM trains WHERE lower(name) = lower($1) AND ($2 = '' OR id::text <> $2))`,
		name, exceptID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check train exists: %w", err)
	}
	return exists, nil
}

func (r *TrainRepository) Create(ctx context.Context, t model.Train) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO trains (`+trainColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, t.StartStation, t.EndStation, t.TimeOfDeparture, t.CreatedAt, t.UpdatedAt)
	switch {
	case isUniqueViolation(err):
		return model.ErrTrainAlreadyExists
	case isForeignKeyViolation(err):
		return model.ErrStationNotFound
	case err != nil:
		return fmt.Errorf("create train: %w", err)
	}
	return nil
}

func (r *TrainRepository) Update(ctx context.Context, t model.Train) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE trains
		 SET name = $2, start_station = $3, end_station = $4, time_of_departure = $5, updated_at = $6
		 WHERE id = $1`,
		t.ID, t.Name, t.StartStation, t.EndStation, t.TimeOfDeparture, t.UpdatedAt)
	switch {
	case isUniqueViolation(err):
		return model.ErrTrainAlreadyExists
	case isForeignKeyViolation(err):
		return model.ErrStationNotFound
	case err != nil:
		return fmt.Errorf("update train: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTrainNotFound
	}
	return nil
}

func (r *TrainRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trains WHERE id = $1`, id)
	if isBadID(err) {
		return model.ErrTrainNotFound
	}
	if err != nil {
		return fmt.Errorf("delete train: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTrainNotFound
	}
	return nil
}
