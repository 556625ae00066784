package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"railroad-api/internal/model"
)

const ticketColumns = `id, train_id, user_id, valid, created_at, updated_at`

type TicketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func scanTicket(row pgx.Row) (model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(&t.ID, &t.TrainID, &t.UserID, &t.Valid, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TicketRepository) list(ctx context.Context, sql string, arg any) ([]model.Ticket, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *TicketRepository) ListByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	return r.list(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *TicketRepository) ListByTrain(ctx context.Context, trainID string) ([]model.Ticket, error) {
	return r.list(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE train_id = $1 ORDER BY created_at`, trainID)
}

func (r *TicketRepository) FindByID(ctx context.Context, id string) (model.Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
		return model.Ticket{}, model.ErrTicketNotFound
	}
	if err != nil {
		return model.Ticket{}, fmt.Errorf("find ticket: %w", err)
	}
	return t, nil
}

func (r *TicketRepository) Create(ctx context.Context, t model.Ticket) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tickets (`+ticketColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.TrainID, t.UserID, t.Valid, t.CreatedAt, t.UpdatedAt)
	if isForeignKeyViolation(err) {
		return model.ErrTrainNotFound
	}
	if err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

// MarkValid sets valid = true and reports whether this call made the change.
// Already-valid tickets keep their updated_at.
func (r *TicketRepository) MarkValid(ctx context.Context, id string, at time.Time) (model.Ticket, bool, error) {
	var (
		t       model.Ticket
		changed bool
	)
	err := r.pool.QueryRow(ctx,
		`WITH prev AS (SELECT id, valid FROM tickets WHERE id = $1 FOR UPDATE)
		 UPDATE tickets t
		 SET valid = true, updated_at = CASE WHEN prev.valid THEN t.updated_at ELSE $2 END
		 FROM prev
		 WHERE t.id = prev.id
		 RETURNING t.id, t.train_id, t.user_id, t.valid, t.created_at, t.updated_at, NOT prev.valid`,
		id, at).Scan(&t.ID, &t.TrainID, &t.UserID, &t.Valid, &t.CreatedAt, &t.UpdatedAt, &changed)
	if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
		return model.Ticket{}, false, model.ErrTicketNotFound
	}
	if err != nil {
		return model.Ticket{}, false, fmt.Errorf("validate ticket: %w", err)
	}
	return t, changed, nil
}
