package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"railroad-api/internal/access"
	"railroad-api/internal/event"
	"railroad-api/internal/model"
)

type ticketStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.Ticket, error)
	ListByTrain(ctx context.Context, trainID string) ([]model.Ticket, error)
	FindByID(ctx context.Context, id string) (model.Ticket, error)
	Create(ctx context.Context, ticket model.Ticket) error
	MarkValid(ctx context.Context, id string, at time.Time) (model.Ticket, bool, error)
}

type trainLookup interface {
	FindByID(ctx context.Context, id string) (model.Train, error)
}

type TicketService struct {
	tickets ticketStore
	trains  trainLookup
	events  event.Publisher
	now     func() time.Time
}

func NewTicketService(tickets ticketStore, trains trainLookup, events event.Publisher) *TicketService {
	return &TicketService{
		tickets: tickets,
		trains:  trains,
		events:  events,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// History lists the caller's own tickets, newest first.
func (s *TicketService) History(ctx context.Context, caller access.Identity) ([]model.Ticket, error) {
	return s.tickets.ListByUser(ctx, caller.ID)
}

func (s *TicketService) ForTrain(ctx context.Context, trainID string) ([]model.Ticket, error) {
	if _, err := s.trains.FindByID(ctx, trainID); err != nil {
		return nil, err
	}
	return s.tickets.ListByTrain(ctx, trainID)
}

// Book issues one unvalidated ticket on the train, owned by the caller.
func (s *TicketService) Book(ctx context.Context, caller access.Identity, trainID string) (model.Ticket, error) {
	if _, err := s.trains.FindByID(ctx, trainID); err != nil {
		return model.Ticket{}, err
	}

	now := s.now()
	ticket := model.Ticket{
		ID:        uuid.NewString(),
		TrainID:   trainID,
		UserID:    caller.ID,
		Valid:     false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return model.Ticket{}, err
	}

	slog.Info("ticket booked", "ticket_id", ticket.ID, "train_id", trainID, "user_id", caller.ID)
	publish(s.events, event.TypeTicketBooked, ticket.ID, map[string]any{"train_id": trainID, "user_id": caller.ID})
	return ticket, nil
}

// Get enforces TicketRead once the owner is known.
func (s *TicketService) Get(ctx context.Context, caller access.Identity, id string) (model.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return model.Ticket{}, err
	}
	if access.Authorize(caller, access.TicketRead, ticket.UserID) != access.Allow {
		return model.Ticket{}, model.ErrForbidden
	}
	return ticket, nil
}

// Validate marks the ticket valid. Repeating it is a no-op.
func (s *TicketService) Validate(ctx context.Context, id string) (model.Ticket, error) {
	ticket, changed, err := s.tickets.MarkValid(ctx, id, s.now())
	if err != nil {
		return model.Ticket{}, err
	}
	if !changed {
		return ticket, nil
	}
	slog.Info("ticket validated", "ticket_id", ticket.ID)
	publish(s.events, event.TypeTicketValidated, ticket.ID, map[string]any{"train_id": ticket.TrainID, "user_id": ticket.UserID})
	return ticket, nil
}
