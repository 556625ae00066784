package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"railroad-api/internal/event"
	"railroad-api/internal/model"
	"railroad-api/pkg/apierror"
)

type trainStore interface {
	List(ctx context.Context, query model.TrainQuery) ([]model.Train, int, error)
	FindByID(ctx context.Context, id string) (model.Train, error)
	ExistsByName(ctx context.Context, name string, exceptID string) (bool, error)
	Create(ctx context.Context, train model.Train) error
	Update(ctx context.Context, train model.Train) error
	Delete(ctx context.Context, id string) error
}

type stationLookup interface {
	FindByID(ctx context.Context, id string) (model.Station, error)
}

type TrainService struct {
	trains   trainStore
	stations stationLookup
	events   event.Publisher
	now      func() time.Time
}

func NewTrainService(trains trainStore, stations stationLookup, events event.Publisher) *TrainService {
	return &TrainService{
		trains:   trains,
		stations: stations,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of trains. A page with no trains is reported as not
// found, including page 1 of an empty catalog.
func (s *TrainService) List(ctx context.Context, query model.TrainQuery) ([]model.Train, model.Meta, error) {
	trains, total, err := s.trains.List(ctx, query)
	if err != nil {
		return nil, model.Meta{}, err
	}
	if len(trains) == 0 {
		return nil, model.Meta{}, apierror.New("NOT_FOUND", "no trains found for this page", "", http.StatusNotFound)
	}
	return trains, model.NewMeta(query.Page, query.Limit, total), nil
}

func (s *TrainService) Get(ctx context.Context, id string) (model.Train, error) {
	return s.trains.FindByID(ctx, id)
}

func (s *TrainService) Create(ctx context.Context, req model.CreateTrainRequest) (model.Train, error) {
	if req.TimeOfDeparture == nil {
		return model.Train{}, validationError("time_of_departure", "time_of_departure is required")
	}

	now := s.now()
	train := model.Train{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(req.Name),
		StartStation:    strings.TrimSpace(req.StartStation),
		EndStation:      strings.TrimSpace(req.EndStation),
		TimeOfDeparture: req.TimeOfDeparture.UTC(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.check(ctx, &train, ""); err != nil {
		return model.Train{}, err
	}

	if err := s.trains.Create(ctx, train); err != nil {
		return model.Train{}, stationRace(err)
	}
	return train, nil
}

func (s *TrainService) Update(ctx context.Context, id string, req model.UpdateTrainRequest) (model.Train, error) {
	train, err := s.trains.FindByID(ctx, id)
	if err != nil {
		return model.Train{}, err
	}

	applyTrimmed(&train.Name, req.Name)
	applyTrimmed(&train.StartStation, req.StartStation)
	applyTrimmed(&train.EndStation, req.EndStation)
	if req.TimeOfDeparture != nil {
		train.TimeOfDeparture = req.TimeOfDeparture.UTC()
	}
	if err := s.check(ctx, &train, train.ID); err != nil {
		return model.Train{}, err
	}

	train.UpdatedAt = s.now()
	if err := s.trains.Update(ctx, train); err != nil {
		return model.Train{}, stationRace(err)
	}
	return train, nil
}

func (s *TrainService) Delete(ctx context.Context, id string) error {
	if err := s.trains.Delete(ctx, id); err != nil {
		return err
	}
	publish(s.events, event.TypeTrainDeleted, id, nil)
	return nil
}

// check validates train and rewrites its station references in canonical
// uuid form.
func (s *TrainService) check(ctx context.Context, train *model.Train, exceptID string) error {
	if train.Name == "" {
		return validationError("name", "name is required")
	}

	for _, ref := range []struct {
		field string
		id    *string
	}{
		{"start_station", &train.StartStation},
		{"end_station", &train.EndStation},
	} {
		parsed, err := uuid.Parse(*ref.id)
		if err != nil {
			return validationError(ref.field, ref.field+" must be a valid id")
		}
		*ref.id = parsed.String()
		if _, err := s.stations.FindByID(ctx, *ref.id); err != nil {
			if errors.Is(err, model.ErrStationNotFound) {
				return validationError(ref.field, ref.field+" does not reference an existing station")
			}
			return err
		}
	}

	taken, err := s.trains.ExistsByName(ctx, train.Name, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return model.ErrTrainAlreadyExists
	}
	return nil
}

// stationRace covers a station deleted between the check and the write.
func stationRace(err error) error {
	if errors.Is(err, model.ErrStationNotFound) {
		return validationError("station", "train references a station that no longer exists")
	}
	return err
}
