package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"railroad-api/internal/event"
	"railroad-api/internal/model"
)

type stationStore interface {
	List(ctx context.Context) ([]model.Station, error)
	FindByID(ctx context.Context, id string) (model.Station, error)
	ExistsByName(ctx context.Context, name string, exceptID string) (bool, error)
	Create(ctx context.Context, station model.Station) error
	Update(ctx context.Context, station model.Station) error
	Delete(ctx context.Context, id string) (int64, error)
}

type StationService struct {
	stations stationStore
	events   event.Publisher
	now      func() time.Time
}

func NewStationService(stations stationStore, events event.Publisher) *StationService {
	return &StationService{
		stations: stations,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *StationService) List(ctx context.Context) ([]model.Station, error) {
	return s.stations.List(ctx)
}

func (s *StationService) Get(ctx context.Context, id string) (model.Station, error) {
	return s.stations.FindByID(ctx, id)
}

func (s *StationService) Create(ctx context.Context, req model.CreateStationRequest) (model.Station, error) {
	now := s.now()
	station := model.Station{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		OpenHour:  strings.TrimSpace(req.OpenHour),
		CloseHour: strings.TrimSpace(req.CloseHour),
		Image:     strings.TrimSpace(req.Image),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := checkStation(station); err != nil {
		return model.Station{}, err
	}

	taken, err := s.stations.ExistsByName(ctx, station.Name, "")
	if err != nil {
		return model.Station{}, err
	}
	if taken {
		return model.Station{}, model.ErrStationAlreadyExists
	}

	if err := s.stations.Create(ctx, station); err != nil {
		return model.Station{}, err
	}
	return station, nil
}

func (s *StationService) Update(ctx context.Context, id string, req model.UpdateStationRequest) (model.Station, error) {
	station, err := s.stations.FindByID(ctx, id)
	if err != nil {
		return model.Station{}, err
	}

	applyTrimmed(&station.Name, req.Name)
	applyTrimmed(&station.OpenHour, req.OpenHour)
	applyTrimmed(&station.CloseHour, req.CloseHour)
	applyTrimmed(&station.Image, req.Image)
	if err := checkStation(station); err != nil {
		return model.Station{}, err
	}

	if req.Name != nil {
		taken, err := s.stations.ExistsByName(ctx, station.Name, station.ID)
		if err != nil {
			return model.Station{}, err
		}
		if taken {
			return model.Station{}, model.ErrStationAlreadyExists
		}
	}

	station.UpdatedAt = s.now()
	if err := s.stations.Update(ctx, station); err != nil {
		return model.Station{}, err
	}
	return station, nil
}

// Delete removes the station and every train serving it.
func (s *StationService) Delete(ctx context.Context, id string) error {
	removed, err := s.stations.Delete(ctx, id)
	if err != nil {
		return err
	}
	slog.Info("station deleted", "station_id", id, "trains_removed", removed)
	publish(s.events, event.TypeStationDeleted, id, map[string]any{"trains_removed": removed})
	return nil
}

func applyTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func checkStation(station model.Station) error {
	switch {
	case station.Name == "":
		return validationError("name", "name is required")
	case station.OpenHour == "":
		return validationError("open_hour", "open_hour is required")
	case station.CloseHour == "":
		return validationError("close_hour", "close_hour is required")
	case station.Image == "":
		return validationError("image", "image is required")
	}
	return nil
}
