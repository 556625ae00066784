package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"railroad-api/internal/model"
	"railroad-api/internal/service"
)

type StationHandler struct {
	service *service.StationService
}

func NewStationHandler(service *service.StationService) *StationHandler {
	return &StationHandler{service: service}
}

func (h *StationHandler) List(w http.ResponseWriter, r *http.Request) {
	stations, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.StationListData{Stations: stations}, nil)
}

func (h *StationHandler) Get(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	station, err := h.service.Get(r.Context(), stationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, station, nil)
}

func (h *StationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateStationRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := validateStruct(payload); err != nil {
		writeError(w, err)
		return
	}

	station, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, station, nil)
}

func (h *StationHandler) Update(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateStationRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := validateStruct(payload); err != nil {
		writeError(w, err)
		return
	}

	station, err := h.service.Update(r.Context(), stationID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, station, nil)
}

func (h *StationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	stationID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), stationID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
