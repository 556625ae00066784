package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"railroad-api/internal/model"
	"railroad-api/internal/service"
	"railroad-api/pkg/apierror"
)

const (
	defaultTrainPage  = 1
	defaultTrainLimit = 10
)

type TrainHandler struct {
	service *service.TrainService
}

func NewTrainHandler(service *service.TrainService) *TrainHandler {
	return &TrainHandler{service: service}
}

// parseTrainQuery rejects bad paging before anything reaches the store.
func parseTrainQuery(r *http.Request) (model.TrainQuery, error) {
	values := r.URL.Query()
	params := model.TrainListParams{
		Page:  defaultTrainPage,
		Limit: defaultTrainLimit,
		Sort:  model.TrainSortName,
		Order: "asc",
	}

	for _, field := range []struct {
		name string
		dst  *int
	}{
		{"page", &params.Page},
		{"limit", &params.Limit},
	} {
		raw := strings.TrimSpace(values.Get(field.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.TrainQuery{}, apierror.Validation(field.name, field.name+" must be an integer")
		}
		*field.dst = n
	}

	if raw := strings.TrimSpace(values.Get("sort")); raw != "" {
		params.Sort = strings.ToLower(raw)
	}
	if raw := strings.TrimSpace(values.Get("order")); raw != "" {
		params.Order = strings.ToLower(raw)
	}

	if err := validateStruct(params); err != nil {
		return model.TrainQuery{}, err
	}

	return model.TrainQuery{
		Page:  params.Page,
		Limit: params.Limit,
		Sort:  params.Sort,
		Order: params.Order,
	}, nil
}

func (h *TrainHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseTrainQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	trains, meta, err := h.service.List(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.TrainListData{Trains: trains}, &meta)
}

func (h *TrainHandler) Get(w http.ResponseWriter, r *http.Request) {
	trainID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	train, err := h.service.Get(r.Context(), trainID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, train, nil)
}

func (h *TrainHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateTrainRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := validateStruct(payload); err != nil {
		writeError(w, err)
		return
	}

	train, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, train, nil)
}

func (h *TrainHandler) Update(w http.ResponseWriter, r *http.Request) {
	trainID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UpdateTrainRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := validateStruct(payload); err != nil {
		writeError(w, err)
		return
	}

	train, err := h.service.Update(r.Context(), trainID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, train, nil)
}

func (h *TrainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	trainID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), trainID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
