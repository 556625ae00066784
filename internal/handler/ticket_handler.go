package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"railroad-api/internal/access"
	"railroad-api/internal/model"
	"railroad-api/internal/service"
)

type TicketHandler struct {
	service *service.TicketService
}

func NewTicketHandler(service *service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func callerFromRequest(r *http.Request) (access.Identity, error) {
	identity, ok := access.IdentityFromContext(r.Context())
	if !ok {
		return access.Identity{}, model.ErrUnauthorized
	}
	return identity, nil
}

func (h *TicketHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tickets, err := h.service.History(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.TicketListData{Tickets: tickets}, nil)
}

// ForTrain lists tickets sold on the train named by the path id.
func (h *TicketHandler) ForTrain(w http.ResponseWriter, r *http.Request) {
	trainID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	tickets, err := h.service.ForTrain(r.Context(), trainID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.TicketListData{Tickets: tickets}, nil)
}

// Book issues a ticket on the train named by the path id.
func (h *TicketHandler) Book(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	trainID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	ticket, err := h.service.Book(r.Context(), caller, trainID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, ticket, nil)
}

func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ticketID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	ticket, err := h.service.Get(r.Context(), caller, ticketID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, ticket, nil)
}

func (h *TicketHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ticketID, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	ticket, err := h.service.Validate(r.Context(), ticketID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, ticket, nil)
}
