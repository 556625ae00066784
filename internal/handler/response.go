package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"railroad-api/internal/model"
	"railroad-api/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{model.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND", "User not found"},
	{model.ErrStationNotFound, http.StatusNotFound, "NOT_FOUND", "Station not found"},
	{model.ErrTrainNotFound, http.StatusNotFound, "NOT_FOUND", "Train not found"},
	{model.ErrTicketNotFound, http.StatusNotFound, "NOT_FOUND", "Ticket not found"},
	{model.ErrUserAlreadyExists, http.StatusBadRequest, "ALREADY_EXISTS", "Email or pseudo already in use"},
	{model.ErrStationAlreadyExists, http.StatusBadRequest, "ALREADY_EXISTS", "Station name already in use"},
	{model.ErrTrainAlreadyExists, http.StatusBadRequest, "ALREADY_EXISTS", "Train name already in use"},
	{model.ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid email or password"},
	{model.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
	{model.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Access denied"},
	{model.ErrInvalidInput, http.StatusBadRequest, "BAD_REQUEST", "Invalid input"},
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	mapped := false
	if apiErr, ok := apierror.As(err); ok {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		mapped = true
	} else {
		for _, m := range errorMappings {
			if errors.Is(err, m.target) {
				status, body.Code, body.Message = m.status, m.code, m.message
				mapped = true
				break
			}
		}
	}

	if !mapped {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.Wrap(err, "BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest)
	}
	return nil
}

// pathID returns the canonical form of a UUID path parameter.
func pathID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apierror.BadRequest("invalid id", raw)
	}
	return id.String(), nil
}
