package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"railroad-api/internal/model"
)

var timeoutBody = func() string {
	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "REQUEST_TIMEOUT",
			Message: "request timed out",
		},
	})
	return string(body)
}()

// Timeout bounds handler time; the request context carries the deadline down
// to the store.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
