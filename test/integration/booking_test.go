//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railroad-api/internal/access"
	"railroad-api/internal/model"
)

func TestBookingFlowAgainstPostgres(t *testing.T) {
	e := newEnv(t, nil)
	_, adminToken := e.account(t, "root", access.RoleAdmin)
	_, staffToken := e.account(t, "clerk", access.RoleEmployee)

	resp, parsed := e.do(t, http.MethodPost, "/user/register", "", map[string]string{
		"pseudo": "rider", "email": "Rider@Rail.test", "password": "choo-choo",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rider := decodeData[model.User](t, parsed)
	assert.Equal(t, "rider@rail.test", rider.Email)

	resp, parsed = e.do(t, http.MethodPost, "/user/login", "", map[string]string{
		"email": "rider@rail.test", "password": "choo-choo",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decodeData[model.LoginData](t, parsed)
	require.NotEmpty(t, login.Token)

	var stations []model.Station
	for _, name := range []string{"Paris", "Marseille"} {
		resp, parsed = e.do(t, http.MethodPost, "/station/create", adminToken, map[string]string{
			"name": name, "open_hour": "05:00", "close_hour": "23:00", "image": name + ".png",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		stations = append(stations, decodeData[model.Station](t, parsed))
	}

	resp, parsed = e.do(t, http.MethodPost, "/train/create", adminToken, map[string]any{
		"name":              "TGV 6101",
		"start_station":     stations[0].ID,
		"end_station":       stations[1].ID,
		"time_of_departure": time.Date(2026, 11, 2, 7, 15, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	train := decodeData[model.Train](t, parsed)

	resp, parsed = e.do(t, http.MethodPost, "/ticket/"+train.ID+"/booking", login.Token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ticket := decodeData[model.Ticket](t, parsed)
	assert.Equal(t, rider.ID, ticket.UserID)
	assert.False(t, ticket.Valid)

	resp, _ = e.do(t, http.MethodGet, "/ticket/"+ticket.ID+"/validate", login.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	for i := 0; i < 2; i++ {
		resp, parsed = e.do(t, http.MethodGet, "/ticket/"+ticket.ID+"/validate", staffToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, decodeData[model.Ticket](t, parsed).Valid)
	}

	resp, parsed = e.do(t, http.MethodGet, "/ticket/history", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeData[model.TicketListData](t, parsed)
	require.Len(t, history.Tickets, 1)
	assert.True(t, history.Tickets[0].Valid)

	resp, _ = e.do(t, http.MethodDelete, "/station/"+stations[0].ID, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/train/"+train.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/ticket/"+ticket.ID, login.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
