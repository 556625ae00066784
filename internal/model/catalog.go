package model

import (
	"math"
	"time"
)

type Station struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OpenHour  string    `json:"open_hour"`
	CloseHour string    `json:"close_hour"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StationListData struct {
	Stations []Station `json:"stations"`
}

type Train struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	StartStation    string    `json:"start_station"`
	EndStation      string    `json:"end_station"`
	TimeOfDeparture time.Time `json:"time_of_departure"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type TrainListData struct {
	Trains []Train `json:"trains"`
}

// TrainQuery is a validated listing request. Sort is one of the TrainSort*
// columns and Order is "asc" or "desc".
type TrainQuery struct {
	Page  int
	Limit int
	Sort  string
	Order string
}

const (
	TrainSortName            = "name"
	TrainSortStartStation    = "start_station"
	TrainSortEndStation      = "end_station"
	TrainSortTimeOfDeparture = "time_of_departure"
)

// Offset saturates at math.MaxInt, so a page past any real catalog simply
// comes back empty.
func (q TrainQuery) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

func (q TrainQuery) Descending() bool {
	return q.Order == "desc"
}

type Ticket struct {
	ID        string    `json:"id"`
	TrainID   string    `json:"train_id"`
	UserID    string    `json:"user_id"`
	Valid     bool      `json:"valid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TicketListData struct {
	Tickets []Ticket `json:"tickets"`
}
