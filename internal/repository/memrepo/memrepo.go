// Package memrepo is an in-process implementation of the repository contracts.
// It mirrors the Postgres repositories' uniqueness rules and cascades and is
// used to exercise services and routes without a database.
package memrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"railroad-api/internal/model"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]model.User
	stations map[string]model.Station
	trains   map[string]model.Train
	tickets  map[string]model.Ticket
	calls    map[string]int
}

func New() *Store {
	return &Store{
		users:    map[string]model.User{},
		stations: map[string]model.Station{},
		trains:   map[string]model.Train{},
		tickets:  map[string]model.Ticket{},
		calls:    map[string]int{},
	}
}

// Calls reports how many store operations of the given name ran, e.g.
// "trains.List" or "users.FindByID".
func (s *Store) Calls(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[name]
}

func (s *Store) TotalCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *Store) record(name string) {
	s.calls[name]++
}

func (s *Store) Users() *Users       { return &Users{s: s} }
func (s *Store) Stations() *Stations { return &Stations{s: s} }
func (s *Store) Trains() *Trains     { return &Trains{s: s} }
func (s *Store) Tickets() *Tickets   { return &Tickets{s: s} }

func sameFold(a string, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// deleteTrainLocked drops a train and the tickets booked on it.
func (s *Store) deleteTrainLocked(id string) {
	delete(s.trains, id)
	for ticketID, ticket := range s.tickets {
		if ticket.TrainID == id {
			delete(s.tickets, ticketID)
		}
	}
}

type Users struct{ s *Store }

func (u *Users) FindByID(_ context.Context, id string) (model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.s.record("users.FindByID")

	user, ok := u.s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.s.record("users.FindByEmail")

	for _, user := range u.s.users {
		if sameFold(user.Email, email) {
			return user, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (u *Users) ExistsByEmailOrPseudo(_ context.Context, email string, pseudo string, exceptID string) (bool, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.s.record("users.ExistsByEmailOrPseudo")

	return u.conflictLocked(email, pseudo, exceptID), nil
}

func (u *Users) conflictLocked(email string, pseudo string, exceptID string) bool {
	for id, user := range u.s.users {
		if id == exceptID {
			continue
		}
		if sameFold(user.Email, email) || sameFold(user.Pseudo, pseudo) {
			return true
		}
	}
	return false
}

func (u *Users) Create(_ context.Context, user model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.s.record("users.Create")

	if u.conflictLocked(user.Email, user.Pseudo, "") {
		return model.ErrUserAlreadyExists
	}
	u.s.users[user.ID] = user
	return nil
}

func (u *Users) Update(_ context.Context, user model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.s.record("users.Update")

	if _, ok := u.s.users[user.ID]; !ok {
		return model.ErrUserNotFound
	}
	if u.conflictLocked(user.Email, user.Pseudo, user.ID) {
		return model.ErrUserAlreadyExists
	}
	u.s.users[user.ID] = user
	return nil
}

func (u *Users) Delete(_ context.Context, id string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.s.record("users.Delete")

	if _, ok := u.s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(u.s.users, id)
	for ticketID, ticket := range u.s.tickets {
		if ticket.UserID == id {
			delete(u.s.tickets, ticketID)
		}
	}
	return nil
}

func (u *Users) List(_ context.Context) ([]model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.s.record("users.List")

	out := make([]model.User, 0, len(u.s.users))
	for _, user := range u.s.users {
		out = append(out, user)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Pseudo < out[j].Pseudo
	})
	return out, nil
}

type Stations struct{ s *Store }

func (st *Stations) List(_ context.Context) ([]model.Station, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	st.s.record("stations.List")

	out := make([]model.Station, 0, len(st.s.stations))
	for _, station := range st.s.stations {
		out = append(out, station)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (st *Stations) FindByID(_ context.Context, id string) (model.Station, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	st.s.record("stations.FindByID")

	station, ok := st.s.stations[id]
	if !ok {
		return model.Station{}, model.ErrStationNotFound
	}
	return station, nil
}

func (st *Stations) ExistsByName(_ context.Context, name string, exceptID string) (bool, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	st.s.record("stations.ExistsByName")

	return st.nameTakenLocked(name, exceptID), nil
}

func (st *Stations) nameTakenLocked(name string, exceptID string) bool {
	for id, station := range st.s.stations {
		if id != exceptID && sameFold(station.Name, name) {
			return true
		}
	}
	return false
}

func (st *Stations) Create(_ context.Context, station model.Station) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	st.s.record("stations.Create")

	if st.nameTakenLocked(station.Name, "") {
		return model.ErrStationAlreadyExists
	}
	st.s.stations[station.ID] = station
	return nil
}

func (st *Stations) Update(_ context.Context, station model.Station) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	st.s.record("stations.Update")

	if _, ok := st.s.stations[station.ID]; !ok {
		return model.ErrStationNotFound
	}
	if st.nameTakenLocked(station.Name, station.ID) {
		return model.ErrStationAlreadyExists
	}
	st.s.stations[station.ID] = station
	return nil
}

func (st *Stations) Delete(_ context.Context, id string) (int64, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	st.s.record("stations.Delete")

	if _, ok := st.s.stations[id]; !ok {
		return 0, model.ErrStationNotFound
	}

	var removed int64
	for trainID, train := range st.s.trains {
		if train.StartStation == id || train.EndStation == id {
			st.s.deleteTrainLocked(trainID)
			removed++
		}
	}
	delete(st.s.stations, id)
	return removed, nil
}

type Trains struct{ s *Store }

func (tr *Trains) List(_ context.Context, query model.TrainQuery) ([]model.Train, int, error) {
	tr.s.mu.Lock()
	defer tr.s.mu.Unlock()
	tr.s.record("trains.List")

	all := make([]model.Train, 0, len(tr.s.trains))
	for _, train := range tr.s.trains {
		all = append(all, train)
	}

	less := func(a model.Train, b model.Train) int {
		switch query.Sort {
		case model.TrainSortStartStation:
			return strings.Compare(a.StartStation, b.StartStation)
		case model.TrainSortEndStation:
			return strings.Compare(a.EndStation, b.EndStation)
		case model.TrainSortTimeOfDeparture:
			return a.TimeOfDeparture.Compare(b.TimeOfDeparture)
		default:
			return strings.Compare(a.Name, b.Name)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		cmp := less(all[i], all[j])
		if query.Descending() {
			cmp = -cmp
		}
		if cmp == 0 {
			return all[i].ID < all[j].ID
		}
		return cmp < 0
	})

	total := len(all)
	start := query.Offset()
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}
	return append([]model.Train(nil), all[start:end]...), total, nil
}

func (tr *Trains) FindByID(_ context.Context, id string) (model.Train, error) {
	tr.s.mu.Lock()
	defer tr.s.mu.Unlock()
	tr.s.record("trains.FindByID")

	train, ok := tr.s.trains[id]
	if !ok {
		return model.Train{}, model.ErrTrainNotFound
	}
	return train, nil
}

func (tr *Trains) ExistsByName(_ context.Context, name string, exceptID string) (bool, error) {
	tr.s.mu.Lock()
	defer tr.s.mu.Unlock()
	tr.s.record("trains.ExistsByName")

	return tr.nameTakenLocked(name, exceptID), nil
}

func (tr *Trains) nameTakenLocked(name string, exceptID string) bool {
	for id, train := range tr.s.trains {
		if id != exceptID && sameFold(train.Name, name) {
			return true
		}
	}
	return false
}

func (tr *Trains) stationsExistLocked(train model.Train) bool {
	_, start := tr.s.stations[train.StartStation]
	_, end := tr.s.stations[train.EndStation]
	return start && end
}

func (tr *Trains) Create(_ context.Context, train model.Train) error {
	tr.s.mu.Lock()
	defer tr.s.mu.Unlock()
	tr.s.record("trains.Create")

	if tr.nameTakenLocked(train.Name, "") {
		return model.ErrTrainAlreadyExists
	}
	if !tr.stationsExistLocked(train) {
		return model.ErrStationNotFound
	}
	tr.s.trains[train.ID] = train
	return nil
}

func (tr *Trains) Update(_ context.Context, train model.Train) error {
	tr.s.mu.Lock()
	defer tr.s.mu.Unlock()
	tr.s.record("trains.Update")

	if _, ok := tr.s.trains[train.ID]; !ok {
		return model.ErrTrainNotFound
	}
	if tr.nameTakenLocked(train.Name, train.ID) {
		return model.ErrTrainAlreadyExists
	}
	if !tr.stationsExistLocked(train) {
		return model.ErrStationNotFound
	}
	tr.s.trains[train.ID] = train
	return nil
}

func (tr *Trains) Delete(_ context.Context, id string) error {
	tr.s.mu.Lock()
	defer tr.s.mu.Unlock()
	tr.s.record("trains.Delete")

	if _, ok := tr.s.trains[id]; !ok {
		return model.ErrTrainNotFound
	}
	tr.s.deleteTrainLocked(id)
	return nil
}

type Tickets struct{ s *Store }

func (tk *Tickets) filterLocked(keep func(model.Ticket) bool, newestFirst bool) []model.Ticket {
	out := make([]model.Ticket, 0)
	for _, ticket := range tk.s.tickets {
		if keep(ticket) {
			out = append(out, ticket)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (tk *Tickets) ListByUser(_ context.Context, userID string) ([]model.Ticket, error) {
	tk.s.mu.Lock()
	defer tk.s.mu.Unlock()
	tk.s.record("tickets.ListByUser")

	return tk.filterLocked(func(t model.Ticket) bool { return t.UserID == userID }, true), nil
}

func (tk *Tickets) ListByTrain(_ context.Context, trainID string) ([]model.Ticket, error) {
	tk.s.mu.Lock()
	defer tk.s.mu.Unlock()
	tk.s.record("tickets.ListByTrain")

	return tk.filterLocked(func(t model.Ticket) bool { return t.TrainID == trainID }, false), nil
}

func (tk *Tickets) FindByID(_ context.Context, id string) (model.Ticket, error) {
	tk.s.mu.Lock()
	defer tk.s.mu.Unlock()
	tk.s.record("tickets.FindByID")

	ticket, ok := tk.s.tickets[id]
	if !ok {
		return model.Ticket{}, model.ErrTicketNotFound
	}
	return ticket, nil
}

func (tk *Tickets) Create(_ context.Context, ticket model.Ticket) error {
	tk.s.mu.Lock()
	defer tk.s.mu.Unlock()
	tk.s.record("tickets.Create")

	if _, ok := tk.s.trains[ticket.TrainID]; !ok {
		return model.ErrTrainNotFound
	}
	tk.s.tickets[ticket.ID] = ticket
	return nil
}

func (tk *Tickets) MarkValid(_ context.Context, id string, at time.Time) (model.Ticket, bool, error) {
	tk.s.mu.Lock()
	defer tk.s.mu.Unlock()
	tk.s.record("tickets.MarkValid")

	ticket, ok := tk.s.tickets[id]
	if !ok {
		return model.Ticket{}, false, model.ErrTicketNotFound
	}
	if ticket.Valid {
		return ticket, false, nil
	}
	ticket.Valid = true
	ticket.UpdatedAt = at
	tk.s.tickets[id] = ticket
	return ticket, true, nil
}
