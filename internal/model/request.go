package model

import "time"

type RegisterRequest struct {
	Pseudo   string `json:"pseudo" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Pseudo   *string `json:"pseudo" validate:"omitnil,min=1"`
	Email    *string `json:"email" validate:"omitnil,min=1"`
	Password *string `json:"password" validate:"omitnil,min=1"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type CreateStationRequest struct {
	Name      string `json:"name" validate:"required"`
	OpenHour  string `json:"open_hour" validate:"required"`
	CloseHour string `json:"close_hour" validate:"required"`
	Image     string `json:"image" validate:"required"`
}

type UpdateStationRequest struct {
	Name      *string `json:"name" validate:"omitnil,min=1"`
	OpenHour  *string `json:"open_hour" validate:"omitnil,min=1"`
	CloseHour *string `json:"close_hour" validate:"omitnil,min=1"`
	Image     *string `json:"image" validate:"omitnil,min=1"`
}

type CreateTrainRequest struct {
	Name            string     `json:"name" validate:"required"`
	StartStation    string     `json:"start_station" validate:"required,uuid"`
	EndStation      string     `json:"end_station" validate:"required,uuid"`
	TimeOfDeparture *time.Time `json:"time_of_departure" validate:"required"`
}

type UpdateTrainRequest struct {
	Name            *string    `json:"name" validate:"omitnil,min=1"`
	StartStation    *string    `json:"start_station" validate:"omitnil,uuid"`
	EndStation      *string    `json:"end_station" validate:"omitnil,uuid"`
	TimeOfDeparture *time.Time `json:"time_of_departure"`
}

// TrainListParams carries raw query values after integer parsing; the tags
// encode the accepted ranges and enumerations.
type TrainListParams struct {
	Page  int    `validate:"min=1"`
	Limit int    `validate:"min=1,max=100"`
	Sort  string `validate:"oneof=name start_station end_station time_of_departure"`
	Order string `validate:"oneof=asc desc"`
}
