package request

type SetRatesRequest struct {
	DisplayName string `json:"display_name" validate:"max=120"`
	HourlyRate  int64  `json:"hourly_rate" validate:"required,gt=0"`
	RushRate    *int64 `json:"rush_rate,omitempty" validate:"omitempty,gt=0"`
}
