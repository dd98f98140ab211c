package models

// Requests for the data API endpoints. Defined in domain for consistency and
// reuse across handlers.

type HistoryRequest struct {
	Ticker       string `query:"ticker" json:"ticker" validate:"required"`
	Start        string `query:"start" json:"start"`
	End          string `query:"end" json:"end"`
	Source       string `query:"source" json:"source"`
	Days         int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=3650"`
	ForceRefresh bool   `query:"force_refresh" json:"force_refresh"`
}

type LatestRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required"`
	Source string `query:"source" json:"source"`
}

type TickersRequest struct {
	Source string `query:"source" json:"source"`
}

type SyncRequest struct {
	Ticker       string `json:"ticker" validate:"required"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Source       string `json:"source" default:"curveseries"`
	ForceRefresh bool   `json:"force_refresh"`
}

type AddFavoriteRequest struct {
	Ticker      string `json:"ticker" validate:"required,max=200"`
	DisplayName string `json:"display_name" validate:"max=200"`
	UserID      string `json:"user_id" default:"default" validate:"max=100"`
}
