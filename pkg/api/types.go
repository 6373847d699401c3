package api

import (
	"time"

	"github.com/rubiojr/gsuggest/pkg/coordinator"
	"github.com/rubiojr/gsuggest/pkg/storage"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Regions   int       `json:"regions"`
	Listeners int       `json:"listeners"`
}

type RegionResponse struct {
	ID       string `json:"id"`
	Template string `json:"template"`
}

type ListRegionsResponse struct {
	Regions []RegionResponse `json:"regions"`
	Count   int              `json:"count"`
}

type HistoryResponse struct {
	Rounds []storage.RoundRecord `json:"rounds"`
	Count  int                   `json:"count"`
	Limit  int                   `json:"limit"`
}

type HistorySearchResponse struct {
	Query string                  `json:"query"`
	Hits  []storage.SuggestionHit `json:"hits"`
	Count int                     `json:"count"`
}

// EventsInit is the first message on an events stream.
type EventsInit struct {
	Type  string                `json:"type"`
	Round *coordinator.Snapshot `json:"round"`
}
