package models

import "time"

// DefaultUnit is used when the upstream row carries no unit information.
const DefaultUnit = "unit"

// DataPacket is the canonical time-series record used uniformly across the
// system. Every connector must normalize its rows into this shape before
// anything else touches them.
type DataPacket struct {
	Source    string                 `json:"source"`
	Ticker    string                 `json:"ticker"`
	Timestamp time.Time              `json:"timestamp"`
	Value     float64                `json:"value"`
	Unit      string                 `json:"unit"`
	Metadata  map[string]interface{} `json:"metadata"`
	// Raw keeps the original row for audit; downstream consumers never
	// interpret it.
	Raw       map[string]interface{} `json:"raw"`
	CreatedAt time.Time              `json:"created_at,omitempty"`
}

// Identity is the composite key under which a packet is stored. Upserting a
// packet with an existing identity replaces value/unit/metadata/raw in place.
type Identity struct {
	Source    string
	Ticker    string
	Timestamp time.Time
}

// Identity returns the packet's storage identity.
func (p *DataPacket) Identity() Identity {
	return Identity{Source: p.Source, Ticker: p.Ticker, Timestamp: p.Timestamp}
}

// DataSource describes a configured upstream feed. LastSync is advanced by
// the sync service only after a successful fetch-and-store cycle.
type DataSource struct {
	ID        int64                  `json:"id"`
	Name      string                 `json:"name"`
	Enabled   bool                   `json:"enabled"`
	Config    map[string]interface{} `json:"config,omitempty"`
	LastSync  *time.Time             `json:"last_sync,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Favorite is a user-pinned ticker/formula.
type Favorite struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Ticker      string    `json:"ticker"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
