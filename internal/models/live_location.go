package models

import "time"

// LiveLocation is a one-directional position broadcast from UserID to
// SharedWith. A mutual session is two rows, one per direction, each
// activated separately.
type LiveLocation struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	SharedWith  string    `db:"shared_with" json:"shared_with"`
	Latitude    float64   `db:"latitude" json:"latitude"`
	Longitude   float64   `db:"longitude" json:"longitude"`
	Accuracy    *float64  `db:"accuracy" json:"accuracy,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
}

// LiveLocationView adds the display fields of both ends of the broadcast.
// Consumers disambiguate direction by comparing UserID/SharedWith with their
// own ID.
type LiveLocationView struct {
	LiveLocation
	UserName         string  `db:"user_name" json:"user_name"`
	UserAvatar       *string `db:"user_avatar" json:"user_avatar,omitempty"`
	SharedWithName   string  `db:"shared_with_name" json:"shared_with_name"`
	SharedWithAvatar *string `db:"shared_with_avatar" json:"shared_with_avatar,omitempty"`
}
