package models

import "time"

// User is a profile row. The two sharing lists drive the location consent
// state: SharingRequests holds incoming asks, SharingWith holds confirmed
// peers and is only ever made symmetric by the accept operation. Nullable
// columns map to pointers so responses carry flat values or omit the key.
type User struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Email           string     `db:"email" json:"email"`
	Avatar          *string    `db:"avatar" json:"avatar,omitempty"`
	Bio             *string    `db:"bio" json:"bio,omitempty"`
	Lat             *float64   `db:"lat" json:"lat,omitempty"`
	Lng             *float64   `db:"lng" json:"lng,omitempty"`
	IsOnline        bool       `db:"is_online" json:"is_online"`
	LastSeen        *time.Time `db:"last_seen" json:"last_seen,omitempty"`
	PIN             string     `db:"pin" json:"pin"`
	SharingRequests StringList `db:"location_sharing_requests" json:"location_sharing_requests"`
	SharingWith     StringList `db:"location_sharing_with" json:"location_sharing_with"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// PublicProfile is what one user may see of another: PIN search results and
// the people listing. The PIN, email and the sharing sets stay on the owner's
// own profile.
type PublicProfile struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Avatar    *string    `db:"avatar" json:"avatar,omitempty"`
	Bio       *string    `db:"bio" json:"bio,omitempty"`
	Lat       *float64   `db:"lat" json:"lat,omitempty"`
	Lng       *float64   `db:"lng" json:"lng,omitempty"`
	IsOnline  bool       `db:"is_online" json:"is_online"`
	LastSeen  *time.Time `db:"last_seen" json:"last_seen,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// UserSnapshot is the profile slice embedded in list views, resolved at read
// time rather than denormalized.
type UserSnapshot struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Avatar   *string `db:"avatar" json:"avatar,omitempty"`
	IsOnline bool    `db:"is_online" json:"is_online"`
}
