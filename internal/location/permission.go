// Package location implements the consent-gated live-location subsystem: the
// mutual-permission read model and the tracker that runs position watches.
package location

import "geochat-service/internal/models"

// Permission is the consent state between a user and a peer, derived from the
// two profiles' sharing sets. Asymmetric sharing_with state (a half-applied
// accept) reads as no permission until corrected.
type Permission struct {
	HasPermission      bool `json:"has_permission"`
	HasSentRequest     bool `json:"has_sent_request"`
	HasReceivedRequest bool `json:"has_received_request"`
}

// ComputePermission derives the consent booleans for current against other.
func ComputePermission(current, other models.User) Permission {
	return Permission{
		HasPermission:      current.SharingWith.Contains(other.ID) && other.SharingWith.Contains(current.ID),
		HasSentRequest:     other.SharingRequests.Contains(current.ID),
		HasReceivedRequest: current.SharingRequests.Contains(other.ID),
	}
}

// ShareState is the finite state the UI derives its sharing button from.
type ShareState string

const (
	StateNoRelation      ShareState = "no_relation"
	StateRequestSent     ShareState = "request_sent"
	StateRequestReceived ShareState = "request_received"
	StateGrantedIdle     ShareState = "granted_idle"
	StateGrantedSharing  ShareState = "granted_sharing"
)

// State collapses the permission booleans plus the live sharing flag into one
// of the five machine states. Permission wins over a stale request flag.
func (p Permission) State(isSharing bool) ShareState {
	switch {
	case p.HasPermission && isSharing:
		return StateGrantedSharing
	case p.HasPermission:
		return StateGrantedIdle
	case p.HasReceivedRequest:
		return StateRequestReceived
	case p.HasSentRequest:
		return StateRequestSent
	default:
		return StateNoRelation
	}
}
