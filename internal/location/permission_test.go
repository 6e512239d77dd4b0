package location

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"geochat-service/internal/models"
)

func TestComputePermissionMutualGrant(t *testing.T) {
	current := models.User{ID: "u1", SharingWith: models.StringList{"u2"}}
	other := models.User{ID: "u2", SharingWith: models.StringList{"u1"}}

	perm := ComputePermission(current, other)
	assert.True(t, perm.HasPermission)
	assert.False(t, perm.HasSentRequest)
	assert.False(t, perm.HasReceivedRequest)
}

func TestComputePermissionOneWayGrantIsNoPermission(t *testing.T) {
	current := models.User{ID: "u1", SharingWith: models.StringList{"u2"}}
	other := models.User{ID: "u2"}

	perm := ComputePermission(current, other)
	assert.False(t, perm.HasPermission)
}

func TestComputePermissionRequestDirections(t *testing.T) {
	requester := models.User{ID: "u1"}
	target := models.User{ID: "u2", SharingRequests: models.StringList{"u1"}}

	fromRequester := ComputePermission(requester, target)
	assert.True(t, fromRequester.HasSentRequest)
	assert.False(t, fromRequester.HasReceivedRequest)

	fromTarget := ComputePermission(target, requester)
	assert.False(t, fromTarget.HasSentRequest)
	assert.True(t, fromTarget.HasReceivedRequest)
}

func TestComputePermissionUnrelatedUsers(t *testing.T) {
	perm := ComputePermission(models.User{ID: "u1"}, models.User{ID: "u2"})
	assert.Equal(t, Permission{}, perm)
}

func TestStateCollapse(t *testing.T) {
	cases := []struct {
		name      string
		perm      Permission
		isSharing bool
		want      ShareState
	}{
		{"no relation", Permission{}, false, StateNoRelation},
		{"request sent", Permission{HasSentRequest: true}, false, StateRequestSent},
		{"request received", Permission{HasReceivedRequest: true}, false, StateRequestReceived},
		{"received wins over sent", Permission{HasSentRequest: true, HasReceivedRequest: true}, false, StateRequestReceived},
		{"granted idle", Permission{HasPermission: true}, false, StateGrantedIdle},
		{"granted sharing", Permission{HasPermission: true}, true, StateGrantedSharing},
		{"permission wins over stale request", Permission{HasPermission: true, HasSentRequest: true}, false, StateGrantedIdle},
		{"sharing flag alone means nothing", Permission{}, true, StateNoRelation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.perm.State(tc.isSharing))
		})
	}
}
