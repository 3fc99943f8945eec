package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterResolvesRoles(t *testing.T) {
	router := &Router{}

	sock := &fakeSocket{}
	role, ok := router.Resolve(sock, []byte(`{"role":"owner"}`))
	require.True(t, ok)
	assert.Equal(t, RoleOwner, role)
	assert.False(t, sock.disconnected)

	sock = &fakeSocket{}
	role, ok = router.Resolve(sock, []byte(`{"role":"controller"}`))
	require.True(t, ok)
	assert.Equal(t, RoleController, role)
}

func TestRouterRejectsInvalidAuth(t *testing.T) {
	router := &Router{}

	for _, payload := range []string{`{"role":"root"}`, `{}`, `garbage`} {
		t.Run(payload, func(t *testing.T) {
			sock := &fakeSocket{}
			_, ok := router.Resolve(sock, []byte(payload))
			assert.False(t, ok)

			require.Len(t, sock.emits, 1)
			assert.Equal(t, EventConnectError, sock.emits[0].event)
			assert.Equal(t, ConnectErrorResponse{Reason: ReasonUnauthorized}, sock.emits[0].payload)
			assert.True(t, sock.disconnected)
		})
	}
}
