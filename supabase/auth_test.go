package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestServer(t *testing.T, member bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/user":
			assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"id": "user-1"}`))
		case "/rest/v1/user_organizations":
			if member {
				_, _ = w.Write([]byte(`[{"user_id": "user-1"}]`))
			} else {
				_, _ = w.Write([]byte(`[]`))
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestVerifyUser(t *testing.T) {
	srv := newAuthTestServer(t, true)
	defer srv.Close()

	client := NewClientWithBase(srv.URL, "service-key")
	userID, err := client.VerifyUser(context.Background(), "user-token", "tenant-a")

	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerifyUserNotAMember(t *testing.T) {
	srv := newAuthTestServer(t, false)
	defer srv.Close()

	client := NewClientWithBase(srv.URL, "service-key")
	_, err := client.VerifyUser(context.Background(), "user-token", "tenant-a")

	assert.Error(t, err)
}

func TestVerifyUserMissingToken(t *testing.T) {
	client := NewClientWithBase("http://unused.invalid", "service-key")

	_, err := client.VerifyUser(context.Background(), "", "tenant-a")

	assert.Error(t, err)
}

func TestVerifyUserInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClientWithBase(srv.URL, "service-key")
	_, err := client.VerifyUser(context.Background(), "bad-token", "tenant-a")

	assert.Error(t, err)
}
