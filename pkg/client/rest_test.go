package client_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/adam.stanek/livearchiver/pkg/client"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *client.TwitchClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return client.NewTwitchClient(client.Opts{
		Credentials: client.Credentials{ClientID: "test-client"},
		BaseURL:     server.URL,
		HTTPClient:  server.Client(),
	})
}

func TestFetchStreams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streams", r.URL.Path)
		assert.Equal(t, "test-client", r.Header.Get("Client-Id"))
		assert.Equal(t, []string{"alpha", "beta"}, r.URL.Query()["user_login"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":"1","user_login":"alpha","type":"live","title":"hello","viewer_count":42,"started_at":"2024-01-02T03:04:05Z"}],"pagination":{}}`)
	})

	streams, err := c.FetchStreams(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, streams, 1)

	assert.Equal(t, "alpha", streams[0].UserLogin)
	assert.True(t, streams[0].IsLive())
	assert.Equal(t, int32(42), streams[0].ViewerCount)
	assert.Equal(t, 2024, streams[0].StartedAt.Year())
}

func TestFetchStreamsChunksLogins(t *testing.T) {
	logins := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		logins = append(logins, fmt.Sprintf("channel_%d", i))
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requested := r.URL.Query()["user_login"]
		assert.LessOrEqual(t, len(requested), client.MaxLoginsPerRequest)

		payload := map[string][]client.Stream{"data": {}}
		for _, login := range requested {
			payload["data"] = append(payload["data"], client.Stream{UserLogin: login, Type: "live"})
		}

		json.NewEncoder(w).Encode(payload)
	})

	streams, err := c.FetchStreams(context.Background(), logins)
	require.NoError(t, err)
	assert.Len(t, streams, 150)
}

func TestFetchStreamsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"Unauthorized","status":401,"message":"Invalid OAuth token"}`)
	})

	_, err := c.FetchStreams(context.Background(), []string{"alpha"})

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid OAuth token", apiErr.Message)
}

func TestChannelURL(t *testing.T) {
	assert.Equal(t, "https://twitch.tv/alpha", client.ChannelURL("alpha"))
}
