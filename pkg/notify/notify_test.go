package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxtscape/nxbuild/pkg/errors"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var posts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		posts = append(posts, payload["text"])

		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &posts
}

func TestWebhookStageStarted(t *testing.T) {
	srv, posts := captureServer(t, http.StatusOK)

	w := NewWebhook(srv.URL, srv.Client())
	w.StageStarted(context.Background(), "patches")

	require.Len(t, *posts, 1)
	assert.Contains(t, (*posts)[0], "starting patches")
}

func TestWebhookBuildFailed(t *testing.T) {
	srv, posts := captureServer(t, http.StatusOK)

	w := NewWebhook(srv.URL, srv.Client())
	w.BuildFailed(context.Background(), "compile",
		errors.New(errors.ErrBuildFailed, "autoninja exited 1"))

	require.Len(t, *posts, 1)
	assert.Contains(t, (*posts)[0], "compile failed")
	assert.Contains(t, (*posts)[0], "autoninja exited 1")
}

func TestWebhookSwallowsServerErrors(t *testing.T) {
	srv, posts := captureServer(t, http.StatusInternalServerError)

	w := NewWebhook(srv.URL, srv.Client())
	w.StageStarted(context.Background(), "sync")

	// The event reached the server and the rejection did not panic or
	// propagate. That is the whole delivery contract.
	require.Len(t, *posts, 1)
}

func TestWebhookSwallowsConnectionErrors(t *testing.T) {
	w := NewWebhook("http://127.0.0.1:1/unreachable", nil)
	w.StageStarted(context.Background(), "clean")
}
