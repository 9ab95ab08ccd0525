package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a Client at a local fake of the GitHub API.
func newTestClient(t *testing.T, mux *http.ServeMux) Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gh := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(gh, logger)
}

func TestGetContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/widgets/contents/.taskbridge.yml", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("ref"))
		encoded := base64.StdEncoding.EncodeToString([]byte("version: 1\n"))
		fmt.Fprintf(w, `{"type": "file", "name": ".taskbridge.yml", "encoding": "base64", "content": %q}`, encoded)
	})
	mux.HandleFunc("/repos/octo/widgets/contents/missing.yml", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	c := newTestClient(t, mux)

	content, err := c.GetContent(context.Background(), "octo", "widgets", ".taskbridge.yml", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", content)

	_, err = c.GetContent(context.Background(), "octo", "widgets", "missing.yml", "abc123")
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestGetShaOfCommitRef(t *testing.T) {
	t.Run("lightweight tag", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/octo/widgets/git/ref/tags/v1.0.0", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ref": "refs/tags/v1.0.0", "object": {"type": "commit", "sha": "commitsha"}}`)
		})
		c := newTestClient(t, mux)

		sha, err := c.GetShaOfCommitRef(context.Background(), "octo", "widgets", "tags/v1.0.0")
		require.NoError(t, err)
		assert.Equal(t, "commitsha", sha)
	})

	t.Run("annotated tag is dereferenced", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/octo/widgets/git/ref/tags/v2.0.0", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ref": "refs/tags/v2.0.0", "object": {"type": "tag", "sha": "tagobjsha"}}`)
		})
		mux.HandleFunc("/repos/octo/widgets/git/tags/tagobjsha", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"sha": "tagobjsha", "object": {"type": "commit", "sha": "commitsha"}}`)
		})
		c := newTestClient(t, mux)

		sha, err := c.GetShaOfCommitRef(context.Background(), "octo", "widgets", "tags/v2.0.0")
		require.NoError(t, err)
		assert.Equal(t, "commitsha", sha)
	})
}

func TestCreateCheckRun(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/widgets/check-runs", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"id": 200, "check_suite": {"id": 100}}`)
	})
	c := newTestClient(t, mux)

	ref, err := c.CreateCheckRun(context.Background(), "octo", "widgets", CheckRunOptions{
		Name:    "build",
		HeadSHA: "abc123",
		Status:  "queued",
		Title:   "Task Queued",
	})
	require.NoError(t, err)
	assert.Equal(t, "200", ref.CheckRunID)
	assert.Equal(t, "100", ref.CheckSuiteID)
}

func TestUpdateCheckRun_MalformedID(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())

	err := c.UpdateCheckRun(context.Background(), "octo", "widgets", "not-a-number", CheckRunUpdate{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed check run id")
}
