package internalhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nightpulse/eventbot/internal/app"
	"github.com/nightpulse/eventbot/internal/reminder"
	"github.com/nightpulse/eventbot/internal/rsvp"
	memorystorage "github.com/nightpulse/eventbot/internal/storage/memory"
	"github.com/nightpulse/eventbot/internal/timezone"
	"github.com/stretchr/testify/require"
)

type dropSink struct{}

func (dropSink) Send(context.Context, string, string) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *reminder.Index) {
	t.Helper()
	store := memorystorage.New()
	index := reminder.NewIndex()
	tz, err := timezone.New("")
	require.NoError(t, err)
	registrar := rsvp.NewRegistrar(store, dropSink{}, tz)
	server := NewServer(Config{}, app.New(store, index, registrar))

	ts := httptest.NewServer(server.srv.Handler)
	t.Cleanup(ts.Close)
	return ts, index
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func eventPayload() map[string]interface{} {
	start := time.Now().Add(2 * time.Hour).UTC()
	return map[string]interface{}{
		"name":      "test party",
		"location":  "East Bay",
		"channelId": "chan-1",
		"messageId": "msg-1",
		"startAt":   start.Format(time.RFC3339),
		"endAt":     start.Add(4 * time.Hour).Format(time.RFC3339),
		"remindAt":  start.Add(-time.Hour).Format(time.RFC3339),
	}
}

func TestServer(t *testing.T) {
	t.Run("create event registers reminder", func(t *testing.T) {
		ts, index := newTestServer(t)

		resp := postJSON(t, ts.URL+"/api/events", eventPayload())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotEmpty(t, body["id"])
		require.True(t, index.Contains(body["id"]))
	})

	t.Run("create event with bad times", func(t *testing.T) {
		ts, _ := newTestServer(t)

		payload := eventPayload()
		payload["remindAt"] = time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
		resp := postJSON(t, ts.URL+"/api/events", payload)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rsvp returns definite result", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp := postJSON(t, ts.URL+"/api/events", eventPayload())
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var created map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

		rsvpURL := fmt.Sprintf("%s/api/events/%s/rsvp", ts.URL, created["id"])

		resp = postJSON(t, rsvpURL, map[string]string{"userId": "user-1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var result map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.Equal(t, "registered", result["result"])

		resp = postJSON(t, rsvpURL, map[string]string{"userId": "user-1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.Equal(t, "already_registered", result["result"])
	})

	t.Run("rsvp for unknown event", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp := postJSON(t, ts.URL+"/api/events/unknown/rsvp", map[string]string{"userId": "user-1"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("rsvp without user", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp := postJSON(t, ts.URL+"/api/events/unknown/rsvp", map[string]string{})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
