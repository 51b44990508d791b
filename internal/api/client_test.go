package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Makepad-fr/ttsdeck/internal/metrics"
	"github.com/Makepad-fr/ttsdeck/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, zap.NewNop(), nil)
}

func TestListRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tts/records", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"Id":"b","Title":"Second","Text":"two"},{"Id":"a","Title":"First","Text":"one"}]`))
	})

	records, err := c.ListRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Record{
		{Id: "b", Title: "Second", Text: "two"},
		{Id: "a", Title: "First", Text: "one"},
	}, records)
}

func TestListRecordsNull(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})

	records, err := c.ListRecords(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestListRecordsBadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})

	_, err := c.ListRecords(context.Background())
	var oe *OpError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, OpList, oe.Op)
	assert.Zero(t, oe.StatusCode)
}

func TestRecordAudio(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tts/records/id with space/audio", r.URL.Path)
		assert.Equal(t, "/api/tts/records/id%20with%20space/audio", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3audio"))
	})

	data, err := c.RecordAudio(context.Background(), "id with space")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audio"), data)
}

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"title": "Hello", "text": "Hi there"}, body)

		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, Token: "secret"}, zap.NewNop(), nil)

	data, err := c.Synthesize(context.Background(), model.SynthesisRequest{Title: "Hello", Text: "Hi there"})
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), data)
}

func TestDeleteRecord(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
	})

	require.NoError(t, c.DeleteRecord(context.Background(), "42"))
	assert.Equal(t, "/api/tts/records/42", gotPath)
}

func TestNon2xxIsOpError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sql: no rows in result set", http.StatusInternalServerError)
	})

	err := c.DeleteRecord(context.Background(), "missing")
	require.Error(t, err)

	var oe *OpError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, OpDelete, oe.Op)
	assert.Equal(t, http.StatusInternalServerError, oe.StatusCode)
	assert.Equal(t, "sql: no rows in result set", oe.Body)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Equal(t, "delete: status 500: sql: no rows in result set", err.Error())
}

func TestTransportFailureIsOpError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url, Timeout: time.Second}, zap.NewNop(), nil)
	_, err := c.ListRecords(context.Background())

	var oe *OpError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, OpList, oe.Op)
	assert.Zero(t, StatusCode(err))
	assert.NotNil(t, errors.Unwrap(err))
}

func TestRequestsAreCounted(t *testing.T) {
	m := metrics.New(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL}, zap.NewNop(), m)

	_, err := c.ListRecords(context.Background())
	require.NoError(t, err)
	require.Error(t, c.DeleteRecord(context.Background(), "x"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `ttsdeck_api_requests_total{op="list",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `ttsdeck_api_requests_total{op="delete",status="404"} 1`)
}
