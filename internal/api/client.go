package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Makepad-fr/ttsdeck/internal/metrics"
	"github.com/Makepad-fr/ttsdeck/internal/model"
)

// Operation names, used in errors, logs and metrics.
const (
	OpList       = "list"
	OpAudio      = "audio"
	OpSynthesize = "synthesize"
	OpDelete     = "delete"
)

// maxErrorBody caps how much of a failed response ends up in an OpError.
const maxErrorBody = 512

// Client talks to the /api/tts endpoints of the TTS service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Config holds the settings for NewClient.
type Config struct {
	BaseURL string
	Token   string // optional bearer token
	Timeout time.Duration
}

// NewClient creates a client. m may be nil.
func NewClient(cfg Config, logger *zap.Logger, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second // synthesis of long texts is slow
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    m,
	}
}

// ListRecords returns every record, in server order.
func (c *Client) ListRecords(ctx context.Context) ([]model.Record, error) {
	body, err := c.do(ctx, OpList, http.MethodGet, "/api/tts/records", nil)
	if err != nil {
		return nil, err
	}
	var records []model.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &OpError{Op: OpList, Err: fmt.Errorf("decode records: %w", err)}
	}
	// the server answers null when it has nothing stored
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}

// RecordAudio fetches the stored audio of a record.
func (c *Client) RecordAudio(ctx context.Context, id string) ([]byte, error) {
	return c.do(ctx, OpAudio, http.MethodGet, "/api/tts/records/"+url.PathEscape(id)+"/audio", nil)
}

// Synthesize creates a record and returns its freshly synthesized audio.
func (c *Client) Synthesize(ctx context.Context, req model.SynthesisRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &OpError{Op: OpSynthesize, Err: fmt.Errorf("marshal request: %w", err)}
	}
	return c.do(ctx, OpSynthesize, http.MethodPost, "/api/tts", payload)
}

// DeleteRecord removes a record on the server.
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	_, err := c.do(ctx, OpDelete, http.MethodDelete, "/api/tts/records/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &OpError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.logger.With(
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(op, 0, time.Since(start))
		log.Debug("request failed", zap.Error(err))
		return nil, &OpError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(op, resp.StatusCode, elapsed)
	if err != nil {
		return nil, &OpError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	log.Debug("request done",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", elapsed))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &OpError{Op: op, StatusCode: resp.StatusCode, Body: msg}
	}
	return data, nil
}
