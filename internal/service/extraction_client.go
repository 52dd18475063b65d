package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/config"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

const maxExtractionResponse = 1 << 20

// ExtractionClient asks the configured text extraction endpoint for candidate events.
type ExtractionClient struct {
	cfg        config.ExtractionConfig
	httpClient *http.Client
	validator  *validator.Validate
	logger     *zap.Logger
}

type extractionRequest struct {
	Text string `json:"text"`
}

type extractionResponse struct {
	Events []models.ExtractedEvent `json:"events"`
}

// NewExtractionClient builds a client; it reports itself disabled unless both the flag and the
// base URL are set.
func NewExtractionClient(cfg config.ExtractionConfig, logger *zap.Logger) *ExtractionClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ExtractionClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		validator:  validator.New(),
		logger:     logger,
	}
}

// Enabled reports whether extraction requests can be sent.
func (c *ExtractionClient) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.cfg.BaseURL != ""
}

// Extract posts the text and returns the well-formed candidates. Malformed candidates are dropped.
func (c *ExtractionClient) Extract(ctx context.Context, text string) ([]models.ExtractedEvent, error) {
	if !c.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "event extraction is not configured")
	}

	body, err := json.Marshal(extractionRequest{Text: text})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to encode extraction request")
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/extract-events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to build extraction request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.Internal(err, "extraction service unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("extraction service rejected request",
			zap.Int("status", resp.StatusCode), zap.String("body", string(snippet)))
		return nil, appErrors.Internal(fmt.Errorf("unexpected status %d", resp.StatusCode), "extraction service failed")
	}

	var payload extractionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxExtractionResponse)).Decode(&payload); err != nil {
		return nil, appErrors.Internal(err, "invalid extraction response")
	}

	events := make([]models.ExtractedEvent, 0, len(payload.Events))
	for _, ev := range payload.Events {
		ev.Title = strings.TrimSpace(ev.Title)
		ev.Category = strings.TrimSpace(ev.Category)
		if err := c.validator.Struct(ev); err != nil {
			c.logger.Debug("dropping malformed extracted event", zap.String("title", ev.Title), zap.Error(err))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
