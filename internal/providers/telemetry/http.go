package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bazimogmbh/easypurchase/internal/observability/metrics"
)

const (
	endpointConfigure         = "app-user"
	endpointTrackPurchase     = "transaction"
	endpointTrackAllPurchases = "transactions"
)

type httpClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHTTP returns a Client posting JSON to the telemetry backend.
func NewHTTP(baseURL string, logger *zap.Logger, m *metrics.Metrics) Client {
	return &httpClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: 12 * time.Second},
		logger:  logger.Named("providers.telemetry"),
		metrics: m,
	}
}

func (c *httpClient) SendProfile(ctx context.Context, profile UserProfile) error {
	return c.post(ctx, endpointConfigure, profile)
}

func (c *httpClient) SendPurchase(ctx context.Context, detail PurchaseDetail) error {
	return c.post(ctx, endpointTrackPurchase, detail)
}

func (c *httpClient) SendPurchaseBatch(ctx context.Context, batch PurchaseBatch) error {
	return c.post(ctx, endpointTrackAllPurchases, batch)
}

func (c *httpClient) post(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordTelemetrySend(ctx, endpoint, 0)
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	c.metrics.RecordTelemetrySend(ctx, endpoint, resp.StatusCode)
	c.logger.Debug("telemetry send",
		zap.String("endpoint", endpoint),
		zap.Int("status_code", resp.StatusCode),
	)
	return nil
}
