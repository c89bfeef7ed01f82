package attribution

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// sentinelCampaignID is returned by the exchange endpoint for requests
// that carry no real campaign attribution.
const sentinelCampaignID = 1234567890

// CampaignAttribution is a resolved ad campaign association.
type CampaignAttribution struct {
	Attribution    bool
	CampaignID     string
	CampaignRegion string
}

// ExchangeClient trades a platform attribution token for campaign data.
// A nil result with nil error means no real attribution exists.
type ExchangeClient interface {
	Exchange(ctx context.Context, token string) (*CampaignAttribution, error)
}

type exchangeResponse struct {
	Attribution     bool   `json:"attribution"`
	CampaignID      int64  `json:"campaignId"`
	CountryOrRegion string `json:"countryOrRegion"`
}

type httpExchange struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewExchangeClient(url string, logger *zap.Logger) ExchangeClient {
	return &httpExchange{
		url:    url,
		client: &http.Client{Timeout: 12 * time.Second},
		log:    logger.Named("attribution.exchange"),
	}
}

func (e *httpExchange) Exchange(ctx context.Context, token string) (*CampaignAttribution, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, strings.NewReader(token))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	if parsed.CampaignID == sentinelCampaignID {
		e.log.Debug("sentinel campaign id, discarding attribution")
		return nil, nil
	}

	return &CampaignAttribution{
		Attribution:    parsed.Attribution,
		CampaignID:     strconv.FormatInt(parsed.CampaignID, 10),
		CampaignRegion: parsed.CountryOrRegion,
	}, nil
}
