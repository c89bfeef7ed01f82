package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedRequest struct {
	path        string
	contentType string
	body        []byte
}

func newCapturingServer(t *testing.T) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var requests []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		requests = append(requests, capturedRequest{
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestSendProfile(t *testing.T) {
	srv, requests := newCapturingServer(t)
	client := NewHTTP(srv.URL, zap.NewNop(), nil)

	attribution := true
	profile := UserProfile{
		Attribution: &attribution,
		CampaignID:  "987654",
		AppBundleID: "com.sandstorm.reader",
		AppUserID:   "abc123",
	}
	require.NoError(t, client.SendProfile(context.Background(), profile))

	require.Len(t, *requests, 1)
	sent := (*requests)[0]
	require.Equal(t, "/app-user", sent.path)
	require.Equal(t, "application/json", sent.contentType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(sent.body, &payload))
	require.Equal(t, true, payload["attribution"])
	require.Equal(t, "987654", payload["campaign_id"])
	require.Equal(t, "com.sandstorm.reader", payload["app_bundle_id"])
	require.Equal(t, "abc123", payload["app_user_id"])
}

func TestSendPurchase(t *testing.T) {
	srv, requests := newCapturingServer(t)
	client := NewHTTP(srv.URL+"/", zap.NewNop(), nil)

	detail := PurchaseDetail{
		AppUserID:                "abc123",
		ProductID:                "sub.monthly",
		TransactionID:            "tx-1",
		PriceInPurchasedCurrency: "5.99",
		Currency:                 "USD",
		PurchasedAtMs:            "1709294400000",
		WithTrial:                true,
	}
	require.NoError(t, client.SendPurchase(context.Background(), detail))

	require.Len(t, *requests, 1)
	sent := (*requests)[0]
	require.Equal(t, "/transaction", sent.path)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(sent.body, &payload))
	require.Equal(t, "sub.monthly", payload["product_id"])
	require.Equal(t, "5.99", payload["price_in_purchased_currency"])
	require.Equal(t, "1709294400000", payload["purchased_at_ms"])
	require.Equal(t, true, payload["with_trial"])
}

func TestSendPurchaseBatch(t *testing.T) {
	srv, requests := newCapturingServer(t)
	client := NewHTTP(srv.URL, zap.NewNop(), nil)

	batch := PurchaseBatch{Purchases: []PurchaseDetail{
		{ProductID: "sub.monthly", TransactionID: "tx-1"},
		{ProductID: "lifetime.full", TransactionID: "tx-2"},
	}}
	require.NoError(t, client.SendPurchaseBatch(context.Background(), batch))

	require.Len(t, *requests, 1)
	require.Equal(t, "/transactions", (*requests)[0].path)
}

func TestSendTransportError(t *testing.T) {
	srv, _ := newCapturingServer(t)
	srv.Close()

	client := NewHTTP(srv.URL, zap.NewNop(), nil)
	require.Error(t, client.SendProfile(context.Background(), UserProfile{}))
}
