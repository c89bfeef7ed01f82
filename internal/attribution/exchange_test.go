package attribution

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExchangeReturnsCampaign(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"attribution":true,"campaignId":987654,"countryOrRegion":"DE"}`))
	}))
	defer srv.Close()

	client := NewExchangeClient(srv.URL, zap.NewNop())
	attr, err := client.Exchange(context.Background(), "token-abc")
	require.NoError(t, err)
	require.NotNil(t, attr)
	require.True(t, attr.Attribution)
	require.Equal(t, "987654", attr.CampaignID)
	require.Equal(t, "DE", attr.CampaignRegion)

	require.Equal(t, "token-abc", gotBody)
	require.Equal(t, "text/plain", gotContentType)
}

func TestExchangeDiscardsSentinelCampaign(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"attribution":true,"campaignId":1234567890,"countryOrRegion":"US"}`))
	}))
	defer srv.Close()

	client := NewExchangeClient(srv.URL, zap.NewNop())
	attr, err := client.Exchange(context.Background(), "token-abc")
	require.NoError(t, err)
	require.Nil(t, attr)
}

func TestExchangeMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewExchangeClient(srv.URL, zap.NewNop())
	_, err := client.Exchange(context.Background(), "token-abc")
	require.Error(t, err)
}
