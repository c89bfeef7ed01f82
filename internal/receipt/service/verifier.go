package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bazimogmbh/easypurchase/internal/config"
	receiptdomain "github.com/bazimogmbh/easypurchase/internal/receipt/domain"
)

type verifyRequest struct {
	ReceiptData string `json:"receipt-data"`
	Password    string `json:"password"`
}

type wireItem struct {
	ProductID              string `json:"product_id"`
	TransactionID          string `json:"transaction_id"`
	OriginalTransactionID  string `json:"original_transaction_id"`
	PurchaseDateMs         string `json:"purchase_date_ms"`
	OriginalPurchaseDateMs string `json:"original_purchase_date_ms"`
	ExpiresDateMs          string `json:"expires_date_ms"`
	CancellationDateMs     string `json:"cancellation_date_ms"`
}

type verifyResponse struct {
	Status      int    `json:"status"`
	Environment string `json:"environment"`
	Receipt     struct {
		InApp []wireItem `json:"in_app"`
	} `json:"receipt"`
	LatestReceiptInfo []wireItem `json:"latest_receipt_info"`
}

type httpVerifier struct {
	url    string
	secret string
	client *http.Client
}

// NewVerifier returns a Verifier against the environment-selected
// verification endpoint.
func NewVerifier(cfg config.Config) receiptdomain.Verifier {
	return &httpVerifier{
		url:    cfg.VerifierURL(),
		secret: cfg.SharedSecret,
		client: &http.Client{Timeout: 12 * time.Second},
	}
}

func (v *httpVerifier) Verify(ctx context.Context, evidence []byte) (*receiptdomain.Receipt, error) {
	token := base64.StdEncoding.EncodeToString(evidence)
	body, err := json.Marshal(verifyRequest{ReceiptData: token, Password: v.secret})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("verification endpoint returned %d", resp.StatusCode)
	}

	var parsed verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if parsed.Status != 0 {
		return nil, fmt.Errorf("verification status %d", parsed.Status)
	}

	wire := parsed.LatestReceiptInfo
	if len(wire) == 0 {
		wire = parsed.Receipt.InApp
	}

	items := make([]receiptdomain.Item, 0, len(wire))
	for _, w := range wire {
		items = append(items, receiptdomain.Item{
			ProductID:             w.ProductID,
			TransactionID:         w.TransactionID,
			OriginalTransactionID: w.OriginalTransactionID,
			PurchaseDate:          msToTime(w.PurchaseDateMs),
			OriginalPurchaseDate:  msToTime(w.OriginalPurchaseDateMs),
			ExpiresDate:           msToTimePtr(w.ExpiresDateMs),
			CancellationDate:      msToTimePtr(w.CancellationDateMs),
		})
	}

	return &receiptdomain.Receipt{
		Environment: parsed.Environment,
		Items:       items,
		Token:       token,
	}, nil
}

func msToTime(raw string) time.Time {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func msToTimePtr(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t := msToTime(raw)
	if t.IsZero() {
		return nil
	}
	return &t
}
