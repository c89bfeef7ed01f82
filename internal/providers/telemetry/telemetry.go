package telemetry

import "context"

// UserProfile is the configure payload: device identity plus whatever
// campaign attribution was resolved for this install.
type UserProfile struct {
	Attribution    *bool  `json:"attribution,omitempty"`
	CampaignID     string `json:"campaign_id,omitempty"`
	CampaignRegion string `json:"campaign_region,omitempty"`
	AppBundleID    string `json:"app_bundle_id"`
	AppUserID      string `json:"app_user_id"`
	IDFA           string `json:"idfa"`
	VendorID       string `json:"vendor_id"`
	AppVersion     string `json:"app_version"`
	AppstoreID     string `json:"appstore_id"`
	OSVersion      string `json:"os_version"`
	Device         string `json:"device"`
	Locale         string `json:"locale"`
	CountryCode    string `json:"country_code"`
}

// PurchaseDetail describes one confirmed purchase. Timestamps are unix
// milliseconds rendered as strings, matching the backend contract.
type PurchaseDetail struct {
	AppBundleID              string `json:"app_bundle_id"`
	AppUserID                string `json:"app_user_id"`
	ProductID                string `json:"product_id"`
	TransactionID            string `json:"transaction_id"`
	Token                    string `json:"token,omitempty"`
	PriceInPurchasedCurrency string `json:"price_in_purchased_currency"`
	Currency                 string `json:"currency"`
	PurchasedAtMs            string `json:"purchased_at_ms"`
	ExpirationAtMs           string `json:"expiration_at_ms,omitempty"`
	WithTrial                bool   `json:"with_trial"`
}

type PurchaseBatch struct {
	Purchases []PurchaseDetail `json:"purchases"`
}

// Client sends fire-and-forget analytics payloads. Errors are returned for
// logging only; callers never let them affect entitlement state.
type Client interface {
	SendProfile(ctx context.Context, profile UserProfile) error
	SendPurchase(ctx context.Context, detail PurchaseDetail) error
	SendPurchaseBatch(ctx context.Context, batch PurchaseBatch) error
}
