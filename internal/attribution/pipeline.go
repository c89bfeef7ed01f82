package attribution

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bazimogmbh/easypurchase/internal/config"
	"github.com/bazimogmbh/easypurchase/internal/providers/device"
	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
	"github.com/bazimogmbh/easypurchase/internal/providers/telemetry"
	receiptdomain "github.com/bazimogmbh/easypurchase/internal/receipt/domain"
)

// Pipeline reports device attribution and purchase events to the
// telemetry backend. Everything here is best effort: failures are logged
// and swallowed, entitlement logic never waits on it.
type Pipeline struct {
	log       *zap.Logger
	cfg       config.Config
	flags     *Flags
	info      device.InfoProvider
	consent   device.ConsentProvider
	tokens    device.AttributionTokenProvider
	exchange  ExchangeClient
	telemetry telemetry.Client
	store     storefront.Client

	mu              sync.Mutex
	configured      bool
	backfillStarted bool
	products        map[string]storefront.Product
}

type Param struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Flags     *Flags
	Info      device.InfoProvider
	Consent   device.ConsentProvider
	Tokens    device.AttributionTokenProvider
	Exchange  ExchangeClient
	Telemetry telemetry.Client
	Store     storefront.Client
}

func NewPipeline(p Param) *Pipeline {
	return &Pipeline{
		log:       p.Log.Named("attribution.pipeline"),
		cfg:       p.Config,
		flags:     p.Flags,
		info:      p.Info,
		consent:   p.Consent,
		tokens:    p.Tokens,
		exchange:  p.Exchange,
		telemetry: p.Telemetry,
		store:     p.Store,
	}
}

// HandleActivation runs the configure flow for one application-foreground
// event. Consent is requested on every activation; the profile send is
// guarded so it happens at most once per process run.
func (p *Pipeline) HandleActivation(ctx context.Context) {
	if _, err := p.consent.RequestTrackingConsent(ctx); err != nil {
		p.log.Warn("tracking consent request failed", zap.Error(err))
	}

	p.mu.Lock()
	if p.configured {
		p.mu.Unlock()
		return
	}
	p.configured = true
	p.mu.Unlock()

	p.sendConfigure(ctx)
}

func (p *Pipeline) sendConfigure(ctx context.Context) {
	info, err := p.info.Info(ctx)
	if err != nil {
		p.log.Warn("device info unavailable", zap.Error(err))
	}

	userID, err := p.flags.AppUserID(ctx)
	if err != nil {
		p.log.Warn("app user id unavailable", zap.Error(err))
	}

	profile := telemetry.UserProfile{
		AppBundleID: info.BundleID,
		AppUserID:   userID,
		IDFA:        info.AdvertisingID,
		VendorID:    info.VendorID,
		AppVersion:  info.AppVersion,
		AppstoreID:  info.StoreAppID,
		OSVersion:   info.OSVersion,
		Device:      info.Model,
		Locale:      info.Locale,
		CountryCode: info.CountryCode,
	}

	if attr := p.resolveAttribution(ctx, info); attr != nil {
		profile.Attribution = &attr.Attribution
		profile.CampaignID = attr.CampaignID
		profile.CampaignRegion = attr.CampaignRegion
	}

	if err := p.telemetry.SendProfile(ctx, profile); err != nil {
		p.log.Warn("configure send failed", zap.Error(err))
	}
}

// resolveAttribution fetches and exchanges the platform attribution
// token. Absence of attribution is a valid outcome, not an error.
func (p *Pipeline) resolveAttribution(ctx context.Context, info device.Info) *CampaignAttribution {
	if info.Simulated {
		return nil
	}

	token, err := p.tokens.Token(ctx)
	if err != nil || token == "" {
		p.log.Debug("no attribution token", zap.Error(err))
		return nil
	}

	// The token needs time to settle before the exchange accepts it.
	if !sleep(ctx, p.cfg.AttributionSettleDelay) {
		return nil
	}

	attr, err := p.exchange.Exchange(ctx, token)
	if err != nil {
		p.log.Warn("attribution exchange failed", zap.Error(err))
		return nil
	}
	return attr
}

// UpdatePurchases records the latest catalog and, on the very first run
// ever, schedules the legacy purchase backfill.
func (p *Pipeline) UpdatePurchases(ctx context.Context, products []storefront.Product) {
	p.mu.Lock()
	p.products = make(map[string]storefront.Product, len(products))
	for _, product := range products {
		p.products[product.ID] = product
	}
	p.mu.Unlock()

	if !p.flags.IsFirstRun(ctx) {
		return
	}

	p.mu.Lock()
	if p.backfillStarted {
		p.mu.Unlock()
		return
	}
	p.backfillStarted = true
	p.mu.Unlock()

	go p.backfill(context.WithoutCancel(ctx))
}

// backfill reports purchases that predate this pipeline. It waits out the
// storefront's own restore machinery, queries every restorable purchase,
// reconstructs estimated expiries from the known catalog and sends the
// batch once.
func (p *Pipeline) backfill(ctx context.Context) {
	p.log.Info("legacy purchase backfill scheduled", zap.Duration("delay", p.cfg.BackfillDelay))
	if !sleep(ctx, p.cfg.BackfillDelay) {
		return
	}

	restored, _, err := p.store.RestoreAll(ctx)
	if err != nil {
		p.log.Warn("backfill restore query failed", zap.Error(err))
		return
	}

	userID, err := p.flags.AppUserID(ctx)
	if err != nil {
		p.log.Warn("app user id unavailable", zap.Error(err))
	}
	info, _ := p.info.Info(ctx)

	batch := telemetry.PurchaseBatch{Purchases: make([]telemetry.PurchaseDetail, 0, len(restored))}
	for _, tx := range restored {
		detail := telemetry.PurchaseDetail{
			AppBundleID:   info.BundleID,
			AppUserID:     userID,
			ProductID:     tx.ProductID,
			TransactionID: tx.ID,
			PurchasedAtMs: msString(tx.OriginalPurchaseAt),
		}

		if product, ok := p.product(tx.ProductID); ok {
			detail.PriceInPurchasedCurrency = formatPrice(product.Price)
			detail.Currency = product.Currency
			detail.WithTrial = product.Introductory != nil
			if product.Period != nil {
				if span, ok := product.Period.Duration(); ok {
					detail.ExpirationAtMs = msString(tx.OriginalPurchaseAt.Add(span))
				}
			}
		}

		batch.Purchases = append(batch.Purchases, detail)
	}

	if err := p.telemetry.SendPurchaseBatch(ctx, batch); err != nil {
		p.log.Warn("backfill send failed, keeping first run flag armed", zap.Error(err))
		return
	}

	// The flag only drops once the report is delivered, so a failed send
	// leaves the backfill armed for a later run.
	if err := p.flags.ClearFirstRun(ctx); err != nil {
		p.log.Warn("clear first run flag failed", zap.Error(err))
	}
	p.log.Info("legacy purchase backfill sent", zap.Int("purchases", len(batch.Purchases)))
}

// TrackPurchase reports one confirmed purchase, re-verified against the
// receipt so only purchases the verification service acknowledged are
// sent.
func (p *Pipeline) TrackPurchase(ctx context.Context, tx storefront.Transaction, receipt *receiptdomain.Receipt) {
	if receipt == nil {
		return
	}

	outcome := receiptdomain.VerifyPurchase(receipt, tx.ProductID)
	if outcome.Kind != receiptdomain.Purchased || len(outcome.Items) == 0 {
		return
	}
	item := outcome.Items[0]

	userID, err := p.flags.AppUserID(ctx)
	if err != nil {
		p.log.Warn("app user id unavailable", zap.Error(err))
	}
	info, _ := p.info.Info(ctx)

	purchasedAt := tx.OriginalPurchaseAt
	if purchasedAt.IsZero() {
		purchasedAt = item.OriginalPurchaseDate
	}

	detail := telemetry.PurchaseDetail{
		AppBundleID:   info.BundleID,
		AppUserID:     userID,
		ProductID:     tx.ProductID,
		TransactionID: tx.ID,
		Token:         receipt.Token,
		PurchasedAtMs: msString(purchasedAt),
	}
	if item.ExpiresDate != nil {
		detail.ExpirationAtMs = msString(*item.ExpiresDate)
	}
	if product, ok := p.product(tx.ProductID); ok {
		detail.PriceInPurchasedCurrency = formatPrice(product.Price)
		detail.Currency = product.Currency
		detail.WithTrial = product.Introductory != nil
	}

	if err := p.telemetry.SendPurchase(ctx, detail); err != nil {
		p.log.Warn("purchase send failed", zap.Error(err))
	}
}

// Reset clears the in-memory one-shot guards. Intended for tests.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configured = false
	p.backfillStarted = false
}

func (p *Pipeline) product(id string) (storefront.Product, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	product, ok := p.products[id]
	return product, ok
}

func msString(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
