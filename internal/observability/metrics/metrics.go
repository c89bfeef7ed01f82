package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	purchaseOutcomes     metric.Int64Counter
	restoreOutcomes      metric.Int64Counter
	receiptVerifications metric.Int64Counter
	finalizedTxns        metric.Int64Counter
	telemetrySends       metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metric instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "easypurchase"
	}
	meter := provider.Meter(name)

	purchaseOutcomes, err := meter.Int64Counter("easypurchase_purchase_outcomes_total")
	if err != nil {
		return nil, err
	}
	restoreOutcomes, err := meter.Int64Counter("easypurchase_restore_outcomes_total")
	if err != nil {
		return nil, err
	}
	receiptVerifications, err := meter.Int64Counter("easypurchase_receipt_verifications_total")
	if err != nil {
		return nil, err
	}
	finalizedTxns, err := meter.Int64Counter("easypurchase_transactions_finalized_total")
	if err != nil {
		return nil, err
	}
	telemetrySends, err := meter.Int64Counter("easypurchase_telemetry_sends_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		purchaseOutcomes:     purchaseOutcomes,
		restoreOutcomes:      restoreOutcomes,
		receiptVerifications: receiptVerifications,
		finalizedTxns:        finalizedTxns,
		telemetrySends:       telemetrySends,
	}, nil
}

// RecordPurchaseOutcome increments purchase attempt outcome counts.
func (m *Metrics) RecordPurchaseOutcome(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.purchaseOutcomes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRestoreOutcome increments restore attempt outcome counts.
func (m *Metrics) RecordRestoreOutcome(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.restoreOutcomes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordReceiptVerification increments verification result counts.
func (m *Metrics) RecordReceiptVerification(ctx context.Context, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("result", strings.TrimSpace(result)))
	m.receiptVerifications.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTransactionFinalized increments finalized transaction counts.
func (m *Metrics) RecordTransactionFinalized(ctx context.Context) {
	if m == nil {
		return
	}
	m.finalizedTxns.Add(ctx, 1)
}

// RecordTelemetrySend increments telemetry send counts per endpoint.
func (m *Metrics) RecordTelemetrySend(ctx context.Context, endpoint string, statusCode int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.Int("status_code", statusCode),
	)
	m.telemetrySends.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"outcome":     {},
	"result":      {},
	"endpoint":    {},
	"status_code": {},
	"route":       {},
	"method":      {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
