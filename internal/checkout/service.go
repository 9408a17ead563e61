package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/offer"
	"github.com/noah-isme/toko-checkout/internal/receipt"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

// Result is an issued receipt.
type Result struct {
	ID       uuid.UUID        `json:"id"`
	IssuedAt time.Time        `json:"issuedAt"`
	Receipt  *receipt.Receipt `json:"receipt"`
}

// Service runs checkouts for the HTTP layer, adding receipt IDs, logs,
// metrics and spans around Price.
type Service struct {
	Catalog catalog.Catalog
	Offers  *offer.Book
	Logger  zerolog.Logger
	NewID   func() uuid.UUID
	Now     func() time.Time

	histOnce sync.Once
	duration metric.Float64Histogram
}

// NewService wires a service with default ID and clock sources.
func NewService(cat catalog.Catalog, offers *offer.Book, logger zerolog.Logger) *Service {
	return &Service{Catalog: cat, Offers: offers, Logger: logger}
}

// Checkout prices c and stamps the receipt with an ID and issue time.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart) (Result, error) {
	if s == nil || s.Catalog == nil {
		return Result{}, errors.New("checkout service not configured")
	}
	ctx, span := otel.Tracer("checkout.Service").Start(ctx, "CheckoutService.Checkout")
	defer span.End()

	start := time.Now()
	lines := 0
	if c != nil {
		lines = c.Len()
	}
	outcome := "error"
	defer func() {
		elapsed := obs.DurationMillis(time.Since(start))
		span.SetAttributes(
			attribute.Int("checkout.lines", lines),
			attribute.String("checkout.result", outcome),
		)
		if h := s.durationHistogram(); h != nil {
			h.Record(ctx, elapsed, metric.WithAttributes(attribute.String("result", outcome)))
		}
		if obs.CheckoutTotal != nil {
			obs.CheckoutTotal.WithLabelValues(outcome).Inc()
		}
		if obs.CheckoutLines != nil {
			obs.CheckoutLines.Observe(float64(lines))
		}
	}()

	r, err := Price(ctx, s.Catalog, s.Offers, c)
	if err != nil {
		outcome = resultLabel(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logger(ctx).Warn().Err(err).Str("result", outcome).Int("lines", lines).Msg("checkout_failed")
		return Result{}, err
	}
	outcome = "ok"

	res := Result{ID: s.newID(), IssuedAt: s.now().UTC(), Receipt: r}
	s.recordDiscounts(r)

	summary := r.Summary()
	span.SetAttributes(attribute.String("checkout.receipt_id", res.ID.String()))
	s.logger(ctx).Info().
		Str("receipt_id", res.ID.String()).
		Int("lines", lines).
		Int("discounts", len(r.Discounts())).
		Str("subtotal", summary.Subtotal.StringFixed(2)).
		Str("discount", summary.Discount.StringFixed(2)).
		Str("total", summary.Total.StringFixed(2)).
		Msg("checkout_completed")
	return res, nil
}

func (s *Service) recordDiscounts(r *receipt.Receipt) {
	if obs.DiscountsAppliedTotal == nil {
		return
	}
	for _, d := range r.Discounts() {
		kind := "unknown"
		if o, ok := s.Offers.Get(d.Product); ok {
			kind = o.Rule.Kind.String()
		}
		obs.DiscountsAppliedTotal.WithLabelValues(kind).Inc()
		if obs.DiscountAmountTotal != nil {
			obs.DiscountAmountTotal.Add(d.Amount.Abs().InexactFloat64())
		}
	}
}

func (s *Service) durationHistogram() metric.Float64Histogram {
	s.histOnce.Do(func() {
		h, err := otel.Meter("checkout.Service").Float64Histogram(
			"checkout.duration",
			metric.WithUnit("ms"),
			metric.WithDescription("Time spent pricing a cart."),
		)
		if err == nil {
			s.duration = h
		}
	})
	return s.duration
}

func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.Logger
}

func (s *Service) newID() uuid.UUID {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.New()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, resilience.ErrOpenCircuit):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
