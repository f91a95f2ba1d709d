// Package billing wraps the one-off "workbook + unlimited summaries"
// purchase: creating a hosted checkout session and verifying it afterwards.
// Verified-paid sessions are cached in memory and persisted so repeat
// verification (the success page re-checks on every load) stays local.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"

	"github.com/clarityworks/reflectd/internal/store"
)

// CheckoutSession is the subset of the provider session the UI needs.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Verification reports whether a checkout session has been paid.
type Verification struct {
	Paid   bool   `json:"ok"`
	Status string `json:"status"`
}

// Service creates and verifies checkout sessions.
type Service struct {
	sessions *session.Client
	cache    *gocache.Cache
	store    store.Store
	logger   *slog.Logger

	currency    string
	unitAmount  int64
	productName string
}

// Option configures a Service.
type Option func(*Service)

// WithBackend overrides the Stripe backend (used by tests to point at a
// local server).
func WithBackend(b stripe.Backend) Option {
	return func(s *Service) { s.sessions.B = b }
}

// WithStore persists paid verifications.
func WithStore(st store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithProduct overrides the default product line (GBP 14.99 workbook).
func WithProduct(name, currency string, unitAmount int64) Option {
	return func(s *Service) {
		s.productName = name
		s.currency = currency
		s.unitAmount = unitAmount
	}
}

// New creates a billing service with the given secret key.
func New(apiKey string, opts ...Option) *Service {
	s := &Service{
		sessions: &session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: apiKey,
		},
		cache:       gocache.New(24*time.Hour, time.Hour),
		logger:      slog.Default(),
		currency:    "gbp",
		unitAmount:  1499,
		productName: "Advanced Reflective Workbook + Unlimited Summaries",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateSession creates a one-off payment checkout session. origin is the
// site origin the success/cancel pages hang off (hash-routed SPA).
func (s *Service) CreateSession(ctx context.Context, origin string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.currency),
					UnitAmount: stripe.Int64(s.unitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(s.productName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(origin + "/#/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(origin + "/#/cancelled"),
	}

	sess, err := s.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifySession checks whether the given session is paid. Paid verdicts are
// cached (memory, then store) so only first-time verification reaches the
// payment provider; unpaid sessions are always re-checked.
func (s *Service) VerifySession(ctx context.Context, sessionID string) (Verification, error) {
	if v, ok := s.cache.Get(sessionID); ok {
		return v.(Verification), nil
	}
	if s.store != nil {
		if p, err := s.store.GetPurchase(ctx, sessionID); err == nil && p != nil && p.Paid {
			v := Verification{Paid: true, Status: p.Status}
			s.cache.SetDefault(sessionID, v)
			return v, nil
		}
	}

	sess, err := s.sessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return Verification{}, fmt.Errorf("retrieve checkout session: %w", err)
	}

	paid := sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		sess.Status == stripe.CheckoutSessionStatusComplete
	v := Verification{Paid: paid, Status: string(sess.PaymentStatus)}

	if paid {
		s.cache.SetDefault(sessionID, v)
		if s.store != nil {
			if err := s.store.SavePurchase(ctx, store.Purchase{
				SessionID: sessionID,
				Status:    v.Status,
				Paid:      true,
			}); err != nil {
				s.logger.Warn("failed to persist purchase", slog.String("error", err.Error()))
			}
		}
	}
	return v, nil
}
