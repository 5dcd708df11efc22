package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/port"
)

// CartService owns the in-memory cart and keeps it in step with the
// durable mirror. Every operation re-reads the mirror, decides, and either
// writes the whole new cart and adopts it in memory, or changes nothing.
//
// Operations are not serialized against each other: two concurrent calls
// both read the mirror and the last write wins.
type CartService struct {
	repo     port.CartRepository
	catalog  port.ProductCatalog
	stock    port.StockOracle
	notifier port.Notifier
	recorder port.OutcomeRecorder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	mu   sync.RWMutex
	cart domain.Cart
}

type Option func(*CartService)

func WithNotifier(n port.Notifier) Option {
	return func(s *CartService) { s.notifier = n }
}

func WithRecorder(r port.OutcomeRecorder) Option {
	return func(s *CartService) { s.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *CartService) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *CartService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *CartService) { s.newID = newID }
}

func NewCartService(repo port.CartRepository, catalog port.ProductCatalog, stock port.StockOracle, opts ...Option) *CartService {
	s := &CartService{
		repo:     repo,
		catalog:  catalog,
		stock:    stock,
		notifier: nopNotifier{},
		recorder: nopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
		cart:     domain.Cart{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load adopts the stored cart as the in-memory cart. A missing or
// malformed stored value leaves the cart empty.
func (s *CartService) Load(ctx context.Context) error {
	cart, ok, err := s.repo.LoadCart(ctx)
	if errors.Is(err, port.ErrMalformedCart) {
		s.logger.Warn("stored cart is malformed, starting empty", slog.Any("err", err))
		cart, ok = nil, false
	} else if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if !ok {
		cart = domain.Cart{}
	}

	s.mu.Lock()
	s.cart = cart.Clone()
	s.mu.Unlock()
	return nil
}

// Cart returns a copy of the current in-memory cart.
func (s *CartService) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// AddItem puts one more unit of productID in the cart. A product that is
// not in the cart yet is added with amount 1 without consulting stock.
func (s *CartService) AddItem(ctx context.Context, productID int64) (domain.Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	start := s.now()
	outcome, err := s.addItem(ctx, productID)
	return s.finish(ctx, domain.OperationAddItem, productID, start, outcome, err)
}

func (s *CartService) addItem(ctx context.Context, productID int64) (domain.Outcome, error) {
	const op = domain.OperationAddItem
	if productID <= 0 {
		return failed(op, ErrInvalidProduct)
	}

	cart, _, err := s.repo.LoadCart(ctx)
	if err != nil {
		return failed(op, fmt.Errorf("load cart: %w", err))
	}

	var (
		product domain.Product
		stock   domain.StockLevel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.catalog.GetProduct(gctx, productID)
		if err != nil {
			return fmt.Errorf("get product %d: %w", productID, err)
		}
		product = p
		return nil
	})
	g.Go(func() error {
		st, err := s.stock.GetStock(gctx, productID)
		if err != nil {
			return fmt.Errorf("get stock %d: %w", productID, err)
		}
		stock = st
		return nil
	})
	if err := g.Wait(); err != nil {
		return failed(op, err)
	}

	i := cart.Index(productID)
	if i < 0 {
		product.ID = productID
		return s.commit(ctx, op, cart.Append(domain.CartLine{Product: product, Amount: 1}))
	}

	current := cart[i].Amount
	if current >= stock.Amount {
		return domain.OutcomeStockExceeded, ErrStockExceeded
	}
	return s.commit(ctx, op, cart.WithAmount(i, current+1))
}

// RemoveItem drops the line for productID. Removing a product that is not
// in the cart is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, productID int64) (domain.Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	start := s.now()
	outcome, err := s.removeItem(ctx, productID)
	return s.finish(ctx, domain.OperationRemoveItem, productID, start, outcome, err)
}

func (s *CartService) removeItem(ctx context.Context, productID int64) (domain.Outcome, error) {
	const op = domain.OperationRemoveItem

	cart, ok, err := s.repo.LoadCart(ctx)
	if err != nil {
		return failed(op, fmt.Errorf("load cart: %w", err))
	}
	if !ok {
		return domain.OutcomeUnchanged, nil
	}

	i := cart.Index(productID)
	if i < 0 {
		return domain.OutcomeUnchanged, nil
	}
	return s.commit(ctx, op, cart.Without(i))
}

// UpdateAmount adds delta to the amount of an existing line. The stock
// gate compares the current amount, not the resulting one, so a delta
// larger than one can overshoot the available stock.
func (s *CartService) UpdateAmount(ctx context.Context, productID int64, delta int) (domain.Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	start := s.now()
	outcome, err := s.updateAmount(ctx, productID, delta)
	return s.finish(ctx, domain.OperationUpdateAmount, productID, start, outcome, err)
}

func (s *CartService) updateAmount(ctx context.Context, productID int64, delta int) (domain.Outcome, error) {
	const op = domain.OperationUpdateAmount
	if productID <= 0 {
		return failed(op, ErrInvalidProduct)
	}

	stock, err := s.stock.GetStock(ctx, productID)
	if err != nil {
		return failed(op, fmt.Errorf("get stock %d: %w", productID, err))
	}

	cart, ok, err := s.repo.LoadCart(ctx)
	if err != nil {
		return failed(op, fmt.Errorf("load cart: %w", err))
	}
	if !ok {
		return domain.OutcomeUnchanged, nil
	}

	i := cart.Index(productID)
	if i < 0 {
		return domain.OutcomeUnchanged, nil
	}

	current := cart[i].Amount
	if current >= stock.Amount {
		return domain.OutcomeStockExceeded, ErrStockExceeded
	}
	if delta == 0 {
		return domain.OutcomeUnchanged, nil
	}

	next := current + delta
	if next < 1 {
		return failed(op, fmt.Errorf("%w: got %d", ErrInvalidAmount, next))
	}
	return s.commit(ctx, op, cart.WithAmount(i, next))
}

// commit writes next to the mirror and, only if that succeeds, adopts it
// as the in-memory cart.
func (s *CartService) commit(ctx context.Context, op domain.Operation, next domain.Cart) (domain.Outcome, error) {
	if err := s.repo.SaveCart(ctx, next); err != nil {
		return failed(op, fmt.Errorf("save cart: %w", err))
	}

	s.mu.Lock()
	s.cart = next
	s.mu.Unlock()
	return domain.OutcomeUpdated, nil
}

func (s *CartService) finish(ctx context.Context, op domain.Operation, productID int64, start time.Time, outcome domain.Outcome, err error) (domain.Outcome, error) {
	s.recorder.RecordOutcome(op, outcome, s.now().Sub(start))

	attrs := []any{
		slog.String("op", string(op)),
		slog.Int64("product_id", productID),
	}
	switch outcome {
	case domain.OutcomeStockExceeded:
		s.logger.Warn("cart operation rejected", append(attrs, slog.Any("err", err))...)
	case domain.OutcomeFailed:
		s.logger.Error("cart operation failed", append(attrs, slog.Any("err", err))...)
	default:
		s.logger.Debug("cart operation done", append(attrs, slog.String("outcome", string(outcome)))...)
		return outcome, err
	}

	s.notifier.Notify(ctx, domain.Notification{
		ID:        s.newID(),
		Operation: op,
		Reason:    outcome,
		ProductID: productID,
		At:        s.now().UTC(),
	})
	return outcome, err
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Notification) {}

type nopRecorder struct{}

func (nopRecorder) RecordOutcome(domain.Operation, domain.Outcome, time.Duration) {}
