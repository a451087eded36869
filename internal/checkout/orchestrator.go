package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/quickbites/orderflow/internal/cache"
	"github.com/quickbites/orderflow/internal/cart"
	"github.com/quickbites/orderflow/internal/metrics"
	"github.com/quickbites/orderflow/internal/orders"
)

// State tracks a single checkout attempt.
type State int

const (
	StateIdle State = iota
	StateOrderPending
	StateItemsPending
	StateDone
	StateOrderFailed
	StateItemsFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOrderPending:
		return "order_pending"
	case StateItemsPending:
		return "items_pending"
	case StateDone:
		return "done"
	case StateOrderFailed:
		return "order_failed"
	case StateItemsFailed:
		return "items_failed"
	}
	return "unknown"
}

// Local preconditions checked before any network call.
var (
	ErrNotAuthenticated = errors.New("checkout: no authenticated session")
	ErrEmptyCart        = errors.New("checkout: cart is empty")
)

// OrderWriter is the slice of the order store checkout writes through.
type OrderWriter interface {
	Insert(ctx context.Context, o orders.Order) (*orders.Order, error)
	InsertItems(ctx context.Context, items []orders.OrderItem) error
}

// Orchestrator sequences the two dependent remote writes of a checkout:
// order header first, then line items. There is no distributed
// transaction; a failure after the header write leaves an orphaned
// header behind, which is logged and counted but not compensated.
type Orchestrator struct {
	writer  OrderWriter
	cache   *cache.Cache
	metrics *metrics.Publisher
	log     *zap.Logger
}

// New creates an Orchestrator.
func New(writer OrderWriter, c *cache.Cache, m *metrics.Publisher, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{writer: writer, cache: c, metrics: m, log: log}
}

// Checkout turns the cart into an order for userID. On success the cart
// is cleared and the user's cached order lists are invalidated. On any
// failure the cart is left untouched so the user can retry.
func (o *Orchestrator) Checkout(ctx context.Context, c *cart.Cart, userID string) (*orders.Order, State, error) {
	if userID == "" {
		return nil, StateIdle, ErrNotAuthenticated
	}
	items := c.Items()
	if len(items) == 0 {
		return nil, StateIdle, ErrEmptyCart
	}
	total := c.Total()

	state := StateOrderPending
	created, err := o.writer.Insert(ctx, orders.Order{
		UserID: userID,
		Total:  total,
		Status: orders.StatusNew,
	})
	if err != nil {
		state = StateOrderFailed
		o.log.Error("checkout: order insert failed",
			zap.String("user_id", userID),
			zap.Error(err))
		_ = o.metrics.Count(ctx, metrics.MetricCheckoutOrderFailed)
		return nil, state, fmt.Errorf("insert order: %w", err)
	}

	state = StateItemsPending
	rows := make([]orders.OrderItem, len(items))
	for i, it := range items {
		rows[i] = orders.OrderItem{
			OrderID:   created.ID,
			ProductID: it.ProductID,
			Size:      string(it.Size),
			Quantity:  it.Quantity,
		}
	}
	if err := o.writer.InsertItems(ctx, rows); err != nil {
		state = StateItemsFailed
		// the header row already exists remotely with no line items;
		// nothing compensates for it here
		o.log.Error("checkout: item insert failed, order header is orphaned",
			zap.String("user_id", userID),
			zap.String("order_id", created.ID),
			zap.Error(err))
		_ = o.metrics.Count(ctx, metrics.MetricCheckoutItemsFailed)
		_ = o.metrics.Count(ctx, metrics.MetricOrphanedOrder)
		return created, state, fmt.Errorf("insert order items: %w", err)
	}

	state = StateDone
	c.Clear()
	o.cache.InvalidateKind(cache.KindOrderList)
	_ = o.metrics.Count(ctx, metrics.MetricCheckoutCompleted)
	o.log.Info("checkout: completed",
		zap.String("user_id", userID),
		zap.String("order_id", created.ID),
		zap.Float64("total", total),
		zap.Int("items", len(rows)))
	return created, state, nil
}
