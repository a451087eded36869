package orders

import (
	"context"
	"fmt"

	"github.com/quickbites/orderflow/internal/cache"
	"github.com/quickbites/orderflow/internal/gateway"
)

// remote is the slice of the data gateway the order store uses.
type remote interface {
	Fetch(ctx context.Context, kind gateway.Kind, q gateway.Query, out interface{}) error
	Insert(ctx context.Context, kind gateway.Kind, payload, out interface{}) error
	InsertMany(ctx context.Context, kind gateway.Kind, payloads []interface{}) error
	Update(ctx context.Context, kind gateway.Kind, match gateway.Match, fields map[string]interface{}, out interface{}) error
}

// Store reads and writes order headers and line items. List and detail
// reads go through the query cache; mutations invalidate the keys they
// logically affect.
type Store struct {
	gw    remote
	cache *cache.Cache
}

// NewStore creates an orders Store.
func NewStore(gw remote, c *cache.Cache) *Store {
	return &Store{gw: gw, cache: c}
}

func newestFirst() *gateway.Ordering {
	return &gateway.Ordering{Column: "created_at", Descending: true}
}

// ListAdmin returns the active order list, or the delivered archive when
// archived is set. Newest first.
func (s *Store) ListAdmin(ctx context.Context, archived bool) ([]Order, error) {
	statuses := ActiveStatuses
	if archived {
		statuses = ArchivedStatuses
	}
	v, err := s.cache.Get(ctx, cache.OrderList(archived), func(ctx context.Context) (interface{}, error) {
		in := make([]interface{}, len(statuses))
		for i, st := range statuses {
			in[i] = st
		}
		var list []Order
		q := gateway.Query{
			Filters: []gateway.Filter{gateway.In("status", in...)},
			Order:   newestFirst(),
		}
		if err := s.gw.Fetch(ctx, gateway.Orders, q, &list); err != nil {
			return nil, err
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Order), nil
}

// ListMine returns one user's orders, newest first.
func (s *Store) ListMine(ctx context.Context, userID string) ([]Order, error) {
	v, err := s.cache.Get(ctx, cache.UserOrderList(userID), func(ctx context.Context) (interface{}, error) {
		var list []Order
		q := gateway.Query{
			Filters: []gateway.Filter{gateway.Eq("user_id", userID)},
			Order:   newestFirst(),
		}
		if err := s.gw.Fetch(ctx, gateway.Orders, q, &list); err != nil {
			return nil, err
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Order), nil
}

// Get returns one order by id, or (nil, nil) when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Order, error) {
	v, err := s.cache.Get(ctx, cache.OrderDetail(id), func(ctx context.Context) (interface{}, error) {
		var list []Order
		q := gateway.Query{Filters: []gateway.Filter{gateway.Eq("id", id)}}
		if err := s.gw.Fetch(ctx, gateway.Orders, q, &list); err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return (*Order)(nil), nil
		}
		return &list[0], nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Order), nil
}

// Items returns the line items of one order.
func (s *Store) Items(ctx context.Context, orderID string) ([]OrderItem, error) {
	var items []OrderItem
	q := gateway.Query{Filters: []gateway.Filter{gateway.Eq("order_id", orderID)}}
	if err := s.gw.Fetch(ctx, gateway.OrderItems, q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Insert writes a new order header and returns it with the backend-assigned
// id and timestamp. Used by the checkout orchestrator only.
func (s *Store) Insert(ctx context.Context, o Order) (*Order, error) {
	var created Order
	if err := s.gw.Insert(ctx, gateway.Orders, o, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// InsertItems bulk-writes line items. Used by the checkout orchestrator
// only, after the order header exists.
func (s *Store) InsertItems(ctx context.Context, items []OrderItem) error {
	payloads := make([]interface{}, len(items))
	for i, it := range items {
		payloads[i] = it
	}
	return s.gw.InsertMany(ctx, gateway.OrderItems, payloads)
}

// UpdateStatus moves an order to a new status and invalidates the list
// keys and the order's detail key.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("unknown order status %q", status)
	}
	var updated Order
	err := s.gw.Update(ctx, gateway.Orders, gateway.Match{Column: "id", Value: id},
		map[string]interface{}{"status": status}, &updated)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateKind(cache.KindOrderList)
	s.cache.Invalidate(cache.OrderDetail(id))
	return &updated, nil
}
