package orders

import (
	"context"
	"testing"
	"time"

	"github.com/quickbites/orderflow/internal/cache"
	"github.com/quickbites/orderflow/internal/gateway"
)

type fakeRemote struct {
	orders []Order
	items  []OrderItem

	fetchCalls  int
	updateCalls int
}

func (f *fakeRemote) Fetch(ctx context.Context, kind gateway.Kind, q gateway.Query, out interface{}) error {
	f.fetchCalls++
	if kind == gateway.OrderItems {
		dst := out.(*[]OrderItem)
		var matched []OrderItem
		for _, it := range f.items {
			if it.OrderID == q.Filters[0].Equals.(string) {
				matched = append(matched, it)
			}
		}
		*dst = matched
		return nil
	}

	dst := out.(*[]Order)
	var matched []Order
	for _, o := range f.orders {
		if matchesOrder(o, q.Filters) {
			matched = append(matched, o)
		}
	}
	if q.Order != nil && q.Order.Descending {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}
	*dst = matched
	return nil
}

func matchesOrder(o Order, filters []gateway.Filter) bool {
	for _, fl := range filters {
		switch fl.Column {
		case "id":
			if o.ID != fl.Equals.(string) {
				return false
			}
		case "user_id":
			if o.UserID != fl.Equals.(string) {
				return false
			}
		case "status":
			hit := false
			for _, c := range fl.In {
				if o.Status == c.(string) {
					hit = true
				}
			}
			if !hit {
				return false
			}
		}
	}
	return true
}

func (f *fakeRemote) Insert(ctx context.Context, kind gateway.Kind, payload, out interface{}) error {
	o := payload.(Order)
	o.ID = "o-new"
	o.CreatedAt = time.Now()
	f.orders = append(f.orders, o)
	*out.(*Order) = o
	return nil
}

func (f *fakeRemote) InsertMany(ctx context.Context, kind gateway.Kind, payloads []interface{}) error {
	for _, p := range payloads {
		f.items = append(f.items, p.(OrderItem))
	}
	return nil
}

func (f *fakeRemote) Update(ctx context.Context, kind gateway.Kind, match gateway.Match, fields map[string]interface{}, out interface{}) error {
	f.updateCalls++
	for i, o := range f.orders {
		if o.ID == match.Value.(string) {
			o.Status = fields["status"].(string)
			f.orders[i] = o
			*out.(*Order) = o
			return nil
		}
	}
	return &gateway.RemoteError{Op: "update", Table: "orders", Message: "no row matches"}
}

func seeded() *fakeRemote {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &fakeRemote{orders: []Order{
		{ID: "o1", UserID: "u1", Total: 9.99, Status: StatusNew, CreatedAt: base},
		{ID: "o2", UserID: "u2", Total: 23, Status: StatusCooking, CreatedAt: base.Add(time.Hour)},
		{ID: "o3", UserID: "u1", Total: 11.5, Status: StatusDelivered, CreatedAt: base.Add(2 * time.Hour)},
	}}
}

func TestListAdmin_ActiveVersusArchive(t *testing.T) {
	s := NewStore(seeded(), cache.New())
	ctx := context.Background()

	active, err := s.ListAdmin(ctx, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active orders, got %d", len(active))
	}
	for _, o := range active {
		if o.Status == StatusDelivered {
			t.Fatalf("delivered order %s in active list", o.ID)
		}
	}

	archive, err := s.ListAdmin(ctx, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(archive) != 1 || archive[0].ID != "o3" {
		t.Fatalf("expected archive [o3], got %+v", archive)
	}
}

func TestListMine_ScopedToUser(t *testing.T) {
	s := NewStore(seeded(), cache.New())

	mine, err := s.ListMine(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 orders for u1, got %d", len(mine))
	}
	for _, o := range mine {
		if o.UserID != "u1" {
			t.Fatalf("foreign order %s in user list", o.ID)
		}
	}
}

func TestListAdmin_ServedFromCache(t *testing.T) {
	fake := seeded()
	s := NewStore(fake, cache.New())
	ctx := context.Background()

	if _, err := s.ListAdmin(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.ListAdmin(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.fetchCalls != 1 {
		t.Fatalf("expected one remote fetch, got %d", fake.fetchCalls)
	}
}

func TestUpdateStatus_InvalidatesListAndDetail(t *testing.T) {
	fake := seeded()
	s := NewStore(fake, cache.New())
	ctx := context.Background()

	if _, err := s.ListAdmin(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Get(ctx, "o1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := fake.fetchCalls

	updated, err := s.UpdateStatus(ctx, "o1", StatusCooking)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusCooking {
		t.Fatalf("expected Cooking, got %s", updated.Status)
	}

	got, err := s.Get(ctx, "o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCooking {
		t.Fatalf("expected refetched detail, got %+v", got)
	}
	if _, err := s.ListAdmin(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.fetchCalls != before+2 {
		t.Fatalf("expected detail and list refetch, got %d extra fetches", fake.fetchCalls-before)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	s := NewStore(seeded(), cache.New())
	if _, err := s.UpdateStatus(context.Background(), "o1", "Burnt"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestGet_MissingOrder(t *testing.T) {
	s := NewStore(seeded(), cache.New())
	o, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o != nil {
		t.Fatalf("expected nil, got %+v", o)
	}
}
