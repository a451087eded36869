package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/quickbites/orderflow/internal/cache"
)

func TestBridge_DispatchMatchesTableAndEvent(t *testing.T) {
	b := NewBridge()
	var inserts, updates int
	b.Subscribe("orders", Filter{Event: EventInsert}, func(Change) { inserts++ })
	b.Subscribe("orders", Filter{Event: EventUpdate}, func(Change) { updates++ })
	b.Subscribe("products", Filter{Event: EventInsert}, func(Change) {
		t.Error("product subscription must not see order changes")
	})

	b.Dispatch(Change{Table: "orders", Event: EventInsert, ID: "o1"})
	b.Dispatch(Change{Table: "orders", Event: EventUpdate, ID: "o1"})
	b.Dispatch(Change{Table: "orders", Event: EventInsert, ID: "o2"})

	if inserts != 2 || updates != 1 {
		t.Fatalf("expected 2 inserts / 1 update, got %d / %d", inserts, updates)
	}
}

func TestBridge_IDFilter(t *testing.T) {
	b := NewBridge()
	var hits []string
	b.Subscribe("orders", Filter{Event: EventUpdate, ID: "o42"}, func(ch Change) {
		hits = append(hits, ch.ID)
	})

	b.Dispatch(Change{Table: "orders", Event: EventUpdate, ID: "o1"})
	b.Dispatch(Change{Table: "orders", Event: EventUpdate, ID: "o42"})

	if len(hits) != 1 || hits[0] != "o42" {
		t.Fatalf("expected only o42, got %v", hits)
	}
}

func TestSubscription_UnsubscribeIsIdempotent(t *testing.T) {
	b := NewBridge()
	var events int
	sub := b.Subscribe("orders", Filter{Event: EventInsert}, func(Change) { events++ })

	b.Dispatch(Change{Table: "orders", Event: EventInsert, ID: "o1"})
	sub.Unsubscribe()
	sub.Unsubscribe()
	b.Dispatch(Change{Table: "orders", Event: EventInsert, ID: "o2"})

	if events != 1 {
		t.Fatalf("expected one event before unsubscribe, got %d", events)
	}
}

// fakeSQS hands out a scripted set of messages once, then blocks until
// the context is cancelled like a long poll would.
type fakeSQS struct {
	mu       sync.Mutex
	pending  []string
	deleted  []string
	received int
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	f.received++
	batch := f.pending
	f.pending = nil
	f.mu.Unlock()

	if len(batch) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	out := &sqs.ReceiveMessageOutput{}
	for i, body := range batch {
		out.Messages = append(out.Messages, sqstypes.Message{
			Body:          sdkaws.String(body),
			ReceiptHandle: sdkaws.String(string(rune('a' + i))),
		})
	}
	return out, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, sdkaws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestConsumer_DispatchesAndDeletes(t *testing.T) {
	queue := &fakeSQS{pending: []string{
		`{"table":"orders","event":"INSERT","id":"o1"}`,
		`not json`,
		`{"table":"orders","event":"UPDATE","id":"o2"}`,
	}}
	bridge := NewBridge()

	var mu sync.Mutex
	var seen []Change
	bridge.Subscribe("orders", Filter{Event: EventInsert}, func(ch Change) {
		mu.Lock()
		seen = append(seen, ch)
		mu.Unlock()
	})
	bridge.Subscribe("orders", Filter{Event: EventUpdate}, func(ch Change) {
		mu.Lock()
		seen = append(seen, ch)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = NewConsumer(queue, "q", 0, bridge, nil).Run(ctx)
	}()

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for dispatch, saw %d changes", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	queue.mu.Lock()
	defer queue.mu.Unlock()
	if len(queue.deleted) != 3 {
		t.Fatalf("expected all 3 messages deleted (including the malformed one), got %d", len(queue.deleted))
	}
}

func TestConsumer_InvalidationWiring(t *testing.T) {
	// the production wiring: an insert into orders marks every order
	// list stale, an update marks that order's detail stale
	ch := cache.New()
	ctx := context.Background()
	fetches := map[cache.Key]int{}
	load := func(k cache.Key) cache.FetchFunc {
		return func(context.Context) (interface{}, error) {
			fetches[k]++
			return fetches[k], nil
		}
	}
	for _, k := range []cache.Key{cache.OrderList(false), cache.UserOrderList("u1"), cache.OrderDetail("o9")} {
		if _, err := ch.Get(ctx, k, load(k)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	bridge := NewBridge()
	bridge.Subscribe("orders", Filter{Event: EventInsert}, func(Change) {
		ch.InvalidateKind(cache.KindOrderList)
	})
	bridge.Subscribe("orders", Filter{Event: EventUpdate}, func(c Change) {
		ch.Invalidate(cache.OrderDetail(c.ID))
	})

	bridge.Dispatch(Change{Table: "orders", Event: EventInsert, ID: "o10"})
	if _, err := ch.Get(ctx, cache.OrderList(false), load(cache.OrderList(false))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetches[cache.OrderList(false)] != 2 {
		t.Fatal("expected admin list refetched after insert event")
	}
	if _, err := ch.Get(ctx, cache.UserOrderList("u1"), load(cache.UserOrderList("u1"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetches[cache.UserOrderList("u1")] != 2 {
		t.Fatal("expected user list refetched after insert event")
	}
	if fetches[cache.OrderDetail("o9")] != 1 {
		t.Fatal("expected detail key untouched by insert event")
	}

	bridge.Dispatch(Change{Table: "orders", Event: EventUpdate, ID: "o9"})
	if _, err := ch.Get(ctx, cache.OrderDetail("o9"), load(cache.OrderDetail("o9"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetches[cache.OrderDetail("o9")] != 2 {
		t.Fatal("expected detail refetched after update event")
	}
}
