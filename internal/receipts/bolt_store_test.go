package receipts

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "receipts.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStorePutGetLatest(t *testing.T) {
	store := openTestStore(t, Options{TTL: time.Hour, CleanupInterval: time.Hour})

	if _, err := store.Get("pi_1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	base := time.Now().UTC()
	if err := store.Put(Receipt{ID: "pi_1", Kind: KindPaymentIntent, AmountCents: 500, CreatedAt: base}); err != nil {
		t.Fatalf("Put pi_1: %v", err)
	}
	if err := store.Put(Receipt{ID: "pi_2", Kind: KindPaymentIntent, AmountCents: 700, CreatedAt: base.Add(time.Second)}); err != nil {
		t.Fatalf("Put pi_2: %v", err)
	}
	if err := store.Put(Receipt{ID: "sub_1", Kind: KindSubscription, PlanID: "supporter", CreatedAt: base.Add(2 * time.Second)}); err != nil {
		t.Fatalf("Put sub_1: %v", err)
	}

	got, err := store.Get("pi_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AmountCents != 500 || got.Kind != KindPaymentIntent {
		t.Fatalf("unexpected receipt %+v", got)
	}

	latest, err := store.Latest(KindPaymentIntent)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != "pi_2" {
		t.Fatalf("Latest payment intent = %s", latest.ID)
	}

	if err := store.Delete("pi_2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	latest, err = store.Latest(KindPaymentIntent)
	if err != nil || latest.ID != "pi_1" {
		t.Fatalf("after delete Latest = %+v, err=%v", latest, err)
	}
}

func TestBoltStoreLatestSkipsSettled(t *testing.T) {
	store := openTestStore(t, Options{TTL: time.Hour, CleanupInterval: time.Hour})

	base := time.Now().UTC()
	if err := store.Put(Receipt{ID: "pi_1", Kind: KindPaymentIntent, Status: "pending", CreatedAt: base}); err != nil {
		t.Fatalf("Put pi_1: %v", err)
	}
	if err := store.Put(Receipt{ID: "pi_2", Kind: KindPaymentIntent, Status: StatusCompleted, CreatedAt: base.Add(time.Second)}); err != nil {
		t.Fatalf("Put pi_2: %v", err)
	}

	latest, err := store.Latest(KindPaymentIntent)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != "pi_1" {
		t.Fatalf("Latest should skip completed intents, got %s", latest.ID)
	}

	latest.Status = StatusCompleted
	if err := store.Put(latest); err != nil {
		t.Fatalf("Put completed pi_1: %v", err)
	}
	if _, err := store.Latest(KindPaymentIntent); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound once every intent is settled, got %v", err)
	}
	if _, err := store.Get("pi_2"); err != nil {
		t.Fatalf("settled receipts stay readable by id: %v", err)
	}
}

func TestReceiptSettled(t *testing.T) {
	cases := map[string]bool{
		"":           false,
		"pending":    false,
		"incomplete": false,
		"active":     false,
		"completed":  true,
		"cancelled":  true,
		" Canceled ": true,
	}
	for status, want := range cases {
		if got := (Receipt{Status: status}).Settled(); got != want {
			t.Errorf("Settled(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestBoltStoreExpiresReceipts(t *testing.T) {
	store := openTestStore(t, Options{TTL: time.Minute, CleanupInterval: time.Minute})
	now := time.Now()
	store.now = func() time.Time { return now }

	if err := store.Put(Receipt{ID: "pi_1", Kind: KindPaymentIntent}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Get("pi_1"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	now = now.Add(2 * time.Minute)

	if _, err := store.Latest(KindPaymentIntent); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired receipt to be hidden, got %v", err)
	}
	if _, err := store.Get("pi_1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired receipt to be removed, got %v", err)
	}
}

func TestBoltStoreRequiresID(t *testing.T) {
	store := openTestStore(t, Options{})
	if err := store.Put(Receipt{Kind: KindSubscription}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Put(Receipt{ID: "x"}); err != nil {
		t.Fatalf("noop store Put: %v", err)
	}
	if _, err := store.Latest(KindPaymentIntent); !errors.Is(err, ErrNotFound) {
		t.Fatalf("noop store Latest should report not found, got %v", err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
