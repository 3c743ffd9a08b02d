package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/reach-hq/reach-payments/internal/config"
	"github.com/reach-hq/reach-payments/internal/receipts"
	"github.com/reach-hq/reach-payments/pkg/httpclient"
	"github.com/reach-hq/reach-payments/pkg/notify"
	"github.com/reach-hq/reach-payments/pkg/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (c *captureNotifier) ID() string   { return "capture" }
func (c *captureNotifier) Type() string { return "stub" }
func (c *captureNotifier) Notify(_ context.Context, evt notify.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return c.err
}

func newBackend(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu    sync.Mutex
		paths []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /payment/create-payment-intent", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"client_secret":"cs_1","payment_intent_id":"pi_1","donor_id":3}`))
	})
	mux.HandleFunc("POST /payment/create-subscription", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"subscription_id":"sub_1","customer_id":"cus_1","status":"incomplete"}`))
	})
	mux.HandleFunc("POST /payment/test-complete-payment/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "pi_1" {
			http.Error(w, `{"error":"Payment intent not found in database"}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","donation_id":8,"amount":5}`))
	})
	mux.HandleFunc("POST /payment/cancel-subscription/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"cancelled","cancel_at_period_end":true}`))
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), paths...)
	}
}

func newTestPayments(t *testing.T, n notify.Notifier) (*Payments, func() []string) {
	t.Helper()
	srv, paths := newBackend(t)
	store, err := receipts.NewStore("bbolt", filepath.Join(t.TempDir(), "receipts.db"), receipts.Options{})
	require.NoError(t, err)

	var ns []notify.Notifier
	if n != nil {
		ns = append(ns, n)
	}
	p := newPayments(payment.NewWithOptions(httpclient.Options{BaseURL: srv.URL}), store, notify.NewFanout(ns), nil)
	t.Cleanup(func() { _ = p.Close() })
	return p, paths
}

func TestDonateRecordsReceiptAndAnnounces(t *testing.T) {
	capture := &captureNotifier{}
	p, _ := newTestPayments(t, capture)

	intent, err := p.Donate(context.Background(), payment.PaymentIntentRequest{
		Amount:     decimal.NewFromInt(5),
		Email:      "a@b.com",
		Name:       "A",
		CampaignID: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.PaymentIntentID)

	r, err := p.store.Get("pi_1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), r.AmountCents)
	assert.Equal(t, int64(12), r.CampaignID)
	assert.Equal(t, "pending", r.Status)

	require.Len(t, capture.events, 1)
	assert.Equal(t, notify.KindPaymentIntentCreated, capture.events[0].Kind)
	assert.Equal(t, "pi_1", capture.events[0].ReferenceID)
}

func TestCompleteDefaultsToLatestIntent(t *testing.T) {
	p, paths := newTestPayments(t, nil)

	_, err := p.Donate(context.Background(), payment.PaymentIntentRequest{Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)

	done, err := p.Complete(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(8), done.DonationID)
	assert.Contains(t, paths(), "POST /payment/test-complete-payment/pi_1")

	r, err := p.store.Get("pi_1")
	require.NoError(t, err)
	assert.Equal(t, "completed", r.Status)
}

func TestCompleteTwiceWithoutIDReportsNothingPending(t *testing.T) {
	p, paths := newTestPayments(t, nil)

	_, err := p.Donate(context.Background(), payment.PaymentIntentRequest{Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), "")
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none pending")

	completions := 0
	for _, path := range paths() {
		if path == "POST /payment/test-complete-payment/pi_1" {
			completions++
		}
	}
	assert.Equal(t, 1, completions, "a settled intent must not be completed again")
}

func TestCancelTwiceWithoutIDReportsNothingPending(t *testing.T) {
	p, paths := newTestPayments(t, nil)

	_, err := p.Subscribe(context.Background(), payment.SubscriptionRequest{PlanID: "supporter"})
	require.NoError(t, err)
	_, err = p.Cancel(context.Background(), "")
	require.NoError(t, err)

	_, err = p.Cancel(context.Background(), "")
	require.Error(t, err)
	assert.Len(t, paths(), 2)
}

func TestCompleteWithoutJournalFails(t *testing.T) {
	p, paths := newTestPayments(t, nil)

	_, err := p.Complete(context.Background(), "")
	require.Error(t, err)
	assert.Empty(t, paths(), "no request should be issued without an id")
}

func TestCompletePropagatesBackendError(t *testing.T) {
	p, _ := newTestPayments(t, nil)

	_, err := p.Complete(context.Background(), "pi_missing")
	var statusErr *httpclient.StatusError
	require.True(t, errors.As(err, &statusErr), "got %v", err)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestSubscribeThenCancelLatest(t *testing.T) {
	capture := &captureNotifier{err: errors.New("sink down")}
	p, paths := newTestPayments(t, capture)

	sub, err := p.Subscribe(context.Background(), payment.SubscriptionRequest{PlanID: "supporter", Email: "a@b.com"})
	require.NoError(t, err, "notifier failures must not fail the call")
	assert.Equal(t, "sub_1", sub.SubscriptionID)

	out, err := p.Cancel(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, out.CancelAtPeriodEnd)
	assert.Contains(t, paths(), "POST /payment/cancel-subscription/sub_1")

	_, err = p.store.Get("sub_1")
	assert.ErrorIs(t, err, receipts.ErrNotFound, "cancelled subscriptions leave the journal")
	require.Len(t, capture.events, 2)
	assert.Equal(t, notify.KindSubscriptionCanceled, capture.events[1].Kind)
}

func TestNewPaymentsFromConfig(t *testing.T) {
	srv, _ := newBackend(t)
	dir := t.TempDir()
	cfg := &config.Config{
		PaymentBaseURL: srv.URL,
		ReceiptsType:   "bbolt",
		ReceiptsPath:   filepath.Join(dir, "data", "receipts.db"),
		NotifiersFile:  filepath.Join(dir, "missing.yaml"),
	}

	p, err := NewPayments(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	intent, err := p.Donate(context.Background(), payment.PaymentIntentRequest{Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.PaymentIntentID)
}

func TestNewPaymentsSurvivesLockedJournal(t *testing.T) {
	srv, _ := newBackend(t)
	cfg := &config.Config{
		PaymentBaseURL: srv.URL,
		ReceiptsType:   "bbolt",
		ReceiptsPath:   filepath.Join(t.TempDir(), "receipts.db"),
	}

	first, err := NewPayments(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer first.Close()

	second, err := NewPayments(context.Background(), cfg, nil)
	require.NoError(t, err, "a held journal lock must not block the runtime")
	defer second.Close()

	intent, err := second.Donate(context.Background(), payment.PaymentIntentRequest{Amount: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.PaymentIntentID)

	_, err = second.Complete(context.Background(), "")
	require.Error(t, err, "without a journal there is nothing to default to")

	_, err = first.store.Get("pi_1")
	assert.ErrorIs(t, err, receipts.ErrNotFound)
}

func TestNewPaymentsRejectsNilConfig(t *testing.T) {
	_, err := NewPayments(context.Background(), nil, nil)
	require.Error(t, err)
}
