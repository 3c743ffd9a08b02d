package receipts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Package receipts keeps a local journal of payment resources this tool created.

// Kinds of resources recorded in the journal.
const (
	KindPaymentIntent = "payment_intent"
	KindSubscription  = "subscription"
)

// Statuses a receipt can no longer move out of.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusCanceled  = "canceled"
)

// ErrNotFound is returned when no live receipt matches the lookup.
var ErrNotFound = errors.New("receipt not found")

// Receipt records one resource created against the payment service.
type Receipt struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Email       string    `json:"email,omitempty"`
	Name        string    `json:"name,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	CampaignID  int64     `json:"campaign_id,omitempty"`
	PlanID      string    `json:"plan_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Settled reports whether the receipt has reached a terminal status.
func (r Receipt) Settled() bool {
	switch strings.ToLower(strings.TrimSpace(r.Status)) {
	case StatusCompleted, StatusCancelled, StatusCanceled:
		return true
	}
	return false
}

// Store persists receipts until they expire.
type Store interface {
	Close() error
	Put(r Receipt) error
	Get(id string) (Receipt, error)
	Latest(kind string) (Receipt, error)
	Delete(id string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 30 * 24 * time.Hour
	defaultCleanupInterval = 24 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported receipts storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                   { return nil }
func (noopStore) Put(Receipt) error              { return nil }
func (noopStore) Get(string) (Receipt, error)    { return Receipt{}, ErrNotFound }
func (noopStore) Latest(string) (Receipt, error) { return Receipt{}, ErrNotFound }
func (noopStore) Delete(string) error            { return nil }
