package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reach-hq/reach-payments/internal/config"
	"github.com/reach-hq/reach-payments/internal/logger"
	"github.com/reach-hq/reach-payments/internal/receipts"
	"github.com/reach-hq/reach-payments/pkg/httpclient"
	"github.com/reach-hq/reach-payments/pkg/notify"
	"github.com/reach-hq/reach-payments/pkg/payment"
)

// Payments is the operator runtime. It drives the payment client, journals
// what it created and announces it to the configured notifiers.
type Payments struct {
	client *payment.Client
	store  receipts.Store
	fanout *notify.Fanout
	log    logger.Logger
}

// NewPayments builds the runtime from configuration.
func NewPayments(ctx context.Context, cfg *config.Config, log logger.Logger) (*Payments, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := payment.NewWithOptions(httpclient.Options{
		BaseURL: cfg.PaymentBaseURL,
		Timeout: cfg.PaymentTimeout,
	})
	log.DebugObj("payment client configured", "payment_client", map[string]any{
		"base_url":   cfg.PaymentBaseURL,
		"timeout_ms": cfg.PaymentTimeout.Milliseconds(),
	})

	notifierReg, err := notify.LoadRegistry(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}
	enabled := notifierReg.Enabled()
	notifiers, err := notify.BuildAll(ctx, notify.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}
	summaries := make([]map[string]string, 0, len(enabled))
	for _, n := range enabled {
		summaries = append(summaries, map[string]string{"id": n.ID, "type": n.Type})
	}
	log.DebugObj("notifiers registry loaded", "notifiers_meta", map[string]any{
		"count":     len(summaries),
		"notifiers": summaries,
	})
	fanout := notify.NewFanout(notifiers)

	store, err := receipts.NewStore(cfg.ReceiptsType, cfg.ReceiptsPath, receipts.Options{
		TTL:             cfg.ReceiptsTTL,
		CleanupInterval: cfg.ReceiptsCleanupInterval,
	})
	if err != nil {
		// Another paymentctl may hold the journal lock. Commands still run,
		// they just cannot default to journaled IDs.
		log.WarnObj("receipts unavailable, journal disabled", "receipts_error", map[string]any{
			"type":  cfg.ReceiptsType,
			"path":  cfg.ReceiptsPath,
			"error": err.Error(),
		})
		store, _ = receipts.NewStore("none", "", receipts.Options{})
	}
	log.DebugObj("receipts initialized", "receipts_config", map[string]any{
		"type":        cfg.ReceiptsType,
		"path":        cfg.ReceiptsPath,
		"ttl_seconds": int(cfg.ReceiptsTTL.Seconds()),
	})

	return newPayments(client, store, fanout, log), nil
}

func newPayments(client *payment.Client, store receipts.Store, fanout *notify.Fanout, log logger.Logger) *Payments {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if store == nil {
		store, _ = receipts.NewStore("none", "", receipts.Options{})
	}
	return &Payments{client: client, store: store, fanout: fanout, log: log}
}

// Close releases the journal and notifier connections.
func (p *Payments) Close() error {
	if p == nil {
		return nil
	}
	return errors.Join(p.store.Close(), p.fanout.Close())
}

// Health checks that the payment service is reachable.
func (p *Payments) Health(ctx context.Context) (*payment.Health, error) {
	return p.client.HealthCheck(ctx)
}

// Plans lists the subscription plans.
func (p *Payments) Plans(ctx context.Context) (payment.Plans, error) {
	return p.client.GetPlans(ctx)
}

// Stats returns aggregate payment statistics.
func (p *Payments) Stats(ctx context.Context) (*payment.Stats, error) {
	return p.client.GetPaymentStats(ctx)
}

// Donate creates a one-time payment intent.
func (p *Payments) Donate(ctx context.Context, req payment.PaymentIntentRequest) (*payment.PaymentIntent, error) {
	intent, err := p.client.CreatePaymentIntent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	p.log.InfoObj("payment intent created", "payment_intent", map[string]any{
		"payment_intent_id": intent.PaymentIntentID,
		"amount_cents":      payment.ToCents(req.Amount),
		"campaign_id":       req.CampaignID,
	})

	p.record(receipts.Receipt{
		ID:          intent.PaymentIntentID,
		Kind:        receipts.KindPaymentIntent,
		Email:       req.Email,
		Name:        req.Name,
		AmountCents: payment.ToCents(req.Amount),
		CampaignID:  req.CampaignID,
		Status:      "pending",
	})
	p.announce(ctx, notify.NewEvent(notify.KindPaymentIntentCreated, intent.PaymentIntentID, intent))
	return intent, nil
}

// Subscribe creates a recurring subscription.
func (p *Payments) Subscribe(ctx context.Context, req payment.SubscriptionRequest) (*payment.Subscription, error) {
	sub, err := p.client.CreateSubscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	p.log.InfoObj("subscription created", "subscription", map[string]any{
		"subscription_id": sub.SubscriptionID,
		"plan_id":         req.PlanID,
		"status":          sub.Status,
	})

	p.record(receipts.Receipt{
		ID:     sub.SubscriptionID,
		Kind:   receipts.KindSubscription,
		Email:  req.Email,
		Name:   req.Name,
		PlanID: req.PlanID,
		Status: sub.Status,
	})
	p.announce(ctx, notify.NewEvent(notify.KindSubscriptionCreated, sub.SubscriptionID, sub))
	return sub, nil
}

// Complete marks a payment intent completed. An empty ID selects the most
// recent intent recorded in the journal.
func (p *Payments) Complete(ctx context.Context, paymentIntentID string) (*payment.CompletedPayment, error) {
	id, err := p.resolve(paymentIntentID, receipts.KindPaymentIntent)
	if err != nil {
		return nil, err
	}
	done, err := p.client.TestCompletePayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("complete payment %s: %w", id, err)
	}
	p.log.InfoObj("payment completed", "payment_completion", map[string]any{
		"payment_intent_id": id,
		"donation_id":       done.DonationID,
	})

	p.updateStatus(id, receipts.StatusCompleted)
	p.announce(ctx, notify.NewEvent(notify.KindPaymentCompleted, id, done))
	return done, nil
}

// SubscriptionStatus reports a subscription's state. An empty ID selects the
// most recent subscription recorded in the journal.
func (p *Payments) SubscriptionStatus(ctx context.Context, subscriptionID string) (*payment.SubscriptionStatus, error) {
	id, err := p.resolve(subscriptionID, receipts.KindSubscription)
	if err != nil {
		return nil, err
	}
	return p.client.GetSubscriptionStatus(ctx, id)
}

// Cancel schedules a subscription to end and drops it from the journal. An
// empty ID selects the most recent subscription recorded in the journal.
func (p *Payments) Cancel(ctx context.Context, subscriptionID string) (*payment.Cancellation, error) {
	id, err := p.resolve(subscriptionID, receipts.KindSubscription)
	if err != nil {
		return nil, err
	}
	out, err := p.client.CancelSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cancel subscription %s: %w", id, err)
	}
	p.log.InfoObj("subscription cancelled", "subscription", map[string]any{
		"subscription_id":      id,
		"cancel_at_period_end": out.CancelAtPeriodEnd,
	})

	p.forget(id)
	p.announce(ctx, notify.NewEvent(notify.KindSubscriptionCanceled, id, out))
	return out, nil
}

// CampaignDonations lists donations for a campaign.
func (p *Payments) CampaignDonations(ctx context.Context, campaignID int64) (*payment.DonationList, error) {
	return p.client.GetCampaignDonations(ctx, campaignID)
}

// DonorDonations lists donations by a donor.
func (p *Payments) DonorDonations(ctx context.Context, donorID int64) (*payment.DonationList, error) {
	return p.client.GetDonorDonations(ctx, donorID)
}

// ActiveSubscriptions lists active subscriptions.
func (p *Payments) ActiveSubscriptions(ctx context.Context) (*payment.SubscriptionList, error) {
	return p.client.GetActiveSubscriptions(ctx)
}

// SubscriptionsByEmail lists subscriptions for a customer email.
func (p *Payments) SubscriptionsByEmail(ctx context.Context, email string) (*payment.SubscriptionList, error) {
	return p.client.GetSubscriptionsByEmail(ctx, email)
}

// resolve returns id, or the most recent unsettled journaled ID of kind when
// id is empty.
func (p *Payments) resolve(id, kind string) (string, error) {
	if id != "" {
		return id, nil
	}
	r, err := p.store.Latest(kind)
	if err != nil {
		if errors.Is(err, receipts.ErrNotFound) {
			return "", fmt.Errorf("no %s id given and none pending locally", kind)
		}
		return "", fmt.Errorf("lookup latest %s: %w", kind, err)
	}
	p.log.DebugObj("using journaled id", "receipt", r)
	return r.ID, nil
}

// record journals a created resource. Journal failures never fail the call.
func (p *Payments) record(r receipts.Receipt) {
	if r.ID == "" {
		return
	}
	r.CreatedAt = time.Now().UTC()
	if err := p.store.Put(r); err != nil {
		p.log.WarnObj("receipt journal write failed", "receipt_error", map[string]any{
			"id":    r.ID,
			"error": err.Error(),
		})
	}
}

func (p *Payments) updateStatus(id, status string) {
	r, err := p.store.Get(id)
	if err != nil {
		return
	}
	r.Status = status
	if err := p.store.Put(r); err != nil {
		p.log.WarnObj("receipt journal update failed", "receipt_error", map[string]any{
			"id":    id,
			"error": err.Error(),
		})
	}
}

func (p *Payments) forget(id string) {
	if err := p.store.Delete(id); err != nil {
		p.log.WarnObj("receipt journal delete failed", "receipt_error", map[string]any{
			"id":    id,
			"error": err.Error(),
		})
	}
}

// announce fans the event out. Delivery failures are logged, not returned.
func (p *Payments) announce(ctx context.Context, evt notify.Event) {
	if p.fanout.Size() == 0 {
		return
	}
	d, err := p.fanout.Notify(ctx, evt)
	if err != nil {
		p.log.ErrorObj("event delivery failed", "notify_error", map[string]any{
			"event_id":  evt.ID,
			"kind":      evt.Kind,
			"delivered": d.Delivered,
			"failed":    d.Failed,
			"error":     err.Error(),
		})
		return
	}
	p.log.DebugObj("event delivered", "notify_result", map[string]any{
		"event_id":  evt.ID,
		"reference": evt.ReferenceID,
		"delivery":  d,
	})
}
