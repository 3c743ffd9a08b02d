package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/reach-hq/reach-payments/pkg/httpclient"
)

const (
	pathHealth               = "/payment/health"
	pathPlans                = "/payment/plans"
	pathCreatePaymentIntent  = "/payment/create-payment-intent"
	pathCreateSubscription   = "/payment/create-subscription"
	pathTestCompletePayment  = "/payment/test-complete-payment/"
	pathStats                = "/payment/stats"
	pathSubscriptionStatus   = "/payment/subscription-status/"
	pathCancelSubscription   = "/payment/cancel-subscription/"
	pathCampaign             = "/payment/campaign/"
	pathDonor                = "/payment/donor/"
	pathActiveSubscriptions  = "/payment/subscriptions/active"
	pathSubscriptionsByEmail = "/payment/subscriptions/email/"
	donationsSuffix          = "/donations"
)

// Client issues requests against the payment service. Each method sends
// exactly one request and returns transport errors unchanged.
type Client struct {
	http httpclient.Doer
}

// New wraps the given transport.
func New(doer httpclient.Doer) *Client {
	return &Client{http: doer}
}

// NewWithOptions builds a Client over a resty transport configured with opts.
func NewWithOptions(opts httpclient.Options) *Client {
	return New(httpclient.New(opts))
}

// HealthCheck reports whether the payment service is alive.
func (c *Client) HealthCheck(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.call(ctx, http.MethodGet, pathHealth, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPlans lists the subscription plans on offer.
func (c *Client) GetPlans(ctx context.Context) (Plans, error) {
	var out Plans
	if err := c.call(ctx, http.MethodGet, pathPlans, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePaymentIntent starts a one-time donation. The dollar amount is sent in cents.
func (c *Client) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	body := paymentIntentPayload{
		Amount:   ToCents(req.Amount),
		Currency: Currency,
		Email:    req.Email,
		Name:     req.Name,
	}
	if req.CampaignID != 0 {
		id := req.CampaignID
		body.CampaignID = &id
	}

	var out PaymentIntent
	if err := c.call(ctx, http.MethodPost, pathCreatePaymentIntent, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubscription subscribes a customer to a plan.
func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	var out Subscription
	if err := c.call(ctx, http.MethodPost, pathCreateSubscription, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TestCompletePayment marks a payment intent completed. Development only.
func (c *Client) TestCompletePayment(ctx context.Context, paymentIntentID string) (*CompletedPayment, error) {
	var out CompletedPayment
	path := pathTestCompletePayment + url.PathEscape(paymentIntentID)
	if err := c.call(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPaymentStats returns aggregate donation and subscription totals.
func (c *Client) GetPaymentStats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.call(ctx, http.MethodGet, pathStats, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSubscriptionStatus returns the state of a subscription.
func (c *Client) GetSubscriptionStatus(ctx context.Context, subscriptionID string) (*SubscriptionStatus, error) {
	var out SubscriptionStatus
	path := pathSubscriptionStatus + url.PathEscape(subscriptionID)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelSubscription schedules a subscription to end at the current period.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*Cancellation, error) {
	var out Cancellation
	path := pathCancelSubscription + url.PathEscape(subscriptionID)
	if err := c.call(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCampaignDonations lists the donations made to a campaign.
func (c *Client) GetCampaignDonations(ctx context.Context, campaignID int64) (*DonationList, error) {
	var out DonationList
	path := pathCampaign + strconv.FormatInt(campaignID, 10) + donationsSuffix
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDonorDonations lists the donations made by a donor.
func (c *Client) GetDonorDonations(ctx context.Context, donorID int64) (*DonationList, error) {
	var out DonationList
	path := pathDonor + strconv.FormatInt(donorID, 10) + donationsSuffix
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetActiveSubscriptions lists subscriptions in the active state.
func (c *Client) GetActiveSubscriptions(ctx context.Context) (*SubscriptionList, error) {
	var out SubscriptionList
	if err := c.call(ctx, http.MethodGet, pathActiveSubscriptions, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSubscriptionsByEmail lists the subscriptions held by a customer email.
func (c *Client) GetSubscriptionsByEmail(ctx context.Context, email string) (*SubscriptionList, error) {
	var out SubscriptionList
	path := pathSubscriptionsByEmail + url.PathEscape(email)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call issues one request and decodes a non-empty response body into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("payment client is not initialized")
	}
	resp, err := c.http.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	raw := resp.Body()
	if len(raw) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
