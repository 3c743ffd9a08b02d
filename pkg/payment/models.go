package payment

import "github.com/shopspring/decimal"

// Currency is the only currency the payment service charges in.
const Currency = "usd"

// Health is the liveness payload returned by the payment service.
type Health struct {
	Status string `json:"status"`
}

// Plan describes a recurring subscription offering. Price is in cents.
type Plan struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	Interval string `json:"interval"`
}

// Plans maps plan identifiers (supporter, advocate, ...) to their offering.
type Plans map[string]Plan

// PaymentIntentRequest describes a one-time donation. Amount is in dollars.
// A zero CampaignID is sent as null.
type PaymentIntentRequest struct {
	Amount     decimal.Decimal
	Email      string
	Name       string
	CampaignID int64
}

// paymentIntentPayload is the wire body for create-payment-intent.
type paymentIntentPayload struct {
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	CampaignID *int64 `json:"campaign_id"`
}

// PaymentIntent is the pending one-time charge created by the service.
type PaymentIntent struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	DonorID         *int64 `json:"donor_id"`
}

// SubscriptionRequest selects a plan for a subscriber.
type SubscriptionRequest struct {
	PlanID string `json:"plan_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Subscription is the recurring subscription created by the service.
// ClientSecret is empty when no payment confirmation is pending.
type Subscription struct {
	SubscriptionID string `json:"subscription_id"`
	ClientSecret   string `json:"client_secret"`
	CustomerID     string `json:"customer_id"`
	CustomerEmail  string `json:"customer_email"`
	Status         string `json:"status"`
}

// CompletedPayment is returned by the development-only completion endpoint.
type CompletedPayment struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	DonationID int64           `json:"donation_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
}

// SubscriptionStatus reports the current state of one subscription.
// Period bounds are unix seconds.
type SubscriptionStatus struct {
	Status             string `json:"status"`
	CurrentPeriodStart *int64 `json:"current_period_start"`
	CurrentPeriodEnd   *int64 `json:"current_period_end"`
	PlanID             string `json:"plan_id"`
	Amount             *int64 `json:"amount"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
}

// Cancellation is the result of scheduling a subscription to end.
type Cancellation struct {
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  *int64 `json:"current_period_end"`
}

// Record is a loosely typed row returned by the aggregate endpoints.
type Record map[string]any

// DonationList holds donations for a campaign or a donor. TotalAmount is in dollars.
type DonationList struct {
	Status         string          `json:"status"`
	Data           []Record        `json:"data"`
	TotalDonations int             `json:"total_donations"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// SubscriptionList holds subscription rows. TotalActive is only set by the
// active subscriptions endpoint.
type SubscriptionList struct {
	Status      string   `json:"status"`
	Data        []Record `json:"data"`
	TotalActive int      `json:"total_active_subscriptions,omitempty"`
}

// Stats aggregates donation and subscription totals.
type Stats struct {
	Status string    `json:"status"`
	Data   StatsData `json:"data"`
}

// StatsData amounts are in dollars.
type StatsData struct {
	TotalDonationsAmount    decimal.Decimal `json:"total_donations_amount"`
	TotalDonationsCount     int             `json:"total_donations_count"`
	MonthlyRecurringRevenue decimal.Decimal `json:"monthly_recurring_revenue"`
	ActiveSubscriptions     int             `json:"active_subscriptions"`
	TotalSubscribers        int             `json:"total_subscribers"`
	TotalCampaigns          int             `json:"total_campaigns"`
}

// ToCents converts a dollar amount to whole cents, rounding half away from zero.
func ToCents(dollars decimal.Decimal) int64 {
	return dollars.Shift(2).Round(0).IntPart()
}
