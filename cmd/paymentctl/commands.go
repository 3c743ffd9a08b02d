package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/reach-hq/reach-payments/internal/app"
	"github.com/reach-hq/reach-payments/internal/config"
	"github.com/reach-hq/reach-payments/pkg/payment"
	"github.com/reach-hq/reach-payments/pkg/theme"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

// commonFlags override configuration for a single invocation.
type commonFlags struct {
	baseURL string
	timeout time.Duration
}

func (c commonFlags) apply(cfg *config.Config) {
	if c.baseURL != "" {
		cfg.PaymentBaseURL = c.baseURL
	}
	if c.timeout > 0 {
		cfg.PaymentTimeout = c.timeout
	}
}

// invocation is a parsed command line.
type invocation struct {
	common commonFlags
	args   []string

	amount     string
	email      string
	name       string
	campaignID int64
	planID     string
	format     string
}

type command struct {
	name    string
	usage   string
	args    string
	minArgs int
	maxArgs int
	flags   func(fs *pflag.FlagSet, inv *invocation)
	exec    func(ctx context.Context, p *app.Payments, inv *invocation) (any, error)
	offline func(inv *invocation, w io.Writer) error
}

func (c command) parse(args []string) (*invocation, error) {
	inv := &invocation{}
	fs := pflag.NewFlagSet(c.name, pflag.ContinueOnError)
	fs.StringVar(&inv.common.baseURL, "base-url", "", "payment service base URL (overrides PAYMENT_BASE_URL)")
	fs.DurationVar(&inv.common.timeout, "timeout", 0, "request timeout (overrides PAYMENT_TIMEOUT_MS)")
	if c.flags != nil {
		c.flags(fs, inv)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	inv.args = fs.Args()
	if n := len(inv.args); n < c.minArgs || n > c.maxArgs {
		return nil, fmt.Errorf("usage: paymentctl %s %s", c.name, c.args)
	}
	return inv, nil
}

func (inv *invocation) arg(i int) string {
	if i < len(inv.args) {
		return inv.args[i]
	}
	return ""
}

func (inv *invocation) int64Arg(i int) (int64, error) {
	v, err := strconv.ParseInt(inv.arg(i), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", inv.arg(i), err)
	}
	return v, nil
}

var commands = []command{
	{
		name:  "health",
		usage: "check the payment service is alive",
		exec: func(ctx context.Context, p *app.Payments, _ *invocation) (any, error) {
			return p.Health(ctx)
		},
	},
	{
		name:  "plans",
		usage: "list subscription plans",
		exec: func(ctx context.Context, p *app.Payments, _ *invocation) (any, error) {
			return p.Plans(ctx)
		},
	},
	{
		name:  "donate",
		usage: "create a one-time payment intent",
		flags: func(fs *pflag.FlagSet, inv *invocation) {
			fs.StringVar(&inv.amount, "amount", "", "donation amount in dollars")
			fs.StringVar(&inv.email, "email", "", "donor email")
			fs.StringVar(&inv.name, "name", "", "donor name")
			fs.Int64Var(&inv.campaignID, "campaign-id", 0, "campaign to credit (optional)")
		},
		exec: func(ctx context.Context, p *app.Payments, inv *invocation) (any, error) {
			amount, err := decimal.NewFromString(strings.TrimSpace(inv.amount))
			if err != nil {
				return nil, fmt.Errorf("invalid --amount %q: %w", inv.amount, err)
			}
			return p.Donate(ctx, payment.PaymentIntentRequest{
				Amount:     amount,
				Email:      inv.email,
				Name:       inv.name,
				CampaignID: inv.campaignID,
			})
		},
	},
	{
		name:  "subscribe",
		usage: "subscribe a customer to a plan",
		flags: func(fs *pflag.FlagSet, inv *invocation) {
			fs.StringVar(&inv.planID, "plan", "", "plan id (supporter, advocate, champion)")
			fs.StringVar(&inv.email, "email", "", "customer email")
			fs.StringVar(&inv.name, "name", "", "customer name")
		},
		exec: func(ctx context.Context, p *app.Payments, inv *invocation) (any, error) {
			return p.Subscribe(ctx, payment.SubscriptionRequest{
				PlanID: inv.planID,
				Email:  inv.email,
				Name:   inv.name,
			})
		},
	},
	{
		name:    "complete",
		usage:   "mark a payment intent completed (development only)",
		args:    "[payment-intent-id]",
		maxArgs: 1,
		exec: func(ctx context.Context, p *app.Payments, inv *invocation) (any, error) {
			return p.Complete(ctx, inv.arg(0))
		},
	},
	{
		name:  "stats",
		usage: "show payment statistics",
		exec: func(ctx context.Context, p *app.Payments, _ *invocation) (any, error) {
			return p.Stats(ctx)
		},
	},
	{
		name:    "subscription",
		usage:   "show a subscription's status",
		args:    "[subscription-id]",
		maxArgs: 1,
		exec: func(ctx context.Context, p *app.Payments, inv *invocation) (any, error) {
			return p.SubscriptionStatus(ctx, inv.arg(0))
		},
	},
	{
		name:    "cancel",
		usage:   "cancel a subscription at period end",
		args:    "[subscription-id]",
		maxArgs: 1,
		exec: func(ctx context.Context, p *app.Payments, inv *invocation) (any, error) {
			return p.Cancel(ctx, inv.arg(0))
		},
	},
	{
		name:    "campaign-donations",
		usage:   "list donations for a campaign",
		args:    "<campaign-id>",
		minArgs: 1,
		maxArgs: 1,
		exec: func(ctx context.Context, p *app.Payments, inv *invocation) (any, error) {
			id, err := inv.int64Arg(0)
			if err != nil {
				return nil, err
			}
			return p.CampaignDonations(ctx, id)
		},
	},
	{
		name:    "donor-donations",
		usage:   "list donations by a donor",
		args:    "<donor-id>",
		minArgs: 1,
		maxArgs: 1,
		exec: func(ctx context.Context, p *app.Payments, inv *invocation) (any, error) {
			id, err := inv.int64Arg(0)
			if err != nil {
				return nil, err
			}
			return p.DonorDonations(ctx, id)
		},
	},
	{
		name:  "active-subscriptions",
		usage: "list active subscriptions",
		exec: func(ctx context.Context, p *app.Payments, _ *invocation) (any, error) {
			return p.ActiveSubscriptions(ctx)
		},
	},
	{
		name:    "subscriptions-by-email",
		usage:   "list subscriptions for a customer email",
		args:    "<email>",
		minArgs: 1,
		maxArgs: 1,
		exec: func(ctx context.Context, p *app.Payments, inv *invocation) (any, error) {
			return p.SubscriptionsByEmail(ctx, inv.arg(0))
		},
	},
	{
		name:  "theme",
		usage: "print the frontend theme manifest",
		flags: func(fs *pflag.FlagSet, inv *invocation) {
			fs.StringVar(&inv.format, "format", theme.FormatJSON, "output format (json or yaml)")
		},
		offline: func(inv *invocation, w io.Writer) error {
			return theme.Encode(w, theme.Default(), inv.format)
		},
	},
}

func commandByName(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: paymentctl <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-24s %s\n", strings.TrimSpace(c.name+" "+c.args), c.usage)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
