package billing

import (
	"errors"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	sc *client.API
}

func NewStripeProvider(apiKey string) *StripeProvider {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeProvider{sc: sc}
}

func (p *StripeProvider) CreateCustomer(params CustomerParams) (*Customer, error) {
	cp := &stripe.CustomerParams{
		Email: stripe.String(params.Email),
		Name:  stripe.String(params.Name),
	}
	if params.IdempotencyKey != "" {
		cp.SetIdempotencyKey(params.IdempotencyKey)
	}

	c, err := p.sc.Customers.New(cp)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return &Customer{ID: c.ID}, nil
}

func (p *StripeProvider) CreateSubscription(params SubscriptionParams) (*RemoteSubscription, error) {
	sp := &stripe.SubscriptionParams{
		Customer: stripe.String(params.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(params.PriceID)},
		},
	}
	if params.IdempotencyKey != "" {
		sp.SetIdempotencyKey(params.IdempotencyKey)
	}

	s, err := p.sc.Subscriptions.New(sp)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return &RemoteSubscription{
		ID:                 s.ID,
		Status:             string(s.Status),
		CurrentPeriodStart: time.Unix(s.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(s.CurrentPeriodEnd, 0).UTC(),
	}, nil
}

func (p *StripeProvider) CancelSubscription(subscriptionID string) error {
	if _, err := p.sc.Subscriptions.Cancel(subscriptionID, nil); err != nil {
		return wrapStripeError(err)
	}
	return nil
}

func wrapStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &ProviderError{Message: se.Msg}
	}
	return &ProviderError{Message: err.Error()}
}
