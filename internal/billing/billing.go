package billing

import "time"

// Provider abstracts the external payment processor. Implementations must be
// safe for concurrent use.
type Provider interface {
	CreateCustomer(params CustomerParams) (*Customer, error)
	CreateSubscription(params SubscriptionParams) (*RemoteSubscription, error)
	CancelSubscription(subscriptionID string) error
}

type CustomerParams struct {
	Email          string
	Name           string
	IdempotencyKey string
}

type SubscriptionParams struct {
	CustomerID     string
	PriceID        string
	IdempotencyKey string
}

type Customer struct {
	ID string
}

type RemoteSubscription struct {
	ID                 string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

// ProviderError carries the processor's own message. It is surfaced verbatim
// to the caller.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}
