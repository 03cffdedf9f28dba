package billing

import "encoding/json"

// ProviderStripe is the ledger key for the payment processor.
const ProviderStripe = "stripe"

// Event types the reconciler applies effects for. Anything else is accepted
// and ignored (forward-compatible no-op).
const (
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventPaymentFailed       = "invoice.payment_failed"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventSubscriptionUpdated = "customer.subscription.updated"
)

// Config carries the webhook shared secret and the two reference price ids
// used to reclassify a subscription as monthly or yearly.
type Config struct {
	WebhookSecret  string
	MonthlyPriceID string
	YearlyPriceID  string
}

// eventEnvelope is the processor-signed event wrapper {id, type, data}.
type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object eventObject `json:"object"`
	} `json:"data"`
}

// eventObject is the union of the invoice and subscription fields the
// reconciler reads. Unused payload fields are ignored on purpose.
type eventObject struct {
	ID               string `json:"id"`
	Subscription     string `json:"subscription"`       // invoice → subscription id
	Status           string `json:"status"`             // subscription status
	PeriodEnd        int64  `json:"period_end"`         // invoice period end (unix)
	CurrentPeriodEnd int64  `json:"current_period_end"` // subscription period end (unix)
	Items            struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func parseEvent(payload []byte) (*eventEnvelope, error) {
	var ev eventEnvelope
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// priceID returns the first price reference in the subscription items, or "".
func (o eventObject) priceID() string {
	if len(o.Items.Data) > 0 {
		return o.Items.Data[0].Price.ID
	}
	return ""
}

// subscriptionID resolves the external subscription reference for any event
// shape: subscriptions carry it as their own id, invoices as a pointer.
func (o eventObject) subscriptionID() string {
	if o.Subscription != "" {
		return o.Subscription
	}
	return o.ID
}
