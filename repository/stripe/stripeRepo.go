package striperepo

import "context"

type CreateSessionReq struct {
	// AmountCents is the price in minor currency units.
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	// ClientReferenceID ties the session back to the borrowing it covers.
	ClientReferenceID string
}

type CreateSessionResp struct {
	SessionID  string
	SessionURL string
}

// CheckoutEvent is the slice of a provider webhook this service reads.
type CheckoutEvent struct {
	EventID   string
	Type      string
	SessionID string
}

type Repo interface {
	CreateCheckoutSession(ctx context.Context, req CreateSessionReq) (*CreateSessionResp, error)

	// VerifyAndParseWebhook checks the Stripe-Signature header against the
	// shared webhook secret and decodes the event. It fails closed: any
	// signature or payload problem is an error, never a parsed event.
	VerifyAndParseWebhook(sigHeader string, rawBody []byte) (*CheckoutEvent, error)
}
