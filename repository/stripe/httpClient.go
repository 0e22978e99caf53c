package striperepo

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	checkoutSessionsURL = "https://api.stripe.com/v1/checkout/sessions"

	// Provider timestamps older than this are rejected to blunt replay.
	signatureTolerance = 5 * time.Minute
)

type httpRepo struct {
	apiKey        string
	webhookSecret string
	client        *http.Client
	now           func() time.Time
}

func NewHTTP(apiKey, webhookSecret string, client *http.Client) Repo {
	return &httpRepo{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		client:        client,
		now:           time.Now,
	}
}

func (r *httpRepo) CreateCheckoutSession(ctx context.Context, req CreateSessionReq) (*CreateSessionResp, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("client_reference_id", req.ClientReferenceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", req.Currency)
	form.Set("line_items[0][price_data][product_data][name]", req.ProductName)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.AmountCents, 10))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, checkoutSessionsURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(r.apiKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe create session failed: %s", resp.Status)
	}

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("stripe: empty session id")
	}
	return &CreateSessionResp{SessionID: out.ID, SessionURL: out.URL}, nil
}

func (r *httpRepo) VerifyAndParseWebhook(sigHeader string, rawBody []byte) (*CheckoutEvent, error) {
	ts, sigs, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	sent := time.Unix(ts, 0)
	age := r.now().Sub(sent)
	if age < 0 {
		age = -age
	}
	if age > signatureTolerance {
		return nil, errors.New("stripe webhook: timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(r.webhookSecret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	ok := false
	for _, s := range sigs {
		got, err := hex.DecodeString(s)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			ok = true
			break
		}
	}
	if !ok {
		return nil, errors.New("stripe webhook: signature mismatch")
	}

	var ev struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return nil, fmt.Errorf("stripe webhook: bad payload: %w", err)
	}
	if ev.Type == "" {
		return nil, errors.New("stripe webhook: missing event type")
	}
	return &CheckoutEvent{EventID: ev.ID, Type: ev.Type, SessionID: ev.Data.Object.ID}, nil
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]".
func parseSignatureHeader(h string) (int64, []string, error) {
	if strings.TrimSpace(h) == "" {
		return 0, nil, errors.New("stripe webhook: missing signature header")
	}
	var (
		ts   int64
		sigs []string
	)
	for _, part := range strings.Split(h, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, errors.New("stripe webhook: bad timestamp")
			}
			ts = n
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, errors.New("stripe webhook: malformed signature header")
	}
	return ts, sigs, nil
}
