package httpx

import (
	"net"
	"net/http"
	"time"
)

// Shared client for outbound provider calls. The 10s overall timeout is the
// bound referenced by the payment service: an expired call surfaces as a
// provider error, never a retry.
var defaultClient = &http.Client{
	Timeout: 10 * time.Second,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

func Client() *http.Client { return defaultClient }
