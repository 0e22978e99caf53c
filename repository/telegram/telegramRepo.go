package telegramrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Notifier forwards human-readable lifecycle messages. Delivery is
// best-effort: callers log failures and move on.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type httpNotifier struct {
	token  string
	chatID string
	client *http.Client
}

func NewHTTP(token, chatID string, client *http.Client) Notifier {
	return &httpNotifier{token: token, chatID: chatID, client: client}
}

func (n *httpNotifier) Notify(ctx context.Context, text string) error {
	body, _ := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	})
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram sendMessage failed: %s", resp.Status)
	}
	return nil
}

// Noop is used when no bot token is configured.
type Noop struct{}

func (Noop) Notify(context.Context, string) error { return nil }
