package notifier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
)

// ParseModeHTML asks the bot to render the message as its HTML subset
const ParseModeHTML = "HTML"

// codexMessage is the form body accepted by the notify bot
type codexMessage struct {
	Message   string `url:"message"`
	ParseMode string `url:"parse_mode"`
}

// CodexNotifier delivers messages through the Codex notify bot webhook
type CodexNotifier struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewCodexNotifier creates a notifier posting to <baseURL><chat>
func NewCodexNotifier(baseURL string, log *slog.Logger) *CodexNotifier {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &CodexNotifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Notify sends message to the chat identified by chat
func (n *CodexNotifier) Notify(ctx context.Context, chat, message string) error {
	form, err := query.Values(codexMessage{Message: message, ParseMode: ParseModeHTML})
	if err != nil {
		return fmt.Errorf("error encoding notification: %w", err)
	}

	endpoint := n.baseURL + url.PathEscape(chat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("error creating notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Error("Failed to send notification", "chat", chat, "error", err)
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		n.log.Error("Send to Codex bot failed", "chat", chat, "status", resp.StatusCode, "body", string(body))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	n.log.Info("Notification sent successfully", "chat", chat)
	return nil
}
