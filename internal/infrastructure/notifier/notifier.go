package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

const SignatureHeader = "X-Kickstarter-Signature"

// WebhookNotifier posts ledger events to an external URL. Delivery runs in
// the background and failures are only logged.
type WebhookNotifier struct {
	callbackURL string
	secret      []byte
	client      *http.Client
	logger      zerolog.Logger
}

func NewWebhookNotifier(callbackURL, secret string, logger zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		callbackURL: callbackURL,
		secret:      []byte(secret),
		client:      &http.Client{Timeout: 5 * time.Second},
		logger:      logger.With().Str("component", "webhook_notifier").Logger(),
	}
}

func (n *WebhookNotifier) PublishEvent(_ context.Context, ev domain.Event) error {
	body, err := json.Marshal(CallbackPayload{
		Type:         string(ev.Type),
		CampaignID:   uint32(ev.CampaignID),
		Account:      string(ev.Account),
		Amount:       ev.Amount.String(),
		SettlementID: ev.SettlementID,
		Kind:         string(ev.Kind),
		OccurredAt:   ev.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("marshal callback: %w", err)
	}
	go n.send(body)
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (n *WebhookNotifier) send(body []byte) {
	req, err := http.NewRequest(http.MethodPost, n.callbackURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to create callback request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if len(n.secret) > 0 {
		req.Header.Set(SignatureHeader, Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn().Err(err).Msg("callback failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn().Int("status", resp.StatusCode).Msg("callback returned non-2xx")
		return
	}
	n.logger.Debug().Msg("callback sent")
}
