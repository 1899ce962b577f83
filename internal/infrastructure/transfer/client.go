package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

// ErrRejected means the transfer service refused the request outright; the
// transfer will never happen.
var ErrRejected = errors.New("transfer rejected")

// HTTPTransferClient submits outbound transfers to the asset transfer
// service. Results arrive later through the callback endpoint or Kafka.
type HTTPTransferClient struct {
	address string
	client  *http.Client
}

func NewHTTPTransferClient(address string, timeout time.Duration) *HTTPTransferClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransferClient{
		address: strings.TrimRight(address, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// RequestTransfer is idempotent on TransferID: a 409 means the service
// already holds this transfer and is treated as accepted.
func (c *HTTPTransferClient) RequestTransfer(ctx context.Context, req domain.TransferRequest) error {
	body, err := json.Marshal(transferRequest{
		TransferID: req.TransferID,
		Token:      string(req.Token),
		Receiver:   string(req.Receiver),
		Amount:     req.Amount.String(),
		Memo:       req.Memo,
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/v1/transfers", c.address), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.TransferID)

	response, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("transfer service unreachable: %w", err)
	}
	defer response.Body.Close()
	responseBody, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return err
	}

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		var accepted transferResponse
		if len(responseBody) > 0 {
			if err := json.Unmarshal(responseBody, &accepted); err != nil {
				return fmt.Errorf("failed to parse transfer response: %w", err)
			}
			if accepted.TransferID != "" && accepted.TransferID != req.TransferID {
				return fmt.Errorf("transfer service acknowledged %q, expected %q", accepted.TransferID, req.TransferID)
			}
		}
		return nil
	case response.StatusCode == http.StatusConflict:
		return nil
	default:
		msg := http.StatusText(response.StatusCode)
		var errResp errorResponse
		if err := json.Unmarshal(responseBody, &errResp); err == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		if response.StatusCode >= 400 && response.StatusCode < 500 {
			return fmt.Errorf("%w: %s", ErrRejected, msg)
		}
		return fmt.Errorf("transfer service returned %d: %s", response.StatusCode, msg)
	}
}
