package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

var ErrNoRate = errors.New("no exchange rate")

// Provider is a named domain.PriceOracle.
type Provider interface {
	domain.PriceOracle
	Name() string
}

type rateResponse struct {
	Source string          `json:"source"`
	Rate   decimal.Decimal `json:"rate"`
}

// HTTPProvider reads rates from GET {base}/v1/rates/{source}. Rates are
// decimal amounts of the deposit asset per share.
type HTTPProvider struct {
	name    string
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(name, baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

func (p *HTTPProvider) CurrentExchangeRate(ctx context.Context, source string) (amount.Balance, error) {
	body, err := getJSON(ctx, p.client, fmt.Sprintf("%s/v1/rates/%s", p.baseURL, url.PathEscape(source)))
	if err != nil {
		return amount.Balance{}, fmt.Errorf("%s: %w", p.name, err)
	}

	var resp rateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return amount.Balance{}, fmt.Errorf("%s: failed to parse rate: %w", p.name, err)
	}
	return toBalance(p.name, resp.Rate)
}

func getJSON(ctx context.Context, client *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoRate
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API returned status: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

func toBalance(provider string, rate decimal.Decimal) (amount.Balance, error) {
	if !rate.IsPositive() {
		return amount.Balance{}, fmt.Errorf("%s: %w: non-positive rate %s", provider, ErrNoRate, rate)
	}
	v, err := amount.FromDecimal(rate, domain.DepositDecimals)
	if err != nil {
		return amount.Balance{}, fmt.Errorf("%s: %w", provider, err)
	}
	if v.IsZero() {
		return amount.Balance{}, fmt.Errorf("%s: %w: rate %s below precision", provider, ErrNoRate, rate)
	}
	return v, nil
}
