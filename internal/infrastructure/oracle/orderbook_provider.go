package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
)

type orderBookItem struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

type orderBookResponse struct {
	Ask struct {
		Symbol string          `json:"symbol"`
		Items  []orderBookItem `json:"items"`
	} `json:"ask"`
}

// OrderBookProvider prices a source as the mean of the best asks of an
// exchange order book, read from {base}?symbol={source}.
type OrderBookProvider struct {
	baseURL string
	client  *http.Client
	// Depth is how many of the best asks are averaged.
	Depth int
}

func NewOrderBookProvider(baseURL string, timeout time.Duration) *OrderBookProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OrderBookProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		Depth:   5,
	}
}

func (p *OrderBookProvider) Name() string { return "orderbook" }

func (p *OrderBookProvider) CurrentExchangeRate(ctx context.Context, source string) (amount.Balance, error) {
	sep := "?"
	if strings.Contains(p.baseURL, "?") {
		sep = "&"
	}
	body, err := getJSON(ctx, p.client, p.baseURL+sep+"symbol="+url.QueryEscape(source))
	if err != nil {
		return amount.Balance{}, fmt.Errorf("%s: %w", p.Name(), err)
	}

	var book orderBookResponse
	if err := json.Unmarshal(body, &book); err != nil {
		return amount.Balance{}, fmt.Errorf("%s: failed to parse order book: %w", p.Name(), err)
	}
	avg, err := averageAsk(book.Ask.Items, p.Depth)
	if err != nil {
		return amount.Balance{}, fmt.Errorf("%s: %w", p.Name(), err)
	}
	return toBalance(p.Name(), avg)
}

func averageAsk(items []orderBookItem, depth int) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty order book", ErrNoRate)
	}
	if depth <= 0 || depth > len(items) {
		depth = len(items)
	}
	total := decimal.Zero
	for _, it := range items[:depth] {
		total = total.Add(it.Price)
	}
	return total.Div(decimal.NewFromInt(int64(depth))), nil
}
