// =============================================================================
// ORDER SOURCE / PRICE SOURCE CLIENT
// =============================================================================
//
// Read-only client for the two upstream collaborators feeding the option
// chain engine:
//   - Order Source: HTTP GET returning raw order records for one asset
//   - Price Source: spot price + 24h change for one asset symbol
//
// RESPONSE TOLERANCE:
// The order-source body may arrive wrapped in an envelope or bare, and the
// record array may sit under "orders" or "quotes":
//
//   { "data": { "orders": [...], "indexPrice": ... } }
//   { "orders": [...] }
//   { "quotes": [...] }
//
// All three decode to the same OrderBook. Decoding failures are whole-source
// failures (ErrSourceUnavailable); individual bad records are NOT rejected
// here - the normalizer drops them one by one.
//
// =============================================================================
package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	sdkhttp "github.com/betbot/gooption/pkg/sdk/http"
)

// Client talks to the Order Source and Price Source services.
type Client struct {
	orders *sdkhttp.Client
	prices *sdkhttp.Client
	log    *logrus.Entry
}

// NewClient creates a client for the given base URLs.
func NewClient(orderBookURL, priceURL string, timeout time.Duration) *Client {
	return &Client{
		orders: sdkhttp.NewClient(orderBookURL, timeout),
		prices: sdkhttp.NewClient(priceURL, timeout),
		log:    logrus.WithField("module", "sdk.api"),
	}
}

// FetchOrderBook fetches the raw order records for one asset symbol.
func (c *Client) FetchOrderBook(ctx context.Context, symbol string) (*OrderBook, error) {
	body, err := c.orders.GetBytes(ctx, "/orders", map[string]string{"asset": symbol})
	if err != nil {
		return nil, sourceErr(err, "order source")
	}

	book, err := decodeOrderBook(body)
	if err != nil {
		return nil, sourceErr(err, "order source")
	}

	c.log.Debugf("order book fetched: symbol=%s records=%d indexPrice=%.2f",
		symbol, len(book.Records), book.IndexPrice)
	return book, nil
}

// FetchSpotPrice fetches the current spot price and 24h change for a symbol.
func (c *Client) FetchSpotPrice(ctx context.Context, symbol string) (SpotPrice, error) {
	body, err := c.prices.GetBytes(ctx, "/price", map[string]string{"symbol": symbol})
	if err != nil {
		return SpotPrice{}, sourceErr(err, "price source")
	}

	sp, err := decodeSpotPrice(body)
	if err != nil {
		return SpotPrice{}, sourceErr(err, "price source")
	}
	if sp.Symbol == "" {
		sp.Symbol = symbol
	}
	return sp, nil
}

// bookPayload is the inner order-source payload shape.
type bookPayload struct {
	Orders     []RawOrderRecord `json:"orders"`
	Quotes     []RawOrderRecord `json:"quotes"`
	IndexPrice decimal.Decimal  `json:"indexPrice"`
}

// envelope is the optional {"data": ...} wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func decodeOrderBook(body []byte) (*OrderBook, error) {
	payloadBytes := body

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		payloadBytes = env.Data
	}

	var payload bookPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, err
	}

	records := payload.Orders
	if len(records) == 0 {
		records = payload.Quotes
	}

	book := &OrderBook{Records: records}
	if !payload.IndexPrice.IsZero() {
		book.IndexPrice, _ = payload.IndexPrice.Float64()
	}
	return book, nil
}

func decodeSpotPrice(body []byte) (SpotPrice, error) {
	payloadBytes := body

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		payloadBytes = env.Data
	}

	var sp SpotPrice
	if err := json.Unmarshal(payloadBytes, &sp); err != nil {
		return SpotPrice{}, err
	}
	return sp, nil
}
