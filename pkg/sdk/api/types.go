package api

import (
	"bytes"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// RawOrderRecord is one untrusted order row from the on-chain options order
// book. Integer-encoded amounts arrive with no declared decimal count; the
// normalizer reconstructs human-scaled values downstream. Address and
// signature fields are opaque here - they are handed to the execution layer
// verbatim and never re-encoded or interpreted numerically.
type RawOrderRecord struct {
	// Ticker optionally encodes symbol, expiry, strike and side,
	// e.g. "ETH-2FEB26-2675-C". May be empty.
	Ticker string `json:"ticker,omitempty"`

	// Opaque on-chain addresses, passed through unchanged.
	Maker          string `json:"maker,omitempty"`
	Collateral     opaque `json:"collateral,omitempty"`
	PriceFeed      string `json:"priceFeed,omitempty"`
	Implementation string `json:"implementation,omitempty"`

	// IsCall is the option side.
	IsCall bool `json:"isCall"`

	// Strikes holds raw integer strike encodings; only the first is used.
	// Some feed variants send a singular "strike" field instead.
	Strikes []decimal.Decimal `json:"strikes,omitempty"`
	Strike  decimal.Decimal   `json:"strike,omitempty"`

	// Expiry is option expiry, Unix seconds.
	Expiry int64 `json:"expiry"`

	// Price is the raw premium: integer-encoded or a decimal string.
	Price decimal.Decimal `json:"price"`

	// MaxCollateralUsable is the raw total collateral committed to the
	// order, used to size available liquidity.
	MaxCollateralUsable decimal.Decimal `json:"maxCollateralUsable"`

	// Execution-layer passthrough, not normalized here.
	OrderExpiryTimestamp int64           `json:"orderExpiryTimestamp,omitempty"`
	ExtraOptionData      json.RawMessage `json:"extraOptionData,omitempty"`
	Signature            string          `json:"signature,omitempty"`
}

// RawStrike returns the raw strike encoding: first element of "strikes",
// falling back to the singular "strike" field. Zero when neither is present.
func (r *RawOrderRecord) RawStrike() decimal.Decimal {
	if len(r.Strikes) > 0 {
		return r.Strikes[0]
	}
	return r.Strike
}

// RawCollateral returns the raw collateral amount. Feeds that omit
// maxCollateralUsable reuse the "collateral" field as an amount; tolerate
// that by parsing it as a number when it does not look like an address.
func (r *RawOrderRecord) RawCollateral() decimal.Decimal {
	if !r.MaxCollateralUsable.IsZero() {
		return r.MaxCollateralUsable
	}
	s := string(r.Collateral)
	if s == "" || bytes.HasPrefix([]byte(s), []byte("0x")) {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	return decimal.Zero
}

// MakerAddress returns the maker as a checksummed address value.
func (r *RawOrderRecord) MakerAddress() common.Address {
	return common.HexToAddress(r.Maker)
}

// SignatureBytes returns the decoded order signature, or nil when absent or
// malformed. The bytes are opaque to this engine.
func (r *RawOrderRecord) SignatureBytes() hexutil.Bytes {
	if r.Signature == "" {
		return nil
	}
	b, err := hexutil.Decode(r.Signature)
	if err != nil {
		return nil
	}
	return b
}

// opaque is a string field that tolerates string or number JSON values.
// The order source is not consistent about quoting.
type opaque string

func (o *opaque) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = opaque(s)
		return nil
	}
	*o = opaque(data)
	return nil
}

func (o opaque) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(o))
}

// OrderBook is one decoded order-source response for a single asset.
type OrderBook struct {
	Records []RawOrderRecord
	// IndexPrice is the optional index price carried in the response;
	// zero when the source did not include one.
	IndexPrice float64
}

// SpotPrice is the price-source answer for one asset symbol.
type SpotPrice struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
}
