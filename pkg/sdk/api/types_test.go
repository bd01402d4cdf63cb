package api

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawOrderRecord_RawStrike(t *testing.T) {
	rec := RawOrderRecord{Strikes: []decimal.Decimal{decimal.NewFromInt(260000000000)}}
	assert.Equal(t, "260000000000", rec.RawStrike().String())

	// Singular "strike" fallback.
	rec = RawOrderRecord{Strike: decimal.NewFromInt(42)}
	assert.Equal(t, "42", rec.RawStrike().String())

	rec = RawOrderRecord{}
	assert.True(t, rec.RawStrike().IsZero())
}

func TestRawOrderRecord_RawCollateral(t *testing.T) {
	rec := RawOrderRecord{MaxCollateralUsable: decimal.NewFromInt(100)}
	assert.Equal(t, "100", rec.RawCollateral().String())

	// Amount smuggled into the "collateral" field.
	rec = RawOrderRecord{Collateral: opaque("4800000000")}
	assert.Equal(t, "4800000000", rec.RawCollateral().String())

	// A hex address is not an amount.
	rec = RawOrderRecord{Collateral: opaque("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")}
	assert.True(t, rec.RawCollateral().IsZero())

	rec = RawOrderRecord{}
	assert.True(t, rec.RawCollateral().IsZero())
}

func TestRawOrderRecord_SignatureBytes(t *testing.T) {
	rec := RawOrderRecord{Signature: "0xdeadbeef"}
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, []byte(rec.SignatureBytes()))

	rec = RawOrderRecord{}
	assert.Nil(t, rec.SignatureBytes())

	rec = RawOrderRecord{Signature: "not-hex"}
	assert.Nil(t, rec.SignatureBytes())
}

func TestOpaque_UnmarshalJSON(t *testing.T) {
	// The order source is inconsistent about quoting; both must parse.
	var rec RawOrderRecord
	require.NoError(t, json.Unmarshal([]byte(`{"collateral":"0xabc"}`), &rec))
	assert.Equal(t, opaque("0xabc"), rec.Collateral)

	require.NoError(t, json.Unmarshal([]byte(`{"collateral":4800000000}`), &rec))
	assert.Equal(t, opaque("4800000000"), rec.Collateral)

	require.NoError(t, json.Unmarshal([]byte(`{"collateral":null}`), &rec))
	assert.Equal(t, opaque(""), rec.Collateral)
}
