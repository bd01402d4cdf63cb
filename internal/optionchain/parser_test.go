package optionchain

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/gooption/internal/domain"
	"github.com/betbot/gooption/pkg/sdk/api"
)

const quoteDecimals = 6

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func callRecord(ticker string, collateral string) *api.RawOrderRecord {
	return &api.RawOrderRecord{
		Ticker:              ticker,
		IsCall:              true,
		Expiry:              time.Now().Add(48 * time.Hour).Unix(),
		Price:               d("35000000"), // 35 USDC（1e6 缩放）
		MaxCollateralUsable: d(collateral),
	}
}

func TestParseOrder_AssetAffinity(t *testing.T) {
	// ETH 查询必须丢弃 BTC ticker 的记录
	rec := callRecord("BTC-27MAR26-98000-C", "1000000000000000000")
	assert.Nil(t, ParseOrder(rec, ethSpec(), 2500, quoteDecimals))

	// BTC 查询必须同时命中 WBTC 变体
	rec = callRecord("WBTC-27MAR26-98000-C", "100000000")
	q := ParseOrder(rec, btcSpec(), 98000, quoteDecimals)
	require.NotNil(t, q)
	assert.Equal(t, 98000.0, q.Strike)
}

func TestParseOrder_CallLiquidity(t *testing.T) {
	// Call 抵押品是标的资产：2 ETH（18 位精度）× 35 USDC 权利金 = 70 可用权利金
	rec := callRecord("ETH-2FEB26-2675-C", "2000000000000000000")
	q := ParseOrder(rec, ethSpec(), 2500, quoteDecimals)
	require.NotNil(t, q)

	assert.Equal(t, domain.SideCall, q.Side)
	assert.Equal(t, 2675.0, q.Strike)
	assert.InDelta(t, 35.0, q.Premium, 1e-9)
	assert.InDelta(t, 70.0, q.AvailablePremium, 1e-9)
	assert.Same(t, rec, q.Source)
}

func TestParseOrder_WBTCCollateralDecimals(t *testing.T) {
	// WBTC 例外：抵押品 8 位精度。0.5 WBTC = 50000000
	rec := callRecord("WBTC-27MAR26-98000-C", "50000000")
	rec.Price = d("48000000") // 48 USDC（1e6 缩放）
	q := ParseOrder(rec, btcSpec(), 98000, quoteDecimals)
	require.NotNil(t, q)
	assert.InDelta(t, 0.5*48, q.AvailablePremium, 1e-9)
}

func TestParseOrder_PutLiquidity(t *testing.T) {
	// Put 抵押品是计价币（6 位精度）：5350 USDC / 行权价 2675 = 2 张 × 35 = 70
	rec := &api.RawOrderRecord{
		Ticker:              "ETH-2FEB26-2675-P",
		IsCall:              false,
		Expiry:              time.Now().Add(48 * time.Hour).Unix(),
		Price:               d("35000000"),
		MaxCollateralUsable: d("5350000000"),
	}
	q := ParseOrder(rec, ethSpec(), 2500, quoteDecimals)
	require.NotNil(t, q)
	assert.Equal(t, domain.SidePut, q.Side)
	assert.InDelta(t, 70.0, q.AvailablePremium, 1e-9)
}

func TestParseOrder_DustFloor(t *testing.T) {
	// 低于 1e-4 计价币的可用权利金按 0 处理，不留噪声
	rec := callRecord("ETH-2FEB26-2675-C", "1000000000") // 1e-9 ETH
	q := ParseOrder(rec, ethSpec(), 2500, quoteDecimals)
	require.NotNil(t, q)
	assert.Equal(t, 0.0, q.AvailablePremium)
}

func TestParseOrder_DropUnusable(t *testing.T) {
	// 权利金不可解析 -> 丢弃
	rec := callRecord("ETH-2FEB26-2675-C", "1000000000000000000")
	rec.Price = decimal.Zero
	assert.Nil(t, ParseOrder(rec, ethSpec(), 2500, quoteDecimals))

	// 行权价任何策略都解析不出来 -> 丢弃
	rec = &api.RawOrderRecord{
		IsCall:              true,
		Expiry:              time.Now().Add(48 * time.Hour).Unix(),
		Price:               d("35000000"),
		MaxCollateralUsable: d("1000000000000000000"),
	}
	assert.Nil(t, ParseOrder(rec, ethSpec(), 2500, quoteDecimals))

	assert.Nil(t, ParseOrder(nil, ethSpec(), 2500, quoteDecimals))
}

func TestParseOrder_SingularStrikeField(t *testing.T) {
	// 没有 strikes 数组时退回单数 strike 字段（兜底缩放路径）
	rec := &api.RawOrderRecord{
		IsCall:              true,
		Ticker:              "ETH-PERP-LEG", // 第三段不可解析 -> 走 raw 缩放
		Strike:              d("267500000000"),
		Expiry:              time.Now().Add(48 * time.Hour).Unix(),
		Price:               d("35000000"),
		MaxCollateralUsable: d("1000000000000000000"),
	}
	q := ParseOrder(rec, ethSpec(), 2500, quoteDecimals)
	require.NotNil(t, q)
	assert.True(t, math.Abs(q.Strike-2675) < 1e-9)
}
