package optionchain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/gooption/pkg/config"
)

var log = logrus.WithField("module", "optionchain")

// 权利金缩放阈值：按数量级分类，必须按降序判断，
// 否则大的 1e8 缩放值会被误判成 1e6 缩放。
var (
	premiumScale1e8 = decimal.NewFromFloat(1e8)
	premiumScale1e6 = decimal.NewFromFloat(1e6)
)

// StrikeFromTicker 从 ticker 第三段精确解析行权价（无缩放歧义）。
// 例如 "ETH-2FEB26-2675-C" -> 2675。
// 这是行权价解析的权威路径，解析失败时返回 ok=false。
func StrikeFromTicker(ticker string) (float64, bool) {
	parts := strings.Split(ticker, "-")
	if len(parts) < 3 {
		return 0, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return 0, false
	}
	v, _ := d.Float64()
	if !isFinitePositive(v) {
		return 0, false
	}
	return v, true
}

// NormalizeStrike 将原始行权价编码还原为计价币单位的浮点值。
//
// 优先走 ticker 精确解析；不可用时退回按资产经验缩放常数
// （ETH 类 1e8，BTC 类 1e6）。兜底路径是逆向推断出来的约定而非协议契约，
// 每次命中都打 warn，便于发现上游编码漂移。
// 两条路径都失败时返回 ok=false，由调用方丢弃该记录。
func NormalizeStrike(raw decimal.Decimal, ticker string, asset config.AssetSpec) (float64, bool) {
	if s, ok := StrikeFromTicker(ticker); ok {
		return s, true
	}

	if raw.IsZero() || asset.StrikeScale <= 0 {
		return 0, false
	}
	v, _ := raw.Div(decimal.NewFromFloat(asset.StrikeScale)).Float64()
	if !isFinitePositive(v) {
		return 0, false
	}
	log.Warnf("strike 走兜底缩放（经验常数，可能漂移）: symbol=%s ticker=%q raw=%s scale=%.0f -> %.4f",
		asset.Symbol, ticker, raw.String(), asset.StrikeScale, v)
	return v, true
}

// NormalizePremium 将原始权利金还原为计价币单位的浮点值。
//
// 上游不声明精度，按数量级分类（降序判断）：
//   - > 1e8: 按 1e8 缩放
//   - > 1e6: 按 1e6 缩放（USDC 风格）
//   - 其余: 视为已经是人类可读值
func NormalizePremium(raw decimal.Decimal) (float64, bool) {
	var d decimal.Decimal
	switch {
	case raw.GreaterThan(premiumScale1e8):
		d = raw.Div(premiumScale1e8)
	case raw.GreaterThan(premiumScale1e6):
		d = raw.Div(premiumScale1e6)
	default:
		d = raw
	}
	v, _ := d.Float64()
	if !isFinitePositive(v) {
		return 0, false
	}
	return v, true
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
