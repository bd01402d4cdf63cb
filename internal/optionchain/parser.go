package optionchain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/gooption/internal/domain"
	"github.com/betbot/gooption/pkg/config"
	"github.com/betbot/gooption/pkg/sdk/api"
)

// dustThreshold 可用权利金的灰尘阈值（计价币 1e-4），低于它直接记 0
const dustThreshold = 1e-4

// ParseOrder 将一条原始订单记录解析为零或一条报价。
//
// 纯函数：输入为单条记录、资产规格与已解析的现货价。任何单条异常
// （资产不匹配、行权价/权利金不可解析或非正）都静默丢弃返回 nil，
// 不构成错误——上游本来就会带进来不可用的陈旧行。
func ParseOrder(rec *api.RawOrderRecord, asset config.AssetSpec, spot float64, quoteDecimals int32) *domain.Quote {
	if rec == nil {
		return nil
	}

	// 1. 资产归属过滤：带 ticker 的记录必须匹配目标符号或其别名
	//    （BTC 查询必须同时命中 WBTC 变体）
	if rec.Ticker != "" && !asset.MatchesTicker(rec.Ticker) {
		return nil
	}

	// 2. 行权价与权利金归一化
	strike, strikeOK := NormalizeStrike(rec.RawStrike(), rec.Ticker, asset)
	if !strikeOK {
		strike = 0
	}
	premium, premiumOK := NormalizePremium(rec.Price)
	if !premiumOK {
		return nil
	}

	// 3. 可用权利金：抵押品能支撑的最大买入额
	available := availablePremium(rec, asset, strike, premium, spot, quoteDecimals)

	// 4. 准入校验：行权价/权利金非正的记录不进工作集
	q := &domain.Quote{
		Strike:           strike,
		Expiry:           time.Unix(rec.Expiry, 0).UTC(),
		Premium:          premium,
		Side:             sideOf(rec),
		AvailablePremium: available,
		Source:           rec,
	}
	if !q.IsValid() {
		return nil
	}
	return q
}

// availablePremium 按方向折算剩余抵押品对应的最大可吃权利金。
//
// Call：抵押品是标的资产本身，合约数 = 原始抵押品 / 10^资产精度
// （一般 18，WBTC 例外为 8，按 ticker 子串识别）。
// Put：抵押品是计价币（6 位精度），合约数 = 计价币抵押品 / 有效行权价；
// 行权价解析失败（为 0）时仅在此处用现货价兜底，绝不影响报价展示的行权价。
func availablePremium(rec *api.RawOrderRecord, asset config.AssetSpec, strike, premium, spot float64, quoteDecimals int32) float64 {
	raw := rec.RawCollateral()
	if raw.IsZero() || premium <= 0 {
		return 0
	}

	var contracts float64
	if rec.IsCall {
		dec := asset.CollateralDecimalsFor(rec.Ticker)
		contracts, _ = raw.Div(decimal.New(1, dec)).Float64()
	} else {
		effStrike := strike
		if effStrike <= 0 {
			effStrike = spot
		}
		if effStrike <= 0 {
			return 0
		}
		quoteUnits, _ := raw.Div(decimal.New(1, quoteDecimals)).Float64()
		contracts = quoteUnits / effStrike
	}

	avail := contracts * premium
	if avail < dustThreshold {
		return 0
	}
	return avail
}

func sideOf(rec *api.RawOrderRecord) domain.Side {
	if rec.IsCall {
		return domain.SideCall
	}
	return domain.SidePut
}
