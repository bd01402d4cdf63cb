package optionchain

import (
	"iter"
	"math"

	"github.com/betbot/gooption/internal/domain"
)

// payoffSamples 采样点数（固定 61，中点恰好落在行权价上）
const payoffSamples = 61

// 采样窗口以行权价为中心 [0.8K, 1.2K]，而不是以现货为中心：
// 无论用户选了多深的 OTM，收益曲线的"拐点"始终居中。
const (
	payoffWindowLow  = 0.8
	payoffWindowHigh = 1.2
)

// PayoffPoint 收益曲线上的一个采样点
type PayoffPoint struct {
	Price      float64 `json:"price"`      // 采样价格
	PnL        float64 `json:"pnl"`        // 盈亏（计价币）
	PnLPercent float64 `json:"pnlPercent"` // 盈亏百分比（相对权利金）
}

// PayoffParams 收益模拟输入
type PayoffParams struct {
	Strike       float64          // 行权价
	Direction    domain.Direction // 交易方向
	PremiumSpent float64          // 投入的权利金
	Contracts    float64          // 对应的合约数量
}

// PayoffCurve 生成收益曲线采样序列：惰性、有限、可重启。
//
// 返回的序列是同一组输入上的纯函数，每次 range 从头重新生成，
// 调用间不持有任何状态。
func PayoffCurve(p PayoffParams) iter.Seq[PayoffPoint] {
	return func(yield func(PayoffPoint) bool) {
		low := p.Strike * payoffWindowLow
		high := p.Strike * payoffWindowHigh
		step := (high - low) / float64(payoffSamples-1)

		for i := 0; i < payoffSamples; i++ {
			price := low + step*float64(i)

			var intrinsic float64
			if p.Direction == domain.DirectionUp {
				intrinsic = math.Max(0, price-p.Strike)
			} else {
				intrinsic = math.Max(0, p.Strike-price)
			}

			pnl := p.Contracts*intrinsic - p.PremiumSpent
			pct := 0.0
			if p.PremiumSpent > 0 {
				pct = 100 * pnl / p.PremiumSpent
			}

			if !yield(PayoffPoint{Price: price, PnL: pnl, PnLPercent: pct}) {
				return
			}
		}
	}
}

// PayoffPoints 把采样序列物化为切片（JSON 输出用）
func PayoffPoints(p PayoffParams) []PayoffPoint {
	points := make([]PayoffPoint, 0, payoffSamples)
	for pt := range PayoffCurve(p) {
		points = append(points, pt)
	}
	return points
}
