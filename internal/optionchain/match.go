package optionchain

import (
	"math"
	"time"

	"github.com/betbot/gooption/internal/domain"
)

// strikeTolerance 行权价浮点相等容差
const strikeTolerance = 1e-4

// MatchQuote 把用户选择的 (行权价, 到期天数, 方向) 解析回一条具体可交易报价。
//
// 三个条件必须同时成立：行权价在 1e-4 容差内相等、到期天数相差不超过 1 天、
// 期权方向与交易方向一致。命中多条时返回迭代顺序中的第一条
// （上游不保证去重，调用方不应依赖除"第一条"以外的决胜规则）。
// 无命中时返回 (nil, false)，表示该档位不可成交——不是错误。
func MatchQuote(quotes []domain.Quote, strike float64, targetDays int, dir domain.Direction, now time.Time) (*domain.Quote, bool) {
	want := dir.Side()
	for i := range quotes {
		q := &quotes[i]
		if math.Abs(q.Strike-strike) >= strikeTolerance {
			continue
		}
		if absInt(q.DaysToExpiry(now)-targetDays) > 1 {
			continue
		}
		if q.Side != want {
			continue
		}
		return q, true
	}
	return nil, false
}
