package optionchain

import (
	"math"
	"sort"
	"time"

	"github.com/betbot/gooption/internal/domain"
)

// ladderSize 展示档位固定 4 档（四格选择器 UI）
const ladderSize = 4

// 方向过滤的小 epsilon：让恰好等于现货价（四舍五入后）的行权价也能入选
const (
	upSpotFactor   = 0.999
	downSpotFactor = 1.001
)

// SelectLadder 为目标到期天数与交易方向挑选 4 个展示行权价。
//
// 排序约定与方向有关（ATM 端始终贴着 UI 里的 ATM 标签）：
//   - Up：保留 >= spot*0.999 的行权价，升序取前 4；
//     index 0 离现货最近（ATM/稳），index 3 最远（OTM/险）。
//   - Down：保留 <= spot*1.001 的行权价，先降序找离现货最近的 4 个，
//     再把这个子集升序重排用于展示；index 0 是最深 OTM（最低价），
//     index 3 贴近现货（ATM/稳）。
//   - 两个方向都筛不出来时（快照陈旧、行权价全在错误一侧）：
//     按与现货的绝对距离取最近 4 个，升序返回。
//
// 只要目标到期 ±1 天内有任何流动性，阶梯就不会为空，保证四格 UI 不缺档。
func SelectLadder(quotes []domain.Quote, spot float64, targetDays int, dir domain.Direction, now time.Time) []float64 {
	// 1. 到期容差 ±1 天（稀疏到期网格）
	strikeSet := make(map[float64]struct{})
	for i := range quotes {
		q := &quotes[i]
		if absInt(q.DaysToExpiry(now)-targetDays) > 1 {
			continue
		}
		strikeSet[q.Strike] = struct{}{}
	}

	strikes := make([]float64, 0, len(strikeSet))
	for s := range strikeSet {
		strikes = append(strikes, s)
	}

	var picked []float64
	if dir == domain.DirectionUp {
		for _, s := range strikes {
			if s >= spot*upSpotFactor {
				picked = append(picked, s)
			}
		}
		sort.Float64s(picked)
		picked = head(picked, ladderSize)
	} else {
		for _, s := range strikes {
			if s <= spot*downSpotFactor {
				picked = append(picked, s)
			}
		}
		// 先降序找离现货最近的 4 个
		sort.Sort(sort.Reverse(sort.Float64Slice(picked)))
		picked = head(picked, ladderSize)
		// 再升序重排用于展示
		sort.Float64s(picked)
	}

	// 2. 方向过滤为空时的兜底：按绝对距离取最近 4 个
	if len(picked) == 0 && len(strikes) > 0 {
		sort.Slice(strikes, func(i, j int) bool {
			return math.Abs(strikes[i]-spot) < math.Abs(strikes[j]-spot)
		})
		picked = head(strikes, ladderSize)
		sort.Float64s(picked)
	}

	return picked
}

func head(s []float64, n int) []float64 {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
