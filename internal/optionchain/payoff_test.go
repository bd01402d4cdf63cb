package optionchain

import (
	"math"
	"testing"

	"github.com/betbot/gooption/internal/domain"
)

func TestPayoffCurve_SampleCountAndMidpoint(t *testing.T) {
	for _, dir := range []domain.Direction{domain.DirectionUp, domain.DirectionDown} {
		params := PayoffParams{
			Strike:       2500,
			Direction:    dir,
			PremiumSpent: 35,
			Contracts:    0.5,
		}
		points := PayoffPoints(params)

		// 恰好 61 个采样点
		if len(points) != payoffSamples {
			t.Fatalf("dir=%s: got %d samples, want %d", dir, len(points), payoffSamples)
		}

		// 窗口以行权价为中心 [0.8K, 1.2K]
		if math.Abs(points[0].Price-2000) > 1e-9 || math.Abs(points[60].Price-3000) > 1e-9 {
			t.Fatalf("dir=%s: window [%v, %v], want [2000, 3000]", dir, points[0].Price, points[60].Price)
		}

		// 中点采样价恰好等于行权价，且平值内在价值为零 -> pnl = -权利金
		mid := points[payoffSamples/2]
		if math.Abs(mid.Price-2500) > 1e-9 {
			t.Errorf("dir=%s: midpoint price = %v, want 2500", dir, mid.Price)
		}
		if math.Abs(mid.PnL-(-35)) > 1e-9 {
			t.Errorf("dir=%s: midpoint pnl = %v, want -35", dir, mid.PnL)
		}
		if math.Abs(mid.PnLPercent-(-100)) > 1e-9 {
			t.Errorf("dir=%s: midpoint pnl%% = %v, want -100", dir, mid.PnLPercent)
		}
	}
}

func TestPayoffCurve_Shape(t *testing.T) {
	params := PayoffParams{Strike: 2500, Direction: domain.DirectionUp, PremiumSpent: 35, Contracts: 0.5}
	points := PayoffPoints(params)

	// Up：行权价下方 pnl 恒为 -权利金，上方线性增长
	for _, pt := range points {
		if pt.Price <= 2500 && math.Abs(pt.PnL-(-35)) > 1e-9 {
			t.Fatalf("call 在行权价下方应为 -premium: price=%v pnl=%v", pt.Price, pt.PnL)
		}
		if pt.Price > 2500 {
			want := 0.5*(pt.Price-2500) - 35
			if math.Abs(pt.PnL-want) > 1e-9 {
				t.Fatalf("call 在行权价上方 pnl=%v, want %v", pt.PnL, want)
			}
		}
	}

	params.Direction = domain.DirectionDown
	points = PayoffPoints(params)
	last := points[len(points)-1]
	if math.Abs(last.PnL-(-35)) > 1e-9 {
		t.Errorf("put 在窗口右端应为 -premium: %v", last.PnL)
	}
	first := points[0]
	want := 0.5*(2500-first.Price) - 35
	if math.Abs(first.PnL-want) > 1e-9 {
		t.Errorf("put 在窗口左端 pnl=%v, want %v", first.PnL, want)
	}
}

func TestPayoffCurve_Restartable(t *testing.T) {
	// 同一序列 range 两次必须逐点一致（纯函数，无调用间状态）
	params := PayoffParams{Strike: 2500, Direction: domain.DirectionUp, PremiumSpent: 35, Contracts: 0.5}
	seq := PayoffCurve(params)

	var first []PayoffPoint
	for pt := range seq {
		first = append(first, pt)
	}
	var second []PayoffPoint
	for pt := range seq {
		second = append(second, pt)
	}

	if len(first) != len(second) {
		t.Fatalf("两次迭代长度不一致: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("第 %d 个采样点不一致: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestPayoffCurve_EarlyBreak(t *testing.T) {
	// 惰性序列：消费方可以提前停止
	params := PayoffParams{Strike: 2500, Direction: domain.DirectionUp, PremiumSpent: 35, Contracts: 0.5}
	count := 0
	for range PayoffCurve(params) {
		count++
		if count == 10 {
			break
		}
	}
	if count != 10 {
		t.Fatalf("提前停止后 count=%d, want 10", count)
	}
}
