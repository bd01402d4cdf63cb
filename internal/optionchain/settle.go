package optionchain

import (
	"math"

	"github.com/betbot/gooption/internal/domain"
)

// Settle 对已平仓仓位按最终结算价计算赔付与回报。
//
// 纯函数，不触碰资金（清算归执行层）：
//   - Call 单张赔付 max(0, 结算价 - 行权价)，Put 反之
//   - 净利润 = 总赔付 - 已付权利金；ROI 以权利金为基数（%）
func Settle(pos domain.Position, settlementPrice float64) domain.SettlementResult {
	var perContract float64
	if pos.Side == domain.SideCall {
		perContract = math.Max(0, settlementPrice-pos.Strike)
	} else {
		perContract = math.Max(0, pos.Strike-settlementPrice)
	}

	total := perContract * pos.Contracts
	net := total - pos.PremiumPaid

	roi := 0.0
	if pos.PremiumPaid > 0 {
		roi = 100 * net / pos.PremiumPaid
	}

	return domain.SettlementResult{
		PayoutPerContract: perContract,
		TotalPayout:       total,
		NetProfit:         net,
		Won:               net > 0,
		ROI:               roi,
	}
}
