package optionchain

import (
	"time"

	"github.com/betbot/gooption/internal/domain"
	"github.com/betbot/gooption/pkg/config"
	"github.com/betbot/gooption/pkg/sdk/api"
)

// ChainSnapshot 一次归一化产出的期权链聚合视图。
//
// 构建完成后不可变：每次轮询产出一个全新快照整体替换旧的，
// 不存在就地修改，读者永远不会看到半构建状态。
type ChainSnapshot struct {
	Symbol        string         // 标的符号
	CurrentPrice  float64        // 现货参考价（响应内 index 价优先，其次价格源）
	Quotes        []domain.Quote // 归一化后的工作集（已剔除过期与不可解析记录）
	AvailableDays []int          // 可选到期天数桶（升序）
	ExpiryIndex   ExpiryIndex    // 天数桶 -> 最早到期时间（倒计时展示用）
	BuiltAt       time.Time      // 构建时刻（天数桶以它为基准）
}

// BuildSnapshot 执行一次完整归一化：原始订单 -> 报价 -> 天数桶 -> 快照。
//
// 纯函数：一份订单源响应 + 一个现货价 -> 一个快照，无共享可变状态，
// 多资产可零协调并发构建。空结果不是错误——返回空快照，
// 由展示层渲染"无流动性"状态。
func BuildSnapshot(symbol string, book *api.OrderBook, spot float64, asset config.AssetSpec, quoteDecimals int32, now time.Time) *ChainSnapshot {
	price := spot
	if book != nil && book.IndexPrice > 0 {
		price = book.IndexPrice
	}

	snap := &ChainSnapshot{
		Symbol:       symbol,
		CurrentPrice: price,
		BuiltAt:      now,
	}
	if book == nil {
		return snap
	}

	quotes := make([]domain.Quote, 0, len(book.Records))
	for i := range book.Records {
		if q := ParseOrder(&book.Records[i], asset, price, quoteDecimals); q != nil {
			quotes = append(quotes, *q)
		}
	}

	snap.Quotes, snap.AvailableDays, snap.ExpiryIndex = bucketQuotes(quotes, now)
	return snap
}

// IsEmpty 快照是否不含任何可用报价
func (s *ChainSnapshot) IsEmpty() bool {
	return s == nil || len(s.Quotes) == 0
}

// Ladder 在快照上选 4 档展示行权价（见 SelectLadder 的排序约定）
func (s *ChainSnapshot) Ladder(targetDays int, dir domain.Direction) []float64 {
	if s.IsEmpty() {
		return nil
	}
	return SelectLadder(s.Quotes, s.CurrentPrice, targetDays, dir, s.BuiltAt)
}

// Match 在快照上解析用户选择的档位（见 MatchQuote 的匹配规则）
func (s *ChainSnapshot) Match(strike float64, targetDays int, dir domain.Direction) (*domain.Quote, bool) {
	if s.IsEmpty() {
		return nil, false
	}
	return MatchQuote(s.Quotes, strike, targetDays, dir, s.BuiltAt)
}
