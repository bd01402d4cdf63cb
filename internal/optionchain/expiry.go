package optionchain

import (
	"sort"
	"time"

	"github.com/betbot/gooption/internal/domain"
)

// ExpiryIndex 天数桶 -> 该桶内观察到的最早到期时间。
// 只用于倒计时展示；随每次快照重建（"now" 在动，桶必须重算）。
type ExpiryIndex map[int]time.Time

// bucketQuotes 为每条报价计算 ceil 日历天数桶，丢弃已到期（桶 <= 0）的报价，
// 返回存活报价、升序去重的桶列表和 ExpiryIndex。
func bucketQuotes(quotes []domain.Quote, now time.Time) ([]domain.Quote, []int, ExpiryIndex) {
	kept := make([]domain.Quote, 0, len(quotes))
	index := make(ExpiryIndex)

	for _, q := range quotes {
		days := domain.CeilDays(q.Expiry, now)
		if days <= 0 {
			continue
		}
		kept = append(kept, q)
		if earliest, ok := index[days]; !ok || q.Expiry.Before(earliest) {
			index[days] = q.Expiry
		}
	}

	days := make([]int, 0, len(index))
	for d := range index {
		days = append(days, d)
	}
	sort.Ints(days)

	return kept, days, index
}
