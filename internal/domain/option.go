package domain

import (
	"time"

	"github.com/betbot/gooption/pkg/sdk/api"
)

// Side 期权方向
type Side string

const (
	SideCall Side = "call" // 看涨
	SidePut  Side = "put"  // 看跌
)

// Direction 用户选择的交易方向（Up 买 Call，Down 买 Put）
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Side 交易方向对应的期权方向
func (d Direction) Side() Side {
	if d == DirectionUp {
		return SideCall
	}
	return SidePut
}

// IsValid 校验方向取值
func (d Direction) IsValid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Quote 归一化后的可交易报价
type Quote struct {
	Strike  float64   // 行权价（计价币单位）
	Expiry  time.Time // 到期时间
	Premium float64   // 单张合约权利金（计价币单位）
	Side    Side      // 期权方向

	// AvailablePremium 该订单剩余抵押品能吃下的最大权利金
	AvailablePremium float64

	// Source 原始订单记录引用（含签名），撮合成交时原样交给执行层，
	// 本引擎不解析、不重编码
	Source *api.RawOrderRecord
}

// IsValid 工作集准入校验：行权价与权利金必须为正
func (q *Quote) IsValid() bool {
	return q != nil && q.Strike > 0 && q.Premium > 0
}

// DaysToExpiry 距离到期的整数天数（日历天向上取整）
func (q *Quote) DaysToExpiry(now time.Time) int {
	return CeilDays(q.Expiry, now)
}

// CeilDays 计算 now 到 t 的向上取整天数
func CeilDays(t, now time.Time) int {
	secs := t.Unix() - now.Unix()
	if secs <= 0 {
		return 0
	}
	const daySecs = 86400
	return int((secs + daySecs - 1) / daySecs)
}

// Position 已平仓仓位（结算输入）
type Position struct {
	Strike      float64 // 行权价
	Side        Side    // 期权方向
	PremiumPaid float64 // 已支付权利金
	Contracts   float64 // 合约数量
}

// SettlementResult 结算结果
type SettlementResult struct {
	PayoutPerContract float64 // 单张合约赔付
	TotalPayout       float64 // 总赔付
	NetProfit         float64 // 净利润（总赔付 - 权利金）
	Won               bool    // 是否盈利
	ROI               float64 // 权利金回报率（%）
}
