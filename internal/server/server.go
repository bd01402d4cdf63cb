package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/betbot/gooption/internal/domain"
	"github.com/betbot/gooption/internal/optionchain"
	"github.com/betbot/gooption/pkg/sdk/api"
)

// ChainProvider 快照提供方（由 services.ChainService 实现）
type ChainProvider interface {
	Snapshot(ctx context.Context, symbol string) (*optionchain.ChainSnapshot, error)
}

// Server 只读查询 API：快照 / 阶梯 / 撮合 / 盈亏曲线 / 结算。
// 不做任何交易动作，撮合结果里的原始订单引用由调用方自行送去执行。
type Server struct {
	chains ChainProvider
}

// New 创建 API 服务
func New(chains ChainProvider) *Server {
	return &Server{chains: chains}
}

// Router 组装路由
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	apiGroup := r.Group("/api")
	chain := apiGroup.Group("/chain/:symbol")
	chain.GET("", s.handleSnapshot)
	chain.GET("/ladder", s.handleLadder)
	chain.GET("/match", s.handleMatch)

	apiGroup.GET("/payoff", s.handlePayoff)
	apiGroup.GET("/settle", s.handleSettle)

	return r
}

// requestID 给每个请求挂一个 uuid，写进响应头并供日志关联
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// quoteView 报价的对外展示形态
type quoteView struct {
	Strike           float64 `json:"strike"`
	Premium          float64 `json:"premium"`
	Side             string  `json:"side"`
	Expiry           int64   `json:"expiry"`
	AvailablePremium float64 `json:"availablePremium"`
}

func toQuoteView(q *domain.Quote) quoteView {
	return quoteView{
		Strike:           q.Strike,
		Premium:          q.Premium,
		Side:             string(q.Side),
		Expiry:           q.Expiry.Unix(),
		AvailablePremium: q.AvailablePremium,
	}
}

// handleSnapshot GET /api/chain/:symbol
func (s *Server) handleSnapshot(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	quotes := make([]quoteView, 0, len(snap.Quotes))
	for i := range snap.Quotes {
		quotes = append(quotes, toQuoteView(&snap.Quotes[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":        snap.Symbol,
		"currentPrice":  snap.CurrentPrice,
		"availableDays": snap.AvailableDays,
		"quotes":        quotes,
		"builtAt":       snap.BuiltAt.Unix(),
	})
}

// handleLadder GET /api/chain/:symbol/ladder?days=2&direction=up
func (s *Server) handleLadder(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	days, dir, ok := daysAndDirection(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    snap.Symbol,
		"spot":      snap.CurrentPrice,
		"days":      days,
		"direction": dir,
		"strikes":   snap.Ladder(days, dir),
	})
}

// handleMatch GET /api/chain/:symbol/match?strike=2600&days=2&direction=up
func (s *Server) handleMatch(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	days, dir, ok := daysAndDirection(c)
	if !ok {
		return
	}
	strike, err := strconv.ParseFloat(c.Query("strike"), 64)
	if err != nil || strike <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "strike 必须为正数"})
		return
	}

	q, found := snap.Match(strike, days, dir)
	if !found {
		// 无命中是业务结果（不可成交），不是服务错误
		c.JSON(http.StatusNotFound, gin.H{"error": "无可成交报价", "fillable": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fillable": true,
		"quote":    toQuoteView(q),
	})
}

// handlePayoff GET /api/payoff?strike=2500&direction=up&premium=35&contracts=0.5
func (s *Server) handlePayoff(c *gin.Context) {
	strike, err := strconv.ParseFloat(c.Query("strike"), 64)
	if err != nil || strike <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "strike 必须为正数"})
		return
	}
	dir := domain.Direction(c.Query("direction"))
	if !dir.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction 必须为 up 或 down"})
		return
	}
	premium, _ := strconv.ParseFloat(c.Query("premium"), 64)
	contracts, _ := strconv.ParseFloat(c.Query("contracts"), 64)

	points := optionchain.PayoffPoints(optionchain.PayoffParams{
		Strike:       strike,
		Direction:    dir,
		PremiumSpent: premium,
		Contracts:    contracts,
	})
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// handleSettle GET /api/settle?strike=2000&side=call&premium=3&contracts=0.01&price=2500
func (s *Server) handleSettle(c *gin.Context) {
	strike, err := strconv.ParseFloat(c.Query("strike"), 64)
	if err != nil || strike <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "strike 必须为正数"})
		return
	}
	price, err := strconv.ParseFloat(c.Query("price"), 64)
	if err != nil || price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price 必须为非负数"})
		return
	}
	side := domain.Side(c.Query("side"))
	if side != domain.SideCall && side != domain.SidePut {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side 必须为 call 或 put"})
		return
	}
	premium, _ := strconv.ParseFloat(c.Query("premium"), 64)
	contracts, _ := strconv.ParseFloat(c.Query("contracts"), 64)

	res := optionchain.Settle(domain.Position{
		Strike:      strike,
		Side:        side,
		PremiumPaid: premium,
		Contracts:   contracts,
	}, price)
	c.JSON(http.StatusOK, gin.H{
		"payoutPerContract": res.PayoutPerContract,
		"totalPayout":       res.TotalPayout,
		"netProfit":         res.NetProfit,
		"won":               res.Won,
		"roi":               res.ROI,
	})
}

// snapshot 取路径里的资产快照；失败时已写好响应
func (s *Server) snapshot(c *gin.Context) (*optionchain.ChainSnapshot, bool) {
	snap, err := s.chains.Snapshot(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		status := http.StatusNotFound
		if api.IsSourceUnavailable(err) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, false
	}
	return snap, true
}

// daysAndDirection 解析 days / direction 查询参数；失败时已写好响应
func daysAndDirection(c *gin.Context) (int, domain.Direction, bool) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "1"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days 必须为正整数"})
		return 0, "", false
	}
	dir := domain.Direction(c.DefaultQuery("direction", string(domain.DirectionUp)))
	if !dir.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction 必须为 up 或 down"})
		return 0, "", false
	}
	return days, dir, true
}
