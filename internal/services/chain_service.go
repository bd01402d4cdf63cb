package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/betbot/gooption/internal/optionchain"
	"github.com/betbot/gooption/pkg/cache"
	"github.com/betbot/gooption/pkg/config"
	"github.com/betbot/gooption/pkg/logger"
	"github.com/betbot/gooption/pkg/sdk/api"
)

// Source 上游数据源（订单源 + 价格源）。
// 按接口收敛依赖，测试时可注入假实现。
type Source interface {
	FetchOrderBook(ctx context.Context, symbol string) (*api.OrderBook, error)
	FetchSpotPrice(ctx context.Context, symbol string) (api.SpotPrice, error)
}

// ChainService 期权链服务：按资产拉取原始订单 + 现货价，归一化成快照。
//
// 快照按轮询周期整体重建、整体替换；两级兜底保证下游永远拿得到东西：
//  1. 价格源失败 -> 用最近一次成功的现货价，再不行用配置兜底价；
//  2. 订单源失败 -> 返回最近一次成功的快照（可能已陈旧），
//     没有历史快照时才把 ErrSourceUnavailable 抛给调用方。
type ChainService struct {
	source    Source
	snapshots *cache.SnapshotCache[*optionchain.ChainSnapshot]
	prices    *cache.PriceCache
	cfg       *config.Config

	ctx    context.Context
	cancel context.CancelFunc
}

// NewChainService 创建期权链服务
func NewChainService(source Source, cfg *config.Config) *ChainService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ChainService{
		source:    source,
		snapshots: cache.NewSnapshotCache[*optionchain.ChainSnapshot](cfg.Engine.SnapshotTTL),
		prices:    cache.NewPriceCache(),
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start 启动后台轮询（异步，不阻塞）
func (s *ChainService) Start() {
	go s.pollLoop()
}

// Stop 停止后台轮询并释放缓存的清理 goroutine
func (s *ChainService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.snapshots.Close()
	s.prices.Close()
}

// pollLoop 按固定周期重建所有资产的快照
func (s *ChainService) pollLoop() {
	ticker := time.NewTicker(s.cfg.Engine.PollInterval)
	defer ticker.Stop()

	// 立即执行一次（不等待一个完整周期）
	s.RefreshAll(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RefreshAll(s.ctx)
		}
	}
}

// RefreshAll 并行重建所有已配置资产的快照。
// 单个资产失败不影响其他资产；失败细节已在 Refresh 内记录。
func (s *ChainService) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, a := range s.cfg.Assets {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			if _, err := s.Refresh(ctx, symbol); err != nil {
				logger.Warnf("快照重建失败 %s: %v", symbol, err)
			}
		}(a.Symbol)
	}
	wg.Wait()
}

// Snapshot 获取某资产的期权链快照（优先缓存，未命中时现场重建）
func (s *ChainService) Snapshot(ctx context.Context, symbol string) (*optionchain.ChainSnapshot, error) {
	symbol = strings.ToUpper(symbol)
	if snap, ok := s.snapshots.Get(symbol); ok {
		return snap, nil
	}
	return s.Refresh(ctx, symbol)
}

// Refresh 重建某资产的快照并更新缓存
func (s *ChainService) Refresh(ctx context.Context, symbol string) (*optionchain.ChainSnapshot, error) {
	symbol = strings.ToUpper(symbol)
	asset, ok := s.cfg.Asset(symbol)
	if !ok {
		return nil, fmt.Errorf("未配置的资产: %s", symbol)
	}

	spot := s.resolveSpot(ctx, symbol)

	book, err := s.source.FetchOrderBook(ctx, symbol)
	if err != nil {
		// 订单源失败：退回最近一次成功的快照（可能已陈旧但仍可用）
		if snap, ok := s.snapshots.Get(symbol); ok {
			logger.Warnf("订单源不可用，沿用上一份快照 %s: %v", symbol, err)
			return snap, nil
		}
		return nil, err
	}

	snap := optionchain.BuildSnapshot(symbol, book, spot, asset, s.cfg.Engine.QuoteDecimals, time.Now())
	s.snapshots.Set(symbol, snap)
	if snap.CurrentPrice > 0 {
		s.prices.Set(symbol, snap.CurrentPrice)
	}

	logger.Debugf("快照重建完成: %s 报价=%d 天数桶=%v 现价=%.2f",
		symbol, len(snap.Quotes), snap.AvailableDays, snap.CurrentPrice)
	return snap, nil
}

// SpotPrice 获取某资产现货价（价格源 -> 缓存 -> 配置兜底价）
func (s *ChainService) SpotPrice(ctx context.Context, symbol string) float64 {
	return s.resolveSpot(ctx, strings.ToUpper(symbol))
}

// resolveSpot 现货价三级兜底：实时 -> 缓存 -> 配置静态兜底
func (s *ChainService) resolveSpot(ctx context.Context, symbol string) float64 {
	sp, err := s.source.FetchSpotPrice(ctx, symbol)
	if err == nil && sp.Price > 0 {
		s.prices.Set(symbol, sp.Price)
		return sp.Price
	}
	if err != nil {
		logger.Warnf("价格源不可用 %s: %v", symbol, err)
	}

	if cached, ok := s.prices.Get(symbol); ok {
		logger.Debugf("使用缓存现货价 %s: %.2f", symbol, cached)
		return cached
	}

	logger.Warnf("无可用现货价 %s，使用配置兜底价 %.2f", symbol, s.cfg.Engine.DefaultPrice)
	return s.cfg.Engine.DefaultPrice
}
