package cache

import (
	"sync"
	"time"
)

// Cache 通用缓存接口
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
	Clear()
	Size() int
}

// InMemoryCache 内存缓存实现
type InMemoryCache[K comparable, V any] struct {
	items      map[K]*cacheItem[V]
	mu         sync.RWMutex
	defaultTTL time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// cacheItem 缓存项
type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// NewInMemoryCache 创建新的内存缓存
func NewInMemoryCache[K comparable, V any](defaultTTL time.Duration) *InMemoryCache[K, V] {
	cache := &InMemoryCache[K, V]{
		items:      make(map[K]*cacheItem[V]),
		defaultTTL: defaultTTL,
		stop:       make(chan struct{}),
	}

	// 启动清理 goroutine
	go cache.startCleanup()

	return cache
}

// Get 获取缓存值
func (c *InMemoryCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists {
		var zero V
		return zero, false
	}

	// 检查是否过期
	if time.Now().After(item.expiresAt) {
		// 异步删除过期项
		go c.Delete(key)
		var zero V
		return zero, false
	}

	return item.value, true
}

// Set 设置缓存值
func (c *InMemoryCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	c.items[key] = &cacheItem[V]{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete 删除缓存项
func (c *InMemoryCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear 清空缓存
func (c *InMemoryCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*cacheItem[V])
}

// Size 获取缓存大小
func (c *InMemoryCache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close 停止清理 goroutine（可重复调用）。缓存本身仍可读写。
func (c *InMemoryCache[K, V]) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// startCleanup 启动清理 goroutine（定期清理过期项，Close 后退出）
func (c *InMemoryCache[K, V]) startCleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup 清理过期项
func (c *InMemoryCache[K, V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
}

// PriceCache 现货价格缓存（symbol -> 现货价格）
// 价格源不可用时，调用方用缓存值兜底，避免整条链路失败。
type PriceCache struct {
	cache *InMemoryCache[string, float64]
}

// NewPriceCache 创建新的价格缓存
func NewPriceCache() *PriceCache {
	return &PriceCache{
		cache: NewInMemoryCache[string, float64](5 * time.Minute), // 价格缓存 5 分钟
	}
}

// Get 获取现货价格
func (pc *PriceCache) Get(symbol string) (float64, bool) {
	return pc.cache.Get(symbol)
}

// Set 设置现货价格
func (pc *PriceCache) Set(symbol string, price float64) {
	pc.cache.Set(symbol, price, 5*time.Minute)
}

// Close 释放后台清理 goroutine
func (pc *PriceCache) Close() {
	pc.cache.Close()
}

// SnapshotCache 期权链快照缓存（symbol -> 快照）。
//
// 快照按轮询周期整体重建、整体替换，这里只做“最近一次成功结果”的持有者，
// 由调用方显式持有并传入流水线（替代全局可变缓存）。
type SnapshotCache[V any] struct {
	cache *InMemoryCache[string, V]
	ttl   time.Duration
}

// NewSnapshotCache 创建快照缓存，ttl 为快照有效期（通常等于轮询周期）
func NewSnapshotCache[V any](ttl time.Duration) *SnapshotCache[V] {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SnapshotCache[V]{
		cache: NewInMemoryCache[string, V](ttl),
		ttl:   ttl,
	}
}

// Get 获取某资产的最新快照
func (sc *SnapshotCache[V]) Get(symbol string) (V, bool) {
	return sc.cache.Get(symbol)
}

// Set 整体替换某资产的快照
func (sc *SnapshotCache[V]) Set(symbol string, snapshot V) {
	sc.cache.Set(symbol, snapshot, sc.ttl)
}

// Delete 删除某资产的快照
func (sc *SnapshotCache[V]) Delete(symbol string) {
	sc.cache.Delete(symbol)
}

// Close 释放后台清理 goroutine
func (sc *SnapshotCache[V]) Close() {
	sc.cache.Close()
}
