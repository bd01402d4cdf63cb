package cache

import (
	"runtime"
	"testing"
	"time"
)

func TestInMemoryCache(t *testing.T) {
	c := NewInMemoryCache[string, int](time.Minute)
	defer c.Close()

	if _, ok := c.Get("missing"); ok {
		t.Error("未写入的 key 不应命中")
	}

	c.Set("a", 1, 0) // ttl=0 用默认 TTL
	c.Set("b", 2, time.Minute)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = (%v, %v), want (1, true)", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("删除后不应命中")
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Clear 后 Size() = %d, want 0", c.Size())
	}
}

func TestInMemoryCache_Close(t *testing.T) {
	before := runtime.NumGoroutine()

	c := NewInMemoryCache[string, int](time.Minute)
	c.Set("a", 1, 0)
	c.Close()
	c.Close() // 幂等

	// 清理 goroutine 退出后缓存仍可读写
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Close 后 Get(a) = (%v, %v), want (1, true)", v, ok)
	}
	c.Set("b", 2, time.Minute)

	// 等清理 goroutine 真正退出
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && runtime.NumGoroutine() > before {
		time.Sleep(10 * time.Millisecond)
	}
	if got := runtime.NumGoroutine(); got > before {
		t.Errorf("Close 后 goroutine 数 = %d, 启动前 = %d", got, before)
	}
}

func TestInMemoryCache_Expiry(t *testing.T) {
	c := NewInMemoryCache[string, int](time.Minute)
	defer c.Close()
	c.Set("x", 1, 10*time.Millisecond)

	if _, ok := c.Get("x"); !ok {
		t.Fatal("过期前应命中")
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("x"); ok {
		t.Error("过期后不应命中")
	}
}

func TestPriceCache(t *testing.T) {
	pc := NewPriceCache()
	defer pc.Close()

	if _, ok := pc.Get("ETH"); ok {
		t.Error("未写入的符号不应命中")
	}

	pc.Set("ETH", 2500.5)
	if v, ok := pc.Get("ETH"); !ok || v != 2500.5 {
		t.Errorf("Get(ETH) = (%v, %v), want (2500.5, true)", v, ok)
	}
}

func TestSnapshotCache(t *testing.T) {
	type snap struct{ n int }

	sc := NewSnapshotCache[*snap](time.Minute)
	defer sc.Close()
	sc.Set("ETH", &snap{n: 1})

	got, ok := sc.Get("ETH")
	if !ok || got.n != 1 {
		t.Fatalf("Get(ETH) = (%+v, %v)", got, ok)
	}

	// 整体替换
	sc.Set("ETH", &snap{n: 2})
	got, _ = sc.Get("ETH")
	if got.n != 2 {
		t.Errorf("替换后 n = %d, want 2", got.n)
	}

	sc.Delete("ETH")
	if _, ok := sc.Get("ETH"); ok {
		t.Error("删除后不应命中")
	}
}

func TestSnapshotCache_TTLFallback(t *testing.T) {
	// 非法 TTL 回落到 30s 默认值
	sc := NewSnapshotCache[int](0)
	defer sc.Close()
	if sc.ttl != 30*time.Second {
		t.Errorf("ttl = %v, want 30s", sc.ttl)
	}
}
