package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucket_Allow(t *testing.T) {
	tb := NewTokenBucket(3, 1)

	// 初始令牌数等于容量
	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("第 %d 次 Allow 应成功", i+1)
		}
	}
	if tb.Allow() {
		t.Error("桶空后 Allow 应失败")
	}
	if tb.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", tb.Remaining())
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	tb := NewTokenBucket(2, 100)
	tb.Allow()
	tb.Allow()

	// 100/s 的补充率，1.1s 后必然补满
	time.Sleep(1100 * time.Millisecond)
	if tb.Remaining() != 2 {
		t.Errorf("补充后 Remaining = %d, want 2", tb.Remaining())
	}
}

func TestTokenBucket_WaitCancelled(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	tb.Allow() // 排空

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tb.Wait(ctx); err == nil {
		t.Error("已取消的 ctx 应让 Wait 返回错误")
	}
}

func TestTokenBucket_BadParams(t *testing.T) {
	// 非法参数收敛到最小可用值，而不是 panic
	tb := NewTokenBucket(0, 0)
	if !tb.Allow() {
		t.Error("容量收敛到 1 后首个请求应放行")
	}
}
