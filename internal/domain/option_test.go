package domain

import (
	"testing"
	"time"
)

func TestDirection(t *testing.T) {
	if DirectionUp.Side() != SideCall {
		t.Error("Up 应对应 Call")
	}
	if DirectionDown.Side() != SidePut {
		t.Error("Down 应对应 Put")
	}
	if !DirectionUp.IsValid() || !DirectionDown.IsValid() {
		t.Error("up/down 应为合法方向")
	}
	if Direction("sideways").IsValid() {
		t.Error("其他取值应非法")
	}
}

func TestCeilDays(t *testing.T) {
	now := time.Unix(1767225600, 0)

	cases := []struct {
		name string
		t    time.Time
		want int
	}{
		{"已到期", now.Add(-time.Hour), 0},
		{"恰好现在", now, 0},
		{"一秒后", now.Add(time.Second), 1},
		{"不足一天向上取整", now.Add(40 * time.Hour), 2},
		{"整两天", now.Add(48 * time.Hour), 2},
		{"刚过两天", now.Add(48*time.Hour + time.Second), 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CeilDays(c.t, now); got != c.want {
				t.Errorf("CeilDays = %d, want %d", got, c.want)
			}
		})
	}
}

func TestQuoteIsValid(t *testing.T) {
	q := &Quote{Strike: 2500, Premium: 35}
	if !q.IsValid() {
		t.Error("正行权价+正权利金应合法")
	}

	cases := []*Quote{
		nil,
		{Strike: 0, Premium: 35},
		{Strike: 2500, Premium: 0},
		{Strike: -1, Premium: 35},
	}
	for i, bad := range cases {
		if bad.IsValid() {
			t.Errorf("case %d 应非法: %+v", i, bad)
		}
	}
}
