package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/betbot/gooption/internal/domain"
	"github.com/betbot/gooption/internal/optionchain"
	"github.com/betbot/gooption/internal/services"
	"github.com/betbot/gooption/pkg/config"
	"github.com/betbot/gooption/pkg/logger"
	"github.com/betbot/gooption/pkg/sdk/api"
	"github.com/betbot/gooption/pkg/sdk/websocket"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	symbol := flag.String("symbol", "", "监控标的（默认取配置）")
	days := flag.Int("days", 0, "目标到期天数（默认取配置）")
	flag.Parse()

	// .env 可选：只用于覆盖环境变量
	_ = godotenv.Load()

	config.SetConfigPath(*configPath)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.OutputFile,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	watchSymbol := cfg.Engine.DefaultSymbol
	if *symbol != "" {
		watchSymbol = *symbol
	}
	watchDays := cfg.Engine.DefaultDays
	if *days > 0 {
		watchDays = *days
	}

	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("🚀 期权链监控程序\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("标的: %s\n", watchSymbol)
	fmt.Printf("目标到期: %d 天\n", watchDays)
	fmt.Printf("订单源: %s\n", cfg.Sources.OrderBookURL)
	fmt.Printf("轮询周期: %s\n", cfg.Engine.PollInterval)
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	client := api.NewClient(cfg.Sources.OrderBookURL, cfg.Sources.PriceURL, cfg.Sources.Timeout)
	svc := services.NewChainService(client, cfg)
	svc.Start()
	defer svc.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 可选：价格源 WebSocket 推送（没配就只靠轮询）
	if cfg.Sources.PriceStreamURL != "" {
		stream := websocket.NewPriceStream(cfg.Sources.PriceStreamURL, func(u websocket.PriceUpdate) {
			printSpot(u)
		})
		if err := stream.Start(ctx); err != nil {
			logger.Warnf("价格流连接失败，改用轮询: %v", err)
		} else {
			defer stream.Stop()
			if err := stream.Subscribe(watchSymbol); err != nil {
				logger.Warnf("价格流订阅失败: %v", err)
			}
		}
	}

	go func() {
		ticker := time.NewTicker(cfg.Engine.PollInterval)
		defer ticker.Stop()

		printChain(ctx, svc, watchSymbol, watchDays)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				printChain(ctx, svc, watchSymbol, watchDays)
			}
		}
	}()

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Printf("\n正在关闭...\n")
}

// printChain 打印一次快照概览与双向阶梯
func printChain(ctx context.Context, svc *services.ChainService, symbol string, days int) {
	snap, err := svc.Snapshot(ctx, symbol)
	if err != nil {
		logger.Errorf("获取快照失败 %s: %v", symbol, err)
		return
	}

	fmt.Printf("[%s] %s 现价 $%.2f | 可用报价 %d | 天数桶 %v\n",
		time.Now().Format("15:04:05"), snap.Symbol, snap.CurrentPrice,
		len(snap.Quotes), snap.AvailableDays)

	if snap.IsEmpty() {
		fmt.Printf("  (空快照：当前无可成交报价)\n\n")
		return
	}

	printLadder(snap, days, domain.DirectionUp)
	printLadder(snap, days, domain.DirectionDown)
	fmt.Println()
}

// printLadder 打印单方向阶梯及每一档的权利金
func printLadder(snap *optionchain.ChainSnapshot, days int, dir domain.Direction) {
	var colorReset = "\033[0m"
	var colorUp = "\033[32m"   // 绿色
	var colorDown = "\033[31m" // 红色

	color := colorUp
	label := "UP  "
	if dir == domain.DirectionDown {
		color = colorDown
		label = "DOWN"
	}

	strikes := snap.Ladder(days, dir)
	if len(strikes) == 0 {
		fmt.Printf("  %s%s%s %d天: --\n", color, label, colorReset, days)
		return
	}

	fmt.Printf("  %s%s%s %d天:", color, label, colorReset, days)
	for _, strike := range strikes {
		if q, ok := snap.Match(strike, days, dir); ok {
			fmt.Printf("  %.0f($%.2f)", strike, q.Premium)
		} else {
			fmt.Printf("  %.0f(--)", strike)
		}
	}
	fmt.Println()
}

// printSpot 打印一条价格流推送
func printSpot(u websocket.PriceUpdate) {
	var colorReset = "\033[0m"
	color := "\033[32m"
	if u.Change24h < 0 {
		color = "\033[31m"
	}
	fmt.Printf("[%s] %s 现货: %s$%.2f%s (24h %+.2f%%)\n",
		u.Timestamp.Format("15:04:05"), u.Symbol, color, u.Price, colorReset, u.Change24h)
}
