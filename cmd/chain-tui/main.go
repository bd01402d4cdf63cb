package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/betbot/gooption/internal/domain"
	"github.com/betbot/gooption/internal/optionchain"
	"github.com/betbot/gooption/internal/services"
	"github.com/betbot/gooption/pkg/config"
	"github.com/betbot/gooption/pkg/sdk/api"
)

var (
	// 样式定义
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("2")) // 绿色

	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")) // 红色

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238"))

	atmStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))
)

// model 应用状态
type model struct {
	svc    *services.ChainService
	symbol string
	days   int

	snap      *optionchain.ChainSnapshot
	connected bool
	err       error

	ctx    context.Context
	cancel context.CancelFunc
}

// tickMsg 定时器消息
type tickMsg time.Time

// snapshotMsg 快照更新消息
type snapshotMsg struct {
	snap *optionchain.ChainSnapshot
}

func initialModel(svc *services.ChainService, symbol string, days int) model {
	ctx, cancel := context.WithCancel(context.Background())
	return model{
		svc:    svc,
		symbol: symbol,
		days:   days,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), fetchCmd(m.ctx, m.svc, m.symbol))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "+", "=":
			m.days++
			return m, nil
		case "-":
			if m.days > 1 {
				m.days--
			}
			return m, nil
		case "b":
			m.symbol = "BTC"
			return m, fetchCmd(m.ctx, m.svc, m.symbol)
		case "e":
			m.symbol = "ETH"
			return m, fetchCmd(m.ctx, m.svc, m.symbol)
		}

	case tickMsg:
		return m, tea.Batch(tickCmd(), fetchCmd(m.ctx, m.svc, m.symbol))

	case snapshotMsg:
		m.snap = msg.snap
		m.connected = true
		m.err = nil
		return m, nil

	case error:
		m.err = msg
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("错误: %v\n\n按 q 退出", m.err)
	}
	if !m.connected || m.snap == nil {
		return "正在加载期权链...\n\n按 q 退出"
	}

	var s strings.Builder

	age := time.Since(m.snap.BuiltAt).Round(time.Second)
	header := headerStyle.Render(fmt.Sprintf("%s  $%.2f | 到期: %d天 | 报价: %d | 快照: %v前",
		m.snap.Symbol, m.snap.CurrentPrice, m.days, len(m.snap.Quotes), age))
	s.WriteString(header)
	s.WriteString("\n\n")

	upLadder := renderLadder(m.snap, m.days, domain.DirectionUp)
	downLadder := renderLadder(m.snap, m.days, domain.DirectionDown)
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, upLadder, "  ", downLadder))
	s.WriteString("\n\n")

	if len(m.snap.AvailableDays) > 0 {
		s.WriteString(dimStyle.Render(fmt.Sprintf("可用到期天数: %v", m.snap.AvailableDays)))
		s.WriteString("\n")
	}
	s.WriteString(dimStyle.Render("e/b 切换标的 | +/- 调整天数 | q 退出"))

	return s.String()
}

// renderLadder 渲染单方向的四档行权价阶梯
func renderLadder(snap *optionchain.ChainSnapshot, days int, dir domain.Direction) string {
	var s strings.Builder

	title := upStyle.Render("UP (Call)")
	if dir == domain.DirectionDown {
		title = downStyle.Render("DOWN (Put)")
	}
	s.WriteString(title)
	s.WriteString("\n\n")

	strikes := snap.Ladder(days, dir)
	if len(strikes) == 0 {
		s.WriteString("  无可用档位\n")
		return borderStyle.Render(s.String())
	}

	// ATM 端标注：Up 的第 0 档 / Down 的最后一档离现货最近
	atmIdx := 0
	if dir == domain.DirectionDown {
		atmIdx = len(strikes) - 1
	}

	for i, strike := range strikes {
		label := "   "
		if i == atmIdx {
			label = "ATM"
		}
		line := fmt.Sprintf("  %s  %8.0f", label, strike)
		if q, ok := snap.Match(strike, days, dir); ok {
			line += fmt.Sprintf("  $%.2f", q.Premium)
		} else {
			line += "  --"
		}
		if i == atmIdx {
			s.WriteString(atmStyle.Render(line))
		} else {
			s.WriteString(line)
		}
		s.WriteString("\n")
	}

	return borderStyle.Render(s.String())
}

// Commands

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchCmd(ctx context.Context, svc *services.ChainService, symbol string) tea.Cmd {
	return func() tea.Msg {
		snap, err := svc.Snapshot(ctx, symbol)
		if err != nil {
			return err
		}
		return snapshotMsg{snap: snap}
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	symbol := flag.String("symbol", "", "初始标的（默认取配置）")
	days := flag.Int("days", 0, "初始到期天数（默认取配置）")
	flag.Parse()

	_ = godotenv.Load()

	config.SetConfigPath(*configPath)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 重定向 logrus 输出到文件，避免干扰 TUI
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		logDir = os.TempDir()
	}
	logFile := filepath.Join(logDir, "chain-tui.log")
	if file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err == nil {
		logrus.SetOutput(file)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   true,
		})
	}

	watchSymbol := cfg.Engine.DefaultSymbol
	if *symbol != "" {
		watchSymbol = strings.ToUpper(*symbol)
	}
	watchDays := cfg.Engine.DefaultDays
	if *days > 0 {
		watchDays = *days
	}

	client := api.NewClient(cfg.Sources.OrderBookURL, cfg.Sources.PriceURL, cfg.Sources.Timeout)
	svc := services.NewChainService(client, cfg)
	svc.Start()
	defer svc.Stop()

	p := tea.NewProgram(initialModel(svc, watchSymbol, watchDays), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("运行程序失败: %v", err)
	}
}
