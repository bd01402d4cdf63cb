// Package websocket 提供价格源 WebSocket 客户端
package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// PriceUpdate 一次现货价推送
type PriceUpdate struct {
	Symbol    string
	Price     float64
	Change24h float64
	Timestamp time.Time
}

// PriceHandler 价格推送处理器
type PriceHandler func(PriceUpdate)

// Config WebSocket 客户端配置
type Config struct {
	HandshakeTimeout     time.Duration
	PingInterval         time.Duration
	ReconnectEnabled     bool
	ReconnectDelay       time.Duration
	MaxReconnectDelay    time.Duration
	MaxReconnectAttempts int
	ErrorBufferSize      int
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		HandshakeTimeout:     10 * time.Second,
		PingInterval:         30 * time.Second,
		ReconnectEnabled:     true,
		ReconnectDelay:       time.Second,
		MaxReconnectDelay:    30 * time.Second,
		MaxReconnectAttempts: 10,
		ErrorBufferSize:      16,
	}
}

// PriceStream 价格源 WebSocket 客户端。
// 订阅若干标的后持续接收现货价推送，断线自动重连并重新订阅。
type PriceStream struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	url       string
	config    *Config
	running   bool
	runningMu sync.RWMutex

	// 订阅管理：symbol -> 是否已订阅
	subscriptions map[string]bool
	subMu         sync.RWMutex

	handler PriceHandler
	errChan chan error

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
	doneCh chan struct{}

	reconnectAttempts int
	reconnectMu       sync.Mutex
}

// NewPriceStream 创建价格流客户端
func NewPriceStream(url string, handler PriceHandler) *PriceStream {
	return NewPriceStreamWithConfig(url, handler, DefaultConfig())
}

// NewPriceStreamWithConfig 使用自定义配置创建价格流客户端
func NewPriceStreamWithConfig(url string, handler PriceHandler, config *Config) *PriceStream {
	if config == nil {
		config = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PriceStream{
		url:           url,
		config:        config,
		subscriptions: make(map[string]bool),
		handler:       handler,
		errChan:       make(chan error, config.ErrorBufferSize),
		ctx:           ctx,
		cancel:        cancel,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start 连接并开始监听
func (s *PriceStream) Start(ctx context.Context) error {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()
		return fmt.Errorf("价格流客户端已在运行")
	}
	s.running = true
	s.runningMu.Unlock()

	if ctx != nil {
		s.ctx = ctx
	}

	if err := s.connect(); err != nil {
		s.runningMu.Lock()
		s.running = false
		s.runningMu.Unlock()
		return fmt.Errorf("初始连接失败: %w", err)
	}

	go s.readLoop()
	go s.pingLoop()

	log.Printf("[PriceStream] 已连接 %s", s.url)
	return nil
}

// Stop 优雅关闭连接
func (s *PriceStream) Stop() {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = false
	s.runningMu.Unlock()

	s.cancel()
	close(s.stopCh)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	select {
	case <-s.doneCh:
	case <-time.After(5 * time.Second):
		log.Printf("[PriceStream] 关闭超时")
	}
}

// Subscribe 订阅标的现货价推送
func (s *PriceStream) Subscribe(symbols ...string) error {
	s.subMu.Lock()
	newSubs := make([]string, 0)
	for _, sym := range symbols {
		if !s.subscriptions[sym] {
			s.subscriptions[sym] = true
			newSubs = append(newSubs, sym)
		}
	}
	s.subMu.Unlock()

	if len(newSubs) == 0 {
		return nil
	}
	return s.sendSubscription(newSubs)
}

// Errors 返回错误通道
func (s *PriceStream) Errors() <-chan error {
	return s.errChan
}

// IsRunning 检查客户端是否正在运行
func (s *PriceStream) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()
	return s.running
}

// connect 建立 WebSocket 连接
func (s *PriceStream) connect() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != nil {
		s.conn.Close()
	}

	dialer := websocket.Dialer{HandshakeTimeout: s.config.HandshakeTimeout}
	conn, _, err := dialer.Dial(s.url, nil)
	if err != nil {
		return fmt.Errorf("连接失败: %w", err)
	}
	s.conn = conn

	s.reconnectMu.Lock()
	s.reconnectAttempts = 0
	s.reconnectMu.Unlock()
	return nil
}

// sendSubscription 发送订阅消息
func (s *PriceStream) sendSubscription(symbols []string) error {
	msg := map[string]interface{}{
		"type":    "subscribe",
		"symbols": symbols,
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("未连接")
	}
	return s.conn.WriteJSON(msg)
}

// resubscribe 重连后恢复全部订阅
func (s *PriceStream) resubscribe() error {
	s.subMu.RLock()
	symbols := make([]string, 0, len(s.subscriptions))
	for sym := range s.subscriptions {
		symbols = append(symbols, sym)
	}
	s.subMu.RUnlock()

	if len(symbols) == 0 {
		return nil
	}
	return s.sendSubscription(symbols)
}

// readLoop 读取循环
func (s *PriceStream) readLoop() {
	defer close(s.doneCh)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if s.config.ReconnectEnabled {
				s.reconnect()
			}
			time.Sleep(time.Second)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.Close()
				s.conn = nil
			}
			s.connMu.Unlock()

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			log.Printf("[PriceStream] 读取错误: %v, 重连中...", err)
			if s.config.ReconnectEnabled {
				s.reconnect()
			} else {
				time.Sleep(time.Second)
			}
			continue
		}

		s.handleMessage(message)
	}
}

// pingLoop 心跳循环
func (s *PriceStream) pingLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn := s.conn
			s.connMu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte("PING")); err != nil {
				log.Printf("[PriceStream] PING 发送失败: %v", err)
			}
		}
	}
}

// reconnect 重连（线性退避，封顶 MaxReconnectDelay）
func (s *PriceStream) reconnect() {
	s.reconnectMu.Lock()
	s.reconnectAttempts++
	attempts := s.reconnectAttempts
	s.reconnectMu.Unlock()

	if attempts > s.config.MaxReconnectAttempts {
		select {
		case s.errChan <- fmt.Errorf("达到最大重连次数 (%d)", s.config.MaxReconnectAttempts):
		default:
		}
		return
	}

	delay := s.config.ReconnectDelay * time.Duration(attempts)
	if delay > s.config.MaxReconnectDelay {
		delay = s.config.MaxReconnectDelay
	}

	select {
	case <-s.ctx.Done():
		return
	case <-s.stopCh:
		return
	case <-time.After(delay):
	}

	if err := s.connect(); err != nil {
		log.Printf("[PriceStream] 重连失败: %v", err)
		return
	}
	if err := s.resubscribe(); err != nil {
		log.Printf("[PriceStream] 重新订阅失败: %v", err)
	}
}

// pricePayload 价格推送消息体（price 可能是字符串或数字）
type pricePayload struct {
	Symbol    string          `json:"symbol"`
	Price     json.RawMessage `json:"price"`
	Change24h float64         `json:"change24h"`
	Timestamp int64           `json:"timestamp"`
}

// handleMessage 处理一条推送
func (s *PriceStream) handleMessage(data []byte) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return
	}
	// 文本控制消息（如 "PONG"）直接忽略
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return
	}

	// 单条或数组两种形态都接受
	var payloads []pricePayload
	if trimmed[0] == '{' {
		var p pricePayload
		if err := json.Unmarshal(trimmed, &p); err != nil {
			s.reportError(fmt.Errorf("解析价格推送失败: %w", err))
			return
		}
		payloads = append(payloads, p)
	} else {
		if err := json.Unmarshal(trimmed, &payloads); err != nil {
			s.reportError(fmt.Errorf("解析价格推送失败: %w", err))
			return
		}
	}

	for _, p := range payloads {
		price, ok := parsePrice(p.Price)
		if !ok || p.Symbol == "" {
			continue
		}
		ts := time.Now()
		if p.Timestamp > 0 {
			// 毫秒级时间戳归一化为秒级
			sec := p.Timestamp
			if sec > 1e12 {
				sec /= 1000
			}
			ts = time.Unix(sec, 0)
		}
		if s.handler != nil {
			s.handler(PriceUpdate{
				Symbol:    p.Symbol,
				Price:     price,
				Change24h: p.Change24h,
				Timestamp: ts,
			})
		}
	}
}

// parsePrice 解析价格字段（兼容 "2500.5" 与 2500.5 两种形态）
func parsePrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, num > 0
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if v, err := strconv.ParseFloat(str, 64); err == nil {
			return v, v > 0
		}
	}
	return 0, false
}

// reportError 非阻塞上报错误
func (s *PriceStream) reportError(err error) {
	select {
	case s.errChan <- err:
	default:
	}
}
