package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// configPath 配置文件路径（可通过 SetConfigPath 覆盖）
var configPath = "config.yaml"

// SetConfigPath 设置配置文件路径
func SetConfigPath(path string) {
	if path != "" {
		configPath = path
	}
}

// AssetSpec 单个标的资产的规格参数。
//
// StrikeScale / CollateralDecimals 是从上游实际数据反推出来的经验常数，
// 不是协议声明的约定。新资产接入时必须先用样本数据验证过再写进配置。
type AssetSpec struct {
	Symbol             string   `yaml:"symbol"`              // 标的符号，例如 ETH / BTC
	StrikeScale        float64  `yaml:"strike_scale"`        // ticker 解析失败时的行权价兜底缩放（ETH: 1e8, BTC: 1e6）
	CollateralDecimals int32    `yaml:"collateral_decimals"` // Call 抵押品精度（一般 18）
	TickerAliases      []string `yaml:"ticker_aliases"`      // ticker 匹配别名（BTC 必须同时匹配 WBTC）
	// AliasDecimals 别名抵押品精度覆盖（例如 WBTC 为 8），key 为别名子串
	AliasDecimals map[string]int32 `yaml:"alias_decimals"`
}

// SourcesConfig 上游数据源配置
type SourcesConfig struct {
	OrderBookURL   string        `yaml:"orderbook_url"`    // 订单源 HTTP 地址
	PriceURL       string        `yaml:"price_url"`        // 价格源 HTTP 地址
	PriceStreamURL string        `yaml:"price_stream_url"` // 价格源 WebSocket 地址（可选）
	Timeout        time.Duration `yaml:"timeout"`          // 单次请求超时
}

// EngineConfig 期权链引擎配置
type EngineConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`     // 快照轮询周期（默认 30s）
	SnapshotTTL     time.Duration `yaml:"snapshot_ttl"`      // 快照缓存有效期（默认等于轮询周期）
	DefaultPrice    float64       `yaml:"default_price"`     // 价格源完全不可用时的静态兜底价
	QuoteDecimals   int32         `yaml:"quote_decimals"`    // 计价币（USDC）精度，固定 6
	ListenAddr      string        `yaml:"listen_addr"`       // API 服务监听地址
	DefaultSymbol   string        `yaml:"default_symbol"`    // watcher/tui 默认标的
	DefaultDays     int           `yaml:"default_days"`      // watcher/tui 默认到期天数
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Config 顶层配置
type Config struct {
	Sources SourcesConfig `yaml:"sources"`
	Engine  EngineConfig  `yaml:"engine"`
	Assets  []AssetSpec   `yaml:"assets"`
	Log     LogConfig     `yaml:"log"`
}

// Default 返回默认配置（未提供配置文件时使用）
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			Timeout: 15 * time.Second,
		},
		Engine: EngineConfig{
			PollInterval:  30 * time.Second,
			SnapshotTTL:   30 * time.Second,
			DefaultPrice:  2500,
			QuoteDecimals: 6,
			ListenAddr:    ":8080",
			DefaultSymbol: "ETH",
			DefaultDays:   1,
		},
		Assets: []AssetSpec{
			{
				Symbol:             "ETH",
				StrikeScale:        1e8,
				CollateralDecimals: 18,
			},
			{
				Symbol:             "BTC",
				StrikeScale:        1e6,
				CollateralDecimals: 18,
				TickerAliases:      []string{"WBTC"},
				AliasDecimals:      map[string]int32{"WBTC": 8},
			},
		},
		Log: LogConfig{
			Level:      "info",
			OutputFile: "logs/gooption.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Load 加载配置：文件 -> 环境变量覆盖 -> 默认值补齐
func Load() (*Config, error) {
	cfg := Default()
	// snapshot_ttl 跟随生效后的 poll_interval 推导，种子值必须清零，
	// 否则文件改了轮询周期后 TTL 仍停留在默认 30s
	cfg.Engine.SnapshotTTL = 0

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败 %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("读取配置文件失败 %s: %w", configPath, err)
	}

	applyEnvOverrides(cfg)
	fillDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides 环境变量覆盖（部署时不改文件只改环境）
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GOOPTION_ORDERBOOK_URL"); v != "" {
		cfg.Sources.OrderBookURL = v
	}
	if v := os.Getenv("GOOPTION_PRICE_URL"); v != "" {
		cfg.Sources.PriceURL = v
	}
	if v := os.Getenv("GOOPTION_PRICE_STREAM_URL"); v != "" {
		cfg.Sources.PriceStreamURL = v
	}
	if v := os.Getenv("GOOPTION_LISTEN_ADDR"); v != "" {
		cfg.Engine.ListenAddr = v
	}
	if v := os.Getenv("GOOPTION_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GOOPTION_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Engine.PollInterval = d
		}
	}
	if v := os.Getenv("GOOPTION_DEFAULT_PRICE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Engine.DefaultPrice = f
		}
	}
}

// fillDefaults 补齐零值字段
func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Sources.Timeout <= 0 {
		cfg.Sources.Timeout = def.Sources.Timeout
	}
	if cfg.Engine.PollInterval <= 0 {
		cfg.Engine.PollInterval = def.Engine.PollInterval
	}
	if cfg.Engine.SnapshotTTL <= 0 {
		cfg.Engine.SnapshotTTL = cfg.Engine.PollInterval
	}
	if cfg.Engine.QuoteDecimals <= 0 {
		cfg.Engine.QuoteDecimals = def.Engine.QuoteDecimals
	}
	if cfg.Engine.ListenAddr == "" {
		cfg.Engine.ListenAddr = def.Engine.ListenAddr
	}
	if cfg.Engine.DefaultSymbol == "" {
		cfg.Engine.DefaultSymbol = def.Engine.DefaultSymbol
	}
	if cfg.Engine.DefaultDays <= 0 {
		cfg.Engine.DefaultDays = def.Engine.DefaultDays
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = def.Assets
	}
	if cfg.Log.Level == "" {
		cfg.Log = def.Log
	}
}

// Validate 配置硬校验：缩放常数缺失会导致静默解析错误，必须在启动时拦截
func (c *Config) Validate() error {
	for i, a := range c.Assets {
		if strings.TrimSpace(a.Symbol) == "" {
			return fmt.Errorf("assets[%d]: symbol 为空", i)
		}
		if a.StrikeScale <= 0 {
			return fmt.Errorf("assets[%d] %s: strike_scale 必须 > 0（经验常数，需用样本数据验证）", i, a.Symbol)
		}
		if a.CollateralDecimals <= 0 {
			return fmt.Errorf("assets[%d] %s: collateral_decimals 必须 > 0", i, a.Symbol)
		}
	}
	return nil
}

// Asset 按符号查找资产规格（大小写不敏感）
func (c *Config) Asset(symbol string) (AssetSpec, bool) {
	for _, a := range c.Assets {
		if strings.EqualFold(a.Symbol, symbol) {
			return a, true
		}
	}
	return AssetSpec{}, false
}

// MatchesTicker 判断 ticker 是否属于该资产（符号或别名子串匹配）
func (a AssetSpec) MatchesTicker(ticker string) bool {
	if ticker == "" {
		return false
	}
	upper := strings.ToUpper(ticker)
	if strings.Contains(upper, strings.ToUpper(a.Symbol)) {
		return true
	}
	for _, alias := range a.TickerAliases {
		if strings.Contains(upper, strings.ToUpper(alias)) {
			return true
		}
	}
	return false
}

// CollateralDecimalsFor 根据 ticker 解析抵押品精度（别名覆盖优先，例如 WBTC=8）
func (a AssetSpec) CollateralDecimalsFor(ticker string) int32 {
	upper := strings.ToUpper(ticker)
	for alias, dec := range a.AliasDecimals {
		if strings.Contains(upper, strings.ToUpper(alias)) {
			return dec
		}
	}
	return a.CollateralDecimals
}
