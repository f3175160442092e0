package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Strategy StrategyConfig `yaml:"strategy"`
	Feeds    FeedsConfig    `yaml:"feeds"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// EngineConfig controls the scan loop, capital and risk limits.
type EngineConfig struct {
	InitialCapital         float64 `yaml:"initial_capital"`
	CapitalFloor           float64 `yaml:"capital_floor"` // run stops when capital falls to this
	PollIntervalSeconds    int     `yaml:"poll_interval_seconds"`
	RunDurationHours       float64 `yaml:"run_duration_hours"`
	ReportIntervalMinutes  int     `yaml:"report_interval_minutes"`
	MaxTradesPerHour       int     `yaml:"max_trades_per_hour"`
	MinTradeSpacingSeconds int     `yaml:"min_trade_spacing_seconds"`
	MaxTradesPerScan       int     `yaml:"max_trades_per_scan"`
	RNGSeed                int64   `yaml:"rng_seed"` // 0 = time-based seed
}

// StrategyConfig holds the edge-estimation and sizing thresholds.
type StrategyConfig struct {
	MinEdge                float64 `yaml:"min_edge"`
	ExtremityLow           float64 `yaml:"extremity_low"`  // prices at or below are excluded
	ExtremityHigh          float64 `yaml:"extremity_high"` // prices at or above are excluded
	MomentumDivisor        float64 `yaml:"momentum_divisor"`
	ProbFloor              float64 `yaml:"prob_floor"` // fair probability clamp band
	ProbCeil               float64 `yaml:"prob_ceil"`
	GeneralNoise           float64 `yaml:"general_noise"`    // +/- bound on general-market noise
	GeneralEdgeCap         float64 `yaml:"general_edge_cap"` // sanity cap on noise-derived edge
	MinGeneralVolume       float64 `yaml:"min_general_volume"`
	CryptoPriority         float64 `yaml:"crypto_priority"` // ranking multiplier for crypto markets
	KellyMultiplier        float64 `yaml:"kelly_multiplier"`
	KellyCap               float64 `yaml:"kelly_cap"`
	MaxPositionPct         float64 `yaml:"max_position_pct"`
	MinTradeSize           float64 `yaml:"min_trade_size"`
	SlippageRate           float64 `yaml:"slippage_rate"`
	WinProbFloor           float64 `yaml:"win_prob_floor"`
	WinProbCeil            float64 `yaml:"win_prob_ceil"`
	MaxWinMultiple         float64 `yaml:"max_win_multiple"` // payout cap as multiple of size
	LossSeverity           float64 `yaml:"loss_severity"`    // 1.0 = full loss
	RetradeCooldownMinutes int     `yaml:"retrade_cooldown_minutes"` // 0 = never retrade a market
}

// FeedsConfig contains the upstream data source settings.
type FeedsConfig struct {
	GammaBase      string   `yaml:"gamma_base"`
	BinanceBase    string   `yaml:"binance_base"`
	BinanceWSBase  string   `yaml:"binance_ws_base"`
	PriceSource    string   `yaml:"price_source"` // rest | websocket
	Symbols        []string `yaml:"symbols"`      // e.g. BTCUSDT, ETHUSDT
	MarketLimit    int      `yaml:"market_limit"` // page size for the markets feed
	MaxMarketPages int      `yaml:"max_market_pages"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// StorageConfig controls where run state is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file and the .env file if present. Values
// from the environment override the YAML for the keys that map to them.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// PollInterval returns the scan cadence as a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Engine.PollIntervalSeconds) * time.Second
}

// RunDuration returns the bounded run time as a time.Duration.
func (c *Config) RunDuration() time.Duration {
	return time.Duration(c.Engine.RunDurationHours * float64(time.Hour))
}

// ReportInterval returns the reporting cadence as a time.Duration.
func (c *Config) ReportInterval() time.Duration {
	return time.Duration(c.Engine.ReportIntervalMinutes) * time.Minute
}

// TradeSpacing returns the minimum gap between admitted trades.
func (c *Config) TradeSpacing() time.Duration {
	return time.Duration(c.Engine.MinTradeSpacingSeconds) * time.Second
}

// FeedTimeout returns the per-request timeout for feed calls.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.Feeds.TimeoutSeconds) * time.Second
}

// Validate rejects configurations that would make the run meaningless.
// Called once at startup; any error here is fatal before the loop begins.
func (c *Config) Validate() error {
	e, s := c.Engine, c.Strategy
	switch {
	case e.InitialCapital <= 0:
		return fmt.Errorf("initial_capital must be positive, got %v", e.InitialCapital)
	case e.CapitalFloor < 0 || e.CapitalFloor >= e.InitialCapital:
		return fmt.Errorf("capital_floor must be in [0, initial_capital), got %v", e.CapitalFloor)
	case e.RunDurationHours <= 0:
		return fmt.Errorf("run_duration_hours must be positive, got %v", e.RunDurationHours)
	case e.MaxTradesPerHour <= 0:
		return fmt.Errorf("max_trades_per_hour must be positive, got %d", e.MaxTradesPerHour)
	case s.MinEdge <= 0 || s.MinEdge >= 1:
		return fmt.Errorf("min_edge must be in (0, 1), got %v", s.MinEdge)
	case s.ExtremityLow <= 0 || s.ExtremityHigh >= 1 || s.ExtremityLow >= s.ExtremityHigh:
		return fmt.Errorf("extremity band [%v, %v] must satisfy 0 < low < high < 1", s.ExtremityLow, s.ExtremityHigh)
	case s.ProbFloor < 0 || s.ProbCeil > 1 || s.ProbFloor >= s.ProbCeil:
		return fmt.Errorf("probability band [%v, %v] must satisfy 0 <= floor < ceil <= 1", s.ProbFloor, s.ProbCeil)
	case s.KellyCap <= 0 || s.KellyCap > 1:
		return fmt.Errorf("kelly_cap must be in (0, 1], got %v", s.KellyCap)
	case s.MaxPositionPct <= 0 || s.MaxPositionPct > 1:
		return fmt.Errorf("max_position_pct must be in (0, 1], got %v", s.MaxPositionPct)
	case s.SlippageRate < 0 || s.SlippageRate >= 1:
		return fmt.Errorf("slippage_rate must be in [0, 1), got %v", s.SlippageRate)
	case s.LossSeverity <= 0 || s.LossSeverity > 1:
		return fmt.Errorf("loss_severity must be in (0, 1], got %v", s.LossSeverity)
	case s.WinProbFloor <= 0 || s.WinProbCeil >= 1 || s.WinProbFloor >= s.WinProbCeil:
		return fmt.Errorf("win probability band [%v, %v] must satisfy 0 < floor < ceil < 1", s.WinProbFloor, s.WinProbCeil)
	}
	if c.Feeds.PriceSource != "rest" && c.Feeds.PriceSource != "websocket" {
		return fmt.Errorf("price_source must be rest or websocket, got %q", c.Feeds.PriceSource)
	}
	return nil
}

// applyEnvOverrides overrides config values from environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("EDGESIM_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("EDGESIM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Engine.RNGSeed = seed
		}
	}
}

// setDefaults fills in sensible values for anything the YAML left out.
// The defaults mirror the long-running overnight configuration.
func setDefaults(cfg *Config) {
	e := &cfg.Engine
	if e.InitialCapital == 0 {
		e.InitialCapital = 100
	}
	if e.CapitalFloor == 0 {
		e.CapitalFloor = 10
	}
	if e.PollIntervalSeconds <= 0 {
		e.PollIntervalSeconds = 60
	}
	if e.RunDurationHours == 0 {
		e.RunDurationHours = 14
	}
	if e.ReportIntervalMinutes <= 0 {
		e.ReportIntervalMinutes = 15
	}
	if e.MaxTradesPerHour == 0 {
		e.MaxTradesPerHour = 10
	}
	if e.MinTradeSpacingSeconds <= 0 {
		e.MinTradeSpacingSeconds = 30
	}
	if e.MaxTradesPerScan <= 0 {
		e.MaxTradesPerScan = 1
	}

	s := &cfg.Strategy
	if s.MinEdge == 0 {
		s.MinEdge = 0.05
	}
	if s.ExtremityLow == 0 {
		s.ExtremityLow = 0.05
	}
	if s.ExtremityHigh == 0 {
		s.ExtremityHigh = 0.95
	}
	if s.MomentumDivisor == 0 {
		s.MomentumDivisor = 50
	}
	if s.ProbFloor == 0 {
		s.ProbFloor = 0.20
	}
	if s.ProbCeil == 0 {
		s.ProbCeil = 0.80
	}
	if s.GeneralNoise == 0 {
		s.GeneralNoise = 0.06
	}
	if s.GeneralEdgeCap == 0 {
		s.GeneralEdgeCap = 0.15
	}
	if s.MinGeneralVolume == 0 {
		s.MinGeneralVolume = 10000
	}
	if s.CryptoPriority == 0 {
		s.CryptoPriority = 1.5
	}
	if s.KellyMultiplier == 0 {
		s.KellyMultiplier = 3
	}
	if s.KellyCap == 0 {
		s.KellyCap = 0.15
	}
	if s.MaxPositionPct == 0 {
		s.MaxPositionPct = 0.10
	}
	if s.MinTradeSize == 0 {
		s.MinTradeSize = 1
	}
	if s.SlippageRate == 0 {
		s.SlippageRate = 0.005
	}
	if s.WinProbFloor == 0 {
		s.WinProbFloor = 0.35
	}
	if s.WinProbCeil == 0 {
		s.WinProbCeil = 0.75
	}
	if s.MaxWinMultiple == 0 {
		s.MaxWinMultiple = 2
	}
	if s.LossSeverity == 0 {
		s.LossSeverity = 1.0
	}

	f := &cfg.Feeds
	if f.GammaBase == "" {
		f.GammaBase = "https://gamma-api.polymarket.com"
	}
	if f.BinanceBase == "" {
		f.BinanceBase = "https://api.binance.com"
	}
	if f.BinanceWSBase == "" {
		f.BinanceWSBase = "wss://stream.binance.com:9443/ws"
	}
	if f.PriceSource == "" {
		f.PriceSource = "rest"
	}
	if len(f.Symbols) == 0 {
		f.Symbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	}
	if f.MarketLimit <= 0 {
		f.MarketLimit = 500
	}
	if f.MaxMarketPages <= 0 {
		f.MaxMarketPages = 4
	}
	if f.TimeoutSeconds <= 0 {
		f.TimeoutSeconds = 10
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "edgesim.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
