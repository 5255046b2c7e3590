package config

import "strings"

// Config 是 sigbridge 的主配置载体。
type Config struct {
	App     AppConfig     `toml:"app"`
	Venue   VenueConfig   `toml:"venue"`
	Trading TradingConfig `toml:"trading"`
	Notify  NotifyConfig  `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// VenueConfig describes how to reach the execution bridge REST API.
type VenueConfig struct {
	APIURL         string `toml:"api_url"`
	APIToken       string `toml:"api_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TradingConfig controls sizing, order placement and position monitoring.
type TradingConfig struct {
	RiskBudgetUSD       float64 `toml:"risk_budget_usd"`
	OrderType           string  `toml:"order_type"` // "market" | "limit"
	SlippagePoints      int     `toml:"slippage_points"`
	OrderTag            string  `toml:"order_tag"`
	PollIntervalSeconds int     `toml:"poll_interval_seconds"`
	TPTolerancePoints   float64 `toml:"tp_tolerance_points"`
	MaxMonitors         int     `toml:"max_monitors"`
	PolicyPath          string  `toml:"policy_path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// keySet tracks the field paths explicitly present in the config file, so
// defaults never clobber a deliberate zero value.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault is one field's defaulting rule.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
