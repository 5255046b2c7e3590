package config

import "strings"

const (
	defaultAppEnv         = "dev"
	defaultAppLogLevel    = "info"
	defaultAppHTTPAddr    = ":9991"
	defaultAppLogPath     = "/data/logs/sigbridge.log"
	defaultVenueAPI       = "http://mt5bridge:8787/api/v1"
	defaultVenueTimeout   = 15
	defaultRiskBudget     = 50
	defaultOrderType      = "market"
	defaultSlippagePoints = 20
	defaultOrderTag       = "sigbridge"
	defaultPollInterval   = 1
	defaultTPTolerance    = 10 // points; 0.1 on a 2-digit symbol
	defaultMaxMonitors    = 64
	defaultPolicyPath     = "configs/policy.yaml"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Venue.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (v *VenueConfig) applyDefaults(keys keySet) {
	if v == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("venue.api_url", &v.APIURL, defaultVenueAPI),
		fieldDefault{
			key:   "venue.timeout_seconds",
			need:  func() bool { return v.TimeoutSeconds <= 0 },
			apply: func() { v.TimeoutSeconds = defaultVenueTimeout },
		},
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("trading.order_type", &t.OrderType, defaultOrderType),
		stringFieldDefault("trading.order_tag", &t.OrderTag, defaultOrderTag),
		stringFieldDefault("trading.policy_path", &t.PolicyPath, defaultPolicyPath),
		fieldDefault{
			key:   "trading.risk_budget_usd",
			need:  func() bool { return t.RiskBudgetUSD <= 0 },
			apply: func() { t.RiskBudgetUSD = defaultRiskBudget },
		},
		fieldDefault{
			key:   "trading.slippage_points",
			need:  func() bool { return t.SlippagePoints <= 0 },
			apply: func() { t.SlippagePoints = defaultSlippagePoints },
		},
		fieldDefault{
			key:   "trading.poll_interval_seconds",
			need:  func() bool { return t.PollIntervalSeconds <= 0 },
			apply: func() { t.PollIntervalSeconds = defaultPollInterval },
		},
		fieldDefault{
			key:   "trading.tp_tolerance_points",
			need:  func() bool { return t.TPTolerancePoints <= 0 },
			apply: func() { t.TPTolerancePoints = defaultTPTolerance },
		},
		fieldDefault{
			key:   "trading.max_monitors",
			need:  func() bool { return t.MaxMonitors <= 0 },
			apply: func() { t.MaxMonitors = defaultMaxMonitors },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
