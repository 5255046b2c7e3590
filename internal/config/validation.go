package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Venue.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (v *VenueConfig) validate() error {
	if strings.TrimSpace(v.APIURL) == "" {
		return fmt.Errorf("venue.api_url cannot be empty")
	}
	if v.TimeoutSeconds <= 0 {
		return fmt.Errorf("venue.timeout_seconds must be > 0")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if t.RiskBudgetUSD <= 0 {
		return fmt.Errorf("trading.risk_budget_usd must be > 0")
	}
	switch t.OrderType {
	case "market", "limit":
	default:
		return fmt.Errorf("trading.order_type only supports 'market' or 'limit', got %s", t.OrderType)
	}
	if t.SlippagePoints < 0 {
		return fmt.Errorf("trading.slippage_points must be >= 0")
	}
	if t.PollIntervalSeconds <= 0 {
		return fmt.Errorf("trading.poll_interval_seconds must be > 0")
	}
	if t.TPTolerancePoints < 0 {
		return fmt.Errorf("trading.tp_tolerance_points must be >= 0")
	}
	if t.MaxMonitors <= 0 {
		return fmt.Errorf("trading.max_monitors must be > 0")
	}
	if strings.TrimSpace(t.PolicyPath) == "" {
		return fmt.Errorf("trading.policy_path cannot be empty")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	return nil
}
