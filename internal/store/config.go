package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"trading-agent/internal/types"
)

const (
	DefaultLowerProb = 20.0
	DefaultUpperProb = 80.0
)

type Config struct {
	Venue               string  `yaml:"venue"`
	Pair                string  `yaml:"pair"`
	Timeframe           string  `yaml:"timeframe"`
	WindowLength        int     `yaml:"window_length"`
	Fee                 float64 `yaml:"fee"`
	PremiumOverFee      float64 `yaml:"premium_over_fee"`
	Trust               float64 `yaml:"trust"`
	MinNotional         float64 `yaml:"min_notional"`
	CancelLimit         int     `yaml:"cancel_limit"`
	RetryLimit          int     `yaml:"retry_limit"`
	BaseSleepSeconds    int     `yaml:"base_sleep_seconds"`
	BackoffSleepSeconds int     `yaml:"backoff_sleep_seconds"`
	Strategy            string  `yaml:"strategy"`
	Technical           struct {
		Indicators  []string `yaml:"indicators"`
		PriceColumn string   `yaml:"price_column"`
		SignalLag   int      `yaml:"signal_lag"`
	} `yaml:"technical"`
	Probability struct {
		Lower float64 `yaml:"lower"`
		Upper float64 `yaml:"upper"`
	} `yaml:"probability"`
	LLM struct {
		Provider       string  `yaml:"provider"`
		Model          string  `yaml:"model"`
		BaseURL        string  `yaml:"base_url"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float32 `yaml:"temperature"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxAttempts    int     `yaml:"max_attempts"`
		APIKey         string  `yaml:"-"`
	} `yaml:"llm"`
	Paper struct {
		StartPrice   float64 `yaml:"start_price"`
		BaseBalance  float64 `yaml:"base_balance"`
		QuoteBalance float64 `yaml:"quote_balance"`
		Volatility   float64 `yaml:"volatility"`
		Seed         int64   `yaml:"seed"`
	} `yaml:"paper"`
	Zerodha struct {
		Exchange    string `yaml:"exchange"`
		Product     string `yaml:"product"`
		APIKey      string `yaml:"-"`
		AccessToken string `yaml:"-"`
	} `yaml:"zerodha"`
	Alpaca struct {
		APIKey    string `yaml:"-"`
		APISecret string `yaml:"-"`
	} `yaml:"-"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Telegram struct {
		Enabled    bool   `yaml:"enabled"`
		MaxRetries int    `yaml:"max_retries"`
		BotToken   string `yaml:"-"`
		ChatID     string `yaml:"-"`
	} `yaml:"telegram"`
}

// TradingPair returns the parsed pair. Validate guarantees it parses.
func (c *Config) TradingPair() types.Pair {
	p, _ := types.ParsePair(c.Pair)
	return p
}

// BarTimeframe returns the parsed timeframe. Validate guarantees it parses.
func (c *Config) BarTimeframe() types.Timeframe {
	tf, _ := types.ParseTimeframe(c.Timeframe)
	return tf
}

// Premium is the fractional markup applied to mid price: fees plus margin.
func (c *Config) Premium() float64 {
	return c.Fee + c.PremiumOverFee
}

func (c *Config) BaseSleep() time.Duration {
	return time.Duration(c.BaseSleepSeconds) * time.Second
}

func (c *Config) BackoffSleep() time.Duration {
	return time.Duration(c.BackoffSleepSeconds) * time.Second
}

// DefaultBaseSleepSeconds is min(max(window/2, cancelLimit), 5) minutes.
func DefaultBaseSleepSeconds(windowLength, cancelLimit int) int {
	return min(max(windowLength/2, cancelLimit), 5) * 60
}

func (c *Config) Validate() error {
	if _, err := types.ParsePair(c.Pair); err != nil {
		return err
	}
	if _, err := types.ParseTimeframe(c.Timeframe); err != nil {
		return err
	}
	if c.WindowLength < 1 {
		return fmt.Errorf("window_length must be >= 1, got %d", c.WindowLength)
	}
	if c.Trust < 0 || c.Trust > 1 {
		return fmt.Errorf("trust must be between 0 and 1, got %.4f", c.Trust)
	}
	if c.Fee < 0 || c.PremiumOverFee < 0 {
		return errors.New("fee and premium_over_fee must be non-negative")
	}
	if c.MinNotional < 0 {
		return fmt.Errorf("min_notional must be non-negative, got %.4f", c.MinNotional)
	}
	if c.CancelLimit < 1 {
		return fmt.Errorf("cancel_limit must be >= 1, got %d", c.CancelLimit)
	}
	if c.RetryLimit < 1 {
		return fmt.Errorf("retry_limit must be >= 1, got %d", c.RetryLimit)
	}
	if c.Technical.SignalLag < 1 {
		return fmt.Errorf("technical.signal_lag must be >= 1, got %d", c.Technical.SignalLag)
	}
	return nil
}

// NormalizeBounds resets probability bounds to 20/80 unless 0 <= lower <= upper <= 100.
// It reports whether a fallback happened.
func (c *Config) NormalizeBounds() bool {
	lo, up := c.Probability.Lower, c.Probability.Upper
	if 0 <= lo && lo <= up && up <= 100 {
		return false
	}
	c.Probability.Lower = DefaultLowerProb
	c.Probability.Upper = DefaultUpperProb
	return true
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

// ParseConfig unmarshals YAML, applies defaults and env secrets, then validates.
func ParseConfig(b []byte) (*Config, error) {
	var c Config
	// Unset bounds are distinguishable from an explicit 0
	c.Probability.Lower = DefaultLowerProb
	c.Probability.Upper = DefaultUpperProb
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)
	applyEnv(&c)
	c.NormalizeBounds()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Venue == "" {
		c.Venue = "paper"
	}
	if c.Timeframe == "" {
		c.Timeframe = "1m"
	}
	if c.WindowLength == 0 {
		c.WindowLength = 20
	}
	if c.CancelLimit == 0 {
		c.CancelLimit = 3
	}
	if c.RetryLimit == 0 {
		c.RetryLimit = 4
	}
	if c.BaseSleepSeconds == 0 {
		c.BaseSleepSeconds = DefaultBaseSleepSeconds(c.WindowLength, c.CancelLimit)
	}
	if c.BackoffSleepSeconds == 0 {
		c.BackoffSleepSeconds = c.BaseSleepSeconds * c.RetryLimit
	}
	if c.Strategy == "" {
		c.Strategy = "technical"
	}
	if c.Technical.PriceColumn == "" {
		c.Technical.PriceColumn = "close"
	}
	if c.Technical.SignalLag == 0 {
		c.Technical.SignalLag = 1
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "NONE"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4000
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.5
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if c.LLM.MaxAttempts == 0 {
		c.LLM.MaxAttempts = 1
	}
	if c.Paper.StartPrice == 0 {
		c.Paper.StartPrice = 100
	}
	if c.Paper.QuoteBalance == 0 && c.Paper.BaseBalance == 0 {
		c.Paper.QuoteBalance = 1000
	}
	if c.Paper.Volatility == 0 {
		c.Paper.Volatility = 0.01
	}
	if c.Zerodha.Exchange == "" {
		c.Zerodha.Exchange = "NSE"
	}
	if c.Zerodha.Product == "" {
		c.Zerodha.Product = "CNC"
	}
	if c.Telegram.MaxRetries == 0 {
		c.Telegram.MaxRetries = 3
	}
}

// applyEnv pulls credentials from the environment so they never live in YAML.
func applyEnv(c *Config) {
	c.Alpaca.APIKey = os.Getenv("ALPACA_API_KEY")
	c.Alpaca.APISecret = os.Getenv("ALPACA_API_SECRET")
	c.Zerodha.APIKey = os.Getenv("KITE_API_KEY")
	c.Zerodha.AccessToken = os.Getenv("KITE_ACCESS_TOKEN")
	c.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	c.Telegram.ChatID = os.Getenv("TELEGRAM_CHAT_ID")

	switch c.LLM.Provider {
	case "GROQ":
		c.LLM.APIKey = os.Getenv("GROQ_API_KEY")
	case "OPENAI":
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "CLAUDE":
		c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}
