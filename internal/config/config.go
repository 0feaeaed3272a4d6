package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. LBSCOPE_PAIR.
const EnvPrefix = "LBSCOPE"

// SampleConfig holds settings for the sample command.
type SampleConfig struct {
	RPCURL       string
	Pair         string
	OneShot      bool
	Interval     int
	CatchUp      bool
	Tick         time.Duration
	Offset       int
	Workers      int
	BatchSize    int
	MinPrice     float64
	MaxPrice     float64
	BinStep      uint16
	OutDir       string
	Index        string
	PGDSN        string
	MaxRetries   int
	RetryBackoff time.Duration
	RPCTimeout   time.Duration
	RPCRate      float64
	LogLevel     string
}

// Load merges config file, environment variables, and flags into SampleConfig.
func Load(cfgFile string, flags *pflag.FlagSet) (SampleConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"interval":      5,
		"tick":          250 * time.Millisecond,
		"offset":        250,
		"batch-size":    1,
		"out-dir":       "./outputs",
		"index":         "./outputs/snapshots.jsonl",
		"max-retries":   0,
		"retry-backoff": 500 * time.Millisecond,
		"rpc-timeout":   15 * time.Second,
		"log-level":     "info",
	})
	if err != nil {
		return SampleConfig{}, err
	}

	cfg := SampleConfig{
		RPCURL:       v.GetString("rpc"),
		Pair:         strings.TrimSpace(v.GetString("pair")),
		OneShot:      v.GetBool("one-shot"),
		Interval:     v.GetInt("interval"),
		CatchUp:      v.GetBool("catch-up"),
		Tick:         v.GetDuration("tick"),
		Offset:       v.GetInt("offset"),
		Workers:      v.GetInt("workers"),
		BatchSize:    v.GetInt("batch-size"),
		MinPrice:     v.GetFloat64("min-price"),
		MaxPrice:     v.GetFloat64("max-price"),
		BinStep:      uint16(v.GetUint("bin-step")),
		OutDir:       v.GetString("out-dir"),
		Index:        v.GetString("index"),
		PGDSN:        v.GetString("pg-dsn"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		RPCTimeout:   v.GetDuration("rpc-timeout"),
		RPCRate:      v.GetFloat64("rpc-rate"),
		LogLevel:     v.GetString("log-level"),
	}
	if v.GetUint("bin-step") > 0xffff {
		return SampleConfig{}, fmt.Errorf("bin-step %d out of range", v.GetUint("bin-step"))
	}
	return cfg, nil
}

// Validate checks the values a cycle cannot run without.
func (c SampleConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.Pair == "" {
		return fmt.Errorf("pair address is required")
	}
	if c.Offset < 1 {
		return fmt.Errorf("offset must be at least 1, got %d", c.Offset)
	}
	if !c.OneShot && (c.Interval < 1 || c.Interval > 60) {
		return fmt.Errorf("interval must be between 1 and 60 minutes, got %d", c.Interval)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if c.MaxPrice > 0 && c.MaxPrice <= c.MinPrice {
		return fmt.Errorf("max-price %g must be greater than min-price %g", c.MaxPrice, c.MinPrice)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must not be negative")
	}
	if c.RPCRate < 0 {
		return fmt.Errorf("rpc-rate must not be negative")
	}
	if c.OutDir == "" {
		return fmt.Errorf("out dir is required")
	}
	return nil
}

// RenderConfig holds settings for redrawing a chart from a stored table.
type RenderConfig struct {
	Input     string
	ActiveBin int64
	SymbolX   string
	SymbolY   string
	OutDir    string
	Timestamp string
	LogLevel  string
}

// LoadRender merges config file, environment variables, and flags into RenderConfig.
func LoadRender(cfgFile string, flags *pflag.FlagSet) (RenderConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"symbol-x":  "AVAX",
		"symbol-y":  "USDC",
		"out-dir":   "./outputs",
		"log-level": "info",
	})
	if err != nil {
		return RenderConfig{}, err
	}
	return RenderConfig{
		Input:     v.GetString("in"),
		ActiveBin: v.GetInt64("active-bin"),
		SymbolX:   v.GetString("symbol-x"),
		SymbolY:   v.GetString("symbol-y"),
		OutDir:    v.GetString("out-dir"),
		Timestamp: v.GetString("timestamp"),
		LogLevel:  v.GetString("log-level"),
	}, nil
}

// AnimateConfig holds settings for stitching chart images into a GIF.
type AnimateConfig struct {
	Images   string
	Begin    string
	End      string
	FPS      int
	Out      string
	Stream   bool
	LogLevel string
}

// LoadAnimate merges config file, environment variables, and flags into AnimateConfig.
func LoadAnimate(cfgFile string, flags *pflag.FlagSet) (AnimateConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"images":    "./outputs/images",
		"fps":       10,
		"out":       "./outputs/animation.gif",
		"log-level": "info",
	})
	if err != nil {
		return AnimateConfig{}, err
	}
	return AnimateConfig{
		Images:   v.GetString("images"),
		Begin:    v.GetString("begin"),
		End:      v.GetString("end"),
		FPS:      v.GetInt("fps"),
		Out:      v.GetString("out"),
		Stream:   v.GetBool("stream"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}
