package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("sample", pflag.ContinueOnError)
	fs.String("rpc", "", "")
	fs.String("pair", "", "")
	fs.Bool("one-shot", false, "")
	fs.Int("interval", 5, "")
	fs.Int("offset", 250, "")
	fs.Int("workers", 0, "")
	fs.Float64("min-price", 0, "")
	fs.Float64("max-price", 0, "")
	fs.Uint("bin-step", 0, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Interval)
	assert.Equal(t, 250, cfg.Offset)
	assert.Equal(t, 1, cfg.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Tick)
	assert.Equal(t, 15*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, "./outputs", cfg.OutDir)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lbscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rpc: http://file\noffset: 100\nmax-price: 40\ninterval: 15\n"), 0o644))

	t.Setenv("LBSCOPE_OFFSET", "120")
	t.Setenv("LBSCOPE_PAIR", " 0xD446eb1660F766d533BeCeEf890Df7A69d26f7d1 ")

	flags := sampleFlags()
	require.NoError(t, flags.Parse([]string{"--interval=30", "--min-price=10"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "http://file", cfg.RPCURL)
	assert.Equal(t, 120, cfg.Offset, "env beats file")
	assert.Equal(t, 30, cfg.Interval, "flag beats file")
	assert.Equal(t, "0xD446eb1660F766d533BeCeEf890Df7A69d26f7d1", cfg.Pair)
	assert.Equal(t, 10.0, cfg.MinPrice)
	assert.Equal(t, 40.0, cfg.MaxPrice)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := SampleConfig{
		RPCURL:    "http://localhost:8545",
		Pair:      "0xD446eb1660F766d533BeCeEf890Df7A69d26f7d1",
		Interval:  5,
		Offset:    250,
		BatchSize: 1,
		OutDir:    "./outputs",
	}
	require.NoError(t, base.Validate())

	cases := map[string]func(*SampleConfig){
		"no rpc":          func(c *SampleConfig) { c.RPCURL = "" },
		"no pair":         func(c *SampleConfig) { c.Pair = "" },
		"zero offset":     func(c *SampleConfig) { c.Offset = 0 },
		"zero interval":   func(c *SampleConfig) { c.Interval = 0 },
		"long interval":   func(c *SampleConfig) { c.Interval = 61 },
		"negative worker": func(c *SampleConfig) { c.Workers = -1 },
		"zero batch":      func(c *SampleConfig) { c.BatchSize = 0 },
		"inverted window": func(c *SampleConfig) { c.MinPrice, c.MaxPrice = 20, 10 },
		"negative retry":  func(c *SampleConfig) { c.MaxRetries = -1 },
		"negative rate":   func(c *SampleConfig) { c.RPCRate = -1 },
		"no out dir":      func(c *SampleConfig) { c.OutDir = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	oneShot := base
	oneShot.OneShot = true
	oneShot.Interval = 0
	assert.NoError(t, oneShot.Validate(), "interval is unused in one-shot mode")
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1700000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000), ts)

	ts, err = ParseTimestamp("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000), ts)

	ts, err = ParseTimestamp("  ")
	require.NoError(t, err)
	assert.Zero(t, ts)

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestTimeWindowDefaults(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	from, to, err := TimeWindow("", "", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000), to)
	assert.Equal(t, int64(1_700_000_000-7*24*3600), from)

	from, to, err = TimeWindow("100", "200", now)
	require.NoError(t, err)
	assert.Equal(t, int64(100), from)
	assert.Equal(t, int64(200), to)
}
