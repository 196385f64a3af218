// Package config loads settings for the tvmcell command line tool.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/branched-services/go-tvmcell"
)

// Config is the root configuration of the tool.
type Config struct {
	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// BoC controls how cells are printed
	BoC BoCConfig `mapstructure:"boc"`

	// Transfer holds defaults for jetton transfer bodies
	Transfer TransferConfig `mapstructure:"transfer"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	Rotation    RotationConfig `mapstructure:"rotation"`
	Development bool           `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// BoCConfig selects the serialization flags and text encoding of output blobs.
type BoCConfig struct {
	Index    bool   `mapstructure:"index"`
	CRC32C   bool   `mapstructure:"crc32c"`
	Encoding string `mapstructure:"encoding"` // base64 or hex
}

// TransferConfig holds defaults for the transfer command.
type TransferConfig struct {
	// ForwardTonAmount is a decimal amount of whole coins
	ForwardTonAmount string `mapstructure:"forward_ton_amount"`
	QueryID          uint64 `mapstructure:"query_id"`
	// ResponseDestination is used when the flag is omitted
	ResponseDestination string `mapstructure:"response_destination"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "warn",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/tvmcell.log",
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 7,
				Compress:   true,
			},
		},
		BoC: BoCConfig{
			Index:    false,
			CRC32C:   true,
			Encoding: "base64",
		},
		Transfer: TransferConfig{
			ForwardTonAmount: "0.01",
			QueryID:          0,
		},
	}
}

// Load reads configuration from path if non-empty, otherwise from the
// TVMCELL_CONFIG file or a tvmcell.yaml in the usual places. A missing file
// is not an error. Environment variables use the prefix TVMCELL with `.`
// replaced by `_`, e.g. TVMCELL_LOG_LEVEL=debug.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TVMCELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so env-only configs work
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("boc.index", cfg.BoC.Index)
	v.SetDefault("boc.crc32c", cfg.BoC.CRC32C)
	v.SetDefault("boc.encoding", cfg.BoC.Encoding)
	v.SetDefault("transfer.forward_ton_amount", cfg.Transfer.ForwardTonAmount)
	v.SetDefault("transfer.query_id", cfg.Transfer.QueryID)
	v.SetDefault("transfer.response_destination", cfg.Transfer.ResponseDestination)

	if path == "" {
		path = os.Getenv("TVMCELL_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tvmcell")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".tvmcell"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	c.BoC.Encoding = strings.ToLower(strings.TrimSpace(c.BoC.Encoding))
	switch c.BoC.Encoding {
	case "":
		c.BoC.Encoding = "base64"
	case "base64", "hex":
	default:
		return fmt.Errorf("invalid boc.encoding: %q", c.BoC.Encoding)
	}

	if _, err := tvmcell.ParseCoins(c.Transfer.ForwardTonAmount); err != nil {
		return fmt.Errorf("invalid transfer.forward_ton_amount: %w", err)
	}
	if r := c.Transfer.ResponseDestination; r != "" {
		if _, err := tvmcell.ParseAddress(r); err != nil {
			return fmt.Errorf("invalid transfer.response_destination: %w", err)
		}
	}
	return nil
}

// Options returns the serialization options selected by the config.
func (c BoCConfig) Options() []tvmcell.BoCOption {
	return []tvmcell.BoCOption{
		tvmcell.WithIndex(c.Index),
		tvmcell.WithCRC32C(c.CRC32C),
	}
}

// Encode serializes cell and renders it in the configured text encoding.
func (c BoCConfig) Encode(cell *tvmcell.Cell) (string, error) {
	if c.Encoding == "hex" {
		return cell.ToHex(c.Options()...)
	}
	return cell.ToBase64(c.Options()...)
}

// ForwardTon returns the configured forward amount in nanocoins.
func (c TransferConfig) ForwardTon() *big.Int {
	v, err := tvmcell.ParseCoins(c.ForwardTonAmount)
	if err != nil {
		return new(big.Int)
	}
	return v
}
