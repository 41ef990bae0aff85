package internal

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "NOVAPOOL"

type NovaPoolConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		Workdir         string `mapstructure:"workdir"`
		Base            string `mapstructure:"base"`
		PagesPerSegment int32  `mapstructure:"pages_per_segment"`
	} `mapstructure:"storage"`

	BufferPool struct {
		Frames         int    `mapstructure:"frames"`
		Policy         string `mapstructure:"policy"`
		ReferenceOnHit bool   `mapstructure:"reference_on_hit"`
	} `mapstructure:"buffer_pool"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "novapool")
	v.SetDefault("storage.workdir", "./data")
	v.SetDefault("storage.base", "pages")
	v.SetDefault("storage.pages_per_segment", 0)
	v.SetDefault("buffer_pool.frames", 128)
	v.SetDefault("buffer_pool.policy", "clock")
	v.SetDefault("buffer_pool.reference_on_hit", true)
	v.SetDefault("log.level", "info")
}

// LoadConfig reads path (if any), then NOVAPOOL_* env vars, then any flags
// that were set explicitly. Later sources win.
func LoadConfig(path string, flags *pflag.FlagSet) (*NovaPoolConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg NovaPoolConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.BufferPool.Frames <= 0 {
		return nil, fmt.Errorf("config: buffer_pool.frames must be positive, got %d", cfg.BufferPool.Frames)
	}
	if _, err := cfg.LogLevel(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// flag name -> config key
var flagKeys = map[string]string{
	"workdir":   "storage.workdir",
	"frames":    "buffer_pool.frames",
	"policy":    "buffer_pool.policy",
	"log-level": "log.level",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func (c *NovaPoolConfig) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return lvl, nil
}
