package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type (
	Config struct {
		// User is the local identity name, the sender label on outbound
		// messages.
		User  string `mapstructure:"user"`
		Debug bool   `mapstructure:"debug"`

		Store StoreConfig `mapstructure:"store"`
		Tor   TorConfig   `mapstructure:"tor"`
		Pool  PoolConfig  `mapstructure:"pool"`
		Feed  FeedConfig  `mapstructure:"feed"`
	}

	StoreConfig struct {
		// Backend selects "mongo" or "memory". The memory backend keeps
		// nothing across restarts; it exists for trying the tool out.
		Backend  string `mapstructure:"backend"`
		MongoURI string `mapstructure:"mongo_uri"`
		Database string `mapstructure:"database"`
		// RedisAddr carries store-update events between processes; empty
		// falls back to the in-process notifier.
		RedisAddr string `mapstructure:"redis_addr"`
	}

	TorConfig struct {
		DataDir     string        `mapstructure:"data_dir"`
		Port        int           `mapstructure:"port"`
		Verbose     bool          `mapstructure:"verbose"`
		SendTimeout time.Duration `mapstructure:"send_timeout"`
	}

	PoolConfig struct {
		Workers     int           `mapstructure:"workers"`
		QueueSize   int           `mapstructure:"queue_size"`
		TaskTimeout time.Duration `mapstructure:"task_timeout"`
	}

	FeedConfig struct {
		// Listen is the local-only address of the websocket feed.
		Listen string `mapstructure:"listen"`
	}
)

// Load reads configuration from defaults, an optional config file and
// command-line flags, in ascending precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindFlags(v)

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("onion_chat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.onion_chat")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("store.backend", "mongo")
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.database", "onion_chat")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("tor.data_dir", "")
	v.SetDefault("tor.port", 80)
	v.SetDefault("tor.verbose", false)
	v.SetDefault("tor.send_timeout", 45*time.Second)
	v.SetDefault("pool.workers", 8)
	v.SetDefault("pool.queue_size", 64)
	v.SetDefault("pool.task_timeout", 60*time.Second)
	v.SetDefault("feed.listen", "localhost:9091")
}

func bindFlags(v *viper.Viper) {
	pflag.String("user", "", "Your identity name (required)")
	pflag.Bool("debug", false, "Enable debug logging")
	pflag.String("config", "", "Path to config file")
	pflag.String("store-backend", "mongo", "Store backend: mongo or memory")
	pflag.Parse()

	v.BindPFlag("user", pflag.Lookup("user"))
	v.BindPFlag("debug", pflag.Lookup("debug"))
	v.BindPFlag("config", pflag.Lookup("config"))
	v.BindPFlag("store.backend", pflag.Lookup("store-backend"))
}

func validate(cfg *Config) error {
	if cfg.User == "" {
		return fmt.Errorf("user is required")
	}
	if cfg.Store.Backend != "mongo" && cfg.Store.Backend != "memory" {
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if cfg.Tor.Port <= 0 || cfg.Tor.Port > 65535 {
		return fmt.Errorf("tor port %d out of range", cfg.Tor.Port)
	}
	return nil
}
