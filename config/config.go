package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/chinmay1088/bucks/log"
)

const (
	envPrefix = "BUCKS"

	defaultPricesURL     = "https://api.g.alchemy.com/prices/v1"
	defaultInfuraURL     = "https://mainnet.infura.io/v3"
	defaultTronGridURL   = "https://api.trongrid.io"
	defaultBridgeURL     = "https://bridge.walletconnect.org"
	defaultServerAddr    = "127.0.0.1:8420"
	defaultHTTPTimeout   = 30 * time.Second
	defaultPriceTTL      = time.Minute
	defaultTronFeeLimit  = 30_000_000 // 30 TRX, in sun
	defaultIdleDuration  = 15 * time.Minute
	defaultHistoryLength = 5
)

type Alchemy struct {
	APIKey    string `mapstructure:"apiKey"`
	PricesURL string `mapstructure:"pricesUrl"`
}

func (a *Alchemy) Validate() error {
	if a.APIKey == "" {
		return errors.New("you must provide an alchemy api key (ALCHEMY_API_KEY)")
	}
	if a.PricesURL == "" {
		return errors.New("you must provide the alchemy prices url")
	}
	return nil
}

type Infura struct {
	APIKey string `mapstructure:"apiKey"`
	URL    string `mapstructure:"url"`
}

// Endpoint returns the keyed Infura JSON-RPC URL.
func (i *Infura) Endpoint() string {
	return strings.TrimRight(i.URL, "/") + "/" + i.APIKey
}

func (i *Infura) Validate() error {
	if i.APIKey == "" {
		return errors.New("you must provide an infura api key (INFURA_API_KEY) to use walletconnect")
	}
	return nil
}

type TronGrid struct {
	URL      string `mapstructure:"url"`
	APIKey   string `mapstructure:"apiKey"`
	FeeLimit int64  `mapstructure:"feeLimit"`
}

func (t *TronGrid) Validate() error {
	if t.URL == "" {
		return errors.New("you must provide the trongrid url")
	}
	if t.FeeLimit <= 0 {
		return errors.New("trongrid fee limit must be positive")
	}
	return nil
}

type WalletConnect struct {
	Bridge string `mapstructure:"bridge"`
}

type HTTP struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type Cache struct {
	PriceTTL time.Duration `mapstructure:"priceTtl"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
	// Token is the API bearer token; a fresh one is generated per run when
	// empty.
	Token          string   `mapstructure:"token"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type Journal struct {
	Path string `mapstructure:"path"`
}

type Session struct {
	IdleDuration time.Duration `mapstructure:"idleDuration"`
}

type History struct {
	MaxCount int `mapstructure:"maxCount"`
}

type Config struct {
	DataDir       string            `mapstructure:"dataDir"`
	Logging       log.Config        `mapstructure:"log"`
	Alchemy       Alchemy           `mapstructure:"alchemy"`
	Infura        Infura            `mapstructure:"infura"`
	TronGrid      TronGrid          `mapstructure:"tronGrid"`
	WalletConnect WalletConnect     `mapstructure:"walletConnect"`
	RPC           map[string]string `mapstructure:"rpc"`
	HTTP          HTTP              `mapstructure:"http"`
	Cache         Cache             `mapstructure:"cache"`
	Server        Server            `mapstructure:"server"`
	Journal       Journal           `mapstructure:"journal"`
	Session       Session           `mapstructure:"session"`
	History       History           `mapstructure:"history"`
}

// DefaultDataDir is ~/.bucks, or ./.bucks when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bucks"
	}
	return filepath.Join(home, ".bucks")
}

// Load reads the optional config file at path (an empty path means
// <dataDir>/config.yaml), .env files and the environment.
func Load(path string) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(DefaultDataDir(), ".env"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if path == "" {
		path = filepath.Join(v.GetString("dataDir"), "config.yaml")
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Journal.Path == "" {
		cfg.Journal.Path = filepath.Join(cfg.DataDir, "journal.db")
	}
	if cfg.RPC == nil {
		cfg.RPC = map[string]string{}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataDir", DefaultDataDir())
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.disableStacktrace", true)
	v.SetDefault("alchemy.pricesUrl", defaultPricesURL)
	v.SetDefault("infura.url", defaultInfuraURL)
	v.SetDefault("tronGrid.url", defaultTronGridURL)
	v.SetDefault("tronGrid.feeLimit", defaultTronFeeLimit)
	v.SetDefault("walletConnect.bridge", defaultBridgeURL)
	v.SetDefault("http.timeout", defaultHTTPTimeout)
	v.SetDefault("cache.priceTtl", defaultPriceTTL)
	v.SetDefault("server.addr", defaultServerAddr)
	v.SetDefault("session.idleDuration", defaultIdleDuration)
	v.SetDefault("history.maxCount", defaultHistoryLength)
}

// bindEnv maps the conventional provider variables next to the BUCKS_ ones.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("alchemy.apiKey", "BUCKS_ALCHEMY_APIKEY", "ALCHEMY_API_KEY")
	_ = v.BindEnv("infura.apiKey", "BUCKS_INFURA_APIKEY", "INFURA_API_KEY")
	_ = v.BindEnv("tronGrid.apiKey", "BUCKS_TRONGRID_APIKEY", "TRONGRID_API_KEY")
	_ = v.BindEnv("dataDir", "BUCKS_DATADIR")
	_ = v.BindEnv("server.token", "BUCKS_SERVER_TOKEN")
}
