package config

import (
	"flag"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL        = "http://localhost:8000/api"
	DefaultLoginURL       = "/auth/login"
	DefaultRequestTimeout = 15 * time.Second
	DefaultRefreshTimeout = 10 * time.Second

	// AppDir — каталог клиента внутри os.UserConfigDir().
	AppDir = "DocPlatform"
)

// Хранилища токенов.
const (
	StoreFS       = "fs"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	BaseURL        string        `env:"API_BASE_URL"`
	LoginURL       string        `env:"LOGIN_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT"`

	TokenStore   string `env:"TOKEN_STORE"`
	TokenFile    string `env:"TOKEN_FILE"`
	TokenKeyFile string `env:"TOKEN_KEY_FILE"`
	TokenDSN     string `env:"TOKEN_DSN"`

	LogLevel string `env:"LOG_LEVEL"`
	Version  bool   `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// значения из env становятся значениями флагов по умолчанию
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the DocPlatform API, e.g. http://localhost:8000/api")
	flag.StringVar(&cfg.LoginURL, "login-url", cfg.LoginURL, "login page shown when the session expires")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "timeout of a single API request")
	flag.DurationVar(&cfg.RefreshTimeout, "refresh-timeout", cfg.RefreshTimeout, "timeout of a token refresh")
	flag.StringVar(&cfg.TokenStore, "token-store", cfg.TokenStore, "token storage: fs, sqlite or postgres")
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to the encrypted token file (fs store)")
	flag.StringVar(&cfg.TokenKeyFile, "token-key", cfg.TokenKeyFile, "path to the token encryption key (fs store)")
	flag.StringVar(&cfg.TokenDSN, "token-dsn", cfg.TokenDSN, "sqlite path or postgres DSN (sqlite/postgres store)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error or off")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	// BaseURL должен быть абсолютным http(s) адресом, иначе используем значение по умолчанию
	if u, err := url.Parse(strings.TrimSpace(cfg.BaseURL)); err != nil ||
		(u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		cfg.BaseURL = DefaultBaseURL
	} else {
		cfg.BaseURL = strings.TrimRight(u.String(), "/")
	}
	if cfg.LoginURL == "" {
		cfg.LoginURL = DefaultLoginURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}

	cfg.TokenStore = strings.ToLower(strings.TrimSpace(cfg.TokenStore))
	switch cfg.TokenStore {
	case StoreFS, StoreSQLite, StorePostgres:
	default:
		cfg.TokenStore = StoreFS
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "off"
	}

	// Fill client defaults if empty
	dir := DefaultDir()
	if cfg.TokenFile == "" {
		cfg.TokenFile = filepath.Join(dir, "tokens.json")
	}
	if cfg.TokenKeyFile == "" {
		cfg.TokenKeyFile = filepath.Join(dir, "token.key")
	}
	if cfg.TokenDSN == "" && cfg.TokenStore != StorePostgres {
		cfg.TokenDSN = filepath.Join(dir, "client.sqlite")
	}
}

// DefaultDir возвращает каталог данных клиента.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = home
	}
	return filepath.Join(base, AppDir)
}
