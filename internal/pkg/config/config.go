package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server     Server     `yaml:"server"`
	Logger     Logger     `yaml:"logger"`
	DB         DB         `yaml:"db"`
	Auth       Auth       `yaml:"auth"`
	Google     Google     `yaml:"google"`
	Web        Web        `yaml:"web"`
	RedisCache RedisCache `yaml:"rdb"`
	CORS       CORS       `yaml:"cors"`
	RateLimit  RateLimit  `yaml:"rateLimit"`
}

type Server struct {
	Addr         string        `env:"SERVER_ADDR"  env-default:":4050" yaml:"addr"`
	ReadTimeout  time.Duration `env-default:"10s"  yaml:"readTimeout"`
	IdleTimeout  time.Duration `env-default:"60s"  yaml:"idleTimeout"`
	WriteTimeout time.Duration `env-default:"10s"  yaml:"writeTimeout"`
}

type Logger struct {
	Level     string   `env:"LOG_LEVEL" env-default:"info" yaml:"level"`
	Output    []string `yaml:"output"`
	ErrOutput []string `yaml:"errOutput"`
}

type DB struct {
	Driver   string     `env:"DB_DRIVER" env-default:"sqlite" yaml:"driver"`
	Postgres PostgresDB `yaml:"postgres"`
	SQLite   SQLiteDB   `yaml:"sqlite"`
	Reload   bool       `yaml:"reload"`
	Version  int        `yaml:"version"`
}

type PostgresDB struct {
	Addr     string `env:"POSTGRES_ADDR"     env-default:"localhost:5432" yaml:"addr"`
	Username string `env:"POSTGRES_USER"     yaml:"username"`
	Password string `env:"POSTGRES_PASSWORD" yaml:"password"`
	DB       string `env:"POSTGRES_DB"       yaml:"db"`
	SSLmode  string `env-default:"disable"   yaml:"sslmode"`
	MaxConns string `env-default:"10"        yaml:"maxConns"`
}

type SQLiteDB struct {
	Path string `env:"DATABASE_PATH" env-default:"database.sqlite" yaml:"path"`
}

type Auth struct {
	AccessTTL     time.Duration `env-default:"15m"                       yaml:"accessTTL"`
	RefreshTTL    time.Duration `env-default:"168h"                      yaml:"refreshTTL"`
	AccessSecret  string        `env:"JWT_SECRET"         env-required:"true" yaml:"accessSecret"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET" env-required:"true" yaml:"refreshSecret"`
	CookieDomain  string        `env:"COOKIE_DOMAIN"                     yaml:"cookieDomain"`
	Env           string        `env:"APP_ENV"            env-default:"development" yaml:"env"`
}

var ErrSameSecrets = errors.New("access and refresh secrets must differ")

func (a Auth) Validate() error {
	if a.AccessSecret == a.RefreshSecret {
		return ErrSameSecrets
	}

	return nil
}

func (a Auth) Production() bool {
	return a.Env == "production"
}

type Google struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"     yaml:"clientID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET" yaml:"clientSecret"`
	RedirectURL  string `env:"GOOGLE_CALLBACK_URL"  yaml:"redirectURL"`
}

func (g Google) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type Web struct {
	BaseURL   string `env:"WEB_URL"        env-default:"http://localhost:3000" yaml:"baseURL"`
	Addr      string `env:"WEB_ADDR"       env-default:":3000"                 yaml:"addr"`
	APIURL    string `env:"API_URL"        env-default:"http://localhost:4050" yaml:"apiURL"`
	StaticDir string `env:"WEB_STATIC_DIR" env-default:"web/dist"              yaml:"staticDir"`
}

type RedisCache struct {
	Enabled  bool          `env:"REDIS_ENABLED" yaml:"enabled"`
	Addr     string        `env:"REDIS_ADDR"    env-default:"localhost:6379" yaml:"addr"`
	Password string        `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int           `yaml:"db"`
	ExpTime  time.Duration `env-default:"1m"    yaml:"exp"`
}

type CORS struct {
	AllowedOrigins []string `env:"CORS_ORIGINS" env-default:"http://localhost:3000" yaml:"allowedOrigins"`
}

type RateLimit struct {
	AuthRPS   float64       `env-default:"0.5" yaml:"authRPS"`
	AuthBurst int           `env-default:"10"  yaml:"authBurst"`
	Idle      time.Duration `env-default:"10m" yaml:"idle"`
}

// New loads .env files when present and then reads the yaml config at configPath
// with environment overrides. An empty configPath reads the environment only.
func New(configPath string) (Config, error) {
	for _, p := range []string{".env", "../../.env"} {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s error: %w", p, err)
		}
	}

	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env error: %w", err)
		}
	} else if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config error: %w", err)
	}

	if err := cfg.Auth.Validate(); err != nil {
		return Config{}, fmt.Errorf("auth config error: %w", err)
	}

	return cfg, nil
}
