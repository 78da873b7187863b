package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-finance-ledger/pkg/database"
)

// DriverMemory 不連資料庫，帳本與 session 都放在記憶體
const DriverMemory = "memory"

type Config struct {
	HTTP     ServerConfig    `yaml:"http"`
	GRPC     ServerConfig    `yaml:"grpc"`
	Database database.Config `yaml:"database"`
	Journal  JournalConfig   `yaml:"journal"`
	Log      LogConfig       `yaml:"log"`
	Session  SessionConfig   `yaml:"session"`
}

// ServerConfig Addr 為空時不啟動該服務
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// JournalConfig Path 為空時不寫稽核紀錄
type JournalConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | text
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// Load 依序讀取 YAML 檔、.env 與 LEDGER_* 環境變數，後者覆蓋前者
//
// 參數:
//
//	path: YAML 檔路徑，檔案不存在時只使用預設值與環境變數
//
// 回傳值:
//
//	*Config: 補全預設值後的配置
//	error: 檔案存在但無法解析
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("config file not found, using defaults", "path", path)
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// .env 在正式環境可能不存在
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.HTTP.Addr = getEnv("LEDGER_HTTP_ADDR", c.HTTP.Addr)
	c.GRPC.Addr = getEnv("LEDGER_GRPC_ADDR", c.GRPC.Addr)

	db := &c.Database
	db.Driver = getEnv("LEDGER_DB_DRIVER", db.Driver)
	db.Host = getEnv("LEDGER_DB_HOST", db.Host)
	db.User = getEnv("LEDGER_DB_USER", db.User)
	db.Password = getEnv("LEDGER_DB_PASSWORD", db.Password)
	db.DBName = getEnv("LEDGER_DB_NAME", db.DBName)
	db.Path = getEnv("LEDGER_DB_PATH", db.Path)
	db.SSLMode = getEnv("LEDGER_DB_SSLMODE", db.SSLMode)
	db.LogLevel = getEnv("LEDGER_DB_LOG_LEVEL", db.LogLevel)
	if v, ok := os.LookupEnv("LEDGER_DB_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LEDGER_DB_PORT: %w", err)
		}
		db.Port = port
	}

	c.Journal.Path = getEnv("LEDGER_JOURNAL_PATH", c.Journal.Path)
	c.Log.Level = getEnv("LEDGER_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LEDGER_LOG_FORMAT", c.Log.Format)
	if v, ok := os.LookupEnv("LEDGER_SESSION_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LEDGER_SESSION_TTL: %w", err)
		}
		c.Session.TTL = ttl
	}
	return nil
}

// applyDefaults 補全 yaml 與環境變數都沒寫的欄位
func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" && c.GRPC.Addr == "" {
		c.HTTP.Addr = ":8080"
		c.GRPC.Addr = ":50051"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = database.DriverSQLite
	}
	if c.Database.Driver == database.DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "ledger.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 30 * 24 * time.Hour
	}
}

// Logger 依 LogConfig 建立 slog.Logger
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(l.Format) == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// getEnv 讀取環境變數，不存在時回傳 fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
