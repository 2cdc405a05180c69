package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const (
	driverName = "mysql"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// 端末側エンドポイント（ベンダー製ブリッジエージェント）
type DeviceConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Inport    int    `yaml:"inport"` // 識別用の副ポート
	TimeoutMS int    `yaml:"timeout_ms"`
}

type PollerConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds"`
	TailLength      int    `yaml:"tail_length"`
	StagingFile     string `yaml:"staging_file"`
	ReportSeconds   int    `yaml:"report_seconds"` // 0 なら日次集計レポートを起動しない
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Version string         `yaml:"version"`
	Mode    string         `yaml:"mode"`
	DB      DatabaseConfig `yaml:"database"`
	Device  DeviceConfig   `yaml:"device"`
	Poller  PollerConfig   `yaml:"poller"`
	HTTP    HTTPConfig     `yaml:"http"`
}

func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DB.Host == "" {
		c.DB.Host = "localhost"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.Username == "" {
		c.DB.Username = "root"
	}
	if c.DB.DBName == "" {
		c.DB.DBName = "rfid"
	}
	if c.Device.Host == "" {
		c.Device.Host = "192.168.68.201"
	}
	if c.Device.Port == 0 {
		c.Device.Port = 4370
	}
	if c.Device.Inport == 0 {
		c.Device.Inport = 5200
	}
	if c.Device.TimeoutMS == 0 {
		c.Device.TimeoutMS = 50000
	}
	if c.Poller.IntervalSeconds == 0 {
		c.Poller.IntervalSeconds = 5
	}
	if c.Poller.TailLength == 0 {
		c.Poller.TailLength = 5
	}
	if c.Poller.StagingFile == "" {
		c.Poller.StagingFile = "last_attendance_logs.json"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
}

// DB接続情報は環境変数で上書きできる（コンテナ運用向け）
func (c *Config) applyEnv() {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.DB.Host = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.DB.Username = v
	}
	if v, ok := os.LookupEnv("DB_PASSWORD"); ok {
		c.DB.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.DB.DBName = v
	}
}

func Connect(c DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s",
		c.Username, c.Password, c.Host, c.Port, c.DBName)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("接続準備に失敗: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("DB接続に失敗: %w", err)
	}

	// 端末1台・単一プロセス前提なので控えめに
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
