package services

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MySQLConfig - MySQL 접속 정보
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN - go-sql-driver 형식 DSN
func (m MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.User, m.Password, m.Host, m.Port, m.Database)
}

// Config - 프로세스 설정 (환경 변수 / .env)
type Config struct {
	ListenAddr string
	LayoutFile string

	DBDriver   string // mysql | sqlite | none
	MySQL      MySQLConfig
	SQLitePath string

	AuditFlushSize     int
	AuditFlushInterval time.Duration

	TrafficWindow time.Duration // 0 이면 감쇠 없음
	TrafficDecay  float64

	// 0 이면 레이아웃 tuning 값 사용
	CongestionThreshold int

	TaskHistory int // 메모리에 남기는 완료 작업 수

	CORSOrigins string
}

// LoadConfig - .env 로드 후 환경 변수에서 설정 구성
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env 파일을 찾을 수 없습니다.")
	}
	return ConfigFromEnv()
}

// ConfigFromEnv - 환경 변수만으로 설정 구성 (기본값 포함)
func ConfigFromEnv() Config {
	return Config{
		ListenAddr: envString("WMS_LISTEN_ADDR", ":3000"),
		LayoutFile: envString("WMS_LAYOUT_FILE", ""),
		DBDriver:   strings.ToLower(envString("WMS_DB_DRIVER", "none")),
		MySQL: MySQLConfig{
			Host:     os.Getenv("MYSQL_HOST"),
			Port:     envInt("MYSQL_PORT", 3306),
			User:     os.Getenv("MYSQL_USER"),
			Password: os.Getenv("MYSQL_PASSWORD"),
			Database: os.Getenv("MYSQL_DATABASE"),
		},
		SQLitePath:          envString("WMS_SQLITE_PATH", "wms-audit.db"),
		AuditFlushSize:      envInt("WMS_AUDIT_FLUSH_SIZE", 50),
		AuditFlushInterval:  envDuration("WMS_AUDIT_FLUSH_INTERVAL", 10*time.Second),
		TrafficWindow:       envDuration("WMS_TRAFFIC_WINDOW", time.Minute),
		TrafficDecay:        envFloat("WMS_TRAFFIC_DECAY", 0.5),
		CongestionThreshold: envInt("WMS_CONGESTION_THRESHOLD", 0),
		TaskHistory:         envInt("WMS_TASK_HISTORY", DefaultTaskHistory),
		CORSOrigins:         envString("WMS_CORS_ORIGINS", "http://localhost:5173, http://localhost:3000"),
	}
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(envString(key, ""))
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(envString(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

// envDuration - "10s" 형식 또는 초 단위 정수
func envDuration(key string, def time.Duration) time.Duration {
	raw := envString(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("⚠️ %s 값이 올바르지 않습니다: %q (기본값 %v 사용)", key, raw, def)
	return def
}
