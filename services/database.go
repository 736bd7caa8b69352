package services

import (
	"fmt"
	"log"
	"time"

	"wms-core/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase - 설정에 따라 MySQL 또는 SQLite 연결 후 마이그레이션.
// driver 가 "none" 이면 nil 을 돌려준다 (메모리 감사 저장소 사용).
func OpenDatabase(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "", "none":
		return nil, nil
	case "mysql":
		if cfg.MySQL.Host == "" || cfg.MySQL.User == "" || cfg.MySQL.Password == "" || cfg.MySQL.Database == "" {
			return nil, fmt.Errorf("MySQL 환경 변수가 모두 설정되지 않았습니다: MYSQL_HOST, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE")
		}
		dialector = mysql.Open(cfg.MySQL.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("DB 연결 실패: %w", err)
	}

	// AutoMigrate - 테이블 자동 생성
	if err := db.AutoMigrate(&models.AuditRecord{}); err != nil {
		return nil, fmt.Errorf("마이그레이션 실패: %w", err)
	}

	if cfg.DBDriver == "mysql" {
		log.Println("✅ MySQL 연결 및 마이그레이션 완료")
		log.Printf("📡 연결 정보: %s@%s:%d/%s", cfg.MySQL.User, cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.Database)
	} else {
		log.Printf("✅ SQLite 연결 및 마이그레이션 완료 (%s)", cfg.SQLitePath)
	}
	return db, nil
}

// GormAuditStore - gorm 기반 감사 저장소
type GormAuditStore struct {
	db *gorm.DB
}

// NewGormAuditStore wraps an opened, migrated database.
func NewGormAuditStore(db *gorm.DB) *GormAuditStore {
	return &GormAuditStore{db: db}
}

// WriteBatch - 일괄 저장
func (s *GormAuditStore) WriteBatch(records []models.AuditRecord) error {
	return s.db.CreateInBatches(records, 100).Error
}

// Recent - 최근 레코드 조회
func (s *GormAuditStore) Recent(limit int) ([]models.AuditRecord, error) {
	var records []models.AuditRecord
	query := s.db.Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

// ByAction - 액션별 레코드 조회
func (s *GormAuditStore) ByAction(action string, limit int) ([]models.AuditRecord, error) {
	var records []models.AuditRecord
	query := s.db.Where("action = ?", action).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

// Between - 시간 범위로 레코드 조회
func (s *GormAuditStore) Between(start, end time.Time, limit int) ([]models.AuditRecord, error) {
	var records []models.AuditRecord
	query := s.db.Where("created_at BETWEEN ? AND ?", start, end)

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("created_at DESC, id DESC").Find(&records).Error
	return records, err
}

// Stats - 감사 로그 통계
func (s *GormAuditStore) Stats(hours int) (models.AuditStats, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	stats := models.AuditStats{
		ActionCounts: make(map[string]int64),
		TimeRange:    fmt.Sprintf("Last %d hours", hours),
	}
	if err := s.db.Model(&models.AuditRecord{}).
		Where("created_at >= ?", since).
		Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	// 액션별 카운트
	var counts []struct {
		Action string
		Count  int64
	}
	if err := s.db.Model(&models.AuditRecord{}).
		Select("action, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("action").
		Scan(&counts).Error; err != nil {
		return stats, err
	}
	for _, c := range counts {
		stats.ActionCounts[c.Action] = c.Count
	}
	return stats, nil
}
