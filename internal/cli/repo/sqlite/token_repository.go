package sqlite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"DocPlatform/internal/cli/model"
	"DocPlatform/internal/cli/repo"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// sessionRowID — в таблице хранится единственная строка текущей сессии.
const sessionRowID = 1

// TokenRow — строка таблицы auth_tokens.
type TokenRow struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false"`
	Access    string `gorm:"not null"`
	Refresh   string `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName задаёт имя таблицы.
func (TokenRow) TableName() string { return "auth_tokens" }

// TokenRepository — TokenStore поверх gorm (SQLite или Postgres).
type TokenRepository struct {
	db *gorm.DB
}

var _ repo.TokenStore = (*TokenRepository)(nil)

// OpenDB открывает БД по DSN: postgres:// и postgresql:// уходят в драйвер Postgres,
// остальное считается путём к файлу SQLite (драйвер modernc).
func OpenDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty token store dsn")
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	path := strings.TrimPrefix(dsn, "sqlite://")
	if !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}
	return gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: path}, cfg)
}

// NewTokenRepository выполняет миграцию и возвращает репозиторий.
func NewTokenRepository(db *gorm.DB) (*TokenRepository, error) {
	if err := db.AutoMigrate(&TokenRow{}); err != nil {
		return nil, fmt.Errorf("migrate auth_tokens: %w", err)
	}
	return &TokenRepository{db: db}, nil
}

// Save заменяет пару одним upsert'ом, поэтому обе колонки меняются вместе.
func (r *TokenRepository) Save(pair model.TokenPair) error {
	if !pair.Complete() {
		return errors.New("incomplete token pair")
	}
	row := &TokenRow{ID: sessionRowID, Access: pair.Access, Refresh: pair.Refresh, UpdatedAt: time.Now().UTC()}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access", "refresh", "updated_at"}),
	}).Create(row).Error
}

// Load возвращает текущую пару или repo.ErrNoTokens.
func (r *TokenRepository) Load() (model.TokenPair, error) {
	var row TokenRow
	err := r.db.First(&row, sessionRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.TokenPair{}, repo.ErrNoTokens
		}
		return model.TokenPair{}, err
	}
	pair := model.TokenPair{Access: row.Access, Refresh: row.Refresh}
	if !pair.Complete() {
		return model.TokenPair{}, repo.ErrNoTokens
	}
	return pair, nil
}

// Clear удаляет строку сессии.
func (r *TokenRepository) Clear() error {
	return r.db.Delete(&TokenRow{}, sessionRowID).Error
}

// Close закрывает соединение с БД.
func (r *TokenRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
