package session

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// credentialRecord — строка key/value-таблицы сессии.
type credentialRecord struct {
	Name      string `gorm:"primaryKey;size:32"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (credentialRecord) TableName() string { return "session_credentials" }

type sqliteStore struct {
	db *gorm.DB
}

// OpenSQLite открывает SQLite-базу по DSN без SQL-логов gorm и с одним коннектом.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	const op = "session.OpenSQLite"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// SQLite сериализует запись; один коннект исключает SQLITE_BUSY между своими же запросами.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// NewSQLite создаёт хранилище поверх gorm-коннекта и мигрирует таблицу.
func NewSQLite(db *gorm.DB) (Store, error) {
	const op = "session.NewSQLite"

	if db == nil {
		return nil, fmt.Errorf("%s: sqlite store requires database handle", op)
	}

	if err := db.AutoMigrate(&credentialRecord{}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(ctx context.Context) (Credentials, error) {
	const op = "session.sqlite.Get"

	var recs []credentialRecord
	err := s.db.WithContext(ctx).
		Where("name IN ?", []string{KeyAccessToken, KeyRefreshToken}).
		Find(&recs).Error
	if err != nil {
		return Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	var c Credentials
	for _, r := range recs {
		switch r.Name {
		case KeyAccessToken:
			c.AccessToken = r.Value
		case KeyRefreshToken:
			c.RefreshToken = r.Value
		}
	}

	return c, nil
}

// Set выполняет upsert обоих ключей в одной транзакции.
func (s *sqliteStore) Set(ctx context.Context, c Credentials) error {
	const op = "session.sqlite.Set"

	now := time.Now().UTC()
	recs := []credentialRecord{
		{Name: KeyAccessToken, Value: c.AccessToken, UpdatedAt: now},
		{Name: KeyRefreshToken, Value: c.RefreshToken, UpdatedAt: now},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&recs).Error
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *sqliteStore) Clear(ctx context.Context) error {
	const op = "session.sqlite.Clear"

	err := s.db.WithContext(ctx).
		Where("name IN ?", []string{KeyAccessToken, KeyRefreshToken}).
		Delete(&credentialRecord{}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
