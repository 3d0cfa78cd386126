// Package localstore reads the seeded local SQLite database. It is strictly
// read-only: the one-time seed copy happens at the file level before this
// store is ever opened.
package localstore

import (
	"context"
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"scriptura/pkg/domain"
)

// Store queries the seeded local database.
type Store struct {
	db *gorm.DB
}

type topicRow struct {
	TopicID   string `gorm:"column:topic_id"`
	Name      string `gorm:"column:name"`
	Category  string `gorm:"column:category"`
	SortOrder int    `gorm:"column:sort_order"`
}

func (topicRow) TableName() string { return "topics" }

// Open opens the seeded database at dbPath. The file must already exist;
// the seed bootstrapper is responsible for materializing it first.
func Open(dbPath string) (*Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("local database not materialized: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}
	return &Store{db: db}, nil
}

// TopicsByLanguage returns every seeded topic row for the language. The
// seed schema has no description column; callers synthesize nil. No rows
// is an empty slice, not an error. Row order is not guaranteed; callers
// sort by SortOrder when order matters.
func (s *Store) TopicsByLanguage(ctx context.Context, language string) ([]domain.Topic, error) {
	var rows []topicRow
	if err := s.db.WithContext(ctx).Where("language = ?", language).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	topics := make([]domain.Topic, 0, len(rows))
	for _, r := range rows {
		topics = append(topics, domain.Topic{
			TopicID:   r.TopicID,
			Name:      r.Name,
			Category:  domain.Category(r.Category),
			SortOrder: r.SortOrder,
		})
	}
	return topics, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
