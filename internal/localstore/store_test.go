package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"scriptura/pkg/domain"
)

// seedTestDB builds a minimal seed database matching the shipped schema:
// topics carry no description column.
func seedTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "content.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	stmts := []string{
		`CREATE TABLE topics (
			topic_id   TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			category   TEXT NOT NULL,
			sort_order INTEGER NOT NULL,
			language   TEXT NOT NULL
		)`,
		`INSERT INTO topics VALUES
			('t1', 'The Exodus', 'EVENT', 1, 'en'),
			('t2', 'The Flood', 'EVENT', 2, 'en'),
			('t3', 'Messiah Foretold', 'PROPHECY', 1, 'en'),
			('t4', 'The Prodigal Son', 'PARABLE', 1, 'en'),
			('t5', 'Covenant', 'THEME', 1, 'en'),
			('t6', 'El Exodo', 'EVENT', 1, 'es')`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("fixture db handle: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close fixture db: %v", err)
	}
	return path
}

func TestOpenRequiresMaterializedDatabase(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Fatalf("expected error for missing database file")
	}
}

func TestTopicsByLanguage(t *testing.T) {
	s, err := Open(seedTestDB(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	topics, err := s.TopicsByLanguage(context.Background(), "en")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(topics) != 5 {
		t.Fatalf("expected 5 english topics, got %d", len(topics))
	}
	byCategory := make(map[domain.Category]int)
	for _, topic := range topics {
		byCategory[topic.Category]++
		if topic.Description != nil {
			t.Fatalf("seed rows carry no description, got %q", *topic.Description)
		}
		if topic.TopicID == "" || topic.Name == "" {
			t.Fatalf("incomplete row: %+v", topic)
		}
	}
	if byCategory[domain.CategoryEvent] != 2 || byCategory[domain.CategoryProphecy] != 1 ||
		byCategory[domain.CategoryParable] != 1 || byCategory[domain.CategoryTheme] != 1 {
		t.Fatalf("unexpected category counts: %v", byCategory)
	}
}

func TestTopicsByLanguageNoMatches(t *testing.T) {
	s, err := Open(seedTestDB(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	topics, err := s.TopicsByLanguage(context.Background(), "fr")
	if err != nil {
		t.Fatalf("no matches must not be an error: %v", err)
	}
	if len(topics) != 0 {
		t.Fatalf("expected empty result, got %d", len(topics))
	}
}
