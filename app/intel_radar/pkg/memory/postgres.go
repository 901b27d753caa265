package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// Postgres 基于 Postgres 的长期记忆存储
type Postgres struct {
	db *sql.DB
}

// NewPostgres 初始化记忆表并返回存储实例
func NewPostgres(db *sql.DB) (*Postgres, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS memory_entries (
		id SERIAL PRIMARY KEY,
		organization TEXT NOT NULL,
		analysis_type TEXT NOT NULL,
		personas TEXT,
		content TEXT,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to init memory table: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Save 追加一条记忆
func (s *Postgres) Save(ctx context.Context, e *Entry) error {
	var meta strings.Builder
	for k, v := range e.Metadata {
		fmt.Fprintf(&meta, "%s=%s;", k, v)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_entries (organization, analysis_type, personas, content, metadata)
		VALUES ($1, $2, $3, $4, $5)`,
		e.Organization, e.AnalysisType, strings.Join(e.Personas, ","), e.Content, meta.String())
	return err
}
