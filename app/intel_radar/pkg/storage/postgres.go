package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/config"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
)

type Storage struct {
	db *sql.DB
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// DB 暴露底层连接供共用（如记忆存储）
func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS intel_runs (
			id SERIAL PRIMARY KEY,
			organization TEXT NOT NULL,
			analysis_type TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS intelligence_reports (
			id SERIAL PRIMARY KEY,
			run_id INTEGER REFERENCES intel_runs(id),
			organization TEXT NOT NULL,
			analysis_type TEXT,
			executive_summary TEXT,
			confidence DOUBLE PRECISION,
			persona_results TEXT,
			synthesis TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS intelligence_insights (
			id SERIAL PRIMARY KEY,
			report_id INTEGER REFERENCES intelligence_reports(id),
			kind TEXT NOT NULL,
			content TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS opportunities (
			id TEXT PRIMARY KEY,
			run_id INTEGER REFERENCES intel_runs(id),
			organization TEXT NOT NULL,
			title TEXT,
			description TEXT,
			opportunity_type TEXT,
			persona_id TEXT,
			persona_name TEXT,
			urgency TEXT,
			time_window TEXT,
			expires_at TIMESTAMP,
			source_insights TEXT,
			expected_impact TEXT,
			confidence DOUBLE PRECISION,
			confidence_factors TEXT,
			risks TEXT,
			score DOUBLE PRECISION,
			status TEXT DEFAULT 'new',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS action_items (
			id SERIAL PRIMARY KEY,
			opportunity_id TEXT REFERENCES opportunities(id),
			step INTEGER,
			action TEXT,
			owner TEXT,
			deadline TIMESTAMP,
			success_metric TEXT
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}

// CreateRun 创建一条运行记录
func (s *Storage) CreateRun(organization, analysisType string) (int, error) {
	var id int
	err := s.db.QueryRow(`
		INSERT INTO intel_runs (organization, analysis_type)
		VALUES ($1, $2)
		RETURNING id`, organization, analysisType).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SaveIntelligence 持久化一份合并情报
func (s *Storage) SaveIntelligence(runID int, ci *model.CombinedIntelligence) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	personaResults, _ := json.Marshal(ci.PersonaResults)
	var synthesis []byte
	if ci.Synthesis != nil {
		synthesis, _ = json.Marshal(ci.Synthesis)
	}

	var reportID int
	err = tx.QueryRow(`
		INSERT INTO intelligence_reports (run_id, organization, analysis_type, executive_summary, confidence, persona_results, synthesis)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		runID, ci.Organization, ci.AnalysisType, cleanText(ci.ExecutiveSummary),
		ci.Confidence, cleanText(string(personaResults)), cleanText(string(synthesis))).Scan(&reportID)
	if err != nil {
		return err
	}

	for _, ins := range ci.KeyInsights {
		if _, err := tx.Exec(`
			INSERT INTO intelligence_insights (report_id, kind, content)
			VALUES ($1, 'insight', $2)`, reportID, cleanText(ins)); err != nil {
			return err
		}
	}
	for _, rec := range ci.Recommendations {
		if _, err := tx.Exec(`
			INSERT INTO intelligence_insights (report_id, kind, content)
			VALUES ($1, 'recommendation', $2)`, reportID, cleanText(rec)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveOpportunities 持久化一批机会及其行动项
func (s *Storage) SaveOpportunities(runID int, opps []*model.Opportunity) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, opp := range opps {
		sourceInsights, _ := json.Marshal(opp.SourceInsights)
		expectedImpact, _ := json.Marshal(opp.ExpectedImpact)

		_, err := tx.Exec(`
			INSERT INTO opportunities (id, run_id, organization, title, description, opportunity_type,
				persona_id, persona_name, urgency, time_window, expires_at, source_insights,
				expected_impact, confidence, confidence_factors, risks, score, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
			opp.ID, runID, opp.Organization, cleanText(opp.Title), cleanText(opp.Description),
			string(opp.Type), opp.PersonaID, opp.PersonaName, string(opp.Urgency), opp.Window,
			opp.ExpiresAt, string(sourceInsights), string(expectedImpact), opp.Confidence,
			strings.Join(opp.ConfidenceFactors, "\n"), strings.Join(opp.Risks, "\n"),
			opp.Score, opp.Status, opp.CreatedAt)
		if err != nil {
			return err
		}

		for _, item := range opp.ActionItems {
			if _, err := tx.Exec(`
				INSERT INTO action_items (opportunity_id, step, action, owner, deadline, success_metric)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				opp.ID, item.Step, cleanText(item.Action), item.Owner, item.Deadline, item.SuccessMetric); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// UpdateOpportunityStatus 状态流转由外部消费方触发
func (s *Storage) UpdateOpportunityStatus(id, status string) error {
	res, err := s.db.Exec(`UPDATE opportunities SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("opportunity %s not found", id)
	}
	return nil
}

// cleanText 移除无效 UTF-8 与 NULL 字符，PostgreSQL 文本字段不支持 NULL 字节
func cleanText(content string) string {
	if !utf8.ValidString(content) {
		v := make([]rune, 0, len(content))
		for _, r := range content {
			if r == utf8.RuneError {
				continue
			}
			v = append(v, r)
		}
		content = string(v)
	}
	return strings.ReplaceAll(content, "\x00", "")
}
