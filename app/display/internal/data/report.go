package data

import (
	"context"
	"database/sql"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/intel_radar/app/display/internal/biz"
)

type reportRepo struct {
	data *Data
	log  *log.Helper
}

func NewReportRepo(data *Data, logger log.Logger) biz.ReportRepo {
	return &reportRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *reportRepo) ListReports(ctx context.Context, organization string, page, pageSize int) ([]*biz.ReportSummary, int, error) {
	offset := (page - 1) * pageSize

	rows, err := r.data.db.QueryContext(ctx, `
		SELECT ir.id, ir.organization, COALESCE(ir.analysis_type, ''), COALESCE(ir.confidence, 0),
			(SELECT COUNT(*) FROM opportunities o WHERE o.run_id = ir.run_id),
			to_char(ir.created_at, 'YYYY-MM-DD HH24:MI:SS')
		FROM intelligence_reports ir
		WHERE ($1 = '' OR ir.organization = $1)
		ORDER BY ir.created_at DESC
		LIMIT $2 OFFSET $3`, organization, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []*biz.ReportSummary
	for rows.Next() {
		var s biz.ReportSummary
		if err := rows.Scan(&s.ID, &s.Organization, &s.AnalysisType, &s.Confidence,
			&s.OpportunityCount, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.data.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM intelligence_reports
		WHERE ($1 = '' OR organization = $1)`, organization).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	return summaries, total, nil
}

func (r *reportRepo) GetReport(ctx context.Context, id int) (*biz.Report, error) {
	var rp biz.Report
	err := r.data.db.QueryRowContext(ctx, `
		SELECT id, organization, COALESCE(analysis_type, ''), COALESCE(executive_summary, ''),
			COALESCE(confidence, 0), COALESCE(persona_results, ''), COALESCE(synthesis, ''),
			to_char(created_at, 'YYYY-MM-DD HH24:MI:SS')
		FROM intelligence_reports WHERE id = $1`, id).
		Scan(&rp.ID, &rp.Organization, &rp.AnalysisType, &rp.ExecutiveSummary,
			&rp.Confidence, &rp.PersonaResults, &rp.Synthesis, &rp.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("REPORT_NOT_FOUND", "report not found")
		}
		return nil, err
	}

	rows, err := r.data.db.QueryContext(ctx, `
		SELECT kind, COALESCE(content, '') FROM intelligence_insights
		WHERE report_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind, content string
		if err := rows.Scan(&kind, &content); err != nil {
			return nil, err
		}
		switch kind {
		case "insight":
			rp.KeyInsights = append(rp.KeyInsights, content)
		case "recommendation":
			rp.Recommendations = append(rp.Recommendations, content)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &rp, nil
}
