package data

import (
	"context"
	"database/sql"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/intel_radar/app/display/internal/biz"
)

type opportunityRepo struct {
	data *Data
	log  *log.Helper
}

func NewOpportunityRepo(data *Data, logger log.Logger) biz.OpportunityRepo {
	return &opportunityRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *opportunityRepo) ListOpportunities(ctx context.Context, organization, status string, page, pageSize int) ([]*biz.Opportunity, int, error) {
	offset := (page - 1) * pageSize

	rows, err := r.data.db.QueryContext(ctx, `
		SELECT id, organization, COALESCE(title, ''), COALESCE(opportunity_type, ''),
			COALESCE(persona_id, ''), COALESCE(urgency, ''), COALESCE(time_window, ''),
			expires_at, COALESCE(confidence, 0), COALESCE(score, 0), COALESCE(status, 'new'),
			to_char(created_at, 'YYYY-MM-DD HH24:MI:SS')
		FROM opportunities
		WHERE ($1 = '' OR organization = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY score DESC, created_at DESC
		LIMIT $3 OFFSET $4`, organization, status, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var opps []*biz.Opportunity
	for rows.Next() {
		var o biz.Opportunity
		if err := rows.Scan(&o.ID, &o.Organization, &o.Title, &o.Type, &o.PersonaID,
			&o.Urgency, &o.Window, &o.ExpiresAt, &o.Confidence, &o.Score,
			&o.Status, &o.CreatedAt); err != nil {
			return nil, 0, err
		}
		opps = append(opps, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.data.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM opportunities
		WHERE ($1 = '' OR organization = $1)
		  AND ($2 = '' OR status = $2)`, organization, status).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	return opps, total, nil
}

func (r *opportunityRepo) GetOpportunity(ctx context.Context, id string) (*biz.Opportunity, error) {
	var o biz.Opportunity
	err := r.data.db.QueryRowContext(ctx, `
		SELECT id, organization, COALESCE(title, ''), COALESCE(description, ''),
			COALESCE(opportunity_type, ''), COALESCE(persona_id, ''), COALESCE(persona_name, ''),
			COALESCE(urgency, ''), COALESCE(time_window, ''), expires_at,
			COALESCE(confidence, 0), COALESCE(score, 0), COALESCE(status, 'new'),
			to_char(created_at, 'YYYY-MM-DD HH24:MI:SS')
		FROM opportunities WHERE id = $1`, id).
		Scan(&o.ID, &o.Organization, &o.Title, &o.Description, &o.Type, &o.PersonaID,
			&o.PersonaName, &o.Urgency, &o.Window, &o.ExpiresAt, &o.Confidence,
			&o.Score, &o.Status, &o.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("OPPORTUNITY_NOT_FOUND", "opportunity not found")
		}
		return nil, err
	}

	rows, err := r.data.db.QueryContext(ctx, `
		SELECT step, COALESCE(action, ''), COALESCE(owner, ''),
			to_char(deadline, 'YYYY-MM-DD HH24:MI:SS'), COALESCE(success_metric, '')
		FROM action_items WHERE opportunity_id = $1 ORDER BY step`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item biz.ActionItem
		if err := rows.Scan(&item.Step, &item.Action, &item.Owner, &item.Deadline, &item.SuccessMetric); err != nil {
			return nil, err
		}
		o.ActionItems = append(o.ActionItems, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *opportunityRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.data.db.ExecContext(ctx, `
		UPDATE opportunities SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFound("OPPORTUNITY_NOT_FOUND", "opportunity not found")
	}
	return nil
}
