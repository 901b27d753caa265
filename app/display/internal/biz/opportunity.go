package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

type ActionItem struct {
	Step          int
	Action        string
	Owner         string
	Deadline      string
	SuccessMetric string
}

type Opportunity struct {
	ID           string
	Organization string
	Title        string
	Description  string
	Type         string
	PersonaID    string
	PersonaName  string
	Urgency      string
	Window       string
	ExpiresAt    time.Time
	ActionItems  []ActionItem
	Confidence   float64
	Score        float64
	Status       string
	CreatedAt    string
}

// EffectiveStatus 过期是读取时的比较，数据库中的状态不被改写
func (o *Opportunity) EffectiveStatus(now time.Time) string {
	if o.Status == "completed" {
		return o.Status
	}
	if now.After(o.ExpiresAt) {
		return "expired"
	}
	return o.Status
}

var validStatuses = map[string]bool{
	"new":         true,
	"reviewed":    true,
	"in_progress": true,
	"completed":   true,
	"expired":     true,
}

type OpportunityRepo interface {
	ListOpportunities(ctx context.Context, organization, status string, page, pageSize int) ([]*Opportunity, int, error)
	GetOpportunity(ctx context.Context, id string) (*Opportunity, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type OpportunityUseCase struct {
	repo OpportunityRepo
	log  *log.Helper
}

func NewOpportunityUseCase(repo OpportunityRepo, logger log.Logger) *OpportunityUseCase {
	return &OpportunityUseCase{repo: repo, log: log.NewHelper(logger)}
}

func (uc *OpportunityUseCase) List(ctx context.Context, organization, status string, page, pageSize int) ([]*Opportunity, int, error) {
	opps, total, err := uc.repo.ListOpportunities(ctx, organization, status, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	now := time.Now()
	for _, o := range opps {
		o.Status = o.EffectiveStatus(now)
	}
	return opps, total, nil
}

func (uc *OpportunityUseCase) Get(ctx context.Context, id string) (*Opportunity, error) {
	o, err := uc.repo.GetOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Status = o.EffectiveStatus(time.Now())
	return o, nil
}

func (uc *OpportunityUseCase) UpdateStatus(ctx context.Context, id, status string) error {
	if !validStatuses[status] {
		return errors.BadRequest("INVALID_STATUS", "invalid opportunity status: "+status)
	}
	return uc.repo.UpdateStatus(ctx, id, status)
}
