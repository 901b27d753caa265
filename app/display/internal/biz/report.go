package biz

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
)

// ReportSummary 一次运行的情报摘要
type ReportSummary struct {
	ID               int
	Organization     string
	AnalysisType     string
	Confidence       float64
	OpportunityCount int
	CreatedAt        string
}

// Report 情报详情
type Report struct {
	ID               int
	Organization     string
	AnalysisType     string
	ExecutiveSummary string
	Confidence       float64
	KeyInsights      []string
	Recommendations  []string
	// PersonaResults 与 Synthesis 保留原始 JSON，前端按需解析
	PersonaResults string
	Synthesis      string
	CreatedAt      string
}

type ReportRepo interface {
	ListReports(ctx context.Context, organization string, page, pageSize int) ([]*ReportSummary, int, error)
	GetReport(ctx context.Context, id int) (*Report, error)
}

type ReportUseCase struct {
	repo ReportRepo
	log  *log.Helper
}

func NewReportUseCase(repo ReportRepo, logger log.Logger) *ReportUseCase {
	return &ReportUseCase{repo: repo, log: log.NewHelper(logger)}
}

func (uc *ReportUseCase) List(ctx context.Context, organization string, page, pageSize int) ([]*ReportSummary, int, error) {
	return uc.repo.ListReports(ctx, organization, page, pageSize)
}

func (uc *ReportUseCase) Get(ctx context.Context, id int) (*Report, error) {
	return uc.repo.GetReport(ctx, id)
}
