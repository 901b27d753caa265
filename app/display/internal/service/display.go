package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/intel_radar/app/display/internal/biz"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/engine"
)

type DisplayService struct {
	ucUser *biz.UserUseCase
	ucRep  *biz.ReportUseCase
	ucOpp  *biz.OpportunityUseCase
	eng    *engine.Engine
	log    *log.Helper

	scanning atomic.Bool
}

func NewDisplayService(ucUser *biz.UserUseCase, ucRep *biz.ReportUseCase, ucOpp *biz.OpportunityUseCase, eng *engine.Engine, logger log.Logger) *DisplayService {
	return &DisplayService{
		ucUser: ucUser,
		ucRep:  ucRep,
		ucOpp:  ucOpp,
		eng:    eng,
		log:    log.NewHelper(logger),
	}
}

type RegisterReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *DisplayService) Register(ctx context.Context, req *RegisterReq) (*RegisterReply, error) {
	if err := s.ucUser.Register(ctx, req.Username, req.Password); err != nil {
		return &RegisterReply{Success: false, Message: err.Error()}, nil
	}
	return &RegisterReply{Success: true, Message: "success"}, nil
}

type LoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginReply struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (s *DisplayService) Login(ctx context.Context, req *LoginReq) (*LoginReply, error) {
	token, err := s.ucUser.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return &LoginReply{Token: token, Username: req.Username}, nil
}

type ReportSummary struct {
	ID               int     `json:"id"`
	Organization     string  `json:"organization"`
	AnalysisType     string  `json:"analysis_type"`
	Confidence       float64 `json:"confidence"`
	OpportunityCount int     `json:"opportunity_count"`
	CreatedAt        string  `json:"created_at"`
}

type ListReportsReply struct {
	Reports []*ReportSummary `json:"reports"`
	Total   int              `json:"total"`
}

func (s *DisplayService) ListReports(ctx context.Context, organization string, page, pageSize int) (*ListReportsReply, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	reports, total, err := s.ucRep.List(ctx, organization, page, pageSize)
	if err != nil {
		return nil, err
	}

	list := make([]*ReportSummary, 0, len(reports))
	for _, r := range reports {
		list = append(list, &ReportSummary{
			ID:               r.ID,
			Organization:     r.Organization,
			AnalysisType:     r.AnalysisType,
			Confidence:       r.Confidence,
			OpportunityCount: r.OpportunityCount,
			CreatedAt:        r.CreatedAt,
		})
	}

	return &ListReportsReply{Reports: list, Total: total}, nil
}

type ReportReply struct {
	ID               int      `json:"id"`
	Organization     string   `json:"organization"`
	AnalysisType     string   `json:"analysis_type"`
	ExecutiveSummary string   `json:"executive_summary"`
	Confidence       float64  `json:"confidence"`
	KeyInsights      []string `json:"key_insights"`
	Recommendations  []string `json:"recommendations"`
	PersonaResults   string   `json:"persona_results,omitempty"`
	Synthesis        string   `json:"synthesis,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

func (s *DisplayService) GetReport(ctx context.Context, id int) (*ReportReply, error) {
	r, err := s.ucRep.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ReportReply{
		ID:               r.ID,
		Organization:     r.Organization,
		AnalysisType:     r.AnalysisType,
		ExecutiveSummary: r.ExecutiveSummary,
		Confidence:       r.Confidence,
		KeyInsights:      r.KeyInsights,
		Recommendations:  r.Recommendations,
		PersonaResults:   r.PersonaResults,
		Synthesis:        r.Synthesis,
		CreatedAt:        r.CreatedAt,
	}, nil
}

type ActionItem struct {
	Step          int    `json:"step"`
	Action        string `json:"action"`
	Owner         string `json:"owner"`
	Deadline      string `json:"deadline"`
	SuccessMetric string `json:"success_metric"`
}

type OpportunityReply struct {
	ID           string       `json:"id"`
	Organization string       `json:"organization"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Type         string       `json:"opportunity_type"`
	PersonaID    string       `json:"persona_id"`
	PersonaName  string       `json:"persona_name,omitempty"`
	Urgency      string       `json:"urgency"`
	Window       string       `json:"window,omitempty"`
	ExpiresAt    string       `json:"expires_at"`
	ActionItems  []ActionItem `json:"action_items,omitempty"`
	Confidence   float64      `json:"confidence"`
	Score        float64      `json:"score"`
	Status       string       `json:"status"`
	CreatedAt    string       `json:"created_at"`
}

type ListOpportunitiesReply struct {
	Opportunities []*OpportunityReply `json:"opportunities"`
	Total         int                 `json:"total"`
}

func (s *DisplayService) ListOpportunities(ctx context.Context, organization, status string, page, pageSize int) (*ListOpportunitiesReply, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	opps, total, err := s.ucOpp.List(ctx, organization, status, page, pageSize)
	if err != nil {
		return nil, err
	}

	list := make([]*OpportunityReply, 0, len(opps))
	for _, o := range opps {
		list = append(list, opportunityReply(o))
	}

	return &ListOpportunitiesReply{Opportunities: list, Total: total}, nil
}

func (s *DisplayService) GetOpportunity(ctx context.Context, id string) (*OpportunityReply, error) {
	o, err := s.ucOpp.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return opportunityReply(o), nil
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

type UpdateStatusReply struct {
	Success bool `json:"success"`
}

func (s *DisplayService) UpdateOpportunityStatus(ctx context.Context, id string, req *UpdateStatusReq) (*UpdateStatusReply, error) {
	if err := s.ucOpp.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, err
	}
	return &UpdateStatusReply{Success: true}, nil
}

type ScanReply struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// TriggerScan 后台触发一次全量扫描，同一时刻只允许一次
func (s *DisplayService) TriggerScan(ctx context.Context) (*ScanReply, error) {
	if s.eng == nil {
		return nil, errors.InternalServer("ENGINE_UNAVAILABLE", "radar engine not configured")
	}
	if !s.scanning.CompareAndSwap(false, true) {
		return &ScanReply{Started: false, Message: "scan already in progress"}, nil
	}

	go func() {
		defer s.scanning.Store(false)
		start := time.Now()
		_, err := s.eng.Run(context.Background(), engine.RunOptions{
			ProgressCallback: func(status string, progress int) {
				s.log.Infof("scan %3d%% - %s", progress, status)
			},
		})
		if err != nil {
			s.log.Errorf("background scan failed: %v", err)
			return
		}
		s.log.Infof("background scan completed in %s", time.Since(start))
	}()

	return &ScanReply{Started: true, Message: "scan started"}, nil
}

func opportunityReply(o *biz.Opportunity) *OpportunityReply {
	r := &OpportunityReply{
		ID:           o.ID,
		Organization: o.Organization,
		Title:        o.Title,
		Description:  o.Description,
		Type:         o.Type,
		PersonaID:    o.PersonaID,
		PersonaName:  o.PersonaName,
		Urgency:      o.Urgency,
		Window:       o.Window,
		ExpiresAt:    o.ExpiresAt.Format("2006-01-02 15:04:05"),
		Confidence:   o.Confidence,
		Score:        o.Score,
		Status:       o.Status,
		CreatedAt:    o.CreatedAt,
	}
	for _, item := range o.ActionItems {
		r.ActionItems = append(r.ActionItems, ActionItem{
			Step:          item.Step,
			Action:        item.Action,
			Owner:         item.Owner,
			Deadline:      item.Deadline,
			SuccessMetric: item.SuccessMetric,
		})
	}
	return r
}
