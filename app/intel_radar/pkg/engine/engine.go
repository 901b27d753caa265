package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/storage"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/analyst"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/collector"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/config"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/llm"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/logger"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/memory"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/opportunity"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/orchestrator"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/search/factory"
)

// Engine 核心处理引擎，串联采集、分析、机会提取三个阶段
type Engine struct {
	cfg       *config.Config
	store     *storage.Storage
	collector *collector.Collector
	orch      *orchestrator.Orchestrator
	builder   *opportunity.Builder
}

// NewEngine 创建引擎实例
func NewEngine(cfg *config.Config, store *storage.Storage) (*Engine, error) {
	ctx := context.Background()

	chatModel, err := llm.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	limiter := llm.NewLimiter(cfg.Concurrency)
	gateway := llm.NewGateway(chatModel, limiter)

	searcher, err := factory.NewSearcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("搜索客户端初始化失败: %w", err)
	}

	var mem memory.Store = memory.Nop{}
	if store != nil {
		pg, err := memory.NewPostgres(store.DB())
		if err != nil {
			logger.Log.Errorf("记忆存储初始化失败，降级为空实现: %v", err)
		} else {
			mem = pg
		}
	}

	return &Engine{
		cfg:       cfg,
		store:     store,
		collector: collector.NewCollector(searcher),
		orch:      orchestrator.NewOrchestrator(analyst.NewAnalyzer(gateway), mem),
		builder:   opportunity.NewBuilder(gateway, cfg.Pipeline.EnhanceTopN),
	}, nil
}

// RunOptions 运行选项
type RunOptions struct {
	// Organizations 为空时使用配置中的全部组织
	Organizations    []config.OrgConfig
	ProgressCallback func(status string, progress int)
}

// RunResult 单个组织的流水线产出
type RunResult struct {
	Organization  string
	Intelligence  *model.CombinedIntelligence
	Opportunities []*model.Opportunity
}

// Run 对每个组织执行一次完整流水线，组织之间相互独立并发执行
func (e *Engine) Run(ctx context.Context, opts RunOptions) ([]*RunResult, error) {
	orgs := opts.Organizations
	if len(orgs) == 0 {
		orgs = e.cfg.Organizations
	}
	if len(orgs) == 0 {
		return nil, fmt.Errorf("no organizations configured")
	}

	if e.cfg.Pipeline.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Pipeline.RunTimeout)
		defer cancel()
	}

	logger.Log.Infof("开始情报扫描，共 %d 个组织", len(orgs))
	if opts.ProgressCallback != nil {
		opts.ProgressCallback("starting", 0)
	}

	var results []*RunResult
	var mu sync.Mutex
	var wg sync.WaitGroup

	total := len(orgs)
	completed := 0

	for _, oc := range orgs {
		wg.Add(1)
		go func(oc config.OrgConfig) {
			defer wg.Done()

			res, err := e.runOrganization(ctx, oc)
			if err != nil {
				logger.Log.Errorf("组织 [%s] 流水线失败: %v", oc.Name, err)
				return
			}

			mu.Lock()
			results = append(results, res)
			completed++
			progress := 10 + int(float64(completed)/float64(total)*85) // 10% -> 95%
			if opts.ProgressCallback != nil {
				opts.ProgressCallback(fmt.Sprintf("processed organization: %s", oc.Name), progress)
			}
			mu.Unlock()
		}(oc)
	}

	wg.Wait()

	if len(results) == 0 {
		return nil, fmt.Errorf("no organizations produced intelligence")
	}

	if opts.ProgressCallback != nil {
		opts.ProgressCallback("completed", 100)
	}
	return results, nil
}

func (e *Engine) runOrganization(ctx context.Context, oc config.OrgConfig) (*RunResult, error) {
	org := orgContext(oc)

	// 1. 采集
	findings, enriched, err := e.collector.Collect(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("采集失败: %w", err)
	}
	if len(findings) == 0 {
		return nil, fmt.Errorf("no findings collected")
	}
	logger.Log.Infof("组织 [%s] 采集到 %d 条原始发现", org.Name, len(findings))

	// 2. 多视角分析
	analysisType := oc.AnalysisType
	if analysisType == "" {
		analysisType = "comprehensive"
	}
	ci := e.orch.Run(ctx, analysisType, findings, org)

	// 3. 机会提取与排名
	candidates := opportunity.Extract(ci)
	ranked := opportunity.Rank(candidates, enriched, opportunity.RankOptions{
		MinConfidence:    e.cfg.Pipeline.MinConfidence,
		MaxOpportunities: e.cfg.Pipeline.MaxOpportunities,
	})
	logger.Log.Infof("组织 [%s] 提取 %d 个候选，排名后保留 %d 个", org.Name, len(candidates), len(ranked))

	// 4. 生成剧本
	var opps []*model.Opportunity
	for rank, sc := range ranked {
		opp := e.builder.Build(ctx, sc, org, enriched, rank)
		opps = append(opps, opp)
	}

	// 5. 持久化，失败只记日志不中断
	if e.store != nil {
		runID, err := e.store.CreateRun(org.Name, analysisType)
		if err != nil {
			logger.Log.Errorf("无法创建运行记录 [%s]: %v", org.Name, err)
		} else {
			if err := e.store.SaveIntelligence(runID, ci); err != nil {
				logger.Log.Errorf("保存情报失败 [%s]: %v", org.Name, err)
			}
			if err := e.store.SaveOpportunities(runID, opps); err != nil {
				logger.Log.Errorf("保存机会失败 [%s]: %v", org.Name, err)
			}
		}
	}

	return &RunResult{
		Organization:  org.Name,
		Intelligence:  ci,
		Opportunities: opps,
	}, nil
}

func orgContext(oc config.OrgConfig) model.OrganizationContext {
	org := model.OrganizationContext{
		Name:     oc.Name,
		Industry: oc.Industry,
		Topics:   oc.Topics,
		Goals:    oc.Goals,
	}
	for _, c := range oc.Competitors {
		org.Competitors = append(org.Competitors, model.Competitor{
			Name:     c.Name,
			Priority: c.Priority,
		})
	}
	return org
}
