package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/logger"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/memory"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/persona"
)

// Analyzer 单人格分析接口
type Analyzer interface {
	Analyze(ctx context.Context, p *persona.Persona, request string, org model.OrganizationContext, secondOpinion bool) *model.AnalysisResult
}

// route 分析类型到人格序列的固定映射
type route struct {
	personas      []string
	secondOpinion bool
}

// routes 高风险决策类型开启第二意见；已是多视角的类型不开，避免冗余成本
var routes = map[string]route{
	"competitor":        {personas: []string{persona.CompetitiveStrategist}, secondOpinion: true},
	"stakeholder":       {personas: []string{persona.StakeholderPsychologist}},
	"narrative":         {personas: []string{persona.NarrativeArchitect}},
	"predictive":        {personas: []string{persona.RiskProphet, persona.OpportunityHunter}, secondOpinion: true},
	"executive_summary": {personas: []string{persona.ExecutiveSynthesizer}, secondOpinion: true},
	"comprehensive":     {personas: []string{persona.ExecutiveSynthesizer, persona.CompetitiveStrategist, persona.StakeholderPsychologist}},
}

// defaultRoute 未知分析类型的回退人格组合
var defaultRoute = route{personas: []string{persona.CompetitiveStrategist, persona.NarrativeArchitect}}

// 未开第二意见的人格在聚合时按 75 计。注意与 analyst 包的共识缺省 70
// 不一致，两个缺省值在来源系统中即如此，分别保留。
const defaultPersonaConfidence = 75

// Orchestrator 多人格编排器。
// 人格严格串行执行（共享限流器保证相邻 LLM 调用间隔），绝不并行，
// 这是整个核心对上游限额的主要保护手段。
type Orchestrator struct {
	analyzer Analyzer
	mem      memory.Store
}

// NewOrchestrator 创建编排器。mem 为空时退化为 Nop。
func NewOrchestrator(analyzer Analyzer, mem memory.Store) *Orchestrator {
	if mem == nil {
		mem = memory.Nop{}
	}
	return &Orchestrator{analyzer: analyzer, mem: mem}
}

// Run 执行一次编排：路由 → 逐人格分析 → 合并 → 异步写记忆
func (o *Orchestrator) Run(ctx context.Context, analysisType string, findings []model.RawFinding, org model.OrganizationContext) *model.CombinedIntelligence {
	r, ok := routes[analysisType]
	if !ok {
		logger.Log.Warnf("未知分析类型 [%s]，使用默认人格组合", analysisType)
		r = defaultRoute
	}

	request := FormatFindings(findings)

	results := make(map[string]*model.AnalysisResult, len(r.personas))
	order := make([]string, 0, len(r.personas))
	for _, id := range r.personas {
		p := persona.MustGet(id)
		order = append(order, p.Name)
		results[p.Name] = o.runPersona(ctx, p, request, org, r.secondOpinion)
	}

	combined := merge(analysisType, org, order, results)

	// 尽力而为的记忆写入，独立于主流程
	go o.persist(combined, r.personas)

	return combined
}

// runPersona 执行单个人格并吸收意外 panic：单个人格失败不应中止整轮运行
func (o *Orchestrator) runPersona(ctx context.Context, p *persona.Persona, request string, org model.OrganizationContext, secondOpinion bool) (result *model.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("人格 [%s] 执行异常: %v", p.ID, r)
			result = nil
		}
	}()
	return o.analyzer.Analyze(ctx, p, request, org, secondOpinion)
}

// merge 合并各人格结果为一份情报
func merge(analysisType string, org model.OrganizationContext, order []string, results map[string]*model.AnalysisResult) *model.CombinedIntelligence {
	combined := &model.CombinedIntelligence{
		Organization:   org.Name,
		AnalysisType:   analysisType,
		PersonaResults: results,
		GeneratedAt:    time.Now(),
	}

	seenInsights := make(map[string]struct{})
	seenRecs := make(map[string]struct{})
	var confidences []float64

	for _, name := range order {
		res := results[name]
		if res == nil {
			continue
		}

		// 插入序去重，首次出现保留
		for _, ins := range res.KeyInsights {
			if _, ok := seenInsights[ins]; ok {
				continue
			}
			seenInsights[ins] = struct{}{}
			combined.KeyInsights = append(combined.KeyInsights, ins)
		}
		for _, rec := range res.Recommendations {
			if _, ok := seenRecs[rec]; ok {
				continue
			}
			seenRecs[rec] = struct{}{}
			combined.Recommendations = append(combined.Recommendations, rec)
		}

		// 执行摘要优先取高管人格的分析文本
		if combined.ExecutiveSummary == "" && strings.Contains(name, "Executive") && res.Analysis != "" {
			combined.ExecutiveSummary = res.Analysis
		}

		if res.ConsensusLevel > 0 {
			confidences = append(confidences, res.ConsensusLevel)
		} else {
			confidences = append(confidences, defaultPersonaConfidence)
		}

		combined.Synthesis = mergeSynthesis(combined.Synthesis, res.Synthesis)
	}

	if len(confidences) > 0 {
		var sum float64
		for _, c := range confidences {
			sum += c
		}
		combined.Confidence = model.ClampConfidence(sum / float64(len(confidences)))
	}

	if combined.ExecutiveSummary == "" {
		combined.ExecutiveSummary = synthesizeSummary(combined)
	}

	return combined
}

// mergeSynthesis 拼接各人格输出的研判板块
func mergeSynthesis(dst, src *model.Synthesis) *model.Synthesis {
	if src == nil {
		return dst
	}
	if dst == nil {
		dst = &model.Synthesis{}
	}
	if src.CompetitiveLandscape != nil {
		if dst.CompetitiveLandscape == nil {
			dst.CompetitiveLandscape = &model.CompetitiveLandscape{}
		}
		dst.CompetitiveLandscape.Moves = append(dst.CompetitiveLandscape.Moves, src.CompetitiveLandscape.Moves...)
		dst.CompetitiveLandscape.CriticalThreats = append(dst.CompetitiveLandscape.CriticalThreats, src.CompetitiveLandscape.CriticalThreats...)
	}
	if src.StakeholderDynamics != nil {
		if dst.StakeholderDynamics == nil {
			dst.StakeholderDynamics = &model.StakeholderDynamics{}
		}
		dst.StakeholderDynamics.PowerShifts = append(dst.StakeholderDynamics.PowerShifts, src.StakeholderDynamics.PowerShifts...)
	}
	if src.NarrativeAnalysis != nil {
		if dst.NarrativeAnalysis == nil {
			dst.NarrativeAnalysis = &model.NarrativeAnalysis{}
		}
		dst.NarrativeAnalysis.Narratives = append(dst.NarrativeAnalysis.Narratives, src.NarrativeAnalysis.Narratives...)
	}
	if src.CascadeDetection != nil {
		if dst.CascadeDetection == nil {
			dst.CascadeDetection = &model.CascadeDetection{}
		}
		dst.CascadeDetection.WeakSignals = append(dst.CascadeDetection.WeakSignals, src.CascadeDetection.WeakSignals...)
	}
	if src.MarketIntelligence != nil {
		if dst.MarketIntelligence == nil {
			dst.MarketIntelligence = &model.MarketIntelligence{}
		}
		dst.MarketIntelligence.IndustryMovements = append(dst.MarketIntelligence.IndustryMovements, src.MarketIntelligence.IndustryMovements...)
	}
	dst.ImmediateOpportunities = append(dst.ImmediateOpportunities, src.ImmediateOpportunities...)
	return dst
}

// synthesizeSummary 没有高管人格时，从去重后的前两条洞察合成摘要
func synthesizeSummary(c *model.CombinedIntelligence) string {
	head := c.KeyInsights
	if len(head) > 2 {
		head = head[:2]
	}
	if len(head) == 0 {
		return fmt.Sprintf("本轮 %s 分析共产出 %d 条建议。", c.AnalysisType, len(c.Recommendations))
	}
	return fmt.Sprintf("%s 共识别 %d 条洞察、%d 条建议。",
		strings.Join(head, "；"), len(c.KeyInsights), len(c.Recommendations))
}

// persist 异步写入长期记忆，失败只记日志
func (o *Orchestrator) persist(combined *model.CombinedIntelligence, personas []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	content, err := json.Marshal(combined)
	if err != nil {
		logger.Log.Errorf("记忆序列化失败: %v", err)
		return
	}
	entry := &memory.Entry{
		Organization: combined.Organization,
		AnalysisType: combined.AnalysisType,
		Personas:     personas,
		Content:      string(content),
		Metadata: map[string]string{
			"confidence": fmt.Sprintf("%.0f", combined.Confidence),
		},
		CreatedAt: combined.GeneratedAt,
	}
	if err := o.mem.Save(ctx, entry); err != nil {
		logger.Log.Errorf("记忆写入失败 [%s/%s]: %v", entry.Organization, entry.AnalysisType, err)
	}
}

// FormatFindings 把原始采集数据序列化为分析请求文本
func FormatFindings(findings []model.RawFinding) string {
	if len(findings) == 0 {
		return "本周期未采集到新的监测数据，请基于组织上下文给出常规研判。"
	}
	var sb strings.Builder
	sb.WriteString("以下是本周期采集到的监测数据：\n\n")
	for i, f := range findings {
		fmt.Fprintf(&sb, "条目 %d [%s]:\n标题: %s\n来源: %s (%s)\n摘要: %s\n\n",
			i+1, f.Category, f.Title, f.Source, f.PubDate, f.Snippet)
	}
	return sb.String()
}

// Routes 返回已注册的分析类型，供集成层校验
func Routes() []string {
	keys := make([]string, 0, len(routes))
	for k := range routes {
		keys = append(keys, k)
	}
	return keys
}
