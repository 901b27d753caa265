package model

import "time"

// OrganizationContext 一次流水线运行的组织上下文，由外部调用方提供，运行期间只读
type OrganizationContext struct {
	Name        string          `json:"name"`
	Industry    string          `json:"industry"`
	Competitors []Competitor    `json:"competitors,omitempty"`
	Topics      []string        `json:"topics,omitempty"`
	Goals       map[string]bool `json:"goals,omitempty"` // 战略目标开关
}

// Competitor 被跟踪的竞争对手
type Competitor struct {
	Name     string `json:"name"`
	Priority string `json:"priority,omitempty"` // high / medium / low
}

// RawFinding 采集器产出的单条原始证据
type RawFinding struct {
	Title    string `json:"title"`
	Link     string `json:"link,omitempty"`
	Source   string `json:"source"`
	PubDate  string `json:"pub_date,omitempty"`
	Snippet  string `json:"snippet"`            // 临时存储用于 LLM 分析，不一定展示
	Category string `json:"category,omitempty"` // competitor / topic / general
}

// Urgency 紧急程度等级
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// SecondOpinion 第二意见：对首轮分析的盲点批判与置信评估
type SecondOpinion struct {
	AlternativeAssessment string   `json:"alternative_assessment,omitempty"`
	BlindSpots            []string `json:"blind_spots,omitempty"`
	ConfidenceLevel       float64  `json:"confidence_level"`
	Status                string   `json:"status,omitempty"`
}

// 分析结果的降级状态标记
const (
	StatusTextResponse = "text_response" // 模型未返回合法 JSON，退化为纯文本
	StatusFallback     = "fallback"      // 上游不可用，使用确定性兜底结果
)

// AnalysisResult 单个分析师人格一次运行的结构化产出
type AnalysisResult struct {
	Persona         string         `json:"persona,omitempty"`
	KeyInsights     []string       `json:"key_insights,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Analysis        string         `json:"analysis,omitempty"`
	AnalysisText    string         `json:"analysis_text,omitempty"` // status == text_response 时的原始文本
	Confidence      float64        `json:"confidence,omitempty"`
	Risks           []string       `json:"risks,omitempty"`
	Opportunities   []string       `json:"opportunities,omitempty"`
	Status          string         `json:"status,omitempty"`
	Note            string         `json:"note,omitempty"`
	SecondOpinion   *SecondOpinion `json:"second_opinion,omitempty"`
	ConsensusLevel  float64        `json:"consensus_level,omitempty"`
	Synthesis       *Synthesis     `json:"synthesis,omitempty"` // 人格可选输出的结构化研判板块
}

// CombinedIntelligence 一次编排运行中所有人格结果的合并体
type CombinedIntelligence struct {
	Organization     string                     `json:"organization"`
	AnalysisType     string                     `json:"analysis_type"`
	ExecutiveSummary string                     `json:"executive_summary"`
	KeyInsights      []string                   `json:"key_insights"`
	Recommendations  []string                   `json:"recommendations"`
	PersonaResults   map[string]*AnalysisResult `json:"persona_results"`
	Confidence       float64                    `json:"confidence"`
	Synthesis        *Synthesis                 `json:"synthesis,omitempty"`
	GeneratedAt      time.Time                  `json:"generated_at"`
}

// Synthesis 综合研判载荷。机会提取器只遍历这些固定子板块，
// 其余形状在反序列化时即被丢弃（未知板块静默忽略）。
type Synthesis struct {
	CompetitiveLandscape   *CompetitiveLandscape  `json:"competitive_landscape,omitempty"`
	StakeholderDynamics    *StakeholderDynamics   `json:"stakeholder_dynamics,omitempty"`
	NarrativeAnalysis      *NarrativeAnalysis     `json:"narrative_analysis,omitempty"`
	CascadeDetection       *CascadeDetection      `json:"cascade_detection,omitempty"`
	MarketIntelligence     *MarketIntelligence    `json:"market_intelligence,omitempty"`
	ImmediateOpportunities []ImmediateOpportunity `json:"immediate_opportunities,omitempty"`
}

// CompetitiveLandscape 竞争格局板块
type CompetitiveLandscape struct {
	Moves           []CompetitiveMove `json:"moves,omitempty"`
	CriticalThreats []CompetitiveMove `json:"critical_threats,omitempty"`
}

// CompetitiveMove 单个竞争对手动作
type CompetitiveMove struct {
	Competitor        string  `json:"competitor,omitempty"`
	Move              string  `json:"move"`
	Description       string  `json:"description,omitempty"`
	ResponseRequired  bool    `json:"response_required,omitempty"`
	SuggestedResponse string  `json:"suggested_response,omitempty"`
	Window            string  `json:"window,omitempty"`
	Confidence        float64 `json:"confidence,omitempty"`
}

// StakeholderDynamics 利益相关方动态板块
type StakeholderDynamics struct {
	PowerShifts []PowerShift `json:"power_shifts,omitempty"`
}

// PowerShift 权力格局变化，Opportunity 字段为可行动标记
type PowerShift struct {
	Stakeholder string  `json:"stakeholder"`
	Shift       string  `json:"shift,omitempty"`
	Opportunity string  `json:"opportunity,omitempty"`
	Window      string  `json:"window,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// NarrativeAnalysis 叙事板块
type NarrativeAnalysis struct {
	Narratives []NarrativeItem `json:"narratives,omitempty"`
}

// NarrativeItem 单条叙事，InsertionPoint 为可行动标记
type NarrativeItem struct {
	Narrative      string  `json:"narrative"`
	Momentum       string  `json:"momentum,omitempty"`
	InsertionPoint string  `json:"insertion_point,omitempty"`
	Window         string  `json:"window,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// CascadeDetection 级联预警板块
type CascadeDetection struct {
	WeakSignals []WeakSignal `json:"weak_signals,omitempty"`
}

// WeakSignal 弱信号，PreparationNeeded 为可行动标记
type WeakSignal struct {
	Signal            string  `json:"signal"`
	PotentialCascade  string  `json:"potential_cascade,omitempty"`
	PreparationNeeded string  `json:"preparation_needed,omitempty"`
	Window            string  `json:"window,omitempty"`
	Confidence        float64 `json:"confidence,omitempty"`
}

// MarketIntelligence 市场情报板块
type MarketIntelligence struct {
	IndustryMovements []IndustryMovement `json:"industry_movements,omitempty"`
}

// IndustryMovement 行业动向，StrategicResponse 为可行动标记
type IndustryMovement struct {
	Movement          string  `json:"movement"`
	Impact            string  `json:"impact,omitempty"`
	StrategicResponse string  `json:"strategic_response,omitempty"`
	Window            string  `json:"window,omitempty"`
	Confidence        float64 `json:"confidence,omitempty"`
}

// ImmediateOpportunity 已被综合研判直接点名的即时机会
type ImmediateOpportunity struct {
	Title      string  `json:"title"`
	Action     string  `json:"action,omitempty"`
	Window     string  `json:"window,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// EnrichedContext 监测富化上下文，供打分与剧本构建取样
type EnrichedContext struct {
	Events   []Event  `json:"events,omitempty"`
	Entities []string `json:"entities,omitempty"` // 去重后的命名实体
	Trends   []Trend  `json:"trends,omitempty"`
}

// Event 富化上下文中的事件
type Event struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// Trend 富化上下文中的趋势话题
type Trend struct {
	Topic    string `json:"topic"`
	Momentum string `json:"momentum,omitempty"`
}

// OpportunityType 机会类型标签
type OpportunityType string

const (
	OpportunityCompetitive OpportunityType = "competitive"
	OpportunityStakeholder OpportunityType = "stakeholder"
	OpportunityNarrative   OpportunityType = "narrative"
	OpportunityCascade     OpportunityType = "cascade"
	OpportunityMarket      OpportunityType = "market"
	OpportunityImmediate   OpportunityType = "immediate"
)

// 提取候选的来源板块名
const (
	SectionCompetitiveMoves       = "competitive_moves"
	SectionCriticalThreats        = "critical_threats"
	SectionPowerShifts            = "power_shifts"
	SectionNarratives             = "narratives"
	SectionWeakSignals            = "weak_signals"
	SectionIndustryMovements      = "industry_movements"
	SectionImmediateOpportunities = "immediate_opportunities"
)

// RawCandidate 机会提取器产出的原始候选，随打分流程消亡
type RawCandidate struct {
	Type        OpportunityType `json:"type"`
	PersonaID   string          `json:"persona_id"`
	Section     string          `json:"section"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Action      string          `json:"action,omitempty"`
	Window      string          `json:"window,omitempty"`
	Confidence  float64         `json:"confidence,omitempty"` // 0 表示来源未声明
}

// ScoredCandidate 带优先级评分的候选，排序键为 Score
type ScoredCandidate struct {
	RawCandidate
	Score float64 `json:"score"`
}

// ActionItem 剧本中的单个行动步骤
type ActionItem struct {
	Step          int       `json:"step"`
	Action        string    `json:"action"`
	Owner         string    `json:"owner"`
	Deadline      time.Time `json:"deadline"`
	SuccessMetric string    `json:"success_metric,omitempty"`
}

// SourceInsights 机会到情报来源的回链
type SourceInsights struct {
	Sections []string `json:"synthesis_sections,omitempty"`
	Events   []string `json:"referenced_events,omitempty"`
	Entities []string `json:"referenced_entities,omitempty"`
	Trends   []string `json:"referenced_trends,omitempty"`
}

// ExpectedImpact 预期影响说明，各字段均为自由文本
type ExpectedImpact struct {
	Revenue              string `json:"revenue,omitempty"`
	Reputation           string `json:"reputation,omitempty"`
	CompetitiveAdvantage string `json:"competitive_advantage,omitempty"`
	RiskMitigation       string `json:"risk_mitigation,omitempty"`
}

// 机会状态。流水线只产出 new，后续状态流转由外部消费方负责。
const (
	OpportunityStatusNew        = "new"
	OpportunityStatusReviewed   = "reviewed"
	OpportunityStatusInProgress = "in_progress"
	OpportunityStatusCompleted  = "completed"
	OpportunityStatusExpired    = "expired"
)

// Opportunity 流水线最终产物
type Opportunity struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	Type              OpportunityType `json:"opportunity_type"`
	PersonaID         string          `json:"persona_id"`
	PersonaName       string          `json:"persona_name,omitempty"`
	Urgency           Urgency         `json:"urgency"`
	Window            string          `json:"window,omitempty"`
	ExpiresAt         time.Time       `json:"expires_at"`
	ActionItems       []ActionItem    `json:"action_items"`
	SourceInsights    SourceInsights  `json:"source_insights"`
	ExpectedImpact    ExpectedImpact  `json:"expected_impact"`
	Confidence        float64         `json:"confidence"`
	ConfidenceFactors []string        `json:"confidence_factors,omitempty"`
	Risks             []string        `json:"risks,omitempty"`
	Score             float64         `json:"score"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	Organization      string          `json:"organization"`
}

// Expired 过期是读取时的比较而非删除
func (o *Opportunity) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// ClampConfidence 置信度约束在 [0,100]
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
