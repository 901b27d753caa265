package opportunity

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/logger"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/persona"
)

// Gateway 剧本增强所需的 LLM 网关接口
type Gateway interface {
	Call(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// 紧急度对应的机会过期窗口
var expiryWindows = map[model.Urgency]time.Duration{
	model.UrgencyCritical: 24 * time.Hour,
	model.UrgencyHigh:     72 * time.Hour,
	model.UrgencyMedium:   168 * time.Hour,
	model.UrgencyLow:      336 * time.Hour,
}

// 兜底行动项的轮转责任人
var fallbackOwners = []string{"CEO", "CMO", "COO"}

const defaultDeadline = 48 * time.Hour

// Builder 剧本构建器。gw 为空时全部走模板化兜底。
type Builder struct {
	gw          Gateway
	enhanceTopN int
}

// NewBuilder 创建构建器。enhanceTopN 控制只有最高价值的前 N 名走生成式增强（成本控制）。
func NewBuilder(gw Gateway, enhanceTopN int) *Builder {
	if enhanceTopN <= 0 {
		enhanceTopN = 5
	}
	return &Builder{gw: gw, enhanceTopN: enhanceTopN}
}

// enhancement 模型增强输出的解析目标
type enhancement struct {
	Title             string               `json:"title,omitempty"`
	Description       string               `json:"description,omitempty"`
	ActionItems       []enhancedAction     `json:"action_items,omitempty"`
	ExpectedImpact    model.ExpectedImpact `json:"expected_impact,omitempty"`
	ConfidenceFactors []string             `json:"confidence_factors,omitempty"`
	Risks             []string             `json:"risks,omitempty"`
}

type enhancedAction struct {
	Action        string `json:"action"`
	Owner         string `json:"owner,omitempty"`
	Deadline      string `json:"deadline,omitempty"` // "24"/"48"/"72" 小时、"N days"、"week"
	SuccessMetric string `json:"success_metric,omitempty"`
}

// Build 把排名后的候选转为带剧本的最终机会。
// 不变量：expires_at 严格晚于 created_at；所有行动项 deadline 不晚于 expires_at。
func (b *Builder) Build(ctx context.Context, sc model.ScoredCandidate, org model.OrganizationContext, enriched *model.EnrichedContext, rank int) *model.Opportunity {
	now := time.Now()
	urgency := EffectiveUrgency(sc.RawCandidate)
	window, ok := expiryWindows[urgency]
	if !ok {
		window = expiryWindows[model.UrgencyMedium]
	}
	expiresAt := now.Add(window)

	opp := &model.Opportunity{
		ID:           uuid.NewString(),
		Title:        sc.Title,
		Description:  sc.Description,
		Type:         sc.Type,
		PersonaID:    sc.PersonaID,
		Urgency:      urgency,
		Window:       sc.Window,
		ExpiresAt:    expiresAt,
		Confidence:   model.ClampConfidence(effectiveConfidence(sc.RawCandidate)),
		Score:        sc.Score,
		Status:       model.OpportunityStatusNew,
		CreatedAt:    now,
		Organization: org.Name,
	}
	if opp.Description == "" {
		opp.Description = sc.Action
	}
	if p, err := persona.Get(sc.PersonaID); err == nil {
		opp.PersonaName = p.Name
	}

	opp.SourceInsights = sampleSources(sc, enriched)

	if b.gw != nil && rank < b.enhanceTopN {
		if enh := b.enhance(ctx, sc, org); enh != nil {
			applyEnhancement(opp, enh, now, expiresAt)
		}
	}

	// 无增强（无 LLM、排名靠后或解析失败）时使用模板化行动项
	if len(opp.ActionItems) == 0 {
		opp.ActionItems = fallbackActions(sc, now, expiresAt)
	}

	return opp
}

// enhance 请求生成式增强，任何失败都吞掉并返回 nil，绝不让单个机会的构建失败
func (b *Builder) enhance(ctx context.Context, sc model.ScoredCandidate, org model.OrganizationContext) *enhancement {
	raw, err := b.gw.Call(ctx, "你是一名公关行动策划专家。请只输出 JSON 字符串。", buildEnhancePrompt(sc, org))
	if err != nil {
		logger.Log.Warnf("机会增强调用失败 [%s]: %v", sc.Title, err)
		return nil
	}

	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")

	var enh enhancement
	if err := json.Unmarshal([]byte(clean), &enh); err != nil {
		logger.Log.Warnf("机会增强解析失败 [%s]: %v", sc.Title, err)
		return nil
	}
	return &enh
}

func buildEnhancePrompt(sc model.ScoredCandidate, org model.OrganizationContext) string {
	return fmt.Sprintf(`组织 [%s]（行业：%s）捕捉到一个高优先级机会：

标题: %s
描述: %s
建议动作: %s
时间窗口: %s

请把它细化为可以直接执行的行动剧本，严格按照以下 JSON 格式返回：
{
	"title": "更锐利的机会标题",
	"description": "一句话机会说明",
	"action_items": [
		{"action": "具体动作", "owner": "责任角色", "deadline": "24", "success_metric": "成功指标"}
	],
	"expected_impact": {"revenue": "...", "reputation": "...", "competitive_advantage": "...", "risk_mitigation": "..."},
	"confidence_factors": ["支撑因素1"],
	"risks": ["风险1"]
}
action_items 给 3-5 条；deadline 用 "24"/"48"/"72"（小时）、"N days" 或 "week" 表达。`,
		org.Name, org.Industry, sc.Title, sc.Description, sc.Action, sc.Window)
}

// applyEnhancement 把增强结果写进机会，deadline 统一解析并夹到过期时间内
func applyEnhancement(opp *model.Opportunity, enh *enhancement, now, expiresAt time.Time) {
	if enh.Title != "" {
		opp.Title = enh.Title
	}
	if enh.Description != "" {
		opp.Description = enh.Description
	}
	opp.ExpectedImpact = enh.ExpectedImpact
	opp.ConfidenceFactors = enh.ConfidenceFactors
	opp.Risks = enh.Risks

	for i, a := range enh.ActionItems {
		if a.Action == "" {
			continue
		}
		owner := a.Owner
		if owner == "" {
			owner = fallbackOwners[i%len(fallbackOwners)]
		}
		deadline := now.Add(ParseDeadline(a.Deadline))
		if deadline.After(expiresAt) {
			deadline = expiresAt
		}
		opp.ActionItems = append(opp.ActionItems, model.ActionItem{
			Step:          len(opp.ActionItems) + 1,
			Action:        a.Action,
			Owner:         owner,
			Deadline:      deadline,
			SuccessMetric: a.SuccessMetric,
		})
	}
}

// fallbackActions 模板化行动项：每个人格动作动词一步，责任人 CEO/CMO/COO 轮转，
// 截止时间从现在起按天递增
func fallbackActions(sc model.ScoredCandidate, now, expiresAt time.Time) []model.ActionItem {
	verbs := []string{"评估并确认应对方案", "执行首轮对外动作", "复盘执行效果"}
	if p, err := persona.Get(sc.PersonaID); err == nil && len(p.ActionVerbs) > 0 {
		verbs = p.ActionVerbs
	}
	if len(verbs) > 3 {
		verbs = verbs[:3]
	}

	items := make([]model.ActionItem, 0, len(verbs))
	for i, verb := range verbs {
		deadline := now.Add(time.Duration(i+1) * 24 * time.Hour)
		if deadline.After(expiresAt) {
			deadline = expiresAt
		}
		items = append(items, model.ActionItem{
			Step:          i + 1,
			Action:        verb,
			Owner:         fallbackOwners[i%len(fallbackOwners)],
			Deadline:      deadline,
			SuccessMetric: "按时完成并同步结果",
		})
	}
	return items
}

// ParseDeadline 把 "24"/"48"/"72" 小时、"N days"、"week" 等表达解析为时长，
// 无法识别时默认 48 小时
func ParseDeadline(s string) time.Duration {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return defaultDeadline
	}
	if strings.Contains(v, "week") || strings.Contains(v, "周") {
		return 7 * 24 * time.Hour
	}
	if strings.Contains(v, "day") || strings.Contains(v, "天") {
		for _, f := range strings.Fields(strings.ReplaceAll(v, "天", " 天")) {
			if n, err := strconv.Atoi(f); err == nil && n > 0 {
				return time.Duration(n) * 24 * time.Hour
			}
		}
		return defaultDeadline
	}
	switch {
	case strings.Contains(v, "72"):
		return 72 * time.Hour
	case strings.Contains(v, "48"):
		return 48 * time.Hour
	case strings.Contains(v, "24"):
		return 24 * time.Hour
	}
	return defaultDeadline
}

// sampleSources 从富化上下文取样来源回链：至多 3 个事件、5 个实体、3 条趋势
func sampleSources(sc model.ScoredCandidate, enriched *model.EnrichedContext) model.SourceInsights {
	src := model.SourceInsights{Sections: []string{sc.Section}}
	if enriched == nil {
		return src
	}
	for _, e := range enriched.Events {
		if len(src.Events) >= 3 {
			break
		}
		src.Events = append(src.Events, e.Title)
	}
	for _, ent := range distinct(enriched.Entities) {
		if len(src.Entities) >= 5 {
			break
		}
		src.Entities = append(src.Entities, ent)
	}
	for _, t := range enriched.Trends {
		if len(src.Trends) >= 3 {
			break
		}
		src.Trends = append(src.Trends, t.Topic)
	}
	return src
}
