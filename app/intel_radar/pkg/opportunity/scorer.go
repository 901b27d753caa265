package opportunity

import (
	"sort"
	"strings"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/persona"
)

const baseScore = 50.0

// RankOptions 排名参数
type RankOptions struct {
	MinConfidence    float64 // 进入排名的最低置信度，默认 60
	MaxOpportunities int     // 截断数量，默认 10
}

// DefaultRankOptions 默认排名参数
func DefaultRankOptions() RankOptions {
	return RankOptions{MinConfidence: 60, MaxOpportunities: 10}
}

// Score 计算单个候选的优先级评分。
// 基准 50 × 紧急度倍率 × 置信度，再叠加来源与富化加成。
func Score(c model.RawCandidate, enriched *model.EnrichedContext) float64 {
	score := baseScore

	score *= urgencyMultiplier(EffectiveUrgency(c))
	score *= effectiveConfidence(c) / 100

	switch c.Section {
	case model.SectionImmediateOpportunities:
		score += 20
	case model.SectionCriticalThreats:
		score += 15
	}
	if c.Type == model.OpportunityCascade {
		// 级联信号稀少且高价值
		score += 10
	}

	if enriched != nil {
		if len(distinct(enriched.Entities)) > 5 {
			score += 10
		}
		if len(enriched.Events) > 10 {
			score += 15
		}
	}

	return score
}

// Rank 打分后降序排序，过滤低置信候选并截断
func Rank(candidates []model.RawCandidate, enriched *model.EnrichedContext, opts RankOptions) []model.ScoredCandidate {
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = 60
	}
	if opts.MaxOpportunities <= 0 {
		opts.MaxOpportunities = 10
	}

	scored := make([]model.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if effectiveConfidence(c) < opts.MinConfidence {
			continue
		}
		scored = append(scored, model.ScoredCandidate{
			RawCandidate: c,
			Score:        Score(c, enriched),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > opts.MaxOpportunities {
		scored = scored[:opts.MaxOpportunities]
	}
	return scored
}

// EffectiveUrgency 候选的实际紧急度：窗口文本出现 24/48 小时字样时
// 强制升级为 critical，否则取人格默认倾向。
func EffectiveUrgency(c model.RawCandidate) model.Urgency {
	if strings.Contains(c.Window, "24") || strings.Contains(c.Window, "48") {
		return model.UrgencyCritical
	}
	if p, err := persona.Get(c.PersonaID); err == nil {
		return p.UrgencyBias
	}
	return model.UrgencyMedium
}

// effectiveConfidence 候选自述置信度，缺省取人格阈值
func effectiveConfidence(c model.RawCandidate) float64 {
	if c.Confidence > 0 {
		return model.ClampConfidence(c.Confidence)
	}
	if p, err := persona.Get(c.PersonaID); err == nil {
		return p.ConfidenceThreshold
	}
	return baseScore
}

func urgencyMultiplier(u model.Urgency) float64 {
	switch u {
	case model.UrgencyCritical:
		return 2.0
	case model.UrgencyHigh:
		return 1.5
	case model.UrgencyLow:
		return 0.5
	default:
		return 1.0
	}
}

func distinct(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0:0]
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
