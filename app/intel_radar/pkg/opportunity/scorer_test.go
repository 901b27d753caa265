package opportunity

import (
	"testing"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/persona"
)

func TestScoreUrgencyMonotonic(t *testing.T) {
	critical := model.RawCandidate{
		Type:       model.OpportunityCompetitive,
		PersonaID:  persona.RiskProphet, // critical 倾向
		Confidence: 80,
	}
	low := critical
	low.PersonaID = ""
	low.Confidence = 80

	if Score(critical, nil) <= Score(low, nil) {
		t.Errorf("critical 候选评分 %v 应高于 medium 候选 %v", Score(critical, nil), Score(low, nil))
	}
}

func TestScoreWindowEscalatesToCritical(t *testing.T) {
	c := model.RawCandidate{PersonaID: persona.OpportunityHunter, Window: "未来 48 小时", Confidence: 80}
	if got := EffectiveUrgency(c); got != model.UrgencyCritical {
		t.Errorf("EffectiveUrgency = %s, want critical", got)
	}

	c.Window = "下季度"
	if got := EffectiveUrgency(c); got != model.UrgencyMedium {
		t.Errorf("EffectiveUrgency = %s, want persona bias medium", got)
	}

	c.PersonaID = "unknown"
	if got := EffectiveUrgency(c); got != model.UrgencyMedium {
		t.Errorf("EffectiveUrgency = %s, want medium fallback", got)
	}
}

func TestScoreSectionBonuses(t *testing.T) {
	base := model.RawCandidate{PersonaID: persona.OpportunityHunter, Confidence: 80}

	immediate := base
	immediate.Section = model.SectionImmediateOpportunities
	threat := base
	threat.Section = model.SectionCriticalThreats

	if got, want := Score(immediate, nil)-Score(base, nil), 20.0; got != want {
		t.Errorf("immediate 加成 = %v, want %v", got, want)
	}
	if got, want := Score(threat, nil)-Score(base, nil), 15.0; got != want {
		t.Errorf("critical_threats 加成 = %v, want %v", got, want)
	}

	cascade := base
	cascade.Type = model.OpportunityCascade
	if got, want := Score(cascade, nil)-Score(base, nil), 10.0; got != want {
		t.Errorf("cascade 加成 = %v, want %v", got, want)
	}
}

func TestScoreEnrichmentBonuses(t *testing.T) {
	c := model.RawCandidate{PersonaID: persona.OpportunityHunter, Confidence: 80}

	rich := &model.EnrichedContext{
		Entities: []string{"a", "b", "c", "d", "e", "f"}, // 6 个去重实体 > 5
	}
	if got, want := Score(c, rich)-Score(c, nil), 10.0; got != want {
		t.Errorf("实体加成 = %v, want %v", got, want)
	}

	// 重复实体不计入
	dup := &model.EnrichedContext{
		Entities: []string{"a", "a", "a", "b", "c", "d"},
	}
	if got := Score(c, dup) - Score(c, nil); got != 0 {
		t.Errorf("重复实体不应触发加成, got %v", got)
	}

	events := &model.EnrichedContext{Events: make([]model.Event, 11)}
	if got, want := Score(c, events)-Score(c, nil), 15.0; got != want {
		t.Errorf("事件加成 = %v, want %v", got, want)
	}
}

func TestRankFiltersLowConfidence(t *testing.T) {
	candidates := []model.RawCandidate{
		{Title: "high", Confidence: 90},
		{Title: "low", Confidence: 30},
	}

	ranked := Rank(candidates, nil, DefaultRankOptions())
	if len(ranked) != 1 || ranked[0].Title != "high" {
		t.Errorf("Rank() = %+v", ranked)
	}
}

func TestRankUnstatedConfidenceUsesPersonaThreshold(t *testing.T) {
	// risk_prophet 阈值 60，恰好达到默认下限
	candidates := []model.RawCandidate{
		{Title: "unstated", PersonaID: persona.RiskProphet},
	}

	ranked := Rank(candidates, nil, DefaultRankOptions())
	if len(ranked) != 1 {
		t.Fatalf("Rank() = %+v", ranked)
	}
}

func TestRankSortsAndTruncates(t *testing.T) {
	var candidates []model.RawCandidate
	for i := 0; i < 15; i++ {
		candidates = append(candidates, model.RawCandidate{Title: "c", Confidence: 70})
	}
	// 一个必然排第一的候选
	candidates = append(candidates, model.RawCandidate{
		Title:      "top",
		Section:    model.SectionImmediateOpportunities,
		Confidence: 95,
		Window:     "24 小时",
	})

	ranked := Rank(candidates, nil, RankOptions{MinConfidence: 60, MaxOpportunities: 10})
	if len(ranked) != 10 {
		t.Fatalf("Rank() 截断后 %d 个, want 10", len(ranked))
	}
	if ranked[0].Title != "top" {
		t.Errorf("ranked[0] = %+v", ranked[0])
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("排序不是降序: %v > %v", ranked[i].Score, ranked[i-1].Score)
		}
	}
}
