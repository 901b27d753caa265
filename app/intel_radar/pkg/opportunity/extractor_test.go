package opportunity

import (
	"testing"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/persona"
)

func TestExtractNilSynthesis(t *testing.T) {
	if got := Extract(nil); got != nil {
		t.Errorf("Extract(nil) = %v", got)
	}
	if got := Extract(&model.CombinedIntelligence{}); got != nil {
		t.Errorf("Extract(empty) = %v", got)
	}
}

func TestExtractOnlyMarkedItems(t *testing.T) {
	ci := &model.CombinedIntelligence{Synthesis: &model.Synthesis{
		CompetitiveLandscape: &model.CompetitiveLandscape{
			Moves: []model.CompetitiveMove{
				{Competitor: "Globex", Move: "发布新品", ResponseRequired: true, Confidence: 80},
				{Competitor: "Initech", Move: "换了 logo"}, // 无回应标记，忽略
			},
			CriticalThreats: []model.CompetitiveMove{
				{Competitor: "Globex", Move: "挖走核心团队", Confidence: 90}, // 严重威胁总是提取
			},
		},
		StakeholderDynamics: &model.StakeholderDynamics{
			PowerShifts: []model.PowerShift{
				{Stakeholder: "监管机构", Shift: "立场转向", Opportunity: "主动沟通", Confidence: 70},
				{Stakeholder: "媒体", Shift: "无明确机会"},
			},
		},
		NarrativeAnalysis: &model.NarrativeAnalysis{
			Narratives: []model.NarrativeItem{
				{Narrative: "AI 安全争论", InsertionPoint: "发布立场文章", Confidence: 75},
				{Narrative: "无插入点的叙事"},
			},
		},
		CascadeDetection: &model.CascadeDetection{
			WeakSignals: []model.WeakSignal{
				{Signal: "供应链异动", PreparationNeeded: "预案演练", Confidence: 65},
				{Signal: "无需准备的信号"},
			},
		},
		MarketIntelligence: &model.MarketIntelligence{
			IndustryMovements: []model.IndustryMovement{
				{Movement: "行业整合", StrategicResponse: "评估并购标的", Confidence: 70},
				{Movement: "无回应的动向"},
			},
		},
		ImmediateOpportunities: []model.ImmediateOpportunity{
			{Title: "即时机会", Action: "立刻跟进", Confidence: 85},
		},
	}}

	out := Extract(ci)
	if len(out) != 7 {
		t.Fatalf("Extract() 提取 %d 个候选, want 7", len(out))
	}

	counts := map[string]int{}
	for _, c := range out {
		counts[c.Section]++
	}
	want := map[string]int{
		model.SectionCompetitiveMoves:       1,
		model.SectionCriticalThreats:        1,
		model.SectionPowerShifts:            1,
		model.SectionNarratives:             1,
		model.SectionWeakSignals:            1,
		model.SectionIndustryMovements:      1,
		model.SectionImmediateOpportunities: 1,
	}
	for section, n := range want {
		if counts[section] != n {
			t.Errorf("section %s: %d candidates, want %d", section, counts[section], n)
		}
	}
}

func TestExtractPersonaAttribution(t *testing.T) {
	ci := &model.CombinedIntelligence{Synthesis: &model.Synthesis{
		CascadeDetection: &model.CascadeDetection{
			WeakSignals: []model.WeakSignal{{Signal: "s", PreparationNeeded: "p"}},
		},
		ImmediateOpportunities: []model.ImmediateOpportunity{{Title: "im"}},
	}}

	out := Extract(ci)
	if len(out) != 2 {
		t.Fatalf("Extract() = %d candidates", len(out))
	}
	if out[0].PersonaID != persona.RiskProphet {
		t.Errorf("weak signal persona = %s", out[0].PersonaID)
	}
	if out[0].Type != model.OpportunityCascade {
		t.Errorf("weak signal type = %s", out[0].Type)
	}
	if out[1].PersonaID != persona.OpportunityHunter {
		t.Errorf("immediate persona = %s", out[1].PersonaID)
	}
	if out[1].Type != model.OpportunityImmediate {
		t.Errorf("immediate type = %s", out[1].Type)
	}
}

func TestExtractCompetitorPrefixedTitle(t *testing.T) {
	ci := &model.CombinedIntelligence{Synthesis: &model.Synthesis{
		CompetitiveLandscape: &model.CompetitiveLandscape{
			Moves: []model.CompetitiveMove{
				{Competitor: "Globex", Move: "发布新品", ResponseRequired: true},
			},
		},
	}}

	out := Extract(ci)
	if len(out) != 1 || out[0].Title != "Globex: 发布新品" {
		t.Errorf("Extract() = %+v", out)
	}
}
