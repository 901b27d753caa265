package opportunity

import (
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/persona"
)

// Extract 扫描合并情报的研判载荷，把带有明确可行动标记的条目转成原始候选。
// 只遍历已知板块；不带标记的条目静默忽略——不是每条洞察都构成机会。
func Extract(ci *model.CombinedIntelligence) []model.RawCandidate {
	if ci == nil || ci.Synthesis == nil {
		return nil
	}
	s := ci.Synthesis
	var out []model.RawCandidate

	if s.CompetitiveLandscape != nil {
		for _, m := range s.CompetitiveLandscape.Moves {
			if !m.ResponseRequired {
				continue
			}
			out = append(out, candidateFromMove(m, model.SectionCompetitiveMoves))
		}
		// 严重威胁默认需要回应
		for _, m := range s.CompetitiveLandscape.CriticalThreats {
			out = append(out, candidateFromMove(m, model.SectionCriticalThreats))
		}
	}

	if s.StakeholderDynamics != nil {
		for _, ps := range s.StakeholderDynamics.PowerShifts {
			if ps.Opportunity == "" {
				continue
			}
			out = append(out, model.RawCandidate{
				Type:        model.OpportunityStakeholder,
				PersonaID:   persona.StakeholderPsychologist,
				Section:     model.SectionPowerShifts,
				Title:       ps.Stakeholder + " 权力格局变化",
				Description: ps.Shift,
				Action:      ps.Opportunity,
				Window:      ps.Window,
				Confidence:  ps.Confidence,
			})
		}
	}

	if s.NarrativeAnalysis != nil {
		for _, n := range s.NarrativeAnalysis.Narratives {
			if n.InsertionPoint == "" {
				continue
			}
			out = append(out, model.RawCandidate{
				Type:        model.OpportunityNarrative,
				PersonaID:   persona.NarrativeArchitect,
				Section:     model.SectionNarratives,
				Title:       n.Narrative,
				Description: "叙事动量: " + n.Momentum,
				Action:      n.InsertionPoint,
				Window:      n.Window,
				Confidence:  n.Confidence,
			})
		}
	}

	if s.CascadeDetection != nil {
		for _, w := range s.CascadeDetection.WeakSignals {
			if w.PreparationNeeded == "" {
				continue
			}
			out = append(out, model.RawCandidate{
				Type:        model.OpportunityCascade,
				PersonaID:   persona.RiskProphet,
				Section:     model.SectionWeakSignals,
				Title:       w.Signal,
				Description: w.PotentialCascade,
				Action:      w.PreparationNeeded,
				Window:      w.Window,
				Confidence:  w.Confidence,
			})
		}
	}

	if s.MarketIntelligence != nil {
		for _, m := range s.MarketIntelligence.IndustryMovements {
			if m.StrategicResponse == "" {
				continue
			}
			out = append(out, model.RawCandidate{
				Type:        model.OpportunityMarket,
				PersonaID:   persona.OpportunityHunter,
				Section:     model.SectionIndustryMovements,
				Title:       m.Movement,
				Description: m.Impact,
				Action:      m.StrategicResponse,
				Window:      m.Window,
				Confidence:  m.Confidence,
			})
		}
	}

	for _, im := range s.ImmediateOpportunities {
		out = append(out, model.RawCandidate{
			Type:       model.OpportunityImmediate,
			PersonaID:  persona.OpportunityHunter,
			Section:    model.SectionImmediateOpportunities,
			Title:      im.Title,
			Action:     im.Action,
			Window:     im.Window,
			Confidence: im.Confidence,
		})
	}

	return out
}

func candidateFromMove(m model.CompetitiveMove, section string) model.RawCandidate {
	title := m.Move
	if m.Competitor != "" {
		title = m.Competitor + ": " + m.Move
	}
	return model.RawCandidate{
		Type:        model.OpportunityCompetitive,
		PersonaID:   persona.CompetitiveStrategist,
		Section:     section,
		Title:       title,
		Description: m.Description,
		Action:      m.SuggestedResponse,
		Window:      m.Window,
		Confidence:  m.Confidence,
	}
}
