package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/memory"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/persona"
)

// mockAnalyzer 记录调用顺序并返回预设结果
type mockAnalyzer struct {
	mu      sync.Mutex
	order   []string
	results map[string]*model.AnalysisResult
	panicOn string
}

func (m *mockAnalyzer) Analyze(ctx context.Context, p *persona.Persona, request string, org model.OrganizationContext, secondOpinion bool) *model.AnalysisResult {
	m.mu.Lock()
	m.order = append(m.order, p.ID)
	m.mu.Unlock()
	if p.ID == m.panicOn {
		panic("boom")
	}
	if res, ok := m.results[p.ID]; ok {
		return res
	}
	return &model.AnalysisResult{Persona: p.ID}
}

var testOrg = model.OrganizationContext{Name: "Acme"}

func TestRunExecutesPersonasSequentially(t *testing.T) {
	m := &mockAnalyzer{}
	o := NewOrchestrator(m, memory.Nop{})

	o.Run(context.Background(), "comprehensive", nil, testOrg)

	want := []string{
		persona.ExecutiveSynthesizer,
		persona.CompetitiveStrategist,
		persona.StakeholderPsychologist,
	}
	if len(m.order) != len(want) {
		t.Fatalf("order = %v, want %v", m.order, want)
	}
	for i := range want {
		if m.order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, m.order[i], want[i])
		}
	}
}

func TestRunUnknownTypeUsesDefaultRoute(t *testing.T) {
	m := &mockAnalyzer{}
	o := NewOrchestrator(m, nil)

	combined := o.Run(context.Background(), "nonsense", nil, testOrg)

	if len(m.order) != 2 {
		t.Fatalf("order = %v, want 2 personas", m.order)
	}
	if m.order[0] != persona.CompetitiveStrategist || m.order[1] != persona.NarrativeArchitect {
		t.Errorf("order = %v", m.order)
	}
	if combined.AnalysisType != "nonsense" {
		t.Errorf("AnalysisType = %s", combined.AnalysisType)
	}
}

func TestRunSurvivesPersonaPanic(t *testing.T) {
	m := &mockAnalyzer{
		panicOn: persona.CompetitiveStrategist,
		results: map[string]*model.AnalysisResult{
			persona.ExecutiveSynthesizer: {
				Persona:     persona.ExecutiveSynthesizer,
				KeyInsights: []string{"insight"},
				Analysis:    "summary",
			},
		},
	}
	o := NewOrchestrator(m, nil)

	combined := o.Run(context.Background(), "comprehensive", nil, testOrg)

	if len(m.order) != 3 {
		t.Fatalf("panic 不应中止后续人格, order = %v", m.order)
	}
	if len(combined.KeyInsights) != 1 {
		t.Errorf("KeyInsights = %v", combined.KeyInsights)
	}
}

func TestMergeDeduplicatesInInsertionOrder(t *testing.T) {
	results := map[string]*model.AnalysisResult{
		"A": {KeyInsights: []string{"x", "y"}, Recommendations: []string{"r1"}},
		"B": {KeyInsights: []string{"y", "z"}, Recommendations: []string{"r1", "r2"}},
	}

	combined := merge("competitor", testOrg, []string{"A", "B"}, results)

	wantInsights := []string{"x", "y", "z"}
	if len(combined.KeyInsights) != len(wantInsights) {
		t.Fatalf("KeyInsights = %v", combined.KeyInsights)
	}
	for i := range wantInsights {
		if combined.KeyInsights[i] != wantInsights[i] {
			t.Errorf("KeyInsights[%d] = %s, want %s", i, combined.KeyInsights[i], wantInsights[i])
		}
	}
	if len(combined.Recommendations) != 2 {
		t.Errorf("Recommendations = %v", combined.Recommendations)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	results := map[string]*model.AnalysisResult{
		"A": {KeyInsights: []string{"x"}, ConsensusLevel: 80},
	}

	first := merge("competitor", testOrg, []string{"A"}, results)
	second := merge("competitor", testOrg, []string{"A"}, results)

	if len(first.KeyInsights) != len(second.KeyInsights) {
		t.Errorf("merge 不幂等: %v vs %v", first.KeyInsights, second.KeyInsights)
	}
	if first.Confidence != second.Confidence {
		t.Errorf("Confidence %v vs %v", first.Confidence, second.Confidence)
	}
}

func TestMergeConfidenceDefaults(t *testing.T) {
	results := map[string]*model.AnalysisResult{
		"A": {ConsensusLevel: 65},
		"B": {}, // 无共识度的人格按 75 计
	}

	combined := merge("predictive", testOrg, []string{"A", "B"}, results)

	want := (65.0 + 75.0) / 2
	if combined.Confidence != want {
		t.Errorf("Confidence = %v, want %v", combined.Confidence, want)
	}
}

func TestMergeExecutiveSummaryFromSynthesizer(t *testing.T) {
	results := map[string]*model.AnalysisResult{
		"Executive Synthesizer": {Analysis: "高管摘要"},
		"Other":                 {Analysis: "其他"},
	}

	combined := merge("executive_summary", testOrg, []string{"Executive Synthesizer", "Other"}, results)
	if combined.ExecutiveSummary != "高管摘要" {
		t.Errorf("ExecutiveSummary = %s", combined.ExecutiveSummary)
	}
}

func TestMergeSynthesisSectionsAppend(t *testing.T) {
	results := map[string]*model.AnalysisResult{
		"A": {Synthesis: &model.Synthesis{
			ImmediateOpportunities: []model.ImmediateOpportunity{{Title: "a"}},
		}},
		"B": {Synthesis: &model.Synthesis{
			ImmediateOpportunities: []model.ImmediateOpportunity{{Title: "b"}},
			CompetitiveLandscape: &model.CompetitiveLandscape{
				Moves: []model.CompetitiveMove{{Competitor: "Globex"}},
			},
		}},
	}

	combined := merge("comprehensive", testOrg, []string{"A", "B"}, results)
	if combined.Synthesis == nil {
		t.Fatal("Synthesis is nil")
	}
	if len(combined.Synthesis.ImmediateOpportunities) != 2 {
		t.Errorf("ImmediateOpportunities = %v", combined.Synthesis.ImmediateOpportunities)
	}
	if combined.Synthesis.CompetitiveLandscape == nil || len(combined.Synthesis.CompetitiveLandscape.Moves) != 1 {
		t.Errorf("CompetitiveLandscape = %+v", combined.Synthesis.CompetitiveLandscape)
	}
}

func TestFormatFindingsEmpty(t *testing.T) {
	got := FormatFindings(nil)
	if got == "" {
		t.Error("FormatFindings(nil) 应返回常规研判提示")
	}
}
