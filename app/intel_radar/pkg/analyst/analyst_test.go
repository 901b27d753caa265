package analyst

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/persona"
)

// mockGateway 按调用顺序返回预设响应
type mockGateway struct {
	calls     int
	responses []func() (string, error)
}

func (m *mockGateway) Call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	idx := m.calls
	m.calls++
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx]()
}

func reply(s string) func() (string, error) {
	return func() (string, error) { return s, nil }
}

func replyErr(msg string) func() (string, error) {
	return func() (string, error) { return "", errors.New(msg) }
}

var testOrg = model.OrganizationContext{Name: "Acme", Industry: "cloud"}

func TestAnalyzeParsesStructuredResponse(t *testing.T) {
	gw := &mockGateway{responses: []func() (string, error){
		reply("```json\n{\"key_insights\":[\"a\"],\"recommendations\":[\"b\"],\"analysis\":\"ok\",\"confidence\":82}\n```"),
	}}
	a := NewAnalyzer(gw)
	p := persona.MustGet("competitive_strategist")

	res := a.Analyze(context.Background(), p, "request", testOrg, false)
	require.Equal(t, "competitive_strategist", res.Persona)
	require.Equal(t, []string{"a"}, res.KeyInsights)
	require.Equal(t, float64(82), res.Confidence)
	require.Empty(t, res.Status)
}

func TestAnalyzeNeverFails(t *testing.T) {
	gw := &mockGateway{responses: []func() (string, error){
		replyErr("llm upstream unavailable after 3 attempts"),
	}}
	a := NewAnalyzer(gw)
	p := persona.MustGet("risk_prophet")

	res := a.Analyze(context.Background(), p, "request", testOrg, true)
	require.NotNil(t, res)
	require.Equal(t, model.StatusFallback, res.Status)
	require.Equal(t, float64(50), res.Confidence)
	require.NotEmpty(t, res.KeyInsights)
	require.NotEmpty(t, res.Recommendations)
	require.Contains(t, res.Note, "risk_prophet")
	// 兜底结果不再触发第二意见
	require.Equal(t, 1, gw.calls)
	require.Nil(t, res.SecondOpinion)
}

func TestAnalyzeUnparseableBecomesTextResponse(t *testing.T) {
	gw := &mockGateway{responses: []func() (string, error){
		reply("这不是 JSON，只是模型的自由发挥。"),
	}}
	a := NewAnalyzer(gw)
	p := persona.MustGet("narrative_architect")

	res := a.Analyze(context.Background(), p, "request", testOrg, false)
	require.Equal(t, model.StatusTextResponse, res.Status)
	require.Equal(t, "这不是 JSON，只是模型的自由发挥。", res.AnalysisText)
}

func TestAnalyzeSecondOpinionConsensus(t *testing.T) {
	gw := &mockGateway{responses: []func() (string, error){
		reply(`{"key_insights":["a"],"analysis":"ok","confidence":90}`),
		reply(`{"alternative_assessment":"另一种解读","blind_spots":["盲点"],"confidence_level":65}`),
	}}
	a := NewAnalyzer(gw)
	p := persona.MustGet("executive_synthesizer")

	res := a.Analyze(context.Background(), p, "request", testOrg, true)
	require.NotNil(t, res.SecondOpinion)
	require.Equal(t, float64(65), res.SecondOpinion.ConfidenceLevel)
	require.Equal(t, float64(65), res.ConsensusLevel)
}

func TestAnalyzeSecondOpinionUnparseableStub(t *testing.T) {
	gw := &mockGateway{responses: []func() (string, error){
		reply(`{"key_insights":["a"],"analysis":"ok","confidence":90}`),
		reply("无法解析的第二意见"),
	}}
	a := NewAnalyzer(gw)
	p := persona.MustGet("executive_synthesizer")

	res := a.Analyze(context.Background(), p, "request", testOrg, true)
	require.NotNil(t, res.SecondOpinion)
	require.Equal(t, model.StatusTextResponse, res.SecondOpinion.Status)
	require.Equal(t, "无法解析的第二意见", res.SecondOpinion.AlternativeAssessment)
	// 解析失败时共识度取缺省值
	require.Equal(t, float64(70), res.ConsensusLevel)
}

func TestParseAnalysisRejectsEmptyObject(t *testing.T) {
	_, ok := parseAnalysis(`{"unknown_field": 1}`)
	require.False(t, ok)
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
