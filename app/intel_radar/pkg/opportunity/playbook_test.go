package opportunity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/persona"
)

// mockBuilderGateway 剧本增强网关桩
type mockBuilderGateway struct {
	calls int
	raw   string
	err   error
}

func (m *mockBuilderGateway) Call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls++
	return m.raw, m.err
}

var buildOrg = model.OrganizationContext{Name: "Acme", Industry: "cloud"}

func scoredCandidate(window string) model.ScoredCandidate {
	return model.ScoredCandidate{
		RawCandidate: model.RawCandidate{
			Type:       model.OpportunityCompetitive,
			PersonaID:  persona.CompetitiveStrategist,
			Section:    model.SectionCompetitiveMoves,
			Title:      "Globex: 发布新品",
			Action:     "起草回应",
			Window:     window,
			Confidence: 80,
		},
		Score: 120,
	}
}

func TestBuildWithoutGatewayUsesFallback(t *testing.T) {
	b := NewBuilder(nil, 5)

	opp := b.Build(context.Background(), scoredCandidate(""), buildOrg, nil, 0)

	require.NotEmpty(t, opp.ID)
	require.Equal(t, "new", opp.Status)
	require.Equal(t, "Acme", opp.Organization)
	require.Equal(t, "Competitive Strategist", opp.PersonaName)
	require.True(t, opp.ExpiresAt.After(opp.CreatedAt), "expires_at 必须晚于 created_at")

	// 兜底剧本固定三步，责任人轮转
	require.Len(t, opp.ActionItems, 3)
	owners := []string{"CEO", "CMO", "COO"}
	for i, item := range opp.ActionItems {
		require.Equal(t, i+1, item.Step)
		require.Equal(t, owners[i], item.Owner)
		require.False(t, item.Deadline.After(opp.ExpiresAt), "deadline 不得晚于 expires_at")
	}
}

func TestBuildExpiryWindowPerUrgency(t *testing.T) {
	b := NewBuilder(nil, 5)

	cases := []struct {
		window string
		want   time.Duration
	}{
		{"24 小时内", 24 * time.Hour},  // 升级为 critical
		{"", 72 * time.Hour},        // competitive_strategist 倾向 high
		{"下个季度", 72 * time.Hour},    // 无 24/48 字样仍取人格倾向
	}
	for _, c := range cases {
		opp := b.Build(context.Background(), scoredCandidate(c.window), buildOrg, nil, 0)
		got := opp.ExpiresAt.Sub(opp.CreatedAt)
		require.Equal(t, c.want, got, "window %q", c.window)
	}
}

func TestBuildEnhancesOnlyTopRanks(t *testing.T) {
	gw := &mockBuilderGateway{raw: `{"title":"更锐利的标题","action_items":[{"action":"动作","deadline":"24"}]}`}
	b := NewBuilder(gw, 2)

	top := b.Build(context.Background(), scoredCandidate(""), buildOrg, nil, 0)
	require.Equal(t, 1, gw.calls)
	require.Equal(t, "更锐利的标题", top.Title)

	tail := b.Build(context.Background(), scoredCandidate(""), buildOrg, nil, 2)
	require.Equal(t, 1, gw.calls, "排名 2 不应触发增强")
	require.Equal(t, "Globex: 发布新品", tail.Title)
	require.Len(t, tail.ActionItems, 3)
}

func TestBuildEnhancementFailureFallsBack(t *testing.T) {
	gw := &mockBuilderGateway{err: errors.New("upstream overloaded")}
	b := NewBuilder(gw, 5)

	opp := b.Build(context.Background(), scoredCandidate(""), buildOrg, nil, 0)
	require.Len(t, opp.ActionItems, 3, "增强失败必须回退到模板剧本")
	require.Equal(t, "new", opp.Status)
}

func TestBuildEnhancementDeadlineClamped(t *testing.T) {
	// critical 窗口 24h，但模型给了 week 级 deadline
	gw := &mockBuilderGateway{raw: `{"action_items":[{"action":"长周期动作","deadline":"week"}]}`}
	b := NewBuilder(gw, 5)

	opp := b.Build(context.Background(), scoredCandidate("24 小时"), buildOrg, nil, 0)
	require.Len(t, opp.ActionItems, 1)
	require.False(t, opp.ActionItems[0].Deadline.After(opp.ExpiresAt))
}

func TestBuildSourceSampling(t *testing.T) {
	enriched := &model.EnrichedContext{
		Events:   []model.Event{{Title: "e1"}, {Title: "e2"}, {Title: "e3"}, {Title: "e4"}},
		Entities: []string{"a", "b", "c", "d", "e", "f", "a"},
		Trends:   []model.Trend{{Topic: "t1"}, {Topic: "t2"}, {Topic: "t3"}, {Topic: "t4"}},
	}
	b := NewBuilder(nil, 5)

	opp := b.Build(context.Background(), scoredCandidate(""), buildOrg, enriched, 0)
	require.Len(t, opp.SourceInsights.Events, 3)
	require.Len(t, opp.SourceInsights.Entities, 5)
	require.Len(t, opp.SourceInsights.Trends, 3)
	require.Equal(t, []string{model.SectionCompetitiveMoves}, opp.SourceInsights.Sections)
}

func TestParseDeadline(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"24", 24 * time.Hour},
		{"48", 48 * time.Hour},
		{"72", 72 * time.Hour},
		{"24 hours", 24 * time.Hour},
		{"3 days", 3 * 24 * time.Hour},
		{"2 天", 2 * 24 * time.Hour},
		{"week", 7 * 24 * time.Hour},
		{"一周", 7 * 24 * time.Hour},
		{"", 48 * time.Hour},
		{"asap", 48 * time.Hour},
	}
	for _, c := range cases {
		if got := ParseDeadline(c.in); got != c.want {
			t.Errorf("ParseDeadline(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
