package collector

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/search"
)

// mockSearcher 按 query 返回预设结果
type mockSearcher struct {
	mu      sync.Mutex
	queries []string
	results map[string][]search.Result
	err     error
}

func (m *mockSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	m.mu.Lock()
	m.queries = append(m.queries, req.Query)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &search.Response{Results: m.results[req.Query]}, nil
}

// longContent 超过正文抓取阈值，避免测试中触发网络请求
var longContent = strings.Repeat("内容 ", 300)

var collectOrg = model.OrganizationContext{
	Name: "Acme",
	Competitors: []model.Competitor{
		{Name: "Globex", Priority: "high"},
	},
	Topics: []string{"edge computing"},
}

func TestCollectSearchesAllSubjects(t *testing.T) {
	m := &mockSearcher{results: map[string][]search.Result{
		"Acme":           {{Title: "acme news", URL: "http://a", Content: longContent}},
		"Globex":         {{Title: "globex news", URL: "http://g", Content: longContent}},
		"edge computing": {{Title: "edge news", URL: "http://e", Content: longContent}},
	}}
	c := NewCollector(m)

	findings, enriched, err := c.Collect(context.Background(), collectOrg)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(m.queries) != 3 {
		t.Errorf("queries = %v", m.queries)
	}
	if len(findings) != 3 {
		t.Errorf("findings = %d, want 3", len(findings))
	}

	categories := map[string]bool{}
	for _, f := range findings {
		categories[f.Category] = true
	}
	for _, want := range []string{"general", "competitor", "topic"} {
		if !categories[want] {
			t.Errorf("缺少 category %s", want)
		}
	}
	if enriched == nil || len(enriched.Events) != 3 {
		t.Errorf("enriched = %+v", enriched)
	}
}

func TestCollectSkipsShortContent(t *testing.T) {
	m := &mockSearcher{results: map[string][]search.Result{
		"Acme": {
			{Title: "solid", URL: "http://a", Content: longContent},
			// 没有 URL 可抓取时，短内容被丢弃
			{Title: "thin", URL: "", Content: "太短"},
		},
	}}
	c := NewCollector(m)

	findings, _, err := c.Collect(context.Background(), model.OrganizationContext{Name: "Acme"})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(findings) != 1 || findings[0].Title != "solid" {
		t.Errorf("findings = %+v", findings)
	}
}

func TestCollectSearchFailureIsNotFatal(t *testing.T) {
	m := &mockSearcher{err: errors.New("search provider down")}
	c := NewCollector(m)

	findings, enriched, err := c.Collect(context.Background(), collectOrg)
	if err != nil {
		t.Fatalf("单个搜索失败不应中断采集: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings = %v", findings)
	}
	if enriched == nil {
		t.Error("即使无发现也应返回富化上下文骨架")
	}
}

func TestCollectNothingToMonitor(t *testing.T) {
	c := NewCollector(&mockSearcher{})
	_, _, err := c.Collect(context.Background(), model.OrganizationContext{})
	if err == nil {
		t.Error("空白组织配置应返回错误")
	}
}

func TestBuildEnrichmentEntitiesAndTrends(t *testing.T) {
	findings := []model.RawFinding{
		{Title: "t1", Source: "edge computing", Category: "topic"},
		{Title: "t2", Source: "edge computing", Category: "topic"},
		{Title: "t3", Source: "edge computing", Category: "topic"},
		{Title: "g1", Source: "Globex", Category: "competitor"},
	}

	enriched := buildEnrichment(collectOrg, findings)

	// 实体去重：edge computing、Globex（来自发现与竞对配置各一次）
	if len(enriched.Entities) != 2 {
		t.Errorf("Entities = %v", enriched.Entities)
	}
	if len(enriched.Trends) != 1 {
		t.Fatalf("Trends = %v", enriched.Trends)
	}
	if enriched.Trends[0].Momentum != "rising" {
		t.Errorf("3 条话题发现应标记 rising, got %s", enriched.Trends[0].Momentum)
	}

	// 少于 3 条时保持 steady
	enriched = buildEnrichment(collectOrg, findings[:1])
	if enriched.Trends[0].Momentum != "steady" {
		t.Errorf("Momentum = %s, want steady", enriched.Trends[0].Momentum)
	}
}
