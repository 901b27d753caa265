package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/logger"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/model"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/search"
)

const (
	maxFindingsPerSubject = 6
	maxContentLen         = 5000
	minContentLen         = 100
	lookbackDays          = 3
)

// subject 一个待搜索的监测对象
type subject struct {
	query    string
	category string // competitor / topic / general
}

// Collector 监测采集器：按组织配置搜索新闻并抽取正文
type Collector struct {
	searcher search.Searcher
}

// NewCollector 创建采集器
func NewCollector(searcher search.Searcher) *Collector {
	return &Collector{searcher: searcher}
}

// Collect 为一个组织采集原始发现，并构建打分用的富化上下文。
// 各监测对象并行搜索；单个对象失败只记日志，不中断整体采集。
func (c *Collector) Collect(ctx context.Context, org model.OrganizationContext) ([]model.RawFinding, *model.EnrichedContext, error) {
	subjects := buildSubjects(org)
	if len(subjects) == 0 {
		return nil, nil, fmt.Errorf("organization %s has nothing to monitor", org.Name)
	}

	now := time.Now()
	endDate := now.Format(time.DateOnly)
	startDate := now.AddDate(0, 0, -lookbackDays).Format(time.DateOnly)

	var findings []model.RawFinding
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, sub := range subjects {
		wg.Add(1)
		go func(sub subject) {
			defer wg.Done()

			req := &search.Request{
				Query:      sub.query,
				Topic:      "news",
				MaxResults: 20,
				StartDate:  startDate,
				EndDate:    endDate,
			}
			resp, err := c.searcher.Search(ctx, req)
			if err != nil {
				logger.Log.Errorf("搜索监测对象失败 [%s]: %v", sub.query, err)
				return
			}

			var valid []model.RawFinding
			for _, item := range resp.Results {
				content := item.Content
				// 摘要太短时尝试抓取正文
				if len(content) < 500 {
					fetched, err := fetchAndCleanContent(item.URL)
					if err == nil && len(fetched) > len(content) {
						content = fetched
					}
				}
				if len(content) > maxContentLen {
					content = content[:maxContentLen]
				}
				if len(content) < minContentLen {
					continue
				}
				valid = append(valid, model.RawFinding{
					Title:    item.Title,
					Link:     item.URL,
					Source:   sub.query,
					PubDate:  item.PublishedDate,
					Snippet:  content,
					Category: sub.category,
				})
				if len(valid) >= maxFindingsPerSubject {
					break
				}
			}

			if len(valid) == 0 {
				logger.Log.Warnf("监测对象 [%s] 未找到足够的有效内容", sub.query)
				return
			}

			mu.Lock()
			findings = append(findings, valid...)
			mu.Unlock()
		}(sub)
	}

	wg.Wait()

	return findings, buildEnrichment(org, findings), nil
}

// buildSubjects 组织本身 + 竞争对手 + 话题
func buildSubjects(org model.OrganizationContext) []subject {
	var subs []subject
	if org.Name != "" {
		subs = append(subs, subject{query: org.Name, category: "general"})
	}
	for _, comp := range org.Competitors {
		subs = append(subs, subject{query: comp.Name, category: "competitor"})
	}
	for _, topic := range org.Topics {
		subs = append(subs, subject{query: topic, category: "topic"})
	}
	return subs
}

// buildEnrichment 从发现构建富化上下文：事件、命名实体、趋势话题
func buildEnrichment(org model.OrganizationContext, findings []model.RawFinding) *model.EnrichedContext {
	enriched := &model.EnrichedContext{}

	seen := make(map[string]struct{})
	addEntity := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		enriched.Entities = append(enriched.Entities, name)
	}

	perTopic := make(map[string]int)
	for _, f := range findings {
		enriched.Events = append(enriched.Events, model.Event{
			Title:       f.Title,
			Description: truncate(f.Snippet, 200),
			Date:        f.PubDate,
		})
		addEntity(f.Source)
		if f.Category == "topic" {
			perTopic[f.Source]++
		}
	}
	for _, comp := range org.Competitors {
		addEntity(comp.Name)
	}

	for _, topic := range org.Topics {
		momentum := "steady"
		if perTopic[topic] >= 3 {
			momentum = "rising"
		}
		enriched.Trends = append(enriched.Trends, model.Trend{Topic: topic, Momentum: momentum})
	}

	return enriched
}

// fetchAndCleanContent 抓取 URL 并提取核心文本
func fetchAndCleanContent(url string) (string, error) {
	article, err := readability.FromURL(url, 30*time.Second)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
