package memory

import (
	"context"
	"time"
)

// Entry 一条长期记忆：某组织某类分析的合并结果快照
type Entry struct {
	Organization string
	AnalysisType string
	Personas     []string
	Content      string // 合并情报的 JSON 序列化
	Metadata     map[string]string
	CreatedAt    time.Time
}

// Store 长期记忆存储。核心视角下只追加，失败只记日志不影响主流程。
type Store interface {
	Save(ctx context.Context, e *Entry) error
}

// Nop 空实现，未配置数据库时使用
type Nop struct{}

// Save 丢弃记录
func (Nop) Save(ctx context.Context, e *Entry) error { return nil }
