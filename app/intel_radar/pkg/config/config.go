package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM           LLMConfig           `yaml:"llm"`
	Search        SearchConfig        `yaml:"search"`
	Organizations []OrgConfig         `yaml:"organizations"`
	Log           LogConfig           `yaml:"log"`
	Concurrency   ConcurrencyConfig   `yaml:"concurrency"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	DB            DBConfig            `yaml:"db"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// SearchConfig 搜索相关配置
type SearchConfig struct {
	Provider string        `yaml:"provider"`
	Tavily   TavilyConfig  `yaml:"tavily"`
	SearXNG  SearXNGConfig `yaml:"searxng"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey string `yaml:"api_key"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// OrgConfig 被监测组织的配置
type OrgConfig struct {
	Name         string            `yaml:"name"`
	Industry     string            `yaml:"industry"`
	Competitors  []CompetitorEntry `yaml:"competitors"`
	Topics       []string          `yaml:"topics"`
	Goals        map[string]bool   `yaml:"goals"`
	AnalysisType string            `yaml:"analysis_type"` // 默认 comprehensive
}

// CompetitorEntry 竞争对手条目
type CompetitorEntry struct {
	Name     string `yaml:"name"`
	Priority string `yaml:"priority"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发与限流配置
type ConcurrencyConfig struct {
	// CallInterval 相邻 LLM 调用之间的最小间隔，保护共享上游限额
	CallInterval time.Duration `yaml:"call_interval"`
	Burst        int           `yaml:"burst"`
}

// PipelineConfig 流水线调参
type PipelineConfig struct {
	MaxOpportunities int           `yaml:"max_opportunities"` // 排名截断，默认 10
	MinConfidence    float64       `yaml:"min_confidence"`    // 进入剧本的最低置信度，默认 60
	EnhanceTopN      int           `yaml:"enhance_top_n"`     // 仅前 N 名走 LLM 增强，默认 5
	RunTimeout       time.Duration `yaml:"run_timeout"`       // 0 表示不设总超时
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Concurrency.CallInterval <= 0 {
		c.Concurrency.CallInterval = 2 * time.Second
	}
	if c.Concurrency.Burst <= 0 {
		c.Concurrency.Burst = 1
	}
	if c.Pipeline.MaxOpportunities <= 0 {
		c.Pipeline.MaxOpportunities = 10
	}
	if c.Pipeline.MinConfidence <= 0 {
		c.Pipeline.MinConfidence = 60
	}
	if c.Pipeline.EnhanceTopN <= 0 {
		c.Pipeline.EnhanceTopN = 5
	}
}
