package server

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/intel_radar/app/display/internal/conf"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/storage"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/config"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/engine"
	irLogger "github.com/iWorld-y/intel_radar/app/intel_radar/pkg/logger"
)

// NewRadarEngine 初始化情报引擎，供 HTTP 触发扫描使用
func NewRadarEngine(c *conf.Radar, logger log.Logger) (*engine.Engine, func(), error) {
	if c == nil {
		return nil, func() {}, nil
	}

	// 将 internal/conf.Radar 转换为 pkg/config.Config
	irCfg := &config.Config{
		LLM: config.LLMConfig{
			BaseURL: c.Llm.BaseUrl,
			APIKey:  c.Llm.ApiKey,
			Model:   c.Llm.Model,
		},
		Search: config.SearchConfig{
			Provider: c.Search.Provider,
			Tavily: config.TavilyConfig{
				APIKey: c.Search.Tavily.ApiKey,
			},
			SearXNG: config.SearXNGConfig{
				BaseURL: c.Search.Searxng.BaseUrl,
				Timeout: int(c.Search.Searxng.Timeout),
			},
		},
		Log: config.LogConfig{
			Level: c.Log.Level,
			File:  c.Log.File,
		},
		DB: config.DBConfig{
			Host:     c.Db.Host,
			Port:     int(c.Db.Port),
			User:     c.Db.User,
			Password: c.Db.Password,
			Name:     c.Db.Name,
		},
	}
	for _, org := range c.Organizations {
		oc := config.OrgConfig{
			Name:         org.Name,
			Industry:     org.Industry,
			Topics:       org.Topics,
			Goals:        org.Goals,
			AnalysisType: org.AnalysisType,
		}
		for _, comp := range org.Competitors {
			oc.Competitors = append(oc.Competitors, config.CompetitorEntry{
				Name:     comp.Name,
				Priority: comp.Priority,
			})
		}
		irCfg.Organizations = append(irCfg.Organizations, oc)
	}
	if c.Concurrency != nil {
		irCfg.Concurrency = config.ConcurrencyConfig{
			CallInterval: time.Duration(c.Concurrency.CallIntervalMs) * time.Millisecond,
			Burst:        int(c.Concurrency.Burst),
		}
	}
	if c.Pipeline != nil {
		irCfg.Pipeline = config.PipelineConfig{
			MaxOpportunities: int(c.Pipeline.MaxOpportunities),
			MinConfidence:    c.Pipeline.MinConfidence,
			EnhanceTopN:      int(c.Pipeline.EnhanceTopN),
		}
	}
	applyRadarDefaults(irCfg)

	// 初始化日志
	if err := irLogger.InitLogger(irCfg.Log.Level, irCfg.Log.File); err != nil {
		log.NewHelper(logger).Errorf("Failed to init intel_radar logger: %v", err)
		_ = irLogger.InitLogger("info", "") // 降级处理
	}

	// 初始化存储层
	store, err := storage.NewStorage(irCfg.DB)
	if err != nil {
		log.NewHelper(logger).Errorf("Failed to init storage for engine: %v", err)
		return nil, nil, err
	}

	// 初始化核心引擎
	eng, err := engine.NewEngine(irCfg, store)
	if err != nil {
		log.NewHelper(logger).Errorf("Failed to init engine: %v", err)
		return nil, nil, err
	}

	cleanup := func() {
		log.NewHelper(logger).Info("Cleaning up intel_radar engine")
		store.Close()
	}

	return eng, cleanup, nil
}

func applyRadarDefaults(cfg *config.Config) {
	if cfg.Concurrency.CallInterval <= 0 {
		cfg.Concurrency.CallInterval = 2 * time.Second
	}
	if cfg.Concurrency.Burst <= 0 {
		cfg.Concurrency.Burst = 1
	}
	if cfg.Pipeline.MaxOpportunities <= 0 {
		cfg.Pipeline.MaxOpportunities = 10
	}
	if cfg.Pipeline.MinConfidence <= 0 {
		cfg.Pipeline.MinConfidence = 60
	}
	if cfg.Pipeline.EnhanceTopN <= 0 {
		cfg.Pipeline.EnhanceTopN = 5
	}
}
