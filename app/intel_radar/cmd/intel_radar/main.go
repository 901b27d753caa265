package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/storage"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/config"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/engine"
	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	orgName := flag.String("org", "", "仅扫描指定组织，为空则扫描全部")
	outPath := flag.String("out", "", "将结果额外写入 JSON 文件")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}

	if len(cfg.Organizations) == 0 {
		log.Fatal("配置错误: 未设置被监测组织 (organizations)")
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动情报雷达...")

	ctx := context.Background()

	// 3. 初始化数据库连接，未配置时仅输出结果不落库
	var store *storage.Storage
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("无法连接数据库: %v. 本次运行不落库。", err)
		} else {
			store = s
			defer store.Close()
			logger.Log.Info("已成功连接到数据库")
		}
	} else {
		logger.Log.Info("未配置数据库信息，跳过数据库连接")
	}

	// 4. 初始化引擎
	eng, err := engine.NewEngine(cfg, store)
	if err != nil {
		logger.Log.Fatalf("引擎初始化失败: %v", err)
	}

	opts := engine.RunOptions{
		ProgressCallback: func(status string, progress int) {
			logger.Log.Infof("进度 %3d%% - %s", progress, status)
		},
	}
	if *orgName != "" {
		for _, oc := range cfg.Organizations {
			if oc.Name == *orgName {
				opts.Organizations = []config.OrgConfig{oc}
				break
			}
		}
		if len(opts.Organizations) == 0 {
			logger.Log.Fatalf("配置中不存在组织 [%s]", *orgName)
		}
	}

	// 5. 执行流水线
	results, err := eng.Run(ctx, opts)
	if err != nil {
		logger.Log.Fatalf("情报扫描失败: %v", err)
	}

	for _, res := range results {
		logger.Log.Infof("组织 [%s]: 置信度 %.1f，产出 %d 个机会",
			res.Organization, res.Intelligence.Confidence, len(res.Opportunities))
		for _, opp := range res.Opportunities {
			logger.Log.Infof("  [%.1f] %s (%s, %s, 截止 %s)",
				opp.Score, opp.Title, opp.Type, opp.Urgency, opp.ExpiresAt.Format("2006-01-02 15:04"))
		}
	}

	if *outPath != "" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			logger.Log.Fatalf("序列化结果失败: %v", err)
		}
		if err := os.WriteFile(*outPath, data, 0644); err != nil {
			logger.Log.Fatalf("写入结果文件失败: %v", err)
		}
		logger.Log.Infof("结果已写入 %s", *outPath)
	}

	logger.Log.Info("✅ 情报扫描完毕")
}
