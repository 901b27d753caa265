package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/intel_radar/app/display/internal/biz"
	"github.com/iWorld-y/intel_radar/app/display/internal/data"
	"github.com/iWorld-y/intel_radar/app/display/internal/service"
)

// ProviderSet 是展示服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewRadarEngine,

	// Data providers
	data.NewData,
	data.NewUserRepo,
	data.NewReportRepo,
	data.NewOpportunityRepo,

	// Biz providers
	biz.NewUserUseCase,
	biz.NewReportUseCase,
	biz.NewOpportunityUseCase,

	// Service providers
	service.NewDisplayService,
)
