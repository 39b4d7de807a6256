package storage

import "github.com/google/wire"

// ProviderSet Storage 基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideDB,            // 提供数据库连接
	NewMessageRepository, // 对话消息仓储
	NewMetricRepository,  // 请求指标仓储
	NewContentRepository, // 站点内容仓储
)
