//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"github.com/wacana/backend/internal/application"
	"github.com/wacana/backend/internal/domain/events"
	"github.com/wacana/backend/internal/infrastructure"
	"github.com/wacana/backend/internal/interfaces"
)

// InitializeAll 初始化所有服务
func InitializeAll() (*App, func(), error) {
	wire.Build(
		// 按层组合 ProviderSet
		infrastructure.ProviderSet, // 基础设施层
		application.ProviderSet,    // 应用层
		interfaces.ProviderSet,     // 接口层
		// 只需要发布能力的组件共用同一条总线
		wire.Bind(new(events.Publisher), new(events.EventBus)),
		NewApp,
	)
	return nil, nil, nil
}
