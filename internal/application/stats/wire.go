package stats

import "github.com/google/wire"

// ProviderSet 指标应用层
var ProviderSet = wire.NewSet(
	NewRecorder,
	NewSummaryService,
)
