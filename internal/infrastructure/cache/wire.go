package cache

import "github.com/google/wire"

// ProviderSet 缓存 ProviderSet
var ProviderSet = wire.NewSet(NewCache)
