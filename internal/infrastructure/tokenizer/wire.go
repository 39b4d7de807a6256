package tokenizer

import "github.com/google/wire"

// ProviderSet Token 计数 ProviderSet
var ProviderSet = wire.NewSet(NewCounter)
