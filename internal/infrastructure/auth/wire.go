package auth

import "github.com/google/wire"

// ProviderSet 令牌校验 ProviderSet
var ProviderSet = wire.NewSet(NewTokenVerifier)
