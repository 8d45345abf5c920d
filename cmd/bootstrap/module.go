package bootstrap

import (
	"quickbid/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	RedisModule,
	JWTModule,
	components.EngineModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.HandlerModule,
)
