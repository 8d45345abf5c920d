package components

import (
	"quickbid/internal/infra/events"
	"quickbid/internal/infra/repository"
	"quickbid/internal/registry"
	"quickbid/internal/usecase/commands"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repository.NewAuctionRepository,
			fx.As(new(commands.AuctionRepository)),
			fx.As(new(registry.Source)),
		),
		fx.Annotate(
			events.NewRedisPublisher,
			fx.As(new(commands.EventPublisher)),
		),
	),
)
