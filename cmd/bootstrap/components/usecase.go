package components

import (
	"quickbid/internal/realtime"
	"quickbid/internal/scheduler"
	"quickbid/internal/usecase/commands"
	"quickbid/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		fx.Annotate(
			func(h *realtime.Hub) *realtime.Hub { return h },
			fx.As(new(commands.Fanout)),
		),
		fx.Annotate(
			func(s *scheduler.Scheduler) *scheduler.Scheduler { return s },
			fx.As(new(commands.TimerScheduler)),
		),
		commands.NewBidCommands,
		commands.NewControlCommands,
		commands.NewPresenceCommands,
		queries.NewAuctionQueries,
	),
)
