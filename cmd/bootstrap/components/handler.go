package components

import (
	"log/slog"

	"quickbid/internal/handler"
	"quickbid/internal/handler/api"
	"quickbid/internal/handler/middleware"
	"quickbid/internal/handler/ws"
	"quickbid/internal/pkg/config"
	"quickbid/internal/realtime"
	"quickbid/internal/usecase/commands"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAuctionHandler,
		NewWSHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

func NewWSHandler(
	hub *realtime.Hub,
	bids commands.BidCommands,
	presence commands.PresenceCommands,
	cfg config.Config,
	log *slog.Logger,
) *ws.Handler {
	return ws.NewHandler(hub, bids, presence, cfg.WS, log)
}
