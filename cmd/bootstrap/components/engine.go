package components

import (
	"context"
	"log/slog"

	"quickbid/internal/pkg/clock"
	"quickbid/internal/realtime"
	"quickbid/internal/registry"
	"quickbid/internal/scheduler"
	"quickbid/internal/usecase/commands"

	"go.uber.org/fx"
)

// EngineModule wires the in-memory core: the auction registry, the realtime
// hub and the timer scheduler.
var EngineModule = fx.Module("engine",
	fx.Provide(
		clock.NewRealClock,
		realtime.NewHub,
		registry.New,
		NewScheduler,
	),
	fx.Invoke(wireExpiry),
)

func NewScheduler(lc fx.Lifecycle, log *slog.Logger) *scheduler.Scheduler {
	s := scheduler.New(log)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			s.Stop()
			return nil
		},
	})
	return s
}

// wireExpiry closes the commands/scheduler cycle: the scheduler fires into
// the control command's expiry path once both exist.
func wireExpiry(s *scheduler.Scheduler, control commands.ControlCommands) {
	s.SetExpireFunc(control.HandleExpiry)
}
