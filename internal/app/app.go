// Package app is the composition root: it wires the Machine Session Pool,
// Control-Plane Client, Configuration Registry, the three collectors, the
// Dispatcher and the Extract Scheduler into a single go.uber.org/fx
// application, and drives startup per spec.md §2 "Control flow".
package app

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/okuma-coupler/bridge/internal/config"
	"github.com/okuma-coupler/bridge/internal/interfaces"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
	"github.com/okuma-coupler/bridge/internal/ospapi"
	"github.com/okuma-coupler/bridge/internal/services/collector/general"
	"github.com/okuma-coupler/bridge/internal/services/collector/macman"
	"github.com/okuma-coupler/bridge/internal/services/controlplane"
	"github.com/okuma-coupler/bridge/internal/services/dispatcher"
	"github.com/okuma-coupler/bridge/internal/services/eventstream"
	"github.com/okuma-coupler/bridge/internal/services/programmgmt"
	"github.com/okuma-coupler/bridge/internal/services/registry"
	"github.com/okuma-coupler/bridge/internal/services/scheduler"
	"github.com/okuma-coupler/bridge/internal/services/sessionpool"
)

// New builds the fx.App that owns the entire process lifetime.
func New() *fx.App {
	return fx.New(
		ConfigModule,
		LoggingModule,
		ControlPlaneModule,
		SessionPoolModule,
		RegistryModule,
		EventStreamModule,
		CollectorModule,
		DispatcherModule,
		SchedulerModule,
		fx.Invoke(InvokeConnectControlPlane),
		fx.Invoke(InvokeDiscoverAndSubscribe),
		fx.Invoke(InvokeRunDispatcher),
		fx.Invoke(InvokeRunScheduler),
	)
}

var ConfigModule = fx.Module("config_module",
	fx.Provide(config.LoadEnv),
)

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enabled,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "OkumaBridge")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
)

func buildControlPlaneConfig(cfg *config.AppConfig) controlplane.Config {
	return controlplane.Config{
		ServerURL:                 cfg.OPCUAServerURL,
		Username:                  cfg.OPCUAUsername,
		Password:                  cfg.OPCUAPassword,
		ReconnectIntervalSeconds:  cfg.OPCUAReconnectIntervalSeconds,
		PublishingIntervalMs:      cfg.OPCUAPublishingIntervalMs,
		DefaultSamplingIntervalMs: cfg.OPCUADefaultSamplingIntervalMs,
		MaxReconnectAttempts:      cfg.OPCUAMaxReconnectAttempts,
	}
}

func ProvideControlPlaneClient(cfg *config.AppConfig, logger *logging.Logger) *controlplane.Client {
	return controlplane.New(buildControlPlaneConfig(cfg), logger)
}

func AsControlPlaneClient(c *controlplane.Client) interfaces.ControlPlaneClient { return c }

var ControlPlaneModule = fx.Module("controlplane_module",
	fx.Provide(
		ProvideControlPlaneClient,
		AsControlPlaneClient,
	),
)

func ProvideOSPAPIBinding() interfaces.OSPAPIBinding { return ospapi.NewBinding() }

func ProvideSessionPool(lc fx.Lifecycle, binding interfaces.OSPAPIBinding, cp *controlplane.Client, logger *logging.Logger) *sessionpool.Pool {
	pool := sessionpool.New(binding, cp, cp, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pool.DisconnectAll()
			return nil
		},
	})
	return pool
}

var SessionPoolModule = fx.Module("sessionpool_module",
	fx.Provide(
		ProvideOSPAPIBinding,
		ProvideSessionPool,
	),
)

func ProvideRegistry(cfg *config.AppConfig, logger *logging.Logger) *registry.Registry {
	return registry.Load(cfg.APIConfigPath, logger)
}

var RegistryModule = fx.Module("registry_module",
	fx.Provide(ProvideRegistry),
)

func ProvideEventSink(cfg *config.AppConfig, logger *logging.Logger) interfaces.EventSink {
	if !cfg.EventHubEnabled {
		return eventstream.NewNoopSink(logger)
	}
	return eventstream.New(cfg.EventHubConnectionString, cfg.EventHubName)
}

var EventStreamModule = fx.Module("eventstream_module",
	fx.Provide(ProvideEventSink),
)

// The collectors and executor each declare their own narrow dependency
// interfaces (general.Registry, general.SessionAcquirer, etc.); these
// adapters let fx's container resolve them from the shared *sessionpool.Pool
// / *controlplane.Client / *registry.Registry singletons.
func AsGeneralRegistry(r *registry.Registry) general.Registry               { return r }
func AsGeneralSessionAcquirer(p *sessionpool.Pool) general.SessionAcquirer  { return p }
func AsMacManSessionAcquirer(p *sessionpool.Pool) macman.SessionAcquirer    { return p }
func AsMacManConfigReader(cp *controlplane.Client) macman.MachineConfigReader { return cp }
func AsProgramMgmtSessionAcquirer(p *sessionpool.Pool) programmgmt.SessionAcquirer { return p }
func AsProgramMgmtConfigReader(cp *controlplane.Client) programmgmt.MachineConfigReader { return cp }

var CollectorModule = fx.Module("collector_module",
	fx.Provide(
		AsGeneralRegistry,
		AsGeneralSessionAcquirer,
		AsMacManSessionAcquirer,
		AsMacManConfigReader,
		AsProgramMgmtSessionAcquirer,
		AsProgramMgmtConfigReader,
		general.New,
		macman.New,
		programmgmt.New,
	),
)

const dispatcherWorkerPoolSize = 16

func ProvideDispatcher(cp interfaces.ControlPlaneClient, g *general.Collector, m *macman.Collector, p *programmgmt.Executor, logger *logging.Logger) *dispatcher.Dispatcher {
	return dispatcher.New(cp, g, m, p, dispatcherWorkerPoolSize, logger)
}

var DispatcherModule = fx.Module("dispatcher_module",
	fx.Provide(ProvideDispatcher),
)

func ProvideScheduler(cfg *config.AppConfig, cp interfaces.ControlPlaneClient, logger *logging.Logger) *scheduler.Scheduler {
	interval := time.Duration(cfg.MacManExtractIntervalMinutes) * time.Minute
	return scheduler.New(cp, interval, logger)
}

var SchedulerModule = fx.Module("scheduler_module",
	fx.Provide(ProvideScheduler),
)

// InvokeConnectControlPlane opens the persistent OPC UA session at startup
// and closes it at shutdown (spec.md §2 "startup → open control-plane
// session").
func InvokeConnectControlPlane(lc fx.Lifecycle, cp *controlplane.Client, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Connecting control-plane session...")
			return cp.Connect(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing control-plane session...")
			return cp.Close(ctx)
		},
	})
}

// InvokeDiscoverAndSubscribe runs discovery once the control-plane session
// is up (spec.md §2 "discover machines ... subscribe to trigger nodes").
func InvokeDiscoverAndSubscribe(lc fx.Lifecycle, d *dispatcher.Dispatcher, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Discovering machines and trigger nodes...")
			if err := d.Discover(ctx); err != nil {
				logger.Error("Discovery failed", "error", err)
			}
			return nil
		},
	})
}

// InvokeRunDispatcher starts the dispatcher's notification-draining loop
// as a background goroutine for the process lifetime.
func InvokeRunDispatcher(lc fx.Lifecycle, d *dispatcher.Dispatcher, logger *logging.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			logger.Info("Starting dispatcher...")
			go d.Run(ctx)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			return nil
		},
	})
}

// InvokeRunScheduler starts the Extract Scheduler for the process lifetime
// (spec.md §2 "start scheduler").
func InvokeRunScheduler(lc fx.Lifecycle, s *scheduler.Scheduler, logger *logging.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			logger.Info("Starting extract scheduler...")
			go s.Run(ctx)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			return nil
		},
	})
}
