// PrintHive Core - 3D printer host control plane
//
// This is the main entry point for the PrintHive Core application.
// PrintHive connects a networked 3D printer bridge to a REST/WebSocket
// API, routing every event through a single state-owning event router.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/printhive/printhive-core/migrations"

	"github.com/printhive/printhive-core/internal/api"
	"github.com/printhive/printhive-core/internal/audit"
	"github.com/printhive/printhive-core/internal/auth"
	"github.com/printhive/printhive-core/internal/bridge"
	"github.com/printhive/printhive-core/internal/bus"
	"github.com/printhive/printhive-core/internal/events"
	"github.com/printhive/printhive-core/internal/infrastructure/config"
	"github.com/printhive/printhive-core/internal/infrastructure/database"
	"github.com/printhive/printhive-core/internal/infrastructure/influxdb"
	"github.com/printhive/printhive-core/internal/infrastructure/logging"
	"github.com/printhive/printhive-core/internal/infrastructure/mqtt"
	"github.com/printhive/printhive-core/internal/router"
	"github.com/printhive/printhive-core/internal/settings"
	"github.com/printhive/printhive-core/internal/update"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting PrintHive Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database and bring the schema up to date
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Bootstrap persistent state
	users := auth.NewUserRepository(db.DB)
	tokens := auth.NewTokenRepository(db.DB)
	settingsRepo := settings.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	if err := settingsRepo.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("seeding settings: %w", err)
	}

	purged, err := tokens.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("purging expired tokens: %w", err)
	}
	if purged > 0 {
		log.Info("purged expired tokens", "count", purged)
	}

	if _, err := auth.SeedAdmin(ctx, users, log.Logger); err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}

	// Advisory release check; never blocks startup on failure
	update.NewChecker(cfg.Update, version, log).Check(ctx)

	// Event queues connecting the workers
	capacity := cfg.Bus.Capacity
	if capacity <= 0 {
		capacity = bus.DefaultCapacity
	}
	policy, err := overflowPolicy(cfg.Bus.OverflowPolicy)
	if err != nil {
		return err
	}

	dist := bus.New[events.Event](capacity, policy)
	bridgeOut := bus.New[events.Event](capacity, policy)
	wsOut := bus.New[events.Event](capacity, policy)
	defer wsOut.Close()
	defer bridgeOut.Close()

	// Optional integration sinks
	var sinks []api.Sink

	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Host, cfg.MQTT.Port),
			"client_id", cfg.MQTT.ClientID,
		)

		sink := mqtt.NewSink(mqttClient, byte(cfg.MQTT.QoS), log)
		if subErr := sink.SubscribeCommands(dist); subErr != nil {
			return fmt.Errorf("subscribing to MQTT commands: %w", subErr)
		}
		sinks = append(sinks, sink)
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)

		sinks = append(sinks, influxdb.NewSink(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	// API worker: HTTP listener plus the websocket-outbound relay
	apiServer, err := api.New(api.Deps{
		Config:       cfg.API,
		WS:           cfg.WS,
		Security:     cfg.Security,
		Logger:       log,
		Users:        users,
		Tokens:       tokens,
		Settings:     settingsRepo,
		Audit:        auditRepo,
		Distribution: dist,
		WebsocketOut: wsOut,
		Sinks:        sinks,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server listening", "host", cfg.API.Host, "port", cfg.API.Port)

	// Event router: single consumer of the distribution queue. Run
	// blocks until shutdown (or a violation under the terminate policy).
	violationPolicy, err := routerPolicy(cfg.Router.ViolationPolicy)
	if err != nil {
		return err
	}

	spawner := bridge.NewSpawner(dist, bridgeOut, log)
	rt := router.New(router.Options{
		Distribution: dist,
		BridgeOut:    bridgeOut,
		WebsocketOut: wsOut,
		Spawn:        spawner.Spawn,
		Policy:       violationPolicy,
		Logger:       log,
	})

	log.Info("initialisation complete, routing events")

	if err := rt.Run(ctx); err != nil {
		return fmt.Errorf("event router stopped: %w", err)
	}

	log.Info("PrintHive Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PRINTHIVE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PRINTHIVE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// overflowPolicy maps the config string to a queue policy.
func overflowPolicy(name string) (bus.Policy, error) {
	switch name {
	case "", "block":
		return bus.Block, nil
	case "drop_oldest":
		return bus.DropOldest, nil
	case "reject":
		return bus.Reject, nil
	default:
		return 0, fmt.Errorf("unknown bus overflow policy %q", name)
	}
}

// routerPolicy maps the config string to a violation policy.
func routerPolicy(name string) (router.ViolationPolicy, error) {
	switch name {
	case "", "drop":
		return router.DropViolation, nil
	case "terminate":
		return router.TerminateOnViolation, nil
	default:
		return 0, fmt.Errorf("unknown router violation policy %q", name)
	}
}
