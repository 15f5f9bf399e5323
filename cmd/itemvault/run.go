package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/itemvault/internal/api"
	"github.com/nerrad567/itemvault/internal/auth"
	"github.com/nerrad567/itemvault/internal/infrastructure/config"
	"github.com/nerrad567/itemvault/internal/infrastructure/influxdb"
	"github.com/nerrad567/itemvault/internal/infrastructure/logging"
	"github.com/nerrad567/itemvault/internal/infrastructure/mqtt"
	"github.com/nerrad567/itemvault/internal/item"
	"github.com/nerrad567/itemvault/internal/notify"
)

// startupCheckTimeout bounds the health checks run before serving.
const startupCheckTimeout = 5 * time.Second

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: Path to the YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting itemvault",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	store, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close(log)

	hasher, err := auth.NewHasher(cfg.Security.Password.Algorithm, cfg.Security.Password.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password hasher: %w", err)
	}
	credentials := auth.NewCredentialStore(store.users, hasher)

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  cfg.Security.JWT.AccessSecret,
		RefreshSecret: cfg.Security.JWT.RefreshSecret,
		AccessTTL:     cfg.Security.JWT.AccessTTL(),
		RefreshTTL:    cfg.Security.JWT.RefreshTTL(),
	}, credentials)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	hub := api.NewHub(cfg.WebSocket, log)
	metrics := api.NewMetrics(nil)
	sinks := item.MultiSink{hub, metrics}
	deps := api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Credentials: credentials,
		Tokens:      tokens,
		AuditRepo:   store.audit,
		Hub:         hub,
		Metrics:     metrics,
		Health:      store.health,
		Version:     version,
	}

	// Connect to MQTT broker (optional)
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connection up")
			metrics.SetMQTTConnected(true)
		})
		mqttClient.SetOnDisconnect(func(error) {
			metrics.SetMQTTConnected(false)
		})
		metrics.SetMQTTConnected(mqttClient.IsConnected())
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"topic_prefix", mqttClient.Topics().Prefix(),
		)

		mqttSink := notify.NewMQTTSink(mqttClient, mqttClient.Topics(), notify.DefaultQueueSize)
		mqttSink.SetLogger(log)
		mqttSink.Start()
		defer mqttSink.Stop()

		sinks = append(sinks, mqttSink)
		deps.Health["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB, cfg.Service)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		sinks = append(sinks, notify.NewInfluxSink(influxClient))
		deps.AuthEvents = influxClient
		deps.Health["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	items := item.NewStore(store.items, sinks)
	items.SetLogger(log)
	deps.Items = items

	srv, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	err = srv.HealthCheck(checkCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed", "backend", cfg.Storage.Backend)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if err := srv.Close(); err != nil {
		log.Error("error stopping API server", "error", err)
	}

	// Deferred calls then run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. MQTT sink, then MQTT client (if enabled)
	// 3. Storage backend

	log.Info("itemvault stopped")
	return nil
}
