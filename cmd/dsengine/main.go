// Command dsengine runs the driver-station engine as a standalone
// process: it loads configuration, wires a protocol, starts the
// telemetry pump and the debug server, and blocks until SIGINT/SIGTERM.
// Most embedders will import internal/facade directly instead; this
// binary exists to exercise the full stack end to end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldstation/dsengine/internal/config"
	"github.com/fieldstation/dsengine/internal/debugserver"
	"github.com/fieldstation/dsengine/internal/facade"
	"github.com/fieldstation/dsengine/internal/protocol"
	"github.com/fieldstation/dsengine/internal/protocol/frc2014"
	"github.com/fieldstation/dsengine/internal/protocol/frc2015"
	"github.com/fieldstation/dsengine/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging.Level)
	defer logger.Sync()

	logger.Info("starting dsengine",
		zap.String("protocol", cfg.Engine.Protocol),
		zap.Uint16("team", cfg.Engine.Team),
	)

	registry := protocol.NewRegistry()
	registry.Register("frc2014", frc2014.New)
	registry.Register("frc2015", frc2015.New)

	rec, err := registry.Get(cfg.Engine.Protocol)
	if err != nil {
		logger.Fatal("unknown protocol", zap.Error(err))
	}

	client := facade.New(cfg.Engine.EventQueueCapacity)
	client.SetTeam(cfg.Engine.Team)
	if cfg.Engine.FMSAddressOverride != "" {
		client.SetFMSAddressOverride(cfg.Engine.FMSAddressOverride)
	}
	if cfg.Engine.RadioAddressOverride != "" {
		client.SetRadioAddressOverride(cfg.Engine.RadioAddressOverride)
	}
	if cfg.Engine.RobotAddressOverride != "" {
		client.SetRobotAddressOverride(cfg.Engine.RobotAddressOverride)
	}
	client.Configure(rec)
	client.Init()
	defer client.Close()

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	var sinks []telemetry.Sink
	if redisSink, err := telemetry.NewRedisSink(cfg.Telemetry.RedisURL, cfg.Telemetry.RedisStreamKey, cfg.Telemetry.CompressThresholdBytes, logger); err != nil {
		logger.Warn("redis telemetry sink unavailable, continuing without it", zap.Error(err))
	} else {
		sinks = append(sinks, redisSink)
	}
	if mqttSink, err := telemetry.NewMQTTSink(cfg.Telemetry.MQTTBrokerURL, cfg.Telemetry.MQTTTopic, logger); err != nil {
		logger.Warn("mqtt telemetry sink unavailable, continuing without it", zap.Error(err))
	} else {
		sinks = append(sinks, mqttSink)
	}

	var dbg *debugserver.Server
	if cfg.Debug.Enabled {
		dbg = debugserver.New(debugserver.Config{
			Host:     cfg.Debug.Host,
			Port:     cfg.Debug.Port,
			Registry: reg,
		}, client, logger)
		sinks = append(sinks, dbg.Sink())
	}

	pump := telemetry.NewPump(client.EventQueue(), sinks, cfg.Telemetry.PublishTimeout(), logger)
	if cfg.Telemetry.MetricsEnabled {
		pump.AttachMetrics(metrics)
		go reportCommsMetrics(metrics, client, 2*time.Second)
	}
	pump.Run(50 * time.Millisecond)
	defer pump.Stop()

	config.WatchAndReload(logger, func(next *config.Config) {
		logger.Info("config reloaded",
			zap.String("protocol", next.Engine.Protocol),
			zap.Uint16("team", next.Engine.Team),
		)
		client.SetTeam(next.Engine.Team)
	})

	if dbg != nil {
		go func() {
			if err := dbg.Run(); err != nil {
				logger.Error("debug server stopped", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")

	if dbg != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := dbg.Shutdown(shutdownCtx); err != nil {
			logger.Error("debug server shutdown error", zap.Error(err))
		}
	}

	logger.Info("dsengine stopped")
}

// reportCommsMetrics mirrors the three comms flags into Prometheus on a
// fixed cadence; packet/byte deltas are left to the embedder, which has
// the engine.Counters snapshots this process doesn't.
func reportCommsMetrics(m *telemetry.Metrics, c *facade.Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		m.SetCommsUp("fms", c.FMSComms())
		m.SetCommsUp("radio", c.RadioComms())
		m.SetCommsUp("robot", c.RobotComms())
	}
}

func initLogger(level string) *zap.Logger {
	var zapLevel zap.AtomicLevel
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zapLevel
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
