// Package config loads dsengine's ambient settings — protocol selection,
// address overrides, telemetry sink URLs, debug server ports — from
// environment variables and an optional config file, with hot-reload on
// file change via the same viper + fsnotify workflow used elsewhere in
// this codebase.
package config

import (
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the root settings struct.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Debug     DebugConfig     `mapstructure:"debug"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// EngineConfig selects the protocol and any address overrides.
type EngineConfig struct {
	Protocol          string `mapstructure:"protocol"`             // "frc2014" or "frc2015"
	Team              uint16 `mapstructure:"team"`
	FMSAddressOverride   string `mapstructure:"fms_address_override"`
	RadioAddressOverride string `mapstructure:"radio_address_override"`
	RobotAddressOverride string `mapstructure:"robot_address_override"`
	EventQueueCapacity   int    `mapstructure:"event_queue_capacity"`
	MinSupportedVersion  string `mapstructure:"min_supported_version"`
}

// DebugConfig controls the optional HTTP/websocket debug server.
type DebugConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// TelemetryConfig controls the pluggable event-publishing sinks.
type TelemetryConfig struct {
	RedisURL            string `mapstructure:"redis_url"`
	RedisStreamKey       string `mapstructure:"redis_stream_key"`
	MQTTBrokerURL        string `mapstructure:"mqtt_broker_url"`
	MQTTTopic            string `mapstructure:"mqtt_topic"`
	CompressThresholdBytes int  `mapstructure:"compress_threshold_bytes"`
	PublishTimeoutMS     int    `mapstructure:"publish_timeout_ms"`
	MetricsEnabled       bool   `mapstructure:"metrics_enabled"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// PublishTimeout returns the per-call sink deadline as a time.Duration.
func (t *TelemetryConfig) PublishTimeout() time.Duration {
	return time.Duration(t.PublishTimeoutMS) * time.Millisecond
}

// Load reads settings from environment variables (prefixed DSENGINE_) and,
// if present, a config file named by DSENGINE_CONFIG_FILE (or ./dsengine.yaml
// by default). Missing file is not an error — env vars and defaults still
// apply.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DSENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("engine.protocol", "frc2015")
	v.SetDefault("engine.team", 0)
	v.SetDefault("engine.event_queue_capacity", 1024)
	v.SetDefault("engine.min_supported_version", "1.0.0")

	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.host", "0.0.0.0")
	v.SetDefault("debug.port", 8200)

	v.SetDefault("telemetry.redis_url", "redis://localhost:6379/0")
	v.SetDefault("telemetry.redis_stream_key", "dsengine:events")
	v.SetDefault("telemetry.mqtt_broker_url", "tcp://localhost:1883")
	v.SetDefault("telemetry.mqtt_topic", "dsengine/events")
	v.SetDefault("telemetry.compress_threshold_bytes", 256)
	v.SetDefault("telemetry.publish_timeout_ms", 200)
	v.SetDefault("telemetry.metrics_enabled", true)

	v.SetDefault("logging.level", "info")

	configFile := v.GetString("config_file")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("dsengine")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Engine: EngineConfig{
			Protocol:             v.GetString("engine.protocol"),
			Team:                 uint16(v.GetUint32("engine.team")),
			FMSAddressOverride:   v.GetString("engine.fms_address_override"),
			RadioAddressOverride: v.GetString("engine.radio_address_override"),
			RobotAddressOverride: v.GetString("engine.robot_address_override"),
			EventQueueCapacity:   v.GetInt("engine.event_queue_capacity"),
			MinSupportedVersion:  v.GetString("engine.min_supported_version"),
		},
		Debug: DebugConfig{
			Enabled: v.GetBool("debug.enabled"),
			Host:    v.GetString("debug.host"),
			Port:    v.GetInt("debug.port"),
		},
		Telemetry: TelemetryConfig{
			RedisURL:               v.GetString("telemetry.redis_url"),
			RedisStreamKey:         v.GetString("telemetry.redis_stream_key"),
			MQTTBrokerURL:          v.GetString("telemetry.mqtt_broker_url"),
			MQTTTopic:              v.GetString("telemetry.mqtt_topic"),
			CompressThresholdBytes: v.GetInt("telemetry.compress_threshold_bytes"),
			PublishTimeoutMS:       v.GetInt("telemetry.publish_timeout_ms"),
			MetricsEnabled:         v.GetBool("telemetry.metrics_enabled"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("logging.level"),
		},
	}
	return cfg, nil
}

// WatchAndReload enables viper's fsnotify-backed file watch on
// ./dsengine.yaml and invokes onChange with the freshly decoded Config
// whenever that file is rewritten. It looks the file up on its own rather
// than reusing what Load found, so a file named by DSENGINE_CONFIG_FILE is
// not watched; when ./dsengine.yaml is absent it logs and returns without
// watching anything.
func WatchAndReload(log *zap.Logger, onChange func(*Config)) {
	if log == nil {
		log = zap.NewNop()
	}
	v := viper.New()
	v.SetConfigName("dsengine")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		log.Debug("config watch skipped: no config file", zap.Error(err))
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("config file changed, reloading", zap.String("file", e.Name))
		cfg, err := decode(v)
		if err != nil {
			log.Warn("config reload failed", zap.Error(err))
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
