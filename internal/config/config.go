// Package config loads streamvault's configuration via viper, layered as
// defaults -> optional YAML file -> environment variables, matching the
// teacher's internal/config idiom (github.com/maumercado/task-queue-go).
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration tree.
type Config struct {
	Daemon   DaemonConfig
	Recorder RecorderConfig
	Task     TaskConfig
	FFmpeg   FFmpegConfig
	Redis    RedisConfig
	Metrics  MetricsConfig
	LogLevel string
}

// DaemonConfig controls the Component E run loop and lock-file protocol.
type DaemonConfig struct {
	Mode           string // "queue" (default, subsumes record mode) or "record"
	BaseDir        string
	Wait           time.Duration
	Threshold      time.Duration
	LivenessEvery  int // log liveness every N loop iterations
}

// RecorderConfig controls the Component D Recorder Supervisor.
type RecorderConfig struct {
	TickSeconds       time.Duration
	OverextendSeconds time.Duration
	StartWaitPoll     time.Duration
}

// TaskConfig controls the Component B observation loop.
type TaskConfig struct {
	TickInterval      time.Duration
	ReconcileInterval time.Duration
}

// FFmpegConfig locates the external media tool invoked by the CommandBuilder.
type FFmpegConfig struct {
	BinaryPath string
}

// RedisConfig configures the Store and Event Bus backend.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MetricsConfig controls the ambient Prometheus/admin HTTP surface.
type MetricsConfig struct {
	Enabled bool
	Path    string
	Addr    string
}

// Load reads configuration from (in increasing precedence) built-in
// defaults, an optional YAML file, then STREAMVAULT_-prefixed environment
// variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/streamvault")

	setDefaults()

	viper.SetEnvPrefix("STREAMVAULT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("daemon.mode", "queue")
	viper.SetDefault("daemon.basedir", "./data")
	viper.SetDefault("daemon.wait", 2*time.Second)
	viper.SetDefault("daemon.threshold", 4*time.Second)
	viper.SetDefault("daemon.livenessevery", 10)

	viper.SetDefault("recorder.tickseconds", 5*time.Second)
	viper.SetDefault("recorder.overextendseconds", 10*time.Second)
	viper.SetDefault("recorder.startwaitpoll", 500*time.Millisecond)

	viper.SetDefault("task.tickinterval", 1*time.Second)
	viper.SetDefault("task.reconcileinterval", 10*time.Second)

	viper.SetDefault("ffmpeg.binarypath", "ffmpeg")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.poolsize", 20)
	viper.SetDefault("redis.dialtimeout", 5*time.Second)
	viper.SetDefault("redis.readtimeout", 3*time.Second)
	viper.SetDefault("redis.writetimeout", 3*time.Second)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("metrics.addr", "0.0.0.0:9091")

	viper.SetDefault("loglevel", "info")
}
