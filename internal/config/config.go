// Package config loads server configuration from a YAML file and NIGHTFALL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game/phase"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	// MaxGames caps concurrently running games. Zero means no cap.
	MaxGames int `mapstructure:"max_games"`
}

// GRPCConfig configures the gRPC listener.
type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

// WebSocketConfig configures the HTTP/WebSocket listener.
type WebSocketConfig struct {
	Address         string        `mapstructure:"address"`
	Path            string        `mapstructure:"path"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	SendQueue       int           `mapstructure:"send_queue"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig holds defaults for new games.
type GameConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	QueueSize    int           `mapstructure:"queue_size"`
	// RoleList is the default list of role outlines, one per seat.
	RoleList  []string        `mapstructure:"role_list"`
	Durations DurationsConfig `mapstructure:"durations"`
}

// DurationsConfig sets how long each phase lasts.
type DurationsConfig struct {
	Briefing   time.Duration `mapstructure:"briefing"`
	Obituary   time.Duration `mapstructure:"obituary"`
	Discussion time.Duration `mapstructure:"discussion"`
	Nomination time.Duration `mapstructure:"nomination"`
	Judgement  time.Duration `mapstructure:"judgement"`
	Dusk       time.Duration `mapstructure:"dusk"`
	Night      time.Duration `mapstructure:"night"`
}

// Phases converts the configured durations for the phase clock.
func (d DurationsConfig) Phases() phase.Durations {
	return phase.Durations{
		phase.Briefing:   d.Briefing,
		phase.Obituary:   d.Obituary,
		phase.Discussion: d.Discussion,
		phase.Nomination: d.Nomination,
		phase.Judgement:  d.Judgement,
		phase.Dusk:       d.Dusk,
		phase.Night:      d.Night,
	}
}

// Load reads path, if it exists, over the defaults and applies environment
// overrides such as NIGHTFALL_SERVER_GRPC_ADDRESS.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NIGHTFALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration that cannot run.
func (c *Config) Validate() error {
	if c.Server.GRPC.Address == "" {
		return errors.New("server.grpc.address is required")
	}
	if c.Server.WebSocket.Address == "" {
		return errors.New("server.websocket.address is required")
	}
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("game.tick_interval must be positive, got %s", c.Game.TickInterval)
	}
	for p, d := range c.Game.Durations.Phases() {
		if d <= 0 {
			return fmt.Errorf("game.durations.%s must be positive, got %s", p, d)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc.address", ":50051")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.websocket.read_buffer_size", 1024)
	v.SetDefault("server.websocket.write_buffer_size", 1024)
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.send_queue", 32)
	v.SetDefault("server.websocket.allowed_origins", []string{})
	v.SetDefault("server.max_games", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.tick_interval", 250*time.Millisecond)
	v.SetDefault("game.queue_size", 64)
	v.SetDefault("game.role_list", []string{
		"mafioso", "team:syndicate", "doctor", "detective", "team:town", "team:town", "any",
	})
	defaults := phase.DefaultDurations()
	v.SetDefault("game.durations.briefing", defaults[phase.Briefing])
	v.SetDefault("game.durations.obituary", defaults[phase.Obituary])
	v.SetDefault("game.durations.discussion", defaults[phase.Discussion])
	v.SetDefault("game.durations.nomination", defaults[phase.Nomination])
	v.SetDefault("game.durations.judgement", defaults[phase.Judgement])
	v.SetDefault("game.durations.dusk", defaults[phase.Dusk])
	v.SetDefault("game.durations.night", defaults[phase.Night])
}
