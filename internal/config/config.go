// Package config loads server settings from an optional YAML file, the
// environment and built-in defaults, and validates the result against an
// embedded JSON schema.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"actornet/actors"
)

const (
	DefaultPath = "./configs/actornet.yaml"
	EnvPrefix   = "ACTORNET"
)

//go:embed schema.json
var schemaJSON []byte

type Config struct {
	Server ServerConfig `mapstructure:"server" json:"server"`
	Actors ActorsConfig `mapstructure:"actors" json:"actors"`
	Game   GameConfig   `mapstructure:"game" json:"game"`
	Models ModelsConfig `mapstructure:"models" json:"models"`
	Log    LogConfig    `mapstructure:"log" json:"log"`
	Events EventsConfig `mapstructure:"events" json:"events"`
}

type ServerConfig struct {
	ClientAddr string        `mapstructure:"client_addr" json:"client_addr"`
	BridgeAddr string        `mapstructure:"bridge_addr" json:"bridge_addr"`
	AdminAddr  string        `mapstructure:"admin_addr" json:"admin_addr"`
	TickRate   time.Duration `mapstructure:"tick_rate" json:"tick_rate"`
	MaxPlayers int           `mapstructure:"max_players" json:"max_players"`
	Heartbeat  time.Duration `mapstructure:"heartbeat" json:"heartbeat"`
}

type ActorsConfig struct {
	MaxActors         int           `mapstructure:"max_actors" json:"max_actors"`
	MaxStreamed       int           `mapstructure:"max_streamed" json:"max_streamed"`
	LegacyCapBoundary bool          `mapstructure:"legacy_cap_boundary" json:"legacy_cap_boundary"`
	StreamRadius      float64       `mapstructure:"stream_radius" json:"stream_radius"`
	StreamRate        time.Duration `mapstructure:"stream_rate" json:"stream_rate"`
}

type GameConfig struct {
	ValidateAnimations bool `mapstructure:"validate_animations" json:"validate_animations"`
	UseAllAnimations   bool `mapstructure:"use_all_animations" json:"use_all_animations"`
}

type ModelsConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" json:"level"`
	File       string `mapstructure:"file" json:"file"`
	JSON       bool   `mapstructure:"json" json:"json"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" json:"max_age_days"`
}

type EventsConfig struct {
	Dir       string `mapstructure:"dir" json:"dir"`
	IndexPath string `mapstructure:"index_path" json:"index_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.client_addr", ":7777")
	v.SetDefault("server.bridge_addr", "127.0.0.1:7778")
	v.SetDefault("server.admin_addr", "127.0.0.1:7779")
	v.SetDefault("server.tick_rate", "50ms")
	v.SetDefault("server.max_players", 1000)
	v.SetDefault("server.heartbeat", "10s")

	v.SetDefault("actors.max_actors", actors.MaxActors)
	v.SetDefault("actors.max_streamed", actors.DefaultMaxStreamed)
	v.SetDefault("actors.legacy_cap_boundary", false)
	v.SetDefault("actors.stream_radius", actors.DefaultStreamRadius)
	v.SetDefault("actors.stream_rate", actors.DefaultStreamRate.String())

	v.SetDefault("game.validate_animations", true)
	v.SetDefault("game.use_all_animations", false)

	v.SetDefault("models.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("events.dir", "")
	v.SetDefault("events.index_path", "")
}

// Source reads one configuration file. A missing file at DefaultPath is not
// an error; a missing explicit path is.
type Source struct {
	v      *viper.Viper
	path   string
	schema *jsonschema.Schema
}

func NewSource(path string) (*Source, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("[Config/NewSource] schema: %w", err)
	}
	sch, err := c.Compile("config.schema.json")
	if err != nil {
		return nil, fmt.Errorf("[Config/NewSource] schema: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("[Config/NewSource] read %s: %w", path, err)
		}
		path = ""
	}
	return &Source{v: v, path: path, schema: sch}, nil
}

// Path is the file in use, empty when running on defaults and environment.
func (s *Source) Path() string {
	return s.path
}

func (s *Source) Load() (*Config, error) {
	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("[Config/Load] decode: %w", err)
	}
	if err := s.validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Source) validate(cfg *Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("[Config/validate] %w", err)
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("[Config/validate] %w", err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return fmt.Errorf("[Config/validate] invalid configuration: %w", err)
	}
	return nil
}

// Watch reloads the file on change and hands every valid result to fn.
// Invalid edits are logged and ignored.
func (s *Source) Watch(log *logrus.Entry, fn func(*Config)) {
	if s.path == "" {
		return
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := s.Load()
		if err != nil {
			log.WithField("file", e.Name).WithError(err).Warn("[Config/Watch] reload rejected")
			return
		}
		log.WithField("file", e.Name).Info("[Config/Watch] reloaded")
		fn(cfg)
	})
	s.v.WatchConfig()
}

// Apply copies the reloadable actor and animation toggles into settings.
func (c *Config) Apply(settings *actors.Settings) {
	settings.SetMaxStreamed(c.Actors.MaxStreamed)
	settings.SetLegacyCapBoundary(c.Actors.LegacyCapBoundary)
	settings.SetStreamRadius(float32(c.Actors.StreamRadius))
	settings.SetStreamRate(c.Actors.StreamRate)
	settings.SetValidateAnimations(c.Game.ValidateAnimations)
	settings.SetAllAnimationLibraries(c.Game.UseAllAnimations)
}

// LoadDotEnv exports the variables of an optional .env file that are not
// already set.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[Config/LoadDotEnv] %w", err)
	}
	return nil
}
