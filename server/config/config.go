package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server         ServerConfig  `yaml:"server" mapstructure:"server"`
	Logging        LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Paths          PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Authentication AuthConfig    `yaml:"authentication" mapstructure:"authentication"`
	Twitch         TwitchConfig  `yaml:"twitch" mapstructure:"twitch"`
	AutoArchive    bool          `yaml:"auto_archive" mapstructure:"auto_archive"`
	path           string
}

type ServerConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Host    string `yaml:"host" mapstructure:"host"`
	Port    int    `yaml:"port" mapstructure:"port"`
}

type LoggingConfig struct {
	LogPath           string `yaml:"log_path" mapstructure:"log_path"`
	EnableFileLogging bool   `yaml:"enable_file_logging" mapstructure:"enable_file_logging"`
	Level             string `yaml:"level" mapstructure:"level"`
}

type PathsConfig struct {
	// JSON document holding the auth, user and version sections
	SettingsPath      string `yaml:"settings_path" mapstructure:"settings_path"`
	DownloaderPath    string `yaml:"downloader_path" mapstructure:"downloader_path"`
	PlayerPath        string `yaml:"player_path" mapstructure:"player_path"`
	LocalDatabasePath string `yaml:"local_database_path" mapstructure:"local_database_path"`
}

type AuthConfig struct {
	RequireAuth  bool   `yaml:"require_auth" mapstructure:"require_auth"`
	Username     string `yaml:"username" mapstructure:"username"`
	PasswordHash string `yaml:"password" mapstructure:"password"`
	JWTSecret    string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

type TwitchConfig struct {
	AuthURL     string `yaml:"auth_url" mapstructure:"auth_url"`
	APIURL      string `yaml:"api_url" mapstructure:"api_url"`
	ValidateURL string `yaml:"validate_url" mapstructure:"validate_url"`
	// a stored token with less than this left is renewed before use
	RefreshMargin time.Duration `yaml:"refresh_margin" mapstructure:"refresh_margin"`
}

const (
	DefaultAuthURL     = "https://id.twitch.tv/oauth2/token"
	DefaultValidateURL = "https://id.twitch.tv/oauth2/validate"
	DefaultAPIURL      = "https://api.twitch.tv/helix"
)

var (
	instance     *Config
	instanceOnce sync.Once
)

func Instance() *Config {
	if instance == nil {
		instanceOnce.Do(func() {
			instance = Default()
		})
	}
	return instance
}

// Default returns a config populated with the values used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 3034,
		},
		Logging: LoggingConfig{
			LogPath: "twitch-clip-dl.log",
			Level:   "info",
		},
		Paths: PathsConfig{
			SettingsPath:      "config.json",
			DownloaderPath:    "yt-dlp",
			LocalDatabasePath: ".",
		},
		Twitch: TwitchConfig{
			AuthURL:       DefaultAuthURL,
			APIURL:        DefaultAPIURL,
			ValidateURL:   DefaultValidateURL,
			RefreshMargin: time.Minute * 5,
		},
	}
}

// SetPath records where the config was loaded from.
func (c *Config) SetPath(p string) { c.path = p }

// Path of the directory containing the config file
func (c *Config) Dir() string { return filepath.Dir(c.path) }

// Absolute path of the config file
func (c *Config) Path() string { return c.path }

// WriteDefault writes a starter config file. An existing file is left untouched.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return os.ErrExist
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
