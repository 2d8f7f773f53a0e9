package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/marcopiovanello/twitch-clip-dl/server"
	"github.com/marcopiovanello/twitch-clip-dl/server/cli"
	"github.com/marcopiovanello/twitch-clip-dl/server/config"
	"github.com/marcopiovanello/twitch-clip-dl/server/user"

	"github.com/spf13/viper"
)

func main() {
	var (
		configFile   string
		initConfig   bool
		hashPassword string
		opts         cli.Options
		search       bool
	)

	flag.StringVar(&configFile, "conf", "./config.yml", "Config file path")
	flag.BoolVar(&initConfig, "init", false, "Write a default config file and exit")
	flag.StringVar(&hashPassword, "hash-password", "", "Print the bcrypt hash of a password for the config file and exit")

	flag.BoolVar(&search, "search", false, "Search clips once from the terminal instead of serving the API")
	flag.StringVar(&opts.Broadcaster, "broadcaster", "", "Broadcaster login, defaults to the saved one")
	flag.StringVar(&opts.From, "from", "", "Start date (YYYY-MM-DD)")
	flag.StringVar(&opts.To, "to", "", "End date (YYYY-MM-DD)")
	flag.StringVar(&opts.Folder, "folder", "", "Download folder, defaults to the saved one")
	flag.BoolVar(&opts.Download, "download", false, "Download the clips found")
	flag.BoolVar(&opts.Play, "play", false, "Download and open the clips in VLC")
	flag.Parse()

	if initConfig {
		if err := config.WriteDefault(configFile); err != nil {
			if errors.Is(err, fs.ErrExist) {
				fmt.Fprintf(os.Stderr, "%s already exists\n", configFile)
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(1)
		}
		fmt.Println("wrote", configFile)
		return
	}

	if hashPassword != "" {
		hash, err := user.HashPassword(hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	// Defaults
	defaults := config.Default()
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("logging.log_path", defaults.Logging.LogPath)
	v.SetDefault("logging.enable_file_logging", false)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("paths.settings_path", defaults.Paths.SettingsPath)
	v.SetDefault("paths.downloader_path", defaults.Paths.DownloaderPath)
	v.SetDefault("paths.local_database_path", defaults.Paths.LocalDatabasePath)
	v.SetDefault("authentication.require_auth", false)
	v.SetDefault("twitch.auth_url", defaults.Twitch.AuthURL)
	v.SetDefault("twitch.api_url", defaults.Twitch.APIURL)
	v.SetDefault("twitch.validate_url", defaults.Twitch.ValidateURL)
	v.SetDefault("twitch.refresh_margin", defaults.Twitch.RefreshMargin)

	// Env binding
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	// Load YAML file if exists
	if err := v.ReadInConfig(); err != nil {
		slog.Debug("using defaults")
	}

	cfg := config.Instance()
	if err := v.Unmarshal(cfg); err != nil {
		slog.Error("failed to load config", "error", err)
	}
	cfg.SetPath(configFile)

	closeLog, err := server.SetupLogging(cfg)
	if err != nil {
		slog.Error("failed to open log file", "error", err)
	}
	defer closeLog()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if search || opts.Download || opts.Play {
		code := runOnce(ctx, cfg, opts)
		stop()
		closeLog()
		os.Exit(code)
	}

	var appFS fs.FS
	if fp := v.GetString("frontend_path"); fp != "" {
		appFS = os.DirFS(fp)
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	if err := server.Run(ctx, &server.RunConfig{App: appFS}); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited cleanly")
}

func runOnce(ctx context.Context, cfg *config.Config, opts cli.Options) int {
	c, err := server.NewContainer(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return 1
	}
	defer c.Close()

	lctx, cancel := context.WithCancel(ctx)
	listening := make(chan struct{})
	go func() {
		defer close(listening)
		c.Archiver.Listen(lctx)
	}()

	code := 0
	if err := cli.Run(ctx, c.Pipeline, c.Hub, os.Stdout, opts); err != nil {
		code = 1
	}

	cancel()
	<-listening
	c.Archiver.Flush()

	return code
}
