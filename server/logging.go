package server

import (
	"io"
	"log/slog"
	"os"

	"github.com/marcopiovanello/twitch-clip-dl/server/config"
)

// SetupLogging installs the default logger. The returned function closes the
// log file, if any.
func SetupLogging(conf *config.Config) (func(), error) {
	logWriters := []io.Writer{os.Stdout}
	closer := func() {}

	// file based logging
	if conf.Logging.EnableFileLogging {
		fd, err := os.OpenFile(conf.Logging.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return closer, err
		}
		closer = func() { fd.Close() }
		logWriters = append(logWriters, fd)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(conf.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(logWriters...), &slog.HandlerOptions{
		Level: level,
	}))

	// make the new logger the default one with all the new writers
	slog.SetDefault(logger)

	return closer, nil
}
