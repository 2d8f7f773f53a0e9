// a stupid package name...
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/marcopiovanello/twitch-clip-dl/server/archiver"
	"github.com/marcopiovanello/twitch-clip-dl/server/config"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/kv"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/queue"
	middlewares "github.com/marcopiovanello/twitch-clip-dl/server/middleware"
	"github.com/marcopiovanello/twitch-clip-dl/server/rest"
	"github.com/marcopiovanello/twitch-clip-dl/server/status"
	"github.com/marcopiovanello/twitch-clip-dl/server/twitch"
	"github.com/marcopiovanello/twitch-clip-dl/server/user"
	"golang.org/x/sync/errgroup"
)

const (
	queueSize       = 8
	shutdownTimeout = time.Second * 10
)

type RunConfig struct {
	// optional static frontend
	App fs.FS
}

type serverConfig struct {
	frontend fs.FS
	c        *Container
	mdb      *kv.Store
	mq       *queue.MessageQueue
}

func Run(ctx context.Context, rc *RunConfig) error {
	conf := config.Instance()

	c, err := NewContainer(conf)
	if err != nil {
		return err
	}
	defer c.Close()

	sessionPath := filepath.Join(conf.Paths.LocalDatabasePath, "session.dat")

	mdb := kv.NewStore()
	mdb.Restore(sessionPath)

	mq, err := queue.NewMessageQueue(mdb, c.Hub, queueSize)
	if err != nil {
		return err
	}
	mq.SetupConsumers()

	srv := newServer(serverConfig{
		frontend: rc.App,
		c:        c,
		mdb:      mdb,
		mq:       mq,
	})

	var (
		network = "tcp"
		address = fmt.Sprintf("%s:%d", conf.Server.Host, conf.Server.Port)
	)

	// support unix sockets
	if strings.HasPrefix(conf.Server.Host, "/") {
		network = "unix"
		address = conf.Server.Host
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		slog.Error("failed to listen", slog.String("err", err.Error()))
		return err
	}

	slog.Info("twitch-clip-dl started", slog.String("address", address))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.Archiver.Listen(gctx)
		return nil
	})

	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")

		mq.Stop()
		if err := mdb.Persist(sessionPath); err != nil {
			slog.Error("failed to persist session", slog.Any("err", err))
		}

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	c.Archiver.Flush()

	return err
}

func newServer(sc serverConfig) *http.Server {
	r := chi.NewRouter()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	r.Use(corsMiddleware.Handler)

	if sc.frontend != nil {
		baseUrl := config.Instance().Server.BaseURL
		r.Mount(baseUrl+"/", http.StripPrefix(baseUrl, http.FileServerFS(sc.frontend)))
	}

	// Authentication routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", user.Login)
		r.Get("/logout", user.Logout)
	})

	// REST API handlers
	r.Route("/api/v1", rest.ApplyRouter(&rest.ContainerArgs{
		Settings:   sc.c.Settings,
		MDB:        sc.mdb,
		MQ:         sc.mq,
		Pipeline:   sc.c.Pipeline,
		Player:     sc.c.Player,
		Status:     sc.c.Hub.Status,
		Downloader: config.Instance().Paths.DownloaderPath,
	}))

	// Twitch
	r.Route("/twitch", func(r chi.Router) {
		r.Use(middlewares.ApplyAuthenticationByConfig)
		r.Post("/token", twitch.AcquireTokenHandler(sc.c.Auth))
		r.Get("/token/validate", twitch.ValidateTokenHandler(sc.c.Auth))
		r.Get("/broadcasters/{name}", twitch.BroadcasterHandler(sc.c.Client))
		r.Get("/games/{id}", twitch.GameHandler(sc.c.Games))
	})

	// Archive
	r.Route("/archive", func(r chi.Router) {
		r.Use(middlewares.ApplyAuthenticationByConfig)
		archiver.ApplyRouter(sc.c.Archive)(r)
	})

	// Status
	r.Route("/status", func(r chi.Router) {
		r.Use(middlewares.ApplyAuthenticationByConfig)
		status.ApplyRouter(sc.c.Hub)(r)
	})

	return &http.Server{Handler: r}
}
