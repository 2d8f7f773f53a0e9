package rest

import (
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/kv"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/pipeline"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/queue"
	"github.com/marcopiovanello/twitch-clip-dl/server/player"
	"github.com/marcopiovanello/twitch-clip-dl/server/settings"
)

type ContainerArgs struct {
	Settings   *settings.Store
	MDB        *kv.Store
	MQ         *queue.MessageQueue
	Pipeline   *pipeline.Pipeline
	Player     *player.Launcher
	Status     func(string)
	Downloader string
}
