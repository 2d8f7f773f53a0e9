package rest

import (
	"github.com/go-chi/chi/v5"
	middlewares "github.com/marcopiovanello/twitch-clip-dl/server/middleware"
)

func ApplyRouter(args *ContainerArgs) func(chi.Router) {
	h := ProvideHandler(ProvideService(args))
	return h.routes
}

func (h *Handler) routes(r chi.Router) {
	r.Use(middlewares.ApplyAuthenticationByConfig)

	r.Get("/settings", h.GetSettings())
	r.Put("/settings/user", h.SaveUser())

	r.Post("/clips/search", h.Search())
	r.Post("/clips/download", h.Download())

	r.Get("/tasks", h.GetTasks())
	r.Get("/tasks/{id}", h.GetTask())

	r.Get("/player", h.GetPlayer())
	r.Post("/player/play", h.Play())

	r.Get("/version", h.GetVersion())
	r.Post("/updater", h.Update())
}
