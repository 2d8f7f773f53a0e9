package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/pipeline"
	"github.com/marcopiovanello/twitch-clip-dl/server/settings"
)

type Handler struct {
	service *Service
}

type taskResp struct {
	ID string `json:"id"`
}

type playReq struct {
	Paths []string `json:"paths"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) GetSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.service.Settings(r.Context()))
	}
}

func (h *Handler) SaveUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req settings.UserConfig
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := h.service.SaveUser(r.Context(), req); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}

		writeJSON(w, http.StatusOK, h.service.Settings(r.Context()))
	}
}

func (h *Handler) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req pipeline.SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		id, err := h.service.Search(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}

		writeJSON(w, http.StatusAccepted, taskResp{ID: id})
	}
}

func (h *Handler) Download() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req pipeline.DownloadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		id, err := h.service.Download(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}

		writeJSON(w, http.StatusAccepted, taskResp{ID: id})
	}
}

func (h *Handler) GetTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := h.service.Task(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}

		writeJSON(w, http.StatusOK, task)
	}
}

func (h *Handler) GetTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.service.Tasks(r.Context()))
	}
}

func (h *Handler) GetPlayer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.service.Player(r.Context()))
	}
}

func (h *Handler) Play() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req playReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := h.service.Play(r.Context(), req.Paths); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) GetVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := h.service.Version(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, v)
	}
}

func (h *Handler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.service.Update(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"output": out})
	}
}
