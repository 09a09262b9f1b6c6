package handler

import (
	"context"
	"net/http"

	"aternotes/internal/data"
	"aternotes/internal/logger"
	"aternotes/internal/middleware"
	"aternotes/internal/service"

	"github.com/go-chi/chi/v5"
)

// GuideHandler holds dependencies for the guide API.
type GuideHandler struct {
	guides service.GuideServicer
	log    logger.Logger
}

// NewGuideHandler creates a new GuideHandler.
func NewGuideHandler(gs service.GuideServicer, log logger.Logger) *GuideHandler {
	return &GuideHandler{guides: gs, log: log}
}

type createGuideRequest struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

type updateGuideRequest struct {
	Title    *string `json:"title"`
	Markdown *string `json:"markdown"`
}

// listPublished handles GET /api/guides.
func (h *GuideHandler) listPublished(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	guides, err := h.guides.ListPublishedGuides(r.Context())
	if err != nil {
		return serviceError(err, middleware.ActorFrom(r.Context()))
	}
	middleware.WriteJSON(w, r, http.StatusOK, guides)
	return nil
}

// listMine handles GET /api/me/guides.
func (h *GuideHandler) listMine(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	actor := middleware.ActorFrom(r.Context())
	guides, err := h.guides.ListGuidesByAuthor(r.Context(), actor)
	if err != nil {
		return serviceError(err, actor)
	}
	middleware.WriteJSON(w, r, http.StatusOK, guides)
	return nil
}

// listPending handles GET /api/review/queue.
func (h *GuideHandler) listPending(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	actor := middleware.ActorFrom(r.Context())
	guides, err := h.guides.ListPendingReview(r.Context(), actor)
	if err != nil {
		return serviceError(err, actor)
	}
	middleware.WriteJSON(w, r, http.StatusOK, guides)
	return nil
}

// create handles POST /api/guides.
func (h *GuideHandler) create(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req createGuideRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		return appErr
	}
	actor := middleware.ActorFrom(r.Context())
	guide, err := h.guides.CreateGuide(r.Context(), actor, req.Title, req.Markdown)
	if err != nil {
		return serviceError(err, actor)
	}
	h.log.Info("Guide created: " + guide.Slug)
	middleware.WriteJSON(w, r, http.StatusCreated, guide)
	return nil
}

// getByID handles GET /api/guides/{id}.
func (h *GuideHandler) getByID(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}
	return h.get(w, r, service.GuideByID(id))
}

// getBySlug handles GET /api/guides/by-slug/{slug}.
func (h *GuideHandler) getBySlug(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.get(w, r, service.GuideBySlug(chi.URLParam(r, "slug")))
}

func (h *GuideHandler) get(w http.ResponseWriter, r *http.Request, ref service.GuideRef) *middleware.AppError {
	actor := middleware.ActorFrom(r.Context())
	guide, err := h.guides.GetGuide(r.Context(), actor, ref)
	if err != nil {
		return serviceError(err, actor)
	}
	middleware.WriteJSON(w, r, http.StatusOK, guide)
	return nil
}

// update handles PATCH /api/guides/{id}.
func (h *GuideHandler) update(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}
	var req updateGuideRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		return appErr
	}
	actor := middleware.ActorFrom(r.Context())
	guide, err := h.guides.UpdateGuide(r.Context(), actor, id, service.GuideUpdate{Title: req.Title, Markdown: req.Markdown})
	if err != nil {
		return serviceError(err, actor)
	}
	middleware.WriteJSON(w, r, http.StatusOK, guide)
	return nil
}

// remove handles DELETE /api/guides/{id}.
func (h *GuideHandler) remove(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}
	actor := middleware.ActorFrom(r.Context())
	if err := h.guides.DeleteGuide(r.Context(), actor, id); err != nil {
		return serviceError(err, actor)
	}
	middleware.WriteJSON(w, r, http.StatusOK, nil)
	return nil
}

// submit handles POST /api/guides/{id}/submit.
func (h *GuideHandler) submit(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.transition(w, r, h.guides.SubmitForReview)
}

// approve handles POST /api/guides/{id}/approve.
func (h *GuideHandler) approve(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.transition(w, r, h.guides.ApproveGuide)
}

// reject handles POST /api/guides/{id}/reject.
func (h *GuideHandler) reject(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.transition(w, r, h.guides.RejectGuide)
}

func (h *GuideHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, service.Actor, int64) (*data.Guide, error)) *middleware.AppError {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}
	actor := middleware.ActorFrom(r.Context())
	guide, err := apply(r.Context(), actor, id)
	if err != nil {
		return serviceError(err, actor)
	}
	h.log.Info("Guide " + guide.Slug + " is now " + string(guide.Status))
	middleware.WriteJSON(w, r, http.StatusOK, guide)
	return nil
}
