package handler

import (
	"net/http"

	"aternotes/internal/logger"
	"aternotes/internal/middleware"
	"aternotes/internal/service"

	"github.com/go-chi/chi/v5"
)

// ModeratorHandler holds dependencies for the moderator roster API.
type ModeratorHandler struct {
	moderators service.ModeratorServicer
	log        logger.Logger
}

// NewModeratorHandler creates a new ModeratorHandler.
func NewModeratorHandler(ms service.ModeratorServicer, log logger.Logger) *ModeratorHandler {
	return &ModeratorHandler{moderators: ms, log: log}
}

type addModeratorRequest struct {
	DiscordID string `json:"discord_id"`
}

// list handles GET /api/moderators.
func (h *ModeratorHandler) list(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	moderators, err := h.moderators.ListModerators(r.Context())
	if err != nil {
		return serviceError(err, middleware.ActorFrom(r.Context()))
	}
	middleware.WriteJSON(w, r, http.StatusOK, moderators)
	return nil
}

// add handles POST /api/moderators.
func (h *ModeratorHandler) add(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req addModeratorRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		return appErr
	}
	m, err := h.moderators.AddModerator(r.Context(), req.DiscordID)
	if err != nil {
		return serviceError(err, middleware.ActorFrom(r.Context()))
	}
	middleware.WriteJSON(w, r, http.StatusCreated, m)
	return nil
}

// refresh handles POST /api/moderators/{id}/refresh and
// POST /api/moderators/discord/{discordID}/refresh.
func (h *ModeratorHandler) refresh(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	key, appErr := moderatorKey(r)
	if appErr != nil {
		return appErr
	}
	res, err := h.moderators.RefreshModerator(r.Context(), key)
	if err != nil {
		return serviceError(err, middleware.ActorFrom(r.Context()))
	}
	if !res.Fetched {
		h.log.Debug("Refresh of moderator " + key.String() + " skipped, profile is recent")
	}
	middleware.WriteJSON(w, r, http.StatusOK, res)
	return nil
}

// remove handles DELETE /api/moderators/{id} and
// DELETE /api/moderators/discord/{discordID}.
func (h *ModeratorHandler) remove(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	key, appErr := moderatorKey(r)
	if appErr != nil {
		return appErr
	}
	if err := h.moderators.RemoveModerator(r.Context(), key); err != nil {
		return serviceError(err, middleware.ActorFrom(r.Context()))
	}
	middleware.WriteJSON(w, r, http.StatusOK, nil)
	return nil
}

// moderatorKey reads either route form of a moderator reference.
func moderatorKey(r *http.Request) (service.ModeratorKey, *middleware.AppError) {
	if discordID := chi.URLParam(r, "discordID"); discordID != "" {
		return service.ModeratorByDiscordID(discordID), nil
	}
	id, appErr := pathID(r, "id")
	if appErr != nil {
		return service.ModeratorKey{}, appErr
	}
	return service.ModeratorByID(id), nil
}
