package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Esosek/tubely/internal/auth"
	"github.com/Esosek/tubely/pkg/models"
)

type createVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// claimsUserID retrieves the authenticated user ID injected by the auth
// middleware.
func (h *Handlers) claimsUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.GetClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Missing authentication", nil)
		return "", false
	}
	return claims.UserID, true
}

// CreateVideoHandler handles POST /api/videos: creates a draft record with
// no assets attached yet.
func (h *Handlers) CreateVideoHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.claimsUserID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxCredentialBodySize)

	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Title == "" {
		h.writeError(w, http.StatusBadRequest, "Title is required", nil)
		return
	}

	now := time.Now().UTC()
	video := &models.Video{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateVideo(r.Context(), video); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to create video", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, video)
}

// GetVideoHandler handles GET /api/videos/{videoID}.
func (h *Handlers) GetVideoHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.claimsUserID(w, r)
	if !ok {
		return
	}

	videoID, err := uuid.Parse(r.PathValue("videoID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid video ID", err)
		return
	}

	video, err := h.store.GetVideo(r.Context(), videoID.String())
	if err != nil {
		if errors.Is(err, models.ErrVideoNotFound) {
			h.writeError(w, http.StatusNotFound, "Video not found", err)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to load video", err)
		return
	}

	if video.UserID != userID {
		h.writeError(w, http.StatusForbidden, "You don't own this video", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, video)
}

// ListVideosHandler handles GET /api/videos: returns the authenticated
// user's videos, newest first.
func (h *Handlers) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.claimsUserID(w, r)
	if !ok {
		return
	}

	videos, err := h.store.ListVideosByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list videos", err)
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}

	h.writeJSON(w, http.StatusOK, videos)
}
