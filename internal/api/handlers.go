package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Esosek/tubely/internal/assets"
	"github.com/Esosek/tubely/internal/auth"
	"github.com/Esosek/tubely/internal/config"
	"github.com/Esosek/tubely/internal/events"
	"github.com/Esosek/tubely/internal/media"
	"github.com/Esosek/tubely/internal/metrics"
	"github.com/Esosek/tubely/internal/observability"
	"github.com/Esosek/tubely/internal/storage"
	"github.com/Esosek/tubely/pkg/models"
)

var tracer = otel.Tracer("tubely-api")

// Upload limits and multipart field names
const (
	MaxThumbnailSize = 10 << 20 // 10 MiB
	MaxVideoSize     = 1 << 30  // 1 GiB

	ThumbnailFormField = "thumbnail"
	VideoFormField     = "video"

	VideoContentType = "video/mp4"
)

// Handlers contains all HTTP handlers for the API.
type Handlers struct {
	cfg         *config.Config
	log         *slog.Logger
	store       storage.VideoStore
	objects     storage.ObjectStore
	assets      *assets.Manager
	prober      media.Prober
	processor   media.Processor
	jwtService  *auth.JWTService
	rateLimiter *auth.RateLimiter
	events      events.Publisher
}

// HandlersConfig holds dependencies for handlers.
type HandlersConfig struct {
	Config      *config.Config
	Logger      *slog.Logger
	Store       storage.VideoStore
	ObjectStore storage.ObjectStore
	Assets      *assets.Manager
	Prober      media.Prober
	Processor   media.Processor
	JWTService  *auth.JWTService
	RateLimiter *auth.RateLimiter
	Events      events.Publisher
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg *HandlersConfig) *Handlers {
	pub := cfg.Events
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &Handlers{
		cfg:         cfg.Config,
		log:         cfg.Logger,
		store:       cfg.Store,
		objects:     cfg.ObjectStore,
		assets:      cfg.Assets,
		prober:      cfg.Prober,
		processor:   cfg.Processor,
		jwtService:  cfg.JWTService,
		rateLimiter: cfg.RateLimiter,
		events:      pub,
	}
}

// writeJSON writes a JSON response.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError writes an error response. Internal failures log the underlying
// cause; the client only sees the message.
func (h *Handlers) writeError(w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError && err != nil {
		h.log.Error(message, "error", err, "status", status)
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}

// authorizeVideo resolves the request's video ID and bearer token into an
// owned video record, writing the appropriate error response on failure.
func (h *Handlers) authorizeVideo(w http.ResponseWriter, r *http.Request) (*models.Video, bool) {
	videoIDString := r.PathValue("videoID")
	videoID, err := uuid.Parse(videoIDString)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid video ID", err)
		return nil, false
	}

	userID, err := h.jwtService.Authenticate(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "Invalid or missing bearer token", err)
		return nil, false
	}

	video, err := h.store.GetVideo(r.Context(), videoID.String())
	if err != nil {
		if errors.Is(err, models.ErrVideoNotFound) {
			h.writeError(w, http.StatusNotFound, "Video not found", err)
			return nil, false
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to load video", err)
		return nil, false
	}

	if video.UserID != userID {
		h.writeError(w, http.StatusForbidden, "You don't own this video", nil)
		return nil, false
	}

	return video, true
}

// formFile extracts the named multipart file, translating oversize bodies
// into 413 responses.
func (h *Handlers) formFile(w http.ResponseWriter, r *http.Request, field string) (io.ReadCloser, string, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "Uploaded file too large", err)
			return nil, "", false
		}
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Missing %s file in form data", field), err)
		return nil, "", false
	}

	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil {
		file.Close()
		h.writeError(w, http.StatusBadRequest, "Invalid Content-Type for uploaded file", err)
		return nil, "", false
	}

	return file, mediaType, true
}

// UploadThumbnailHandler handles POST /api/videos/{videoID}/thumbnail.
func (h *Handlers) UploadThumbnailHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "upload-thumbnail",
		trace.WithAttributes(attribute.String("handler", "upload-thumbnail")))
	defer span.End()
	r = r.WithContext(ctx)

	start := time.Now()

	video, ok := h.authorizeVideo(w, r)
	if !ok {
		metrics.RecordUploadFailure("thumbnail")
		return
	}
	span.SetAttributes(attribute.String("video.id", video.ID))

	r.Body = http.MaxBytesReader(w, r.Body, MaxThumbnailSize)

	file, mediaType, ok := h.formFile(w, r, ThumbnailFormField)
	if !ok {
		metrics.RecordUploadFailure("thumbnail")
		return
	}
	defer file.Close()

	if !h.cfg.Thumbnails.AllowsType(mediaType) {
		metrics.RecordUploadFailure("thumbnail")
		h.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Thumbnail type %s is not allowed", mediaType), nil)
		return
	}

	var thumbnailURL string
	switch h.cfg.Thumbnails.Storage {
	case config.ThumbnailStorageDataURL:
		data, err := io.ReadAll(file)
		if err != nil {
			metrics.RecordUploadFailure("thumbnail")
			h.writeError(w, http.StatusInternalServerError, "Failed to read thumbnail", err)
			return
		}
		thumbnailURL = fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))

	default:
		name, err := h.assets.NewName(mediaType)
		if err != nil {
			metrics.RecordUploadFailure("thumbnail")
			h.writeError(w, http.StatusBadRequest, "Unsupported thumbnail type", err)
			return
		}
		if err := h.assets.Save(name, file); err != nil {
			metrics.RecordUploadFailure("thumbnail")
			h.writeError(w, http.StatusInternalServerError, "Failed to store thumbnail", err)
			return
		}
		thumbnailURL = h.assets.URL(name)
	}

	video.ThumbnailURL = &thumbnailURL
	video.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateVideo(ctx, video); err != nil {
		metrics.RecordUploadFailure("thumbnail")
		h.writeError(w, http.StatusInternalServerError, "Failed to update video", err)
		return
	}

	metrics.RecordUploadSuccess("thumbnail")
	metrics.UploadDuration.WithLabelValues("thumbnail").Observe(time.Since(start).Seconds())

	h.writeJSON(w, http.StatusOK, video)
}

// UploadVideoHandler handles POST /api/videos/{videoID}/video. The upload is
// staged to a temporary file, probed for its aspect ratio, remuxed for fast
// start, and stored under an aspect-prefixed key. Probe and remux failures
// degrade gracefully; temporary files are removed on every exit path.
func (h *Handlers) UploadVideoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "upload-video",
		trace.WithAttributes(attribute.String("handler", "upload-video")))
	defer span.End()
	r = r.WithContext(ctx)

	start := time.Now()

	video, ok := h.authorizeVideo(w, r)
	if !ok {
		metrics.RecordUploadFailure("video")
		return
	}
	span.SetAttributes(attribute.String("video.id", video.ID))

	r.Body = http.MaxBytesReader(w, r.Body, MaxVideoSize)

	file, mediaType, ok := h.formFile(w, r, VideoFormField)
	if !ok {
		metrics.RecordUploadFailure("video")
		return
	}
	defer file.Close()

	if mediaType != VideoContentType {
		metrics.RecordUploadFailure("video")
		h.writeError(w, http.StatusBadRequest, "Only video/mp4 uploads are supported", nil)
		return
	}

	name, err := h.assets.NewName(mediaType)
	if err != nil {
		metrics.RecordUploadFailure("video")
		h.writeError(w, http.StatusInternalServerError, "Failed to generate storage name", err)
		return
	}

	staged, err := h.assets.Stage(name, file)
	if err != nil {
		metrics.RecordUploadFailure("video")
		h.writeError(w, http.StatusInternalServerError, "Failed to stage upload", err)
		return
	}
	defer func() {
		if err := staged.Close(); err != nil {
			h.log.Warn("Failed to clean up staged files",
				observability.WithTrace(ctx, "error", err, "videoId", video.ID)...)
		}
	}()

	aspect := media.AspectOther
	dims, err := h.prober.Probe(ctx, staged.Path)
	if err != nil {
		// Probing is best-effort: unclassifiable uploads land in "other".
		metrics.ProbeFallbacks.Inc()
		h.log.Warn("Aspect probe failed, classifying as other",
			observability.WithTrace(ctx, "error", err, "videoId", video.ID)...)
	} else {
		aspect = media.ClassifyAspect(dims)
	}
	span.SetAttributes(attribute.String("video.aspect", aspect))

	uploadPath := staged.Path
	processedPath, err := h.processor.FastStart(ctx, staged.Path)
	if err != nil {
		// Remuxing is best-effort: fall back to the original staged file.
		metrics.TranscodeFallbacks.Inc()
		h.log.Warn("Fast-start remux failed, uploading original",
			observability.WithTrace(ctx, "error", err, "videoId", video.ID)...)
	} else {
		staged.Track(processedPath)
		uploadPath = processedPath
	}

	source, err := os.Open(uploadPath)
	if err != nil {
		metrics.RecordUploadFailure("video")
		h.writeError(w, http.StatusInternalServerError, "Failed to open processed upload", err)
		return
	}
	defer source.Close()

	key := fmt.Sprintf("%s/%s", aspect, name)
	span.SetAttributes(attribute.String("video.key", key))

	if err := h.objects.Upload(ctx, key, source, VideoContentType); err != nil {
		metrics.RecordUploadFailure("video")
		h.writeError(w, http.StatusInternalServerError, "Failed to upload video to storage", err)
		return
	}

	videoURL := h.cfg.ObjectURL(key)
	video.VideoURL = &videoURL
	video.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateVideo(ctx, video); err != nil {
		metrics.RecordUploadFailure("video")
		h.writeError(w, http.StatusInternalServerError, "Failed to update video", err)
		return
	}

	if err := h.events.PublishUploadEvent(ctx, models.UploadEvent{
		Type:    "video.uploaded",
		VideoID: video.ID,
		Bucket:  h.cfg.AWS.S3Bucket,
		Key:     key,
	}); err != nil {
		h.log.Warn("Failed to publish upload event",
			observability.WithTrace(ctx, "error", err, "videoId", video.ID)...)
	}

	metrics.RecordUploadSuccess("video")
	metrics.UploadDuration.WithLabelValues("video").Observe(time.Since(start).Seconds())

	h.log.Info("Video upload complete", observability.WithTrace(ctx,
		"videoId", video.ID,
		"key", key,
		"aspect", aspect,
		"duration", time.Since(start),
	)...)

	h.writeJSON(w, http.StatusOK, video)
}
