package api

import (
	"clipstream/internal/assets"
	"clipstream/internal/auth"
	"clipstream/internal/observability/metrics"
	"clipstream/internal/storage"
)

const defaultMaxUploadBytes = 256 << 20

type Handler struct {
	Store        storage.Repository
	Tokens       *auth.TokenManager
	Assets       assets.Client
	Metrics      *metrics.Recorder
	CookiePolicy AuthCookiePolicy
	// MaxUploadBytes caps a single multipart file part. Zero means the
	// default of 256 MiB.
	MaxUploadBytes int64
}

func NewHandler(store storage.Repository, tokens *auth.TokenManager) *Handler {
	return &Handler{
		Store:        store,
		Tokens:       tokens,
		Assets:       assets.Disabled(),
		CookiePolicy: DefaultAuthCookiePolicy(),
	}
}

func (h *Handler) assetClient() assets.Client {
	if h.Assets == nil {
		return assets.Disabled()
	}
	return h.Assets
}

func (h *Handler) recorder() *metrics.Recorder {
	if h.Metrics == nil {
		return metrics.Default()
	}
	return h.Metrics
}

func (h *Handler) maxUploadBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}
