package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"clipstream/internal/api"
	"clipstream/internal/observability/metrics"
	"clipstream/internal/serverutil"
)

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type Config struct {
	Addr        string
	TLS         TLSConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Security    SecurityConfig
	Logger      *slog.Logger
	AuditLogger *slog.Logger
	Metrics     *metrics.Recorder
}

type Server struct {
	httpServer  *http.Server
	logger      *slog.Logger
	auditLogger *slog.Logger
	metrics     *metrics.Recorder
	rateLimiter *rateLimiter
	tlsCertFile string
	tlsKeyFile  string
}

func New(handler *api.Handler, cfg Config) (*Server, error) {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handler.Health)
	mux.Handle("/metrics", recorder.Handler())

	mux.HandleFunc("/users/register", handler.Register)
	mux.HandleFunc("/users/login", handler.Login)
	mux.HandleFunc("/users/refresh-token", handler.RefreshToken)
	mux.HandleFunc("/users/logout", handler.Logout)
	mux.HandleFunc("/users/current-user", handler.CurrentUser)
	mux.HandleFunc("/users/change-password", handler.ChangePassword)
	mux.HandleFunc("/users/update-account", handler.UpdateAccount)
	mux.HandleFunc("/users/avatar", handler.Avatar)
	mux.HandleFunc("/users/cover-image", handler.CoverImage)
	mux.HandleFunc("/users/history", handler.WatchHistory)
	mux.HandleFunc("/users/c/", handler.ChannelProfile)

	mux.HandleFunc("/videos", handler.Videos)
	mux.HandleFunc("/videos/toggle/publish/", handler.TogglePublish)
	mux.HandleFunc("/videos/", handler.VideoByID)

	mux.HandleFunc("/tweets", handler.Tweets)
	mux.HandleFunc("/tweets/user/", handler.UserTweets)
	mux.HandleFunc("/tweets/", handler.TweetByID)

	mux.HandleFunc("/comments/c/", handler.CommentByID)
	mux.HandleFunc("/comments/", handler.VideoComments)

	mux.HandleFunc("/likes/toggle/v/", handler.ToggleVideoLike)
	mux.HandleFunc("/likes/toggle/c/", handler.ToggleCommentLike)
	mux.HandleFunc("/likes/toggle/t/", handler.ToggleTweetLike)
	mux.HandleFunc("/likes/videos", handler.LikedVideos)

	mux.HandleFunc("/subscriptions/c/", handler.ToggleSubscription)
	mux.HandleFunc("/subscriptions/u/", handler.ChannelSubscribers)
	mux.HandleFunc("/subscriptions/channels", handler.SubscribedChannels)

	mux.HandleFunc("/playlists", handler.Playlists)
	mux.HandleFunc("/playlists/user/", handler.UserPlaylists)
	mux.HandleFunc("/playlists/add/", func(w http.ResponseWriter, r *http.Request) {
		handler.PlaylistVideo(w, r, "add")
	})
	mux.HandleFunc("/playlists/remove/", func(w http.ResponseWriter, r *http.Request) {
		handler.PlaylistVideo(w, r, "remove")
	})
	mux.HandleFunc("/playlists/", handler.PlaylistByID)

	mux.HandleFunc("/dashboard/stats", handler.DashboardStats)
	mux.HandleFunc("/dashboard/videos", handler.DashboardVideos)

	corsPolicy, err := newCORSPolicy(cfg.CORS)
	if err != nil {
		return nil, err
	}

	rl, err := newRateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	handlerChain := http.Handler(mux)
	handlerChain = authMiddleware(handler, handlerChain)
	handlerChain = rateLimitMiddleware(rl, cfg.Logger, handlerChain)
	handlerChain = corsMiddleware(corsPolicy, cfg.Logger, handlerChain)
	handlerChain = securityHeadersMiddleware(cfg.Security, handlerChain)
	handlerChain = metrics.HTTPMiddleware(recorder, handlerChain)
	handlerChain = auditMiddleware(cfg.AuditLogger, handlerChain)
	handlerChain = loggingMiddleware(cfg.Logger, handlerChain)
	handlerChain = requestIDMiddleware(cfg.Logger, handlerChain)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlerChain,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	srv := &Server{
		httpServer:  httpServer,
		logger:      cfg.Logger,
		auditLogger: cfg.AuditLogger,
		metrics:     recorder,
		rateLimiter: rl,
		tlsCertFile: strings.TrimSpace(cfg.TLS.CertFile),
		tlsKeyFile:  strings.TrimSpace(cfg.TLS.KeyFile),
	}

	if srv.tlsCertFile != "" && srv.tlsKeyFile != "" {
		httpServer.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return srv, nil
}

func (s *Server) Start() error {
	if s.httpServer == nil {
		return fmt.Errorf("http server is not configured")
	}

	if s.tlsCertFile != "" && s.tlsKeyFile != "" {
		return s.httpServer.ListenAndServeTLS(s.tlsCertFile, s.tlsKeyFile)
	}

	return s.httpServer.ListenAndServe()
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	err := serverutil.Run(ctx, serverutil.Config{
		Server: s.httpServer,
		TLS: serverutil.TLSConfig{
			CertFile: s.tlsCertFile,
			KeyFile:  s.tlsKeyFile,
		},
	})
	if s.rateLimiter != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if closeErr := s.rateLimiter.Close(closeCtx); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	err := s.httpServer.Shutdown(ctx)
	if s.rateLimiter != nil {
		if closeErr := s.rateLimiter.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	if logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := newStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(recorder, r)
		duration := time.Since(start)
		requestLogger := loggerWithRequestContext(r.Context(), logger)
		requestLogger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", duration.Milliseconds(),
			"remote_ip", extractClientIP(r))
	})
}

func rateLimitMiddleware(rl *rateLimiter, logger *slog.Logger, next http.Handler) http.Handler {
	if rl == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.AllowRequest() {
			writeMiddlewareError(w, http.StatusTooManyRequests, "global rate limit exceeded")
			return
		}
		if r.Method == http.MethodPost && r.URL.Path == "/users/login" {
			ip := extractClientIP(r)
			allowed, retryAfter, err := rl.AllowLogin(ip)
			if err != nil {
				if logger != nil {
					logger.Error("rate limiter failure", "error", err)
				}
				writeMiddlewareError(w, http.StatusServiceUnavailable, "rate limit failure")
				return
			}
			if !allowed {
				if retryAfter > 0 {
					w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
				}
				writeMiddlewareError(w, http.StatusTooManyRequests, "too many login attempts")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func auditMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	if logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := newStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(sr, r)
		if !shouldAudit(r) {
			return
		}
		duration := time.Since(start)
		user, ok := api.UserFromContext(r.Context())
		fields := []interface{}{
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.status,
			"duration_ms", duration.Milliseconds(),
			"remote_ip", extractClientIP(r),
		}
		if ok {
			fields = append(fields, "user_id", user.ID)
		}
		logger.Info("audit", fields...)
	})
}

func shouldAudit(r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return false
	}
	switch r.URL.Path {
	case "/healthz", "/metrics":
		return false
	}
	return true
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return strings.TrimSpace(xrip)
	}
	return clientIP(r.RemoteAddr)
}

func clientIP(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// publicPaths never require a token.
func isPublicPath(path string) bool {
	switch path {
	case "/healthz", "/metrics", "/users/register", "/users/login", "/users/refresh-token":
		return true
	}
	return false
}

// optional-auth routes serve anonymous readers but annotate responses with
// viewer state when a valid token is presented.
func allowsAnonymous(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	path := r.URL.Path
	switch {
	case path == "/videos",
		strings.HasPrefix(path, "/videos/"),
		strings.HasPrefix(path, "/users/c/"),
		strings.HasPrefix(path, "/comments/"),
		strings.HasPrefix(path, "/tweets/user/"),
		strings.HasPrefix(path, "/subscriptions/u/"),
		strings.HasPrefix(path, "/playlists/user/"),
		strings.HasPrefix(path, "/playlists/"):
		return true
	}
	return false
}

func authMiddleware(handler *api.Handler, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		token := api.ExtractAccessToken(r)
		if token == "" {
			if allowsAnonymous(r) {
				next.ServeHTTP(w, r)
				return
			}
			writeMiddlewareError(w, http.StatusUnauthorized, "missing access token")
			return
		}
		user, err := handler.AuthenticateRequest(r)
		if err != nil {
			api.WriteError(w, err)
			return
		}
		ctx := api.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
