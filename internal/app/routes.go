package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"membership-api/internal/account"
	"membership-api/internal/auth"
	"membership-api/internal/config"
	"membership-api/internal/diagnostics"
	"membership-api/internal/httpx"
	"membership-api/internal/media"
	"membership-api/internal/members"
	"membership-api/internal/observability"
	"membership-api/internal/token"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies are the collaborators the HTTP surface is assembled from.
// Uploader may be nil when Cloudinary is not configured.
type Dependencies struct {
	Config   config.Config
	Logger   *observability.Logger
	Metrics  *observability.Metrics
	Database Pinger
	Accounts account.Store
	Members  members.Store
	Uploader media.ImageUploader
}

// NewHandler validates the token key and wires every route behind the
// logging, fault and CORS middleware.
func NewHandler(deps Dependencies) (http.Handler, error) {
	if err := deps.Config.Validate(); err != nil {
		return nil, err
	}

	issuer := token.NewIssuer(deps.Config.TokenKey)
	verifier := token.NewVerifier(deps.Config.TokenKey)
	faults := observability.NewFaultTranslator(deps.Logger, deps.Metrics, deps.Config.IsDevelopment())

	accountHandler := account.NewHandler(account.NewService(deps.Accounts, issuer), deps.Metrics)
	memberHandler := members.NewHandler(deps.Members)
	photoHandler := media.NewPhotoHandler(deps.Uploader, deps.Members)
	diagnosticsHandler := diagnostics.NewHandler()

	limitKey := httprate.KeyByIP
	if deps.Config.TrustProxyHeaders {
		limitKey = httprate.KeyByRealIP
	}
	loginLimiter := httprate.Limit(
		deps.Config.LoginRateLimitMax,
		deps.Config.LoginRateLimitWindow,
		httprate.WithKeyFuncs(limitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteError(w, http.StatusTooManyRequests, "too many login attempts")
		}),
	)

	protected := func(fn observability.HandlerFunc) http.Handler {
		return auth.Middleware(verifier, faults.Handle(fn))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/account/login", loginLimiter(faults.Handle(accountHandler.Login)))
	mux.Handle("POST /api/account/register", loginLimiter(faults.Handle(accountHandler.Register)))
	mux.Handle("GET /api/users", protected(memberHandler.List))
	mux.Handle("GET /api/users/{username}", protected(memberHandler.Get))
	mux.Handle("PUT /api/users", protected(memberHandler.Update))
	mux.Handle("POST /api/users/add-photo", protected(photoHandler.AddPhoto))
	mux.Handle("GET /api/exceptions", faults.Handle(diagnosticsHandler.TestException))
	mux.HandleFunc("GET /api/exceptions/server-error", diagnosticsHandler.ServerError)
	mux.HandleFunc("GET /health", healthHandler(deps.Database))
	if deps.Config.MetricsEnabled {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	handler := faults.Middleware(mux)
	handler = observability.RequestLoggingMiddleware(deps.Logger, deps.Metrics, handler)
	handler = cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(handler)

	return handler, nil
}

func healthHandler(database Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		httpx.WriteJSON(w, status, body)
	}
}
