package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/BookReviewGo/pkg/health"
	"github.com/utafrali/BookReviewGo/pkg/middleware"
)

const serviceName = "bookreview"

// Banner is the body of GET /.
const Banner = "Book Review Platform API is running..."

// Services groups the use cases the HTTP layer exposes.
type Services struct {
	Auth    AuthService
	Catalog CatalogService
	Reviews ReviewService
}

// NewRouter creates a chi router with all book review routes registered.
// Routes that change state require a bearer token accepted by verify.
func NewRouter(
	svcs Services,
	verify middleware.TokenValidator,
	healthHandler *health.Handler,
	corsCfg middleware.CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(corsCfg))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.PrometheusMetrics(serviceName))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(Banner))
	})

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := middleware.Auth(verify)

	authHandler := NewAuthHandler(svcs.Auth, logger)
	bookHandler := NewBookHandler(svcs.Catalog, svcs.Reviews, logger)
	reviewHandler := NewReviewHandler(svcs.Catalog, svcs.Reviews, logger)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
	})

	r.Route("/api/books", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", bookHandler.ListBooks)
		r.Get("/{id}", bookHandler.GetBook)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", bookHandler.AddBook)
			r.Post("/{id}/reviews", bookHandler.AddReview)
		})
	})

	r.Route("/api/reviews", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/myreviews", reviewHandler.MyReviews)
		r.Delete("/{id}", reviewHandler.DeleteReview)
	})

	return r
}
