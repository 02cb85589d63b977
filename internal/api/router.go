package api

import (
	"net/http"
	"time"

	"kaab_hub/internal/api/handler"
	"kaab_hub/internal/api/middleware"
	"kaab_hub/internal/app/service"
	"kaab_hub/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/sirupsen/logrus"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth          *service.AuthService
	Users         *service.UserService
	Questions     *service.QuestionService
	Answers       *service.AnswerService
	Votes         *service.VoteService
	Opportunities *service.OpportunityService
	Tags          *service.TagService
	Search        *service.SearchService
	Notifications *service.NotificationService
	Mentors       *service.MentorService
}

type RouterConfig struct {
	FrontendURL    string
	MaxUploadBytes int64
	Tokens         *security.TokenManager
	Users          middleware.UserFinder
	Log            *logrus.Entry
	// Metrics and Realtime are optional.
	Metrics  MetricsProvider
	Realtime http.Handler
}

type MetricsProvider interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig, svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Log))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	// Websockets are long lived, so they sit outside the request timeout.
	if cfg.Realtime != nil {
		r.Get("/ws", cfg.Realtime.ServeHTTP)
	}

	auth := middleware.Authenticator(cfg.Users)
	answers := handler.NewAnswerHandler(svc.Answers, svc.Votes, auth)

	r.Route("/api", func(api chi.Router) {
		api.Use(chiMiddleware.Timeout(60 * time.Second))
		// Verifier only parses the bearer token; routes opt into auth.
		api.Use(jwtauth.Verifier(cfg.Tokens.JWTAuth()))

		api.Route("/users", handler.NewUserHandler(svc.Auth, svc.Users, auth, cfg.MaxUploadBytes).RegisterRoutes)
		api.Route("/questions", handler.NewQuestionHandler(svc.Questions, svc.Votes, answers, auth).RegisterRoutes)
		api.Route("/answers", answers.RegisterRoutes)
		api.Route("/opportunities", handler.NewOpportunityHandler(svc.Opportunities, auth).RegisterRoutes)
		api.Route("/tags", handler.NewTagHandler(svc.Tags, auth).RegisterRoutes)
		api.Route("/search", handler.NewSearchHandler(svc.Search).RegisterRoutes)
		api.Route("/notifications", handler.NewNotificationHandler(svc.Notifications, auth).RegisterRoutes)
		api.Route("/mentors", handler.NewMentorHandler(svc.Mentors).RegisterRoutes)
	})

	return r
}
