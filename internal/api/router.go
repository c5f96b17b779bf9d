package api

import (
	"log"
	"net/http"

	"github.com/rbuysse/quizbox/internal/service"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

type Options struct {
	AllowedOrigins []string
	CookieSecure   bool
}

type Server struct {
	db       *gorm.DB
	auth     *service.AuthService
	keys     *service.APIKeyService
	sessions service.SessionStore
	quizzes  *service.QuizService
	themes   *service.ThemeService
	admin    *service.AdminService
	gate     *Gate
	opts     Options
}

func NewServer(database *gorm.DB, sessions service.SessionStore, opts Options) *Server {
	keys := service.NewAPIKeyService(database)
	return &Server{
		db:       database,
		auth:     service.NewAuthService(database),
		keys:     keys,
		sessions: sessions,
		quizzes:  service.NewQuizService(database),
		themes:   service.NewThemeService(database),
		admin:    service.NewAdminService(database),
		gate:     NewGate(keys, sessions),
		opts:     opts,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /livez", s.livez)
	mux.HandleFunc("GET /readyz", s.readyz)

	// Setup and auth
	mux.HandleFunc("GET /setup/status", s.setupStatus)
	mux.HandleFunc("POST /setup", s.setup)
	mux.HandleFunc("POST /register", s.register)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("GET /logout", s.logout)
	mux.HandleFunc("POST /logout", s.logout)

	mux.HandleFunc("GET /me", s.gate.Require(s.me))
	mux.HandleFunc("GET /me/api-key", s.gate.Require(s.apiKey))
	mux.HandleFunc("POST /me/api-key/refresh", s.gate.Require(s.refreshAPIKey))

	// Themes and quizzes
	mux.HandleFunc("GET /themes", s.listThemes)
	mux.HandleFunc("POST /themes", s.gate.Require(s.createTheme))
	mux.HandleFunc("GET /themes/{id}/quiz", s.gate.Require(s.themeQuizzes))

	mux.HandleFunc("POST /quizzes", s.gate.Require(s.createQuiz))
	mux.HandleFunc("GET /quizzes", s.gate.Require(s.myQuizzes))
	mux.HandleFunc("GET /quizzes/default", s.defaultQuizzes)
	mux.HandleFunc("GET /quizzes/{id}", s.gate.Require(s.getQuiz))

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", APIKeyHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	})

	log.Println("Router initialized")
	handler := c.Handler(mux)
	handler = Recover(handler)
	handler = Logger(handler)
	handler = RequestID(handler)
	return handler
}
