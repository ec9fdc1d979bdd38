// Package router mounts the HTTP surface on the standard library's ServeMux.
package router

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/storyshare/service-api/internal/account"
	accountrepo "github.com/storyshare/service-api/internal/account/repo"
	"github.com/storyshare/service-api/internal/httpx"
	"github.com/storyshare/service-api/internal/story"
	storyrepo "github.com/storyshare/service-api/internal/story/repo"
	"github.com/storyshare/service-api/internal/token"
)

// Config carries the wiring the route table needs beyond the database.
type Config struct {
	AllowedOrigins []string
	Tokens         *token.Service
	Mailer         account.Mailer
}

// RegisterRoutes wires repositories, services and handlers, and returns the
// full middleware-wrapped handler.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, cfg Config) http.Handler {
	mux := http.NewServeMux()

	storyRepo := storyrepo.NewStoryRepo(db)
	storySvc := story.NewService(db, storyRepo)
	storyHandler := story.NewHandler(storySvc, logger)

	accountRepo := accountrepo.NewAccountRepo(db)
	accountSvc := account.NewService(db, accountRepo, nil, cfg.Tokens, cfg.Mailer, storyRepo)
	accountHandler := account.NewHandler(accountSvc, logger)

	// health
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// account routes
	mux.HandleFunc("POST /api/users/register", accountHandler.Register)
	mux.HandleFunc("GET /api/users/verifyemail/{verify_token}", accountHandler.VerifyEmail)
	mux.HandleFunc("POST /api/users/login", accountHandler.Login)
	mux.HandleFunc("GET /api/users/re", accountHandler.List)
	mux.HandleFunc("GET /api/users/re/{id}", accountHandler.GetWithStories)

	// story routes; author-owned mutations require a verified identity
	mux.HandleFunc("GET /api/stories", storyHandler.List)
	mux.HandleFunc("POST /api/stories", RequireIdentity(cfg.Tokens, storyHandler.Create))
	mux.HandleFunc("GET /api/stories/author/{authorId}", storyHandler.ListByAuthor)
	mux.HandleFunc("GET /api/stories/{storyId}", storyHandler.Get)
	mux.HandleFunc("PUT /api/stories/{storyId}", RequireIdentity(cfg.Tokens, storyHandler.Update))
	mux.HandleFunc("DELETE /api/stories/{storyId}", RequireIdentity(cfg.Tokens, storyHandler.Delete))
	mux.HandleFunc("PATCH /api/stories/{storyId}/publish", storyHandler.Publish)

	// engagement routes
	mux.HandleFunc("PUT /api/stories/{id}/like", storyHandler.Like)
	mux.HandleFunc("POST /api/stories/{id}/comment", storyHandler.Comment)

	// uniform JSON 404 for everything else
	mux.HandleFunc("/", httpx.NotFoundHandler())

	handler := LoggingMiddleware(logger)(SecurityHeadersMiddleware()(CORSMiddleware(cfg.AllowedOrigins)(mux)))
	return handler
}
