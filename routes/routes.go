package routes

import (
	"log/slog"
	"time"

	"locallink-be/auth"
	"locallink-be/controllers"
	"locallink-be/middlewares"
	"locallink-be/services"
	"locallink-be/storage"
	"locallink-be/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps is everything the router needs to build its handlers.
type Deps struct {
	Repos        store.Repositories
	Verifier     auth.Verifier
	AdminEmails  []string
	Uploader     *storage.Uploader
	HealthChecks map[string]controllers.HealthCheck
	CORSOrigins  []string
	Logger       *slog.Logger
}

type handlers struct {
	authn    *middlewares.Authenticator
	access   *services.AccessControl
	issues   *controllers.IssueController
	comments *controllers.CommentController
	auth     *controllers.AuthController
	users    *controllers.UserController
	admin    *controllers.AdminController
	uploads  *controllers.UploadController
	health   *controllers.HealthController
}

func newHandlers(d Deps) handlers {
	log := d.Logger
	access := services.NewAccessControl(d.AdminEmails, d.Repos.Users, log)
	issueService := services.NewIssueService(d.Repos, access, log)
	commentService := services.NewCommentService(d.Repos, access, log)
	userService := services.NewUserService(d.Repos.Users, access, log)
	analyticsService := services.NewAnalyticsService(d.Repos, access, log)
	authn := middlewares.NewAuthenticator(d.Verifier, userService, log)

	return handlers{
		authn:    authn,
		access:   access,
		issues:   controllers.NewIssueController(issueService, commentService, authn.Insecure(), log),
		comments: controllers.NewCommentController(commentService, log),
		auth:     controllers.NewAuthController(userService, log),
		users:    controllers.NewUserController(userService, log),
		admin:    controllers.NewAdminController(issueService, commentService, analyticsService, log),
		uploads:  controllers.NewUploadController(d.Uploader, log),
		health:   controllers.NewHealthController(d.HealthChecks),
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-User-Id", middlewares.RequestIDHeader},
		ExposeHeaders: []string{middlewares.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// SetupRoutes registers every route on r.
func SetupRoutes(r *gin.Engine, d Deps) {
	h := newHandlers(d)

	r.Use(middlewares.RequestLogger(d.Logger))
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	r.GET("/ping", h.health.Ping)
	r.GET("/healthz", h.health.Healthz)

	api := r.Group("/api")
	issueRoutes(api, h)
	authRoutes(api, h)
	adminRoutes(api, h)
	userRoutes(api, h)

	api.POST("/uploads", h.authn.RequireAuth(), h.uploads.UploadImage)
}

// NewRouter builds an engine with recovery and every route registered.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	SetupRoutes(r, d)
	return r
}
