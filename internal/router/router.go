package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/candidate-portal/internal/config"
	"github.com/stemsi/candidate-portal/internal/handler"
	"github.com/stemsi/candidate-portal/internal/middleware"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/response"
	"github.com/stemsi/candidate-portal/internal/session"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Candidate *handler.CandidateHandler
	Dashboard *handler.DashboardHandler
	Result    *handler.ResultHandler
	WS        *handler.WSHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	sess *session.Session,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")

	// ─── 1. Public Group ───────────────────────────────────────────────
	api.GET("/landing", handlers.Auth.Landing)
	api.GET("/errors/:code", handlers.System.ErrorPage)

	// ─── 2. Auth Group (Rate Limited) ──────────────────────────────────
	authLimiter := middleware.NewRateLimiter(30, time.Minute)
	auth := api.Group("/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", handlers.Auth.Logout)
		auth.POST("/forgot-password", handlers.Auth.ForgotPassword)
		auth.POST("/reset-password/:token", handlers.Auth.ResetPassword)
	}

	// ─── 3. Admin Group ────────────────────────────────────────────────
	admin := api.Group("/candidates")
	admin.Use(middleware.RequireSession(sess), middleware.RequireRole(sess, model.RoleAdmin))
	{
		admin.GET("", handlers.Candidate.ListCandidates)
		admin.POST("", handlers.Candidate.CreateCandidate)
		admin.GET("/:id", handlers.Candidate.GetCandidate)
		admin.PUT("/:id", handlers.Candidate.UpdateCandidate)
		admin.DELETE("/:id", handlers.Candidate.DeleteCandidate)
	}

	// ─── 4. Candidate Group ────────────────────────────────────────────
	dashboard := api.Group("/dashboard")
	dashboard.Use(middleware.RequireSession(sess), middleware.RequireRole(sess, model.RoleUser))
	{
		dashboard.GET("", handlers.Dashboard.GetDashboard)
		dashboard.POST("/exams", handlers.Dashboard.StartExam)
	}

	// ─── 5. Exam Reports (any signed-in role) ──────────────────────────
	exams := api.Group("/exams")
	exams.Use(middleware.RequireSession(sess))
	{
		exams.GET("/:exam_id/result", handlers.Result.GetResult)
		exams.GET("/:exam_id/proctoring", handlers.Result.GetProctoringSummary)
	}

	// ─── 6. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireSession(sess), middleware.RequireRole(sess, model.RoleUser))
	{
		ws.GET("/exams/:exam_id/stream", handlers.WS.ExamWebSocketStream)
	}

	return router
}
