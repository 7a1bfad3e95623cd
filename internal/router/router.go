package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a1gato/olimpiad/internal/handler"
	"github.com/a1gato/olimpiad/internal/middleware"
	"github.com/a1gato/olimpiad/internal/service"
)

// Deps aggregates everything route registration needs.
type Deps struct {
	Auth         *handler.AuthHandler
	Rooms        *handler.RoomHandler
	Registration *handler.RegistrationHandler
	Students     *handler.StudentHandler
	Scores       *handler.ScoreHandler
	Leaderboard  *handler.LeaderboardHandler
	Dashboard    *handler.DashboardHandler
	Events       *handler.EventsHandler

	AuthService *service.AuthService
	Metrics     *service.MetricsService

	Ready func() error
}

// Register attaches all API routes to the engine. Only login, health, ready
// and metrics are public; everything else behind the prefix requires a token.
func Register(r *gin.Engine, prefix string, deps Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if deps.Ready != nil {
			if err := deps.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := r.Group(prefix)
	api.Use(middleware.Metrics(deps.Metrics))

	api.POST("/auth/login", deps.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.AuthService))

	protected.GET("/auth/me", deps.Auth.Me)

	protected.GET("/leaderboard", deps.Leaderboard.Top)
	protected.GET("/leaderboard/export", deps.Leaderboard.Export)

	protected.GET("/rooms", deps.Rooms.List)
	protected.POST("/rooms", deps.Rooms.Create)
	protected.GET("/rooms/:id", deps.Rooms.Get)
	protected.DELETE("/rooms/:id", deps.Rooms.Delete)

	protected.POST("/students", deps.Registration.Register)
	protected.GET("/students", deps.Students.List)
	protected.GET("/students/roster", deps.Scores.Roster)
	protected.GET("/students/:id", deps.Students.Get)
	protected.DELETE("/students/:id", deps.Students.Delete)
	protected.PATCH("/students/:id/scores/:section", deps.Scores.UpdateScore)

	protected.GET("/dashboard", deps.Dashboard.Snapshot)
	protected.GET("/events/stream", deps.Events.Stream)
}
