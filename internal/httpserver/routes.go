package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apperrors "github.com/biscuits-internet-project/bip-engage/internal/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())

	// Public read surface.
	s.echo.GET("/posts", s.handleGetFeed)
	s.echo.GET("/posts/:id", s.handleGetThread)
	s.echo.GET("/posts/:id/reactions", s.handleGetReactionCounts)

	// Authenticated write surface.
	s.echo.POST("/posts", s.handleCreatePost, s.requireAuth)
	s.echo.PATCH("/posts/:id", s.handleEditPost, s.requireAuth)
	s.echo.DELETE("/posts/:id", s.handleDeletePost, s.requireAuth)
	s.echo.POST("/votes", s.handleToggleVote, s.requireAuth)
	s.echo.POST("/reactions", s.handleToggleReaction, s.requireAuth)
	s.echo.POST("/moderation/flag", s.handleFlagPost, s.requireAuth)

	// Privileged moderation surface.
	s.echo.GET("/moderation/flags", s.handleListFlags, s.requireAuth, s.requireModerator)
	s.echo.PATCH("/moderation/flags/:id", s.handleReviewFlag, s.requireAuth, s.requireModerator)
	s.echo.POST("/moderation/restore/:postId", s.handleRestorePost, s.requireAuth, s.requireModerator)

	// Notifications.
	s.echo.GET("/notifications", s.handleListNotifications, s.requireAuth)
	s.echo.PATCH("/notifications", s.handleMarkNotifications, s.requireAuth)

	s.registerHealthRoutes()
	s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}
