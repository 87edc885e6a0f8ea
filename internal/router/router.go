package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/lucidportal/backend/api/handler"
	"github.com/lucidportal/backend/domain"
)

type Handlers struct {
	Entity       *apiHandler.EntityHandler
	Comment      *apiHandler.CommentHandler
	Notification *apiHandler.NotificationHandler
	Report       *apiHandler.ReportHandler
	Health       *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	if authMiddleware == nil {
		authMiddleware = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api/v1")

	// Comments hang off projects, so project routes are registered with a fixed kind.
	projects := withKind(domain.Project.Name)
	api.GET("/projects", authMiddleware(projects(handlers.Entity.List)))
	api.POST("/projects", authMiddleware(projects(handlers.Entity.Create)))
	api.DELETE("/projects", authMiddleware(projects(handlers.Entity.DeleteAll)))
	api.POST("/projects/save", authMiddleware(projects(handlers.Entity.Save)))
	api.GET("/projects/{id}", authMiddleware(projects(handlers.Entity.Get)))
	api.PATCH("/projects/{id}", authMiddleware(projects(handlers.Entity.Update)))
	api.DELETE("/projects/{id}", authMiddleware(projects(handlers.Entity.Delete)))
	api.GET("/projects/{id}/comments", authMiddleware(handlers.Comment.List))
	api.POST("/projects/{id}/comments", authMiddleware(handlers.Comment.Add))
	api.DELETE("/projects/{id}/comments/{commentID}", authMiddleware(handlers.Comment.Delete))

	api.GET("/notifications", authMiddleware(handlers.Notification.List))
	api.POST("/notifications", authMiddleware(handlers.Notification.Create))
	api.POST("/notifications/read-all", authMiddleware(handlers.Notification.MarkAllRead))
	api.POST("/notifications/{id}/read", authMiddleware(handlers.Notification.MarkRead))
	api.DELETE("/notifications/{id}", authMiddleware(handlers.Notification.Delete))

	api.GET("/reports/summary", authMiddleware(handlers.Report.Summary))

	api.GET("/{kind}", authMiddleware(handlers.Entity.List))
	api.POST("/{kind}", authMiddleware(handlers.Entity.Create))
	api.DELETE("/{kind}", authMiddleware(handlers.Entity.DeleteAll))
	api.POST("/{kind}/save", authMiddleware(handlers.Entity.Save))
	api.GET("/{kind}/{id}", authMiddleware(handlers.Entity.Get))
	api.PATCH("/{kind}/{id}", authMiddleware(handlers.Entity.Update))
	api.DELETE("/{kind}/{id}", authMiddleware(handlers.Entity.Delete))

	return r
}

func withKind(kind string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			ctx.SetUserValue("kind", kind)
			next(ctx)
		}
	}
}
