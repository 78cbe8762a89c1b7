package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/algorave/apikit/api/rest/auth"
	"codeberg.org/algorave/apikit/api/rest/health"
	"codeberg.org/algorave/apikit/api/rest/users"
	"codeberg.org/algorave/apikit/internal/middleware"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) error {
	cors, err := middleware.CORS(server.config.CORSOrigins())
	if err != nil {
		return err
	}

	router.Use(cors, middleware.Metrics(server.metrics))

	p := server.pipeline

	router.NoRoute(p.NotFound())
	router.NoMethod(p.MethodNotAllowed())

	router.GET("/health", p.Handle(health.Handler(map[string]health.Pinger{
		"database": server.db,
	})))
	router.GET("/metrics", gin.WrapH(server.metrics.Handler()))

	v1 := router.Group("/api/v1")

	{
		v1.GET("/ping", p.Handle(health.PingHandler))

		auth.RegisterRoutes(v1, p, server.services.Users)
		users.RegisterRoutes(v1, p, server.services.Users, server.services.Issuer.Required())
	}

	return nil
}
