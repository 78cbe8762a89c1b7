package auth

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/algorave/apikit/internal/pipeline"
)

func RegisterRoutes(router *gin.RouterGroup, p *pipeline.Pipeline, svc Service) {
	authGroup := router.Group("/auth")

	authGroup.POST("/register", p.Handle(RegisterHandler(svc), pipeline.Verbatim("password"), pipeline.Validate[RegisterRequest]()))
	authGroup.POST("/login", p.Handle(LoginHandler(svc), pipeline.Verbatim("password"), pipeline.Validate[LoginRequest]()))
}
