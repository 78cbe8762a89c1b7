package users

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/algorave/apikit/internal/pipeline"
)

// registers the user routes; every route runs behind the given auth stage
func RegisterRoutes(rg *gin.RouterGroup, p *pipeline.Pipeline, svc Service, authStage pipeline.Stage) {
	users := rg.Group("/users")

	users.GET("", p.Handle(ListHandler(svc), authStage))
	users.GET("/me", p.Handle(MeHandler(svc), authStage))
	users.GET("/:id", p.Handle(GetHandler(svc), authStage))
	users.PUT("/:id", p.Handle(UpdateProfileHandler(svc), authStage, pipeline.Validate[UpdateProfileRequest]()))
	users.DELETE("/:id", p.Handle(DeleteHandler(svc), authStage))
}
