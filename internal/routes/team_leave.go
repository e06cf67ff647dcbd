package routes

import (
	"github.com/labstack/echo/v4"

	"leave-system/internal/controllers"
)

func runTeamLeaveRouter(secureGroup *echo.Group, ctrl *controllers.TeamLeaveController) {
	g := secureGroup.Group("/team-leave/management")

	g.POST("/create", ctrl.Create)
	g.PUT("/treat/:id", ctrl.Treat)
	g.PUT("/update/:id", ctrl.Update)
	g.DELETE("/delete/:id", ctrl.Delete)
	g.GET("/get/:id", ctrl.GetByID)
	g.GET("/all", ctrl.GetAll)
	g.GET("/for-team/:teamId", ctrl.GetByTeamID)
}
