package routes

import (
	"github.com/labstack/echo/v4"

	"leave-system/internal/controllers"
)

func runTeamExitPermissionRouter(secureGroup *echo.Group, ctrl *controllers.TeamExitPermissionController) {
	g := secureGroup.Group("/team-exit-permission")

	g.POST("/create", ctrl.Create)
	g.PUT("/treat/:id", ctrl.Treat)
	g.PUT("/update/:id", ctrl.Update)
	g.DELETE("/delete/:id", ctrl.Delete)
	g.GET("/get/:id", ctrl.GetByID)
	g.GET("/all", ctrl.GetAll)
	g.GET("/get-by-team/:teamName", ctrl.GetByTeamName)
	g.GET("/manager/get-by-manager/:email", ctrl.GetByManagerEmail)
	g.GET("/user/get-by-user", ctrl.GetForCurrentUser)
}
