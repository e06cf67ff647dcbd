package routes

import (
	"github.com/labstack/echo/v4"

	"leave-system/internal/controllers"
)

func runTeamRouter(secureGroup *echo.Group, ctrl *controllers.TeamController) {
	g := secureGroup.Group("/teams")

	g.POST("/management/create", ctrl.Create)
	g.GET("/management/all", ctrl.GetAll)
	g.PUT("/management/update/:id", ctrl.Update)
	g.GET("/management/for-organizational-unit/:id", ctrl.GetByUnitID)
	g.GET("/management/for-manager/:email", ctrl.GetByManagerEmail)
	g.GET("/management/:teamName", ctrl.GetByName)

	g.GET("/get/:id", ctrl.GetByID)
	g.DELETE("/delete/:id", ctrl.DeleteByID)
	g.DELETE("/delete/by-name/:name", ctrl.DeleteByName)
	g.GET("/members/:id", ctrl.GetMembers)
}
