package routes

import (
	"github.com/labstack/echo/v4"

	"leave-system/internal/controllers"
)

func runOrganizationalUnitRouter(secureGroup *echo.Group, ctrl *controllers.OrganizationalUnitController) {
	g := secureGroup.Group("/organizational-unit/admin")

	g.POST("/create", ctrl.Create)
	g.GET("/all", ctrl.GetAll)
	g.GET("/get/:id", ctrl.GetByID)
	g.PUT("/update/:id", ctrl.Update)
	g.DELETE("/delete/:id", ctrl.DeleteByID)
	g.DELETE("/delete-by-name/:name", ctrl.DeleteByName)
	g.GET("/teams/:id", ctrl.GetTeams)
	g.PUT("/affect-team", ctrl.AffectTeam)
	g.PUT("/remove-team", ctrl.RemoveTeam)
	g.PUT("/affect-member", ctrl.AffectMember)
	g.PUT("/remove-member", ctrl.RemoveMember)
	g.PUT("/affect-manager", ctrl.AffectManager)
}
