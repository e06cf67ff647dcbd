package routes

import (
	"github.com/labstack/echo/v4"

	"leave-system/internal/controllers"
)

func runUserRouter(secureGroup *echo.Group, userCtrl *controllers.UserController) {
	g := secureGroup.Group("/users")

	g.POST("/admin/add-user", userCtrl.AddUser)
	g.GET("/admin/all", userCtrl.GetUsers)
	g.GET("/admin/directory-search", userCtrl.SearchDirectory)
	g.DELETE("/admin/:email", userCtrl.DeleteByEmail)
	g.DELETE("/admin/id/:id", userCtrl.DeleteByID)

	g.PUT("/management/affect-team", userCtrl.AffectToTeam)
	g.PUT("/management/remove-from-team", userCtrl.RemoveFromTeam)
	g.GET("/management/get-users", userCtrl.GetManagedUsers)

	g.GET("/:email", userCtrl.GetByEmail)
	g.GET("/id/:id", userCtrl.GetByID)
	g.PUT("/update", userCtrl.Update)
	g.PUT("/reset-password", userCtrl.ResetPassword)
}
