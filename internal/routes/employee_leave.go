package routes

import (
	"github.com/labstack/echo/v4"

	"leave-system/internal/controllers"
)

func runEmployeeLeaveRouter(secureGroup *echo.Group, leaveCtrl *controllers.EmployeeLeaveController, reportCtrl *controllers.ReportController) {
	g := secureGroup.Group("/employee-leave")

	g.POST("/user/create", leaveCtrl.Create)
	g.POST("/manager/treat", leaveCtrl.Treat)
	g.PUT("/update/:id", leaveCtrl.Update)
	g.PUT("/management/update/:id", leaveCtrl.UpdateAsManagement)
	g.DELETE("/delete/:id", leaveCtrl.Delete)
	g.GET("/get/:id", leaveCtrl.GetByID)
	g.GET("/all", leaveCtrl.GetAll)
	g.GET("/user/:userId", leaveCtrl.GetByUserID)
	g.GET("/manager/:managerEmail", leaveCtrl.GetByManagerEmail)
	g.GET("/management/report", reportCtrl.GetLeaveReport)
}
