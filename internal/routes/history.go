package routes

import (
	"it-inventory/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runHistoryRouter(secureGroup *echo.Group, historyCtrl *controllers.HistoryController) {
	secureGroup.GET("/history", historyCtrl.GetHistory)
	secureGroup.GET("/history/equipment/:id", historyCtrl.GetEquipmentHistory)
	secureGroup.GET("/history/users/:id", historyCtrl.GetUserHistory)
}
