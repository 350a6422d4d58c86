package routes

import (
	"it-inventory/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runExportRouter(secureGroup *echo.Group, exportCtrl *controllers.ExportController) {
	secureGroup.GET("/export/:table", exportCtrl.Export)
}
