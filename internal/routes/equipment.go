package routes

import (
	"it-inventory/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runEquipmentRouter(secureGroup *echo.Group, equipmentCtrl *controllers.EquipmentController, lifecycleCtrl *controllers.LifecycleController) {
	secureGroup.GET("/equipment", equipmentCtrl.GetEquipments)
	secureGroup.POST("/equipment", equipmentCtrl.CreateEquipment)
	secureGroup.POST("/equipment/import", equipmentCtrl.ImportEquipment)
	secureGroup.GET("/equipment/:id", equipmentCtrl.FindEquipment)
	secureGroup.PUT("/equipment/:id", equipmentCtrl.UpdateEquipment)

	secureGroup.POST("/equipment/:id/return-to-service", lifecycleCtrl.ReturnToService)
	secureGroup.POST("/equipment/:id/send-to-repair", lifecycleCtrl.SendToRepair)
	secureGroup.POST("/equipment/:id/decommission", lifecycleCtrl.Decommission)
}
