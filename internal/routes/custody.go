package routes

import (
	"it-inventory/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runCustodyRouter(secureGroup *echo.Group, custodyCtrl *controllers.CustodyController, handoverCtrl *controllers.HandoverController) {
	secureGroup.GET("/custody", custodyCtrl.GetCustody)
	secureGroup.GET("/transfers", custodyCtrl.GetTransfers)

	handoverGroup := secureGroup.Group("/handover")
	{
		handoverGroup.POST("/issue", handoverCtrl.Issue)
		handoverGroup.POST("/return", handoverCtrl.Return)
		handoverGroup.POST("/certificate", handoverCtrl.Certificate)
	}
	secureGroup.GET("/documents/*", handoverCtrl.Document)
}
