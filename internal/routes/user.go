package routes

import (
	"it-inventory/internal/controllers"
	"it-inventory/internal/entities"
	"it-inventory/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runUserRouter(secureGroup *echo.Group, userCtrl *controllers.UserController, authMW *middleware.AuthMiddleware) {
	adminOnly := authMW.RequireRole(entities.RoleAdmin)

	// Свой пароль меняет любой вошедший пользователь.
	secureGroup.PUT("/users/me/password", userCtrl.ChangePassword)

	secureGroup.GET("/users", userCtrl.GetUsers, adminOnly)
	secureGroup.POST("/users", userCtrl.CreateUser, adminOnly)
	secureGroup.GET("/users/:id", userCtrl.FindUser, adminOnly)
	secureGroup.PUT("/users/:id", userCtrl.UpdateUser, adminOnly)
	secureGroup.PATCH("/users/:id/status", userCtrl.ChangeStatus, adminOnly)
	secureGroup.DELETE("/users/:id", userCtrl.DeleteUser, adminOnly)
}
