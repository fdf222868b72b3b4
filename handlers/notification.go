package handlers

import (
	"jetlex_app_go/db"
	"jetlex_app_go/middleware"
	"jetlex_app_go/services"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// GetNotificationsHandler lists the caller's notifications with the unread count
func GetNotificationsHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	service := services.NewNotificationService(db.DB)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	unreadOnly := c.QueryParam("unread") == "true"
	notifications, err := service.GetNotifications(user.ID, unreadOnly, limit)
	if err != nil {
		return err
	}
	unread, err := service.GetNotificationCount(user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"unread":        unread,
	})
}

func MarkNotificationReadHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	service := services.NewNotificationService(db.DB)
	if err := service.MarkAsRead(c.Param("id"), user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Notificación leída"})
}

func MarkAllNotificationsReadHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	service := services.NewNotificationService(db.DB)
	if err := service.MarkAllAsRead(user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Notificaciones leídas"})
}
