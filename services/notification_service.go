package services

import (
	"fmt"
	"jetlex_app_go/models"
	"time"

	"gorm.io/gorm"
)

type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// GetNotifications returns the latest notifications visible to a user
func (s *NotificationService) GetNotifications(userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.DB.Where("user_id IS NULL OR user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if limit <= 0 {
		limit = 20
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error
	return notifications, err
}

func (s *NotificationService) MarkAsRead(notificationID, userID string) error {
	res := s.DB.Model(&models.Notification{}).
		Where("id = ? AND (user_id IS NULL OR user_id = ?)", notificationID, userID).
		Update("read_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NotFound("notification")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(userID string) error {
	return s.DB.Model(&models.Notification{}).
		Where("(user_id IS NULL OR user_id = ?) AND read_at IS NULL", userID).
		Update("read_at", time.Now()).Error
}

func (s *NotificationService) GetNotificationCount(userID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Notification{}).
		Where("(user_id IS NULL OR user_id = ?) AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

func (s *NotificationService) CreateNotification(notification *models.Notification) error {
	return s.DB.Create(notification).Error
}

// NotifyPhaseAlert records that a phase has gone past the alert threshold
func (s *NotificationService) NotifyPhaseAlert(c *models.Case, phase *models.Phase) error {
	return s.CreateNotification(&models.Notification{
		UserID:  ptrIfNotEmpty(c.AssigneeID),
		CaseID:  &c.ID,
		PhaseID: &phase.ID,
		Type:    models.NotificationTypePhaseAlert,
		Title:   "Fase demorada: " + c.Number,
		Message: fmt.Sprintf("%s lleva %d días sin aprobarse", phase.Name, phase.ElapsedDays),
		LinkURL: "/expedientes/" + c.ID,
	})
}

// NotifyMonitoringAlert broadcasts a new high-priority regulatory alert to every user
func (s *NotificationService) NotifyMonitoringAlert(alert *models.MonitoringAlert) error {
	return s.CreateNotification(&models.Notification{
		Type:    models.NotificationTypeMonitoringAlert,
		Title:   "Alerta regulatoria " + alert.Priority,
		Message: alert.Title,
		LinkURL: "/monitoreo/" + alert.ID,
	})
}
