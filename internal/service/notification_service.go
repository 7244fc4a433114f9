package service

import (
	"encoding/json"
	"fmt"

	"storya/internal/models"
	"storya/internal/repository"
	"storya/internal/ws"

	"go.uber.org/zap"
)

// NotificationService persists notification records and pushes them to
// connected clients. Dispatch is fire-and-forget: a failure is logged and
// never blocks the state transition that triggered it.
type NotificationService struct {
	repo *repository.NotificationRepository
	hub  *ws.Hub
}

func NewNotificationService(repo *repository.NotificationRepository, hub *ws.Hub) *NotificationService {
	return &NotificationService{repo: repo, hub: hub}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	n := &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	}
	if err := s.repo.Create(n); err != nil {
		zap.L().Warn("notification save failed",
			zap.Uint("user_id", userID), zap.String("type", notifType), zap.Error(err))
	}
	if s.hub != nil {
		s.hub.SendToUser(userID, map[string]interface{}{
			"type":  notifType,
			"title": title,
			"body":  body,
			"data":  data,
		})
	}
}

func (s *NotificationService) NotifyExecutionApproved(executorID uint, executionID uint, amountCents int64) {
	s.Notify(executorID, "EXECUTION_APPROVED", "Story approved",
		fmt.Sprintf("Your story passed review. %d.%02d credited to your balance.", amountCents/100, amountCents%100),
		map[string]interface{}{"execution_id": executionID, "amount_cents": amountCents})
}

func (s *NotificationService) NotifyExecutionRejected(executorID uint, executionID uint, comment string) {
	s.Notify(executorID, "EXECUTION_REJECTED", "Story rejected", comment,
		map[string]interface{}{"execution_id": executionID})
}

func (s *NotificationService) NotifyOrderCompleted(customerID uint, orderID uint) {
	s.Notify(customerID, "ORDER_COMPLETED", "Order completed", "All stories for your order are live.",
		map[string]interface{}{"order_id": orderID})
}

func (s *NotificationService) NotifyOrderRefunded(customerID uint, orderID uint, amountCents int64) {
	s.Notify(customerID, "ORDER_REFUNDED", "Order refunded",
		"Your order was not fulfilled in time; the reward was returned to your balance.",
		map[string]interface{}{"order_id": orderID, "amount_cents": amountCents})
}

func (s *NotificationService) NotifyDepositConfirmed(userID uint, amountCents int64, reference string) {
	s.Notify(userID, "DEPOSIT_CONFIRMED", "Deposit confirmed", "Your balance was topped up.",
		map[string]interface{}{"amount_cents": amountCents, "reference": reference})
}

func (s *NotificationService) NotifyPayout(userID uint, payoutID uint, status string) {
	s.Notify(userID, "PAYOUT_"+status, "Payout "+status, "",
		map[string]interface{}{"payout_id": payoutID})
}

func (s *NotificationService) List(userID uint, limit int) ([]models.Notification, error) {
	return s.repo.ListByUser(userID, limit)
}

func (s *NotificationService) MarkRead(id, userID uint) error {
	return s.repo.MarkRead(id, userID)
}
