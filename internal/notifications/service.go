package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckbite/truckbite-backend/pkg/db/models"
	"github.com/truckbite/truckbite-backend/pkg/enums"
	pkgerrors "github.com/truckbite/truckbite-backend/pkg/errors"
	"github.com/truckbite/truckbite-backend/pkg/logger"
)

// Service records dispatch triggers for the external delivery pipeline.
// Actual transport (push/SMS/email) happens outside this codebase; we persist
// the trigger and log it so nothing is silently dropped.
type Service interface {
	Dispatch(ctx context.Context, input DispatchInput) (*models.Notification, error)
	DispatchTx(ctx context.Context, tx *gorm.DB, input DispatchInput) (*models.Notification, error)
	List(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, tenantID, notificationID uuid.UUID) error
}

// DispatchInput captures one notification trigger.
type DispatchInput struct {
	TenantID  uuid.UUID
	Recipient string
	Channel   enums.NotificationChannel
	Type      enums.NotificationType
	Priority  enums.NotificationPriority
	Title     string
	Body      string
}

type service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService wires a notifications service with the provided repository.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("notifications logger required")
	}
	return &service{repo: repo, logger: logg}, nil
}

func (s *service) Dispatch(ctx context.Context, input DispatchInput) (*models.Notification, error) {
	return s.dispatch(ctx, s.repo, input)
}

func (s *service) DispatchTx(ctx context.Context, tx *gorm.DB, input DispatchInput) (*models.Notification, error) {
	return s.dispatch(ctx, s.repo.WithTx(tx), input)
}

func (s *service) dispatch(ctx context.Context, repo Repository, input DispatchInput) (*models.Notification, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if !input.Channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid channel %q", input.Channel))
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid notification type %q", input.Type))
	}
	if input.Priority == "" {
		input.Priority = enums.NotificationPriorityNormal
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	notification := &models.Notification{
		TenantID:  input.TenantID,
		Recipient: input.Recipient,
		Channel:   input.Channel,
		Type:      input.Type,
		Priority:  input.Priority,
		Title:     input.Title,
		Body:      input.Body,
	}
	if err := repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting notification")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"notification_id": notification.ID.String(),
		"type":            string(input.Type),
		"channel":         string(input.Channel),
		"priority":        string(input.Priority),
	})
	s.logger.Info(ctx, "notification queued for dispatch")
	return notification, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Notification, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	return s.repo.ListByTenant(ctx, tenantID, limit)
}

func (s *service) MarkRead(ctx context.Context, tenantID, notificationID uuid.UUID) error {
	if tenantID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id and notification id are required")
	}
	affected, err := s.repo.MarkRead(ctx, tenantID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}
