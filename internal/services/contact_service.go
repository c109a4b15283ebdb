package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
	"go.uber.org/zap"
)

// ContactRepository is the interface that wraps methods for contact inbox data access
type ContactRepository interface {
	// Method Insert stores a newly submitted contact message, filling in its
	// generated ID.
	Insert(ctx context.Context, msg *models.ContactMessage) error
	// Method List retrieves all messages newest first.
	List(ctx context.Context) ([]models.ContactMessage, error)
	// Method GetByID retrieves one message.
	GetByID(ctx context.Context, id int) (*models.ContactMessage, error)
	// Method UpdateStatus changes a message's handling status.
	UpdateStatus(ctx context.Context, id int, status models.MessageStatus) error
	// Method Delete removes a message.
	Delete(ctx context.Context, id int) error
}

type contactService struct {
	repo   ContactRepository
	logger *zap.Logger
}

// NewContactService creates a new contact service
func NewContactService(repo ContactRepository, logger *zap.Logger) *contactService {
	return &contactService{
		repo:   repo,
		logger: logger,
	}
}

// Submit stores a contact form message as unread. A positive userID links the
// message to the sender's account; zero means an anonymous visitor.
func (s *contactService) Submit(ctx context.Context, userID int, req models.ContactRequest) (*models.ContactMessage, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)

	if len(name) < 2 || len(name) > 100 {
		return nil, apperrors.Validation("name must be between 2 and 100 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.Validation("invalid email address")
	}
	if len(subject) < 5 || len(subject) > 200 {
		return nil, apperrors.Validation("subject must be between 5 and 200 characters")
	}
	if len(message) < 10 {
		return nil, apperrors.Validation("message must be at least 10 characters")
	}

	msg := &models.ContactMessage{
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
		Status:  models.MessageNew,
	}
	if userID > 0 {
		msg.UserID = &userID
	}

	if err := s.repo.Insert(ctx, msg); err != nil {
		s.logger.Error("failed to store contact message", zap.Error(err))
		return nil, err
	}

	s.logger.Info("contact message received", zap.Int("message_id", msg.ID))
	return msg, nil
}

// List retrieves the full inbox for admins, newest first
func (s *contactService) List(ctx context.Context) ([]models.ContactMessage, error) {
	messages, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list contact messages", zap.Error(err))
		return nil, err
	}
	if messages == nil {
		messages = []models.ContactMessage{}
	}
	return messages, nil
}

// MarkRead marks a message as read
func (s *contactService) MarkRead(ctx context.Context, id int) error {
	return s.setStatus(ctx, id, models.MessageRead)
}

// MarkReplied marks a message as replied
func (s *contactService) MarkReplied(ctx context.Context, id int) error {
	return s.setStatus(ctx, id, models.MessageReplied)
}

func (s *contactService) setStatus(ctx context.Context, id int, status models.MessageStatus) error {
	if id <= 0 {
		return apperrors.Validation("invalid message id")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("failed to update message status", zap.Error(err), zap.Int("message_id", id))
		}
		return err
	}

	return nil
}

// Delete removes a message from the inbox
func (s *contactService) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return apperrors.Validation("invalid message id")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("failed to delete contact message", zap.Error(err), zap.Int("message_id", id))
		}
		return err
	}

	s.logger.Info("contact message deleted", zap.Int("message_id", id))
	return nil
}

// Reply records an admin reply to a message and marks it replied. The reply
// text itself is only logged until an SMTP relay is configured.
func (s *contactService) Reply(ctx context.Context, id int, req models.ReplyRequest) error {
	if id <= 0 {
		return apperrors.Validation("invalid message id")
	}
	replyText := strings.TrimSpace(req.ReplyText)
	if replyText == "" {
		return apperrors.Validation("reply text is required")
	}

	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("failed to get contact message", zap.Error(err), zap.Int("message_id", id))
		}
		return err
	}

	to := strings.TrimSpace(req.ReplyEmail)
	if to == "" {
		to = msg.Email
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return apperrors.Validation("invalid reply email address")
	}

	if err := s.repo.UpdateStatus(ctx, id, models.MessageReplied); err != nil {
		s.logger.Error("failed to mark message replied", zap.Error(err), zap.Int("message_id", id))
		return err
	}

	s.logger.Info("contact reply sent",
		zap.Int("message_id", id),
		zap.String("to", to),
	)
	return nil
}
