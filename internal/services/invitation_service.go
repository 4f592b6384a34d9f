package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rotaiq/rotaiq/internal/authz"
	"github.com/rotaiq/rotaiq/internal/models"
	"github.com/rotaiq/rotaiq/pkg/crypto"
	apperrors "github.com/rotaiq/rotaiq/pkg/errors"
	"github.com/rotaiq/rotaiq/pkg/logger"
	"github.com/rotaiq/rotaiq/pkg/mail"
	"github.com/rotaiq/rotaiq/pkg/metrics"
	"github.com/rotaiq/rotaiq/pkg/qr"
)

var (
	// ErrInvitationInvalid covers unknown and already-redeemed tokens alike, so
	// the response does not leak which of the two it was.
	ErrInvitationInvalid = apperrors.New("INVALID_TOKEN", "Invitation token is invalid or has been used", http.StatusBadRequest)
	// ErrEmailInvited signals a pending invitation already exists for the email.
	ErrEmailInvited = apperrors.New("EMAIL_INVITED", "An invitation for this email already exists", http.StatusBadRequest)
)

const invitationQRSize = 256

// CreateInvitationInput describes a manager's invitation request.
type CreateInvitationInput struct {
	Email    string
	BranchID string
	Role     string
}

// RedeemInvitationInput carries the registration payload of an invitee.
type RedeemInvitationInput struct {
	Token     string
	Password  string
	FirstName string
	LastName  string
}

// InvitationOption customises InvitationService behaviour.
type InvitationOption func(*InvitationService)

// WithInvitationAcceptURL sets the absolute URL invitees are sent to.
func WithInvitationAcceptURL(url string) InvitationOption {
	return func(s *InvitationService) {
		s.acceptURL = strings.TrimRight(url, "/")
	}
}

// InvitationService issues, lists and redeems single-use onboarding tokens.
type InvitationService struct {
	db        *gorm.DB
	mailer    mail.Mailer
	acceptURL string
}

// NewInvitationService constructs an InvitationService with the provided dependencies.
// The mailer may be nil; invitation email is best-effort by design.
func NewInvitationService(db *gorm.DB, mailer mail.Mailer, opts ...InvitationOption) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}

	service := &InvitationService{
		db:     db,
		mailer: mailer,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create issues an invitation for the branch after checking the actor's scope
// and the role ceiling. The email notification never fails the call.
func (s *InvitationService) Create(ctx context.Context, actor authz.Actor, input CreateInvitationInput) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	role, err := models.ParseRole(strings.TrimSpace(input.Role))
	if err != nil {
		return nil, apperrors.NewBadRequest("unknown role")
	}

	var branch models.Branch
	if err := s.db.WithContext(ctx).Preload("Region").First(&branch, "id = ?", input.BranchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("invitation service: load branch: %w", err)
	}

	if err := authz.CanManageBranch(actor, &branch); err != nil {
		metrics.AuthzDecisions.WithLabelValues("invitation.create", "deny").Inc()
		return nil, err
	}
	if err := authz.CanInviteRole(actor, role); err != nil {
		metrics.AuthzDecisions.WithLabelValues("invitation.create", "deny").Inc()
		return nil, err
	}
	metrics.AuthzDecisions.WithLabelValues("invitation.create", "allow").Inc()

	var registered int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&registered).Error; err != nil {
		return nil, fmt.Errorf("invitation service: check email: %w", err)
	}
	if registered > 0 {
		return nil, ErrEmailTaken
	}

	token, err := crypto.GenerateToken(crypto.InvitationTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("invitation service: generate token: %w", err)
	}

	invitation := &models.Invitation{
		Token:       token,
		Email:       email,
		BranchID:    branch.ID,
		Role:        role,
		InvitedByID: &actor.UserID,
	}

	if err := s.db.WithContext(ctx).Create(invitation).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailInvited
		}
		return nil, fmt.Errorf("invitation service: create invitation: %w", err)
	}

	metrics.InvitationsIssued.Inc()
	invitation.Branch = &branch

	s.sendInvitationEmail(ctx, invitation)

	return invitation, nil
}

// List returns invitations visible to the actor, newest first.
func (s *InvitationService) List(ctx context.Context, actor authz.Actor) ([]models.Invitation, error) {
	ctx = ensureContext(ctx)

	var invitations []models.Invitation
	err := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Scopes(authz.InvitationsFor(actor)).
		Preload("Branch").Preload("InvitedBy").
		Order("invitations.created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("invitation service: list invitations: %w", err)
	}
	return invitations, nil
}

// Details resolves an unused token for the public registration page.
func (s *InvitationService) Details(ctx context.Context, token string) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvitationInvalid
	}

	var invitation models.Invitation
	err := s.db.WithContext(ctx).
		Preload("Branch").
		First(&invitation, "token = ? AND is_used = ?", token, false).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationInvalid
		}
		return nil, fmt.Errorf("invitation service: find invitation: %w", err)
	}
	return &invitation, nil
}

// Redeem consumes the invitation and creates the user atomically. An email
// collision rolls the whole transaction back, leaving the invitation unused.
func (s *InvitationService) Redeem(ctx context.Context, input RedeemInvitationInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	token := strings.TrimSpace(input.Token)
	if token == "" {
		return nil, ErrInvitationInvalid
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("invitation service: hash password: %w", err)
	}

	var user *models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invitation models.Invitation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&invitation, "token = ?", token).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvitationInvalid
			}
			return fmt.Errorf("invitation service: find invitation: %w", err)
		}
		if invitation.IsUsed {
			return ErrInvitationInvalid
		}

		user = &models.User{
			Email:     invitation.Email,
			Password:  hashed,
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
			Role:      invitation.Role,
			BranchID:  &invitation.BranchID,
		}
		if err := tx.Create(user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("invitation service: create user: %w", err)
		}

		if err := tx.Model(&invitation).Update("is_used", true).Error; err != nil {
			return fmt.Errorf("invitation service: mark used: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *InvitationService) sendInvitationEmail(ctx context.Context, invitation *models.Invitation) {
	if s.mailer == nil {
		return
	}

	log := logger.WithModule("invitations")
	link := s.invitationLink(invitation.Token)

	body := fmt.Sprintf(
		"Hello,\n\nYou have been invited to join %s as %s. Register here:\n%s\n\nOr scan the attached QR code. The link is single-use.\n",
		invitation.Branch.Name, invitation.Role, link)

	msg := mail.Message{
		To:      []string{invitation.Email},
		Subject: "Your RotaIQ invitation",
		Body:    body,
	}
	if encoded, err := qr.EncodeBase64(link, invitationQRSize); err == nil {
		msg.Attachments = append(msg.Attachments, mail.Attachment{
			Filename:    "invitation.png",
			ContentType: "image/png",
			Content:     encoded,
		})
	} else {
		log.Warn("qr generation failed", zap.Error(err))
	}

	if err := s.mailer.Send(ctx, msg); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		log.Warn("invitation email failed", zap.Error(err))
	}
}

func (s *InvitationService) invitationLink(token string) string {
	if s.acceptURL == "" {
		return token
	}
	return fmt.Sprintf("%s?token=%s", s.acceptURL, token)
}
