// Package inventory maps a verified identity to a local user and records
// sneakers against that user.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/sneaker-inventory/internal/database"
	"github.com/benvon/sneaker-inventory/internal/logger"
	"github.com/benvon/sneaker-inventory/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/benvon/sneaker-inventory/internal/services/inventory")

// ErrIdentityMissing is returned when the verified identity has no subject id or no email.
var ErrIdentityMissing = errors.New("identity is missing subject id or email")

// Resolution says how the caller's user row was obtained.
type Resolution string

const (
	ResolutionFoundBySubject Resolution = "found_by_subject"
	ResolutionReboundByEmail Resolution = "rebound_by_email"
	ResolutionCreated        Resolution = "created"
)

// defaultMaxAttempts is one try plus one retry after a uniqueness conflict.
const defaultMaxAttempts = 2

// Recorder receives reconciliation outcomes. The metrics collector implements it.
type Recorder interface {
	ObserveResolution(outcome string)
	ObserveItemAdded()
	ObserveConflictRetry()
}

type nopRecorder struct{}

func (nopRecorder) ObserveResolution(string) {}
func (nopRecorder) ObserveItemAdded()        {}
func (nopRecorder) ObserveConflictRetry()    {}

// AddResult is what a successful AddItem produced.
type AddResult struct {
	Item       *models.InventoryItem
	User       *models.User
	Resolution Resolution
}

// Service is the identity reconciliation and inventory writer
type Service struct {
	db          *database.DB
	logger      *zap.Logger
	recorder    Recorder
	maxAttempts int

	newUsers func(*gorm.DB) database.UserRepositoryInterface
	newItems func(*gorm.DB) database.InventoryRepositoryInterface
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger used for resolution events
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics sink
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService creates the inventory service over db
func NewService(db *database.DB, opts ...Option) *Service {
	s := &Service{
		db:          db,
		logger:      zap.NewNop(),
		recorder:    nopRecorder{},
		maxAttempts: defaultMaxAttempts,
		newUsers: func(tx *gorm.DB) database.UserRepositoryInterface {
			return database.NewUserRepository(tx)
		},
		newItems: func(tx *gorm.DB) database.InventoryRepositoryInterface {
			return database.NewInventoryRepository(tx)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem resolves the caller to a user and inserts one inventory item owned
// by that user. Resolution and insert share a single transaction; a
// uniqueness conflict from a concurrent first request rolls it back and the
// whole transaction runs once more.
func (s *Service) AddItem(ctx context.Context, identity *models.Identity, req *models.ShoeCreateRequest) (*AddResult, error) {
	if identity == nil || strings.TrimSpace(identity.SubjectID) == "" || strings.TrimSpace(identity.Email) == "" {
		return nil, ErrIdentityMissing
	}
	if req == nil {
		return nil, fmt.Errorf("inventory request is required")
	}

	subjectID := strings.TrimSpace(identity.SubjectID)
	email := strings.TrimSpace(identity.Email)

	ctx, span := tracer.Start(ctx, "inventory.AddItem")
	defer span.End()

	var result *AddResult
	err := s.retryOnConflict(ctx, func() error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			user, resolution, err := s.resolveUser(ctx, s.newUsers(tx), subjectID, email)
			if err != nil {
				return err
			}

			item := newItem(req, user.ID)
			if err := s.newItems(tx).Create(ctx, item); err != nil {
				return err
			}

			result = &AddResult{Item: item, User: user, Resolution: resolution}
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "add item failed")
		s.logger.Error("inventory_item_add_failed",
			zap.String("subject_id", logger.SanitizeSubjectID(subjectID)),
			zap.String("error", logger.SanitizeError(err)),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("inventory.resolution", string(result.Resolution)),
		attribute.Int64("inventory.item_id", result.Item.ID),
	)
	s.recorder.ObserveResolution(string(result.Resolution))
	s.recorder.ObserveItemAdded()
	s.logResolution(result, email)
	s.logger.Info("inventory_item_added",
		zap.Int64("item_id", result.Item.ID),
		zap.Int64("owner_id", result.User.ID),
		zap.String("upc", result.Item.UPC),
	)

	return result, nil
}

// resolveUser finds the caller by subject id, then by email (rebinding the
// subject id), and creates them when neither matches.
func (s *Service) resolveUser(ctx context.Context, users database.UserRepositoryInterface, subjectID, email string) (*models.User, Resolution, error) {
	user, err := users.GetBySubjectID(ctx, subjectID)
	if err == nil {
		return user, ResolutionFoundBySubject, nil
	}
	if !database.IsNotFound(err) {
		return nil, "", err
	}

	user, err = users.GetByEmail(ctx, email)
	if err == nil {
		if err := users.UpdateSubjectID(ctx, user, subjectID); err != nil {
			return nil, "", err
		}
		return user, ResolutionReboundByEmail, nil
	}
	if !database.IsNotFound(err) {
		return nil, "", err
	}

	user = &models.User{FirebaseUID: subjectID, Email: email}
	if err := users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	return user, ResolutionCreated, nil
}

func (s *Service) retryOnConflict(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = fn()
		if err == nil || !database.IsUniqueViolation(err) {
			return err
		}
		if attempt == s.maxAttempts || ctx.Err() != nil {
			break
		}
		s.recorder.ObserveConflictRetry()
		s.logger.Warn("user_resolution_conflict_retry",
			zap.Int("attempt", attempt),
			zap.String("error", logger.SanitizeError(err)),
		)
	}
	return fmt.Errorf("failed to add inventory item after %d attempts: %w", s.maxAttempts, err)
}

func (s *Service) logResolution(result *AddResult, tokenEmail string) {
	user := result.User
	switch result.Resolution {
	case ResolutionCreated:
		s.logger.Info("user_created",
			zap.Int64("user_id", user.ID),
			zap.String("subject_id", logger.SanitizeSubjectID(user.FirebaseUID)),
			zap.String("email", logger.SanitizeEmail(user.Email)),
		)
	case ResolutionReboundByEmail:
		s.logger.Info("user_rebound_by_email",
			zap.Int64("user_id", user.ID),
			zap.String("subject_id", logger.SanitizeSubjectID(user.FirebaseUID)),
			zap.String("email", logger.SanitizeEmail(user.Email)),
		)
	case ResolutionFoundBySubject:
		if !strings.EqualFold(user.Email, tokenEmail) {
			s.logger.Warn("identity_email_conflict",
				zap.Int64("user_id", user.ID),
				zap.String("stored_email", logger.SanitizeEmail(user.Email)),
				zap.String("token_email", logger.SanitizeEmail(tokenEmail)),
			)
		}
	}
}

func newItem(req *models.ShoeCreateRequest, ownerID int64) *models.InventoryItem {
	item := &models.InventoryItem{
		UPC:     req.UPC,
		Name:    req.Name,
		Status:  models.StatusInStock,
		OwnerID: ownerID,
	}
	if req.Size != "" {
		size := req.Size
		item.Size = &size
	}
	if req.Condition != "" {
		condition := req.Condition
		item.Condition = &condition
	}
	if req.PurchasePrice != nil {
		item.PurchasePrice = *req.PurchasePrice
	}
	return item
}
