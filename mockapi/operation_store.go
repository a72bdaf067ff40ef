package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warden-io/warden-panel/database"
	"github.com/warden-io/warden-panel/models"
	"gorm.io/gorm"
)

var (
	ErrOperationNotFound = errors.New("operation not found")
	ErrAlreadyCompleted  = errors.New("operation already completed")
)

type OperationStoreInterface interface {
	Create(ctx context.Context, record *models.OperationRecord) error
	Get(ctx context.Context, id string) (*models.OperationRecord, error)
	Complete(ctx context.Context, id string, result Result) (*models.OperationRecord, error)
}

// Result is the terminal state written to an operation.
type Result struct {
	Success  bool
	Code     string
	Message  string
	Resource json.RawMessage
}

type OperationStore struct {
	db *database.Database
}

func NewOperationStore(db *database.Database) *OperationStore {
	return &OperationStore{db: db}
}

func (s *OperationStore) Create(ctx context.Context, record *models.OperationRecord) error {
	if err := s.db.DB.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("creating operation %s: %w", record.Name, err)
	}
	return nil
}

func (s *OperationStore) Get(ctx context.Context, id string) (*models.OperationRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOperationNotFound
	}

	var record models.OperationRecord
	if err := s.db.DB.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperationNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Complete moves a created operation to completed or rejected.
func (s *OperationStore) Complete(ctx context.Context, id string, result Result) (*models.OperationRecord, error) {
	state := models.OperationStateRejected
	if result.Success {
		state = models.OperationStateCompleted
	}

	updates := map[string]interface{}{
		"state":        state,
		"success":      result.Success,
		"code":         result.Code,
		"message":      result.Message,
		"completed_at": time.Now().UTC(),
	}
	if len(result.Resource) > 0 {
		updates["resource"] = models.JSONPayload(result.Resource)
	}

	tx := s.db.DB.WithContext(ctx).Model(&models.OperationRecord{}).
		Where("id = ? AND state = ?", id, models.OperationStateCreated).
		Updates(updates)
	if tx.Error != nil {
		return nil, fmt.Errorf("completing operation %s: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyCompleted
	}

	return s.Get(ctx, id)
}
