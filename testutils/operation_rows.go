package testutils

import (
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/warden-io/warden-panel/models"
)

var operationColumns = []string{
	"id", "name", "user_id", "state", "success", "code",
	"message", "payload", "resource", "created_at", "completed_at",
}

// MockOperationRows creates sqlmock rows for operation records.
func MockOperationRows(records ...models.OperationRecord) *sqlmock.Rows {
	rows := sqlmock.NewRows(operationColumns)

	for _, record := range records {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		if record.State == "" {
			record.State = models.OperationStateCreated
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now()
		}

		var completedAt interface{}
		if record.CompletedAt != nil {
			completedAt = *record.CompletedAt
		}

		rows.AddRow(
			record.ID.String(),
			record.Name,
			record.UserID,
			record.State,
			record.Success,
			record.Code,
			record.Message,
			[]byte(record.Payload),
			[]byte(record.Resource),
			record.CreatedAt,
			completedAt,
		)
	}

	return rows
}
