package flow

import (
	"context"
	"time"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
)

// Repository is the record store the flows read from and write to.
// Lookups return (nil, nil) or false when a record is confirmed absent and an error
// when the lookup failed.
type Repository interface {
	FindUserByOwner(ctx context.Context, chatID int64) (*models.UserProfile, error)
	RegistrationCodeExists(ctx context.Context, code string) (bool, error)
	CreateUserProfile(ctx context.Context, profile models.UserProfile) error
	CreateWorkOrder(ctx context.Context, order models.WorkOrder) (int64, error)
	FindOpenOrdersByOwner(ctx context.Context, ownerID int64) ([]models.OpenOrderRef, error)
	CloseWorkOrder(ctx context.Context, orderID, ownerID int64, fields models.ClosingFields) (bool, error)
	FindOrdersByOwnerAndDateRange(ctx context.Context, ownerID int64, start, end time.Time) ([]models.WorkOrder, error)
}

// Renderer builds the report document.
type Renderer interface {
	Render(ctx context.Context, profile models.UserProfile, orders []models.WorkOrder, periodLabel string) (*models.Document, error)
	// Discard removes a rendered document from temporary storage.
	Discard(doc *models.Document) error
}

// SessionStore keeps the live sessions. Get returns a copy that the engine may change freely.
type SessionStore interface {
	Get(userID int64) (*models.Session, bool)
	Put(session *models.Session)
	Delete(userID int64) bool
}

// Result is how a flow ended.
type Result string

const (
	ResultCompleted    Result = "completed"
	ResultFailed       Result = "failed"
	ResultCancelled    Result = "cancelled"
	ResultShortCircuit Result = "short_circuit" // Ended early because there was nothing to choose from
	ResultSuperseded   Result = "superseded"    // Replaced by a new start of the same user
)

// Observer is notified about flow lifecycle events.
type Observer interface {
	FlowStarted(flow models.FlowID)
	FlowRejected(flow models.FlowID)
	ValidationFailed(flow models.FlowID, state models.StateID)
	FlowFinished(flow models.FlowID, result Result)
}

type nopObserver struct{}

func (nopObserver) FlowStarted(models.FlowID)                     {}
func (nopObserver) FlowRejected(models.FlowID)                    {}
func (nopObserver) ValidationFailed(models.FlowID, models.StateID) {}
func (nopObserver) FlowFinished(models.FlowID, Result)            {}
