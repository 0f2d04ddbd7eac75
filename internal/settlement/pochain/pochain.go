// Package pochain creates and maintains the purchase-order chain for a
// job. EnsurePO is the idempotent entry point the orchestrator retries
// freely: at most one purchase order ever exists per (job, origin, target)
// hop, enforced by the store's unique indexes. Amount edits after creation
// go through UpdatePO, which is deliberately not idempotent.
package pochain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkbridge/settlement/internal/settlement/db"
	e "github.com/inkbridge/settlement/internal/settlement/errors"
	"github.com/inkbridge/settlement/internal/settlement/extraction"
	"github.com/inkbridge/settlement/internal/settlement/models"
	"github.com/inkbridge/settlement/internal/settlement/ponumber"
	"github.com/inkbridge/settlement/internal/settlement/routing"
	"go.uber.org/zap"
)

// Repository is the storage surface the manager needs.
type Repository interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	FindPurchaseOrder(ctx context.Context, jobID, origin uuid.UUID, targetCompany, targetVendor *uuid.UUID) (*models.PurchaseOrder, error)
	SavePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error
	ListPurchaseOrders(ctx context.Context, jobID uuid.UUID) ([]models.PurchaseOrder, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// Manager drives purchase-order creation and edits.
type Manager struct {
	repo     Repository
	renderer extraction.Renderer
	producer uuid.UUID
	prefix   string
	logger   *zap.Logger
}

// NewManager constructs a Manager. producer identifies the producer-side
// company whose incoming PO triggers PDF delivery; prefix seeds generated
// PO numbers.
func NewManager(repo Repository, renderer extraction.Renderer, producer uuid.UUID, prefix string, logger *zap.Logger) *Manager {
	return &Manager{
		repo:     repo,
		renderer: renderer,
		producer: producer,
		prefix:   prefix,
		logger:   logger.Named("po_chain"),
	}
}

// EnsureRequest describes one hop to materialize.
type EnsureRequest struct {
	JobID uuid.UUID
	Hop   routing.Hop

	// ManualPONumber, when set, must pass validation; ExtractedPONumber is
	// best-effort and falls through to the generated number when invalid.
	ManualPONumber    string
	ExtractedPONumber string
	// ReferencePONumber is the upstream hop's number, carried for
	// traceability.
	ReferencePONumber string
	// ExtractedAmount is stored for reconciliation only.
	ExtractedAmount *int64
}

// EnsurePO returns the hop's purchase order, creating it if absent. A
// concurrent duplicate insert loses to the unique index and falls back to
// reading the winning row; callers never see a conflict.
func (m *Manager) EnsurePO(ctx context.Context, req EnsureRequest) (*models.PurchaseOrder, error) {
	if req.Hop.TargetCompany == nil && req.Hop.TargetVendor == nil {
		return nil, fmt.Errorf("%w: hop needs a target company or vendor", e.ErrValidation)
	}

	job, err := m.repo.GetJob(ctx, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job for PO: %w", err)
	}

	poNumber, err := ponumber.Resolve(req.ManualPONumber, req.ExtractedPONumber, m.prefix, job.JobNumber)
	if err != nil {
		return nil, err
	}

	var po *models.PurchaseOrder
	var created bool
	err = m.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		existing, err := tx.FindPurchaseOrder(ctx, req.JobID, req.Hop.Origin, req.Hop.TargetCompany, req.Hop.TargetVendor)
		if err == nil {
			po = existing
			return nil
		}
		if !errors.Is(err, e.ErrNotFound) {
			return err
		}

		po = &models.PurchaseOrder{
			ID:                uuid.New(),
			JobID:             req.JobID,
			OriginCompanyID:   req.Hop.Origin,
			TargetCompanyID:   req.Hop.TargetCompany,
			TargetVendorID:    req.Hop.TargetVendor,
			OriginalAmount:    req.Hop.OriginalAmount,
			VendorAmount:      req.Hop.VendorAmount,
			MarginAmount:      req.Hop.OriginalAmount - req.Hop.VendorAmount,
			PONumber:          poNumber,
			ReferencePONumber: ponumber.Normalize(req.ReferencePONumber),
			ExtractedAmount:   req.ExtractedAmount,
			Status:            models.POPending,
		}
		if err := tx.CreatePurchaseOrder(ctx, po); err != nil {
			return err
		}
		created = true
		return m.appendCreationNotice(ctx, tx, job, po)
	})
	if errors.Is(err, e.ErrConflict) {
		// Lost the race. The insert's transaction is aborted, so read the
		// winning row outside it; the winner is authoritative.
		return m.repo.FindPurchaseOrder(ctx, req.JobID, req.Hop.Origin, req.Hop.TargetCompany, req.Hop.TargetVendor)
	}
	if err != nil {
		return nil, err
	}

	if created {
		m.logger.Info("purchase order created",
			zap.String("job_number", job.JobNumber),
			zap.String("po_number", po.PONumber),
			zap.Int64("margin_amount", po.MarginAmount),
		)
	}
	return po, nil
}

// appendCreationNotice writes the outbox row for a newly created PO. The
// producer-facing hop additionally carries the rendered PO PDF; a render
// failure downgrades to a bare notice, it never fails the creation.
func (m *Manager) appendCreationNotice(ctx context.Context, tx *db.Repository, job *models.Job, po *models.PurchaseOrder) error {
	if po.TargetCompanyID == nil || *po.TargetCompanyID != m.producer {
		return nil
	}

	target, err := tx.GetCompany(ctx, *po.TargetCompanyID)
	if err != nil {
		return fmt.Errorf("failed to load PO recipient: %w", err)
	}

	attachment := ""
	if m.renderer != nil {
		if _, renderErr := m.renderer.Render(po); renderErr != nil {
			m.logger.Error("failed to render PO PDF",
				zap.Error(renderErr),
				zap.String("po_number", po.PONumber),
			)
		} else {
			attachment = fmt.Sprintf("po/%s.pdf", po.PONumber)
		}
	}

	return tx.CreateNotification(ctx, &models.Notification{
		ID:         uuid.New(),
		JobID:      &job.ID,
		Type:       "po_created",
		Recipient:  target.Email,
		Subject:    fmt.Sprintf("Purchase order %s for job %s", po.PONumber, job.JobNumber),
		Body:       fmt.Sprintf("A purchase order for %d pieces has been issued.", job.Quantity),
		Attachment: attachment,
		Status:     models.NotificationPending,
	})
}

// UpdateRequest carries an explicit user-driven edit. Nil fields are left
// unchanged.
type UpdateRequest struct {
	ID uuid.UUID

	OriginalAmount    *int64
	VendorAmount      *int64
	PONumber          *string
	ReferencePONumber *string
	Status            *models.POStatus
}

// poTransitions lists the allowed status moves.
var poTransitions = map[models.POStatus][]models.POStatus{
	models.POPending:   {models.POConfirmed, models.POCancelled},
	models.POConfirmed: {models.POReceived, models.POCancelled},
}

func canTransition(from, to models.POStatus) bool {
	for _, next := range poTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdatePO applies an explicit edit and recomputes the margin. Unlike
// EnsurePO, repeated calls keep changing state.
func (m *Manager) UpdatePO(ctx context.Context, req UpdateRequest) (*models.PurchaseOrder, error) {
	po, err := m.repo.GetPurchaseOrder(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.OriginalAmount != nil {
		if *req.OriginalAmount < 0 {
			return nil, fmt.Errorf("%w: original amount must be non-negative", e.ErrValidation)
		}
		po.OriginalAmount = *req.OriginalAmount
	}
	if req.VendorAmount != nil {
		if *req.VendorAmount < 0 {
			return nil, fmt.Errorf("%w: vendor amount must be non-negative", e.ErrValidation)
		}
		po.VendorAmount = *req.VendorAmount
	}
	if po.VendorAmount > po.OriginalAmount {
		return nil, fmt.Errorf("%w: vendor amount %d exceeds original amount %d", e.ErrValidation, po.VendorAmount, po.OriginalAmount)
	}
	po.MarginAmount = po.OriginalAmount - po.VendorAmount

	if req.PONumber != nil {
		if !ponumber.Validate(*req.PONumber) {
			return nil, fmt.Errorf("%w: PO number %q is malformed", e.ErrValidation, *req.PONumber)
		}
		po.PONumber = ponumber.Normalize(*req.PONumber)
	}
	if req.ReferencePONumber != nil {
		po.ReferencePONumber = ponumber.Normalize(*req.ReferencePONumber)
	}
	if req.Status != nil && *req.Status != po.Status {
		if !canTransition(po.Status, *req.Status) {
			return nil, fmt.Errorf("%w: purchase order %s -> %s", e.ErrInvalidTransition, po.Status, *req.Status)
		}
		po.Status = *req.Status
	}
	po.UpdatedAt = time.Now()

	if err := m.repo.SavePurchaseOrder(ctx, po); err != nil {
		return nil, fmt.Errorf("failed to save purchase order: %w", err)
	}
	return po, nil
}

// ListForJob returns the job's chain in creation order.
func (m *Manager) ListForJob(ctx context.Context, jobID uuid.UUID) ([]models.PurchaseOrder, error) {
	return m.repo.ListPurchaseOrders(ctx, jobID)
}
