// Package invoice creates invoices for completed hops. EnsureInvoice is
// idempotent per (job, from, to); invoice numbers come from a year-scoped
// sequence incremented inside the creating transaction, so a lost duplicate
// race rolls its allocation back and the sequence stays gapless.
package invoice

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
	"go.uber.org/zap"
)

// Payment terms in days, by the issuing party's position.
const (
	producerTermsDays = 10
	customerTermsDays = 30
)

// Repository is the storage surface the generator needs.
type Repository interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindInvoice(ctx context.Context, jobID, from, to uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, jobID uuid.UUID) ([]models.Invoice, error)
	MarkInvoicePaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// Generator creates and settles invoices.
type Generator struct {
	repo     Repository
	renderer extraction.Renderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewGenerator constructs a Generator.
func NewGenerator(repo Repository, renderer extraction.Renderer, logger *zap.Logger) *Generator {
	return &Generator{
		repo:     repo,
		renderer: renderer,
		logger:   logger.Named("invoice_generator"),
		now:      time.Now,
	}
}

// EnsureInvoice returns the invoice for (job, from, to), creating it if
// absent. The job must already carry the amount for this hop; callers get
// ErrMissingAmount otherwise. A concurrent duplicate loses to the unique
// index and falls back to the winning row.
func (g *Generator) EnsureInvoice(ctx context.Context, jobID, fromID, toID uuid.UUID) (*models.Invoice, error) {
	job, err := g.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job for invoice: %w", err)
	}
	from, err := g.repo.GetCompany(ctx, fromID)
	if err != nil {
		return nil, fmt.Errorf("failed to load issuing company: %w", err)
	}
	to, err := g.repo.GetCompany(ctx, toID)
	if err != nil {
		return nil, fmt.Errorf("failed to load billed company: %w", err)
	}

	amount, err := hopAmount(job, from, to)
	if err != nil {
		return nil, err
	}

	var invoice *models.Invoice
	var created bool
	err = g.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		existing, err := tx.FindInvoice(ctx, jobID, fromID, toID)
		if err == nil {
			invoice = existing
			return nil
		}
		if !errors.Is(err, e.ErrNotFound) {
			return err
		}

		issuedAt := g.now()
		seq, err := tx.NextInvoiceNo(ctx, issuedAt.Year())
		if err != nil {
			return fmt.Errorf("failed to allocate invoice number: %w", err)
		}

		invoice = &models.Invoice{
			ID:            uuid.New(),
			JobID:         jobID,
			FromCompanyID: fromID,
			ToCompanyID:   toID,
			InvoiceNo:     fmt.Sprintf("INV-%d-%d", issuedAt.Year(), seq),
			Amount:        amount,
			IssuedAt:      issuedAt,
			DueAt:         issuedAt.AddDate(0, 0, termsDays(from, to)),
		}
		if g.renderer != nil {
			if _, renderErr := g.renderer.Render(invoice); renderErr != nil {
				g.logger.Error("failed to render invoice PDF",
					zap.Error(renderErr),
					zap.String("invoice_no", invoice.InvoiceNo),
				)
			} else {
				invoice.PDFRef = fmt.Sprintf("invoices/%s.pdf", invoice.InvoiceNo)
			}
		}
		if err := tx.CreateInvoice(ctx, invoice); err != nil {
			return err
		}
		created = true
		return tx.CreateNotification(ctx, &models.Notification{
			ID:         uuid.New(),
			JobID:      &jobID,
			Type:       "invoice_issued",
			Recipient:  to.Email,
			Subject:    fmt.Sprintf("Invoice %s for job %s", invoice.InvoiceNo, job.JobNumber),
			Body:       fmt.Sprintf("Invoice %s over %d is due %s.", invoice.InvoiceNo, invoice.Amount, invoice.DueAt.Format("2006-01-02")),
			Attachment: invoice.PDFRef,
			Status:     models.NotificationPending,
		})
	})
	if errors.Is(err, e.ErrConflict) {
		// Lost the race; the aborted transaction also rolled back the
		// sequence allocation. Return the winning row.
		return g.repo.FindInvoice(ctx, jobID, fromID, toID)
	}
	if err != nil {
		return nil, err
	}

	if created {
		g.logger.Info("invoice created",
			zap.String("invoice_no", invoice.InvoiceNo),
			zap.String("job_number", job.JobNumber),
			zap.Int64("amount", invoice.Amount),
		)
	}
	return invoice, nil
}

// hopAmount picks the job money field the (from, to) pair bills for.
func hopAmount(job *models.Job, from, to *models.Company) (int64, error) {
	var amount *int64
	switch {
	case to.Role == models.RoleCustomer:
		amount = job.CustomerTotal
	case from.Role == models.RoleProducer:
		amount = job.ProducerTotal
	default:
		amount = job.IntermediaryTotal
	}
	if amount == nil || *amount <= 0 {
		return 0, fmt.Errorf("%w: job %s has no billable amount for %s -> %s",
			e.ErrMissingAmount, job.JobNumber, from.Name, to.Name)
	}
	return *amount, nil
}

// termsDays returns the payment terms for the pair: net 10 on the
// producer's invoices, net 30 toward the customer and everyone else.
func termsDays(from, to *models.Company) int {
	if from.Role == models.RoleProducer {
		return producerTermsDays
	}
	return customerTermsDays
}

// MarkPaid records payment once; repeated calls leave the first timestamp.
func (g *Generator) MarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if err := g.repo.MarkInvoicePaid(ctx, id, g.now()); err != nil {
		return nil, err
	}
	return g.repo.GetInvoice(ctx, id)
}

// ListForJob returns the job's invoices in creation order.
func (g *Generator) ListForJob(ctx context.Context, jobID uuid.UUID) ([]models.Invoice, error) {
	return g.repo.ListInvoices(ctx, jobID)
}
