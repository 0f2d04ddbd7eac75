// Package db implements the settlement engine's persistent store on top of
// GORM. The repository maps driver errors to the engine's sentinel errors;
// the composite unique indexes on purchase orders and invoices are the
// enforcement mechanism behind the idempotent create operations upstream.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	e "github.com/inkbridge/settlement/internal/settlement/errors"
	"github.com/inkbridge/settlement/internal/settlement/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewRepositoryFromDB wraps an already-open gorm handle and runs the
// schema migration. Tests use it with an in-memory sqlite handle.
func NewRepositoryFromDB(db *gorm.DB) (*Repository, error) {
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Repository{db: db}, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Company{},
		&models.Job{},
		&models.PurchaseOrder{},
		&models.Invoice{},
		&models.InvoiceSequence{},
		&models.Proof{},
		&models.Notification{},
	)
}

// WithTransaction runs fn against a transactional repository. The engine's
// lookup-then-create operations rely on this to pair the existence check
// with the insert.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// --- companies ---

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Create(company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrConflict
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).First(&company, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &company, nil
}

// --- jobs ---

func (r *Repository) CreateJob(ctx context.Context, job *models.Job) error {
	result := r.db.WithContext(ctx).Create(job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrConflict
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	result := r.db.WithContext(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &job, nil
}

func (r *Repository) GetJobByNumber(ctx context.Context, jobNumber string) (*models.Job, error) {
	var job models.Job
	result := r.db.WithContext(ctx).First(&job, "job_number = ?", jobNumber)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &job, nil
}

// SaveJob persists the full job row, including nil money fields.
func (r *Repository) SaveJob(ctx context.Context, job *models.Job) error {
	result := r.db.WithContext(ctx).Save(job)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) UpdateJobStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// SoftDeleteJob marks the job deleted; the row is retained.
func (r *Repository) SoftDeleteJob(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Job{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// --- purchase orders ---

func (r *Repository) CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	result := r.db.WithContext(ctx).Create(po)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrConflict
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	result := r.db.WithContext(ctx).First(&po, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &po, nil
}

// FindPurchaseOrder looks up the PO for one hop. Exactly one of
// targetCompany and targetVendor must be non-nil.
func (r *Repository) FindPurchaseOrder(ctx context.Context, jobID, origin uuid.UUID, targetCompany, targetVendor *uuid.UUID) (*models.PurchaseOrder, error) {
	query := r.db.WithContext(ctx).
		Where("job_id = ? AND origin_company_id = ?", jobID, origin)
	switch {
	case targetCompany != nil:
		query = query.Where("target_company_id = ?", *targetCompany)
	case targetVendor != nil:
		query = query.Where("target_vendor_id = ?", *targetVendor)
	default:
		return nil, fmt.Errorf("%w: hop needs a target company or vendor", e.ErrValidation)
	}

	var po models.PurchaseOrder
	result := query.First(&po)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &po, nil
}

func (r *Repository) SavePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}

func (r *Repository) ListPurchaseOrders(ctx context.Context, jobID uuid.UUID) ([]models.PurchaseOrder, error) {
	var pos []models.PurchaseOrder
	result := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at asc").
		Find(&pos)
	return pos, result.Error
}

// --- invoices ---

func (r *Repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	result := r.db.WithContext(ctx).Create(invoice)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrConflict
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	result := r.db.WithContext(ctx).First(&invoice, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &invoice, nil
}

func (r *Repository) FindInvoice(ctx context.Context, jobID, from, to uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	result := r.db.WithContext(ctx).
		Where("job_id = ? AND from_company_id = ? AND to_company_id = ?", jobID, from, to).
		First(&invoice)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &invoice, nil
}

func (r *Repository) ListInvoices(ctx context.Context, jobID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	result := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at asc").
		Find(&invoices)
	return invoices, result.Error
}

// MarkInvoicePaid sets PaidAt once; an already-paid invoice is left
// untouched (forward-only transition).
func (r *Repository) MarkInvoicePaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ? AND paid_at IS NULL", id).
		Update("paid_at", paidAt)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either missing or already paid; distinguish for the caller.
		if _, err := r.GetInvoice(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// NextInvoiceNo atomically increments and returns the year-scoped invoice
// sequence. The upsert takes a row lock, so concurrent allocations in the
// same year serialize on the sequence row instead of racing a max() scan.
func (r *Repository) NextInvoiceNo(ctx context.Context, year int) (int64, error) {
	seq := models.InvoiceSequence{Year: year, NextNo: 1}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"next_no": gorm.Expr("invoice_sequences.next_no + 1"),
		}),
	}).Create(&seq).Error
	if err != nil {
		return 0, err
	}

	var current models.InvoiceSequence
	if err := r.db.WithContext(ctx).First(&current, "year = ?", year).Error; err != nil {
		return 0, err
	}
	return current.NextNo, nil
}

// --- proofs ---

func (r *Repository) CreateProof(ctx context.Context, proof *models.Proof) error {
	result := r.db.WithContext(ctx).Create(proof)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrConflict
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetProof(ctx context.Context, id uuid.UUID) (*models.Proof, error) {
	var proof models.Proof
	result := r.db.WithContext(ctx).First(&proof, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &proof, nil
}

// LatestProof returns the highest-version proof for a job, or ErrNotFound.
func (r *Repository) LatestProof(ctx context.Context, jobID uuid.UUID) (*models.Proof, error) {
	var proof models.Proof
	result := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("version desc").
		First(&proof)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &proof, nil
}

// MaxProofVersion returns 0 when the job has no proofs yet.
func (r *Repository) MaxProofVersion(ctx context.Context, jobID uuid.UUID) (int, error) {
	var version sql.NullInt64
	result := r.db.WithContext(ctx).Model(&models.Proof{}).
		Where("job_id = ?", jobID).
		Select("max(version)").
		Scan(&version)
	if result.Error != nil {
		return 0, result.Error
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func (r *Repository) UpdateProofStatus(ctx context.Context, id uuid.UUID, status models.ProofStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Proof{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// --- notifications (outbox) ---

func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *Repository) ListPendingNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	var pending []models.Notification
	result := r.db.WithContext(ctx).
		Where("status = ?", models.NotificationPending).
		Order("created_at asc").
		Limit(limit).
		Find(&pending)
	return pending, result.Error
}

func (r *Repository) MarkNotificationSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   models.NotificationSent,
			"sent_at":  sentAt,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
}

// BumpNotificationAttempts counts a failed delivery try while leaving the
// row pending for the next drain pass.
func (r *Repository) BumpNotificationAttempts(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *Repository) MarkNotificationFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   models.NotificationFailed,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
}

func (r *Repository) ListNotifications(ctx context.Context, jobID uuid.UUID) ([]models.Notification, error) {
	var out []models.Notification
	result := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at asc").
		Find(&out)
	return out, result.Error
}
