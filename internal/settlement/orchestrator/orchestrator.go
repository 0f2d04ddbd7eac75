// Package orchestrator is the settlement engine's top-level state machine.
// It reacts to lifecycle events (job created, files uploaded, proof
// approved, PO document parsed) and drives the PO chain manager and the
// invoice generator in order, suppressing duplicate triggers. Ledger
// mutations commit first; notifications ride the outbox and invoicing
// failures after a proof approval are logged, never propagated.
package orchestrator

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
	"github.com/inkbridge/settlement/internal/settlement/pochain"
	"github.com/inkbridge/settlement/internal/settlement/ponumber"
	"github.com/inkbridge/settlement/internal/settlement/pricing"
	"github.com/inkbridge/settlement/internal/settlement/routing"
	"go.uber.org/zap"
)

// Repository is the storage surface the orchestrator needs.
type Repository interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetProof(ctx context.Context, id uuid.UUID) (*models.Proof, error)
	LatestProof(ctx context.Context, jobID uuid.UUID) (*models.Proof, error)
	MaxProofVersion(ctx context.Context, jobID uuid.UUID) (int, error)
	ListPurchaseOrders(ctx context.Context, jobID uuid.UUID) ([]models.PurchaseOrder, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// ChainManager is the purchase-order side of the engine.
type ChainManager interface {
	EnsurePO(ctx context.Context, req pochain.EnsureRequest) (*models.PurchaseOrder, error)
	UpdatePO(ctx context.Context, req pochain.UpdateRequest) (*models.PurchaseOrder, error)
}

// InvoiceGenerator is the invoicing side of the engine.
type InvoiceGenerator interface {
	EnsureInvoice(ctx context.Context, jobID, fromID, toID uuid.UUID) (*models.Invoice, error)
}

// Orchestrator coordinates the settlement flow for one brokerage.
type Orchestrator struct {
	repo      Repository
	calc      *pricing.Calculator
	resolver  *routing.Resolver
	chain     ChainManager
	invoices  InvoiceGenerator
	extractor extraction.Extractor
	poExtract ponumber.Extractor
	parties   routing.Parties
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrchestrator wires the orchestrator. extractor and poExtract may be
// nil when no document pre-fill is available.
func NewOrchestrator(
	repo Repository,
	calc *pricing.Calculator,
	resolver *routing.Resolver,
	chain ChainManager,
	invoices InvoiceGenerator,
	extractor extraction.Extractor,
	poExtract ponumber.Extractor,
	parties routing.Parties,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		repo:      repo,
		calc:      calc,
		resolver:  resolver,
		chain:     chain,
		invoices:  invoices,
		extractor: extractor,
		poExtract: poExtract,
		parties:   parties,
		logger:    logger.Named("orchestrator"),
		now:       time.Now,
	}
}

// jobTransitions lists the allowed status moves. CANCELLED is additionally
// reachable from every non-terminal state.
var jobTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobPending:       {models.JobReadyForProof},
	models.JobReadyForProof: {models.JobReadyForProof, models.JobProofApproved, models.JobInProduction},
	models.JobProofApproved: {models.JobInProduction, models.JobCompleted},
	models.JobInProduction:  {models.JobReadyForProof, models.JobCompleted},
}

func canTransition(from, to models.JobStatus) bool {
	if to == models.JobCancelled {
		return !from.Terminal()
	}
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateJobRequest is the job-creation input. Document, when present, is a
// customer-supplied PDF used to pre-fill fields best-effort.
type CreateJobRequest struct {
	JobNumber   string
	CustomerID  uuid.UUID
	Quantity    int64
	Size        string
	RoutingType models.RoutingType
	Spec        *models.JobSpec

	OverridePrice *int64

	VendorID        *uuid.UUID
	VendorAmount    *int64
	IntermediaryCut *int64

	ManualPONumber string
	Document       []byte
}

// CreateJob validates and prices the job, fixes its chain topology, and
// persists the job and its purchase-order chain. Extraction failures and
// duplicate chain triggers are absorbed; a malformed request fails before
// anything is written.
func (o *Orchestrator) CreateJob(ctx context.Context, req *CreateJobRequest) (*models.Job, error) {
	if req.JobNumber == "" {
		return nil, fmt.Errorf("%w: job number is required", e.ErrValidation)
	}
	if req.Spec != nil {
		if err := req.Spec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", e.ErrValidation, err)
		}
	}
	customer, err := o.repo.GetCompany(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	breakdown, err := o.calc.Calculate(req.Size, req.Quantity, req.OverridePrice)
	if err != nil {
		return nil, err
	}

	hops, err := o.resolver.Resolve(routing.Request{
		RoutingType:     req.RoutingType,
		Breakdown:       breakdown,
		VendorID:        req.VendorID,
		VendorAmount:    req.VendorAmount,
		IntermediaryCut: req.IntermediaryCut,
	})
	if err != nil {
		return nil, err
	}

	extracted := o.runExtraction(ctx, req.Document, breakdown)

	job := &models.Job{
		ID:          uuid.New(),
		JobNumber:   req.JobNumber,
		CustomerID:  req.CustomerID,
		VendorID:    req.VendorID,
		Quantity:    req.Quantity,
		Size:        req.Size,
		RoutingType: req.RoutingType,
		Spec:        req.Spec,
		Status:      models.JobPending,
	}
	applyBreakdown(job, breakdown, req)
	if err := checkChainInvariant(job); err != nil {
		return nil, err
	}

	err = o.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.CreateJob(ctx, job); err != nil {
			if errors.Is(err, e.ErrConflict) {
				return fmt.Errorf("%w: job number %s already exists", e.ErrValidation, req.JobNumber)
			}
			return err
		}
		return tx.CreateNotification(ctx, &models.Notification{
			ID:        uuid.New(),
			JobID:     &job.ID,
			Type:      "job_created",
			Recipient: customer.Email,
			Subject:   fmt.Sprintf("Job %s received", job.JobNumber),
			Body:      fmt.Sprintf("Your order for %d pieces has been booked.", job.Quantity),
			Status:    models.NotificationPending,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := o.materializeChain(ctx, job, hops, req.ManualPONumber, extracted); err != nil {
		// The job is committed; the chain is re-ensured by the next
		// trigger (file upload, PO document, manual pass).
		o.logger.Error("failed to materialize PO chain",
			zap.Error(err),
			zap.String("job_number", job.JobNumber),
		)
	}
	return job, nil
}

// runExtraction pre-parses an uploaded document. Extracted monetary totals
// are reconciled against the calculator and only carried as reference data;
// any failure degrades to no pre-fill.
func (o *Orchestrator) runExtraction(ctx context.Context, doc []byte, breakdown *pricing.Breakdown) *extraction.Fields {
	if o.extractor == nil || len(doc) == 0 {
		return nil
	}
	fields, err := o.extractor.Extract(ctx, doc)
	if err != nil {
		o.logger.Warn("document extraction failed, continuing without pre-fill",
			zap.Error(fmt.Errorf("%w: %v", e.ErrExtraction, err)),
		)
		return nil
	}
	if fields.Amount != nil && *fields.Amount != breakdown.CustomerTotal {
		o.logger.Warn("extracted amount disagrees with calculated total, keeping it as reference only",
			zap.Int64("extracted", *fields.Amount),
			zap.Int64("calculated", breakdown.CustomerTotal),
		)
	}
	return fields
}

// applyBreakdown copies the priced amounts onto the job. The third-party
// vendor path keeps the supplied intermediary cut and derives the broker
// margin as the remainder over the vendor amount.
func applyBreakdown(job *models.Job, b *pricing.Breakdown, req *CreateJobRequest) {
	customerTotal := b.CustomerTotal
	job.CustomerTotal = &customerTotal
	paper := b.PaperCostTotal
	job.PaperCostTotal = &paper
	job.OverridePrice = req.OverridePrice
	job.IsLoss = b.IsLoss
	job.LossAmount = b.LossAmount

	if req.RoutingType == models.RoutingThirdPartyVendor {
		cut := int64(0)
		if req.IntermediaryCut != nil {
			cut = *req.IntermediaryCut
		}
		vendor := int64(0)
		if req.VendorAmount != nil {
			vendor = *req.VendorAmount
		}
		brokerMargin := customerTotal - vendor - cut
		job.IntermediaryMargin = &cut
		job.BrokerMargin = &brokerMargin
		return
	}

	intermediaryTotal := b.IntermediaryTotal
	intermediaryMargin := b.IntermediaryMargin
	producerTotal := b.ProducerTotal
	brokerMargin := b.BrokerMargin
	job.IntermediaryTotal = &intermediaryTotal
	job.IntermediaryMargin = &intermediaryMargin
	job.ProducerTotal = &producerTotal
	job.BrokerMargin = &brokerMargin
}

// checkChainInvariant rejects a job whose populated totals do not sum.
// A violated chain must never be persisted.
func checkChainInvariant(job *models.Job) error {
	if job.CustomerTotal != nil && job.BrokerMargin != nil && job.IntermediaryTotal != nil {
		if *job.CustomerTotal != *job.BrokerMargin+*job.IntermediaryTotal {
			return fmt.Errorf("%w: customer total %d != broker margin %d + intermediary total %d",
				e.ErrValidation, *job.CustomerTotal, *job.BrokerMargin, *job.IntermediaryTotal)
		}
	}
	if job.IntermediaryTotal != nil && job.IntermediaryMargin != nil && job.ProducerTotal != nil {
		if *job.IntermediaryTotal != *job.IntermediaryMargin+*job.ProducerTotal {
			return fmt.Errorf("%w: intermediary total %d != intermediary margin %d + producer total %d",
				e.ErrValidation, *job.IntermediaryTotal, *job.IntermediaryMargin, *job.ProducerTotal)
		}
	}
	return nil
}

// materializeChain ensures one PO per hop, threading each hop's number into
// the next hop's reference.
func (o *Orchestrator) materializeChain(ctx context.Context, job *models.Job, hops []routing.Hop, manualPONumber string, extracted *extraction.Fields) error {
	reference := ""
	for i, hop := range hops {
		req := pochain.EnsureRequest{
			JobID:             job.ID,
			Hop:               hop,
			ReferencePONumber: reference,
		}
		if i == 0 {
			req.ManualPONumber = manualPONumber
			if extracted != nil {
				if extracted.PONumber != nil {
					req.ExtractedPONumber = *extracted.PONumber
				}
				req.ExtractedAmount = extracted.Amount
			}
		}
		po, err := o.chain.EnsurePO(ctx, req)
		if err != nil {
			return fmt.Errorf("hop %d: %w", i, err)
		}
		reference = po.PONumber
	}
	return nil
}

// EnsureChain re-derives the job's hops from its persisted amounts and
// ensures every PO exists. Safe to call from any retriable trigger.
func (o *Orchestrator) EnsureChain(ctx context.Context, jobID uuid.UUID) error {
	job, err := o.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	hops, err := o.hopsFromJob(job)
	if err != nil {
		return err
	}
	return o.materializeChain(ctx, job, hops, "", nil)
}

// hopsFromJob rebuilds the hop list from persisted job amounts.
func (o *Orchestrator) hopsFromJob(job *models.Job) ([]routing.Hop, error) {
	if job.CustomerTotal == nil {
		return nil, fmt.Errorf("%w: job %s is not priced", e.ErrMissingAmount, job.JobNumber)
	}
	switch job.RoutingType {
	case models.RoutingThirdPartyVendor:
		if job.VendorID == nil {
			return nil, fmt.Errorf("%w: job %s has no vendor", e.ErrInvalidRouting, job.JobNumber)
		}
		cut, broker := int64(0), int64(0)
		if job.IntermediaryMargin != nil {
			cut = *job.IntermediaryMargin
		}
		if job.BrokerMargin != nil {
			broker = *job.BrokerMargin
		}
		return []routing.Hop{{
			Origin:         o.parties.Broker,
			TargetVendor:   job.VendorID,
			OriginalAmount: *job.CustomerTotal,
			VendorAmount:   *job.CustomerTotal - cut - broker,
		}}, nil
	default:
		if job.IntermediaryTotal == nil || job.ProducerTotal == nil {
			return nil, fmt.Errorf("%w: job %s is missing chain totals", e.ErrMissingAmount, job.JobNumber)
		}
		intermediary := o.parties.Intermediary
		producer := o.parties.Producer
		return []routing.Hop{
			{
				Origin:         o.parties.Broker,
				TargetCompany:  &intermediary,
				OriginalAmount: *job.CustomerTotal,
				VendorAmount:   *job.IntermediaryTotal,
			},
			{
				Origin:         intermediary,
				TargetCompany:  &producer,
				OriginalAmount: *job.IntermediaryTotal,
				VendorAmount:   *job.ProducerTotal,
			},
		}, nil
	}
}

// HandleFilesUploaded fires when the job's required file count is reached.
// The chain ensure is idempotent, so duplicate webhook retries are safe.
func (o *Orchestrator) HandleFilesUploaded(ctx context.Context, jobID uuid.UUID) error {
	return o.EnsureChain(ctx, jobID)
}

// UploadProof registers the next proof version and moves the job to
// READY_FOR_PROOF.
func (o *Orchestrator) UploadProof(ctx context.Context, jobID uuid.UUID, fileID string) (*models.Proof, error) {
	if fileID == "" {
		return nil, fmt.Errorf("%w: proof file is required", e.ErrValidation)
	}
	job, err := o.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !canTransition(job.Status, models.JobReadyForProof) {
		return nil, fmt.Errorf("%w: job %s -> %s", e.ErrInvalidTransition, job.Status, models.JobReadyForProof)
	}
	customer, err := o.repo.GetCompany(ctx, job.CustomerID)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	expiry := o.now().AddDate(0, 0, 14)
	var proof *models.Proof
	err = o.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		version, err := tx.MaxProofVersion(ctx, jobID)
		if err != nil {
			return err
		}
		proof = &models.Proof{
			ID:             uuid.New(),
			JobID:          jobID,
			Version:        version + 1,
			FileID:         fileID,
			Status:         models.ProofPending,
			ShareToken:     &token,
			ShareExpiresAt: &expiry,
		}
		if err := tx.CreateProof(ctx, proof); err != nil {
			return err
		}
		if err := tx.UpdateJobStatus(ctx, jobID, models.JobReadyForProof); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, &models.Notification{
			ID:        uuid.New(),
			JobID:     &jobID,
			Type:      "proof_uploaded",
			Recipient: customer.Email,
			Subject:   fmt.Sprintf("Proof v%d ready for job %s", proof.Version, job.JobNumber),
			Body:      "A new proof is ready for your review.",
			Status:    models.NotificationPending,
		})
	})
	if err != nil {
		return nil, err
	}
	return proof, nil
}

// ApproveProof records the approval, moves the job to PROOF_APPROVED and
// notifies the customer; it then attempts the customer-facing invoice.
// Invoicing failure is logged and left for a later pass: the approval, the
// customer-visible action, always sticks.
func (o *Orchestrator) ApproveProof(ctx context.Context, proofID uuid.UUID) (*models.Proof, error) {
	proof, err := o.repo.GetProof(ctx, proofID)
	if err != nil {
		return nil, err
	}
	if proof.Status == models.ProofApproved {
		// Duplicate trigger; the first approval is authoritative.
		return proof, nil
	}
	if proof.Status != models.ProofPending {
		return nil, fmt.Errorf("%w: proof %s -> %s", e.ErrInvalidTransition, proof.Status, models.ProofApproved)
	}
	latest, err := o.repo.LatestProof(ctx, proof.JobID)
	if err != nil {
		return nil, err
	}
	if latest.Version != proof.Version {
		return nil, fmt.Errorf("%w: only the latest proof version (v%d) can be approved", e.ErrValidation, latest.Version)
	}
	job, err := o.repo.GetJob(ctx, proof.JobID)
	if err != nil {
		return nil, err
	}
	if !canTransition(job.Status, models.JobProofApproved) {
		return nil, fmt.Errorf("%w: job %s -> %s", e.ErrInvalidTransition, job.Status, models.JobProofApproved)
	}
	customer, err := o.repo.GetCompany(ctx, job.CustomerID)
	if err != nil {
		return nil, err
	}

	err = o.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.UpdateProofStatus(ctx, proofID, models.ProofApproved); err != nil {
			return err
		}
		if err := tx.UpdateJobStatus(ctx, job.ID, models.JobProofApproved); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, &models.Notification{
			ID:        uuid.New(),
			JobID:     &job.ID,
			Type:      "proof_approved",
			Recipient: customer.Email,
			Subject:   fmt.Sprintf("Proof approved for job %s", job.JobNumber),
			Body:      "Your approval has been recorded; the job is moving to production.",
			Status:    models.NotificationPending,
		})
	})
	if err != nil {
		return nil, err
	}
	proof.Status = models.ProofApproved

	if _, err := o.invoices.EnsureInvoice(ctx, job.ID, o.parties.Broker, job.CustomerID); err != nil {
		o.logger.Error("customer invoice deferred after proof approval",
			zap.Error(err),
			zap.String("job_number", job.JobNumber),
		)
	}
	return proof, nil
}

// RequestChanges marks the latest proof rejected and returns the job to
// production.
func (o *Orchestrator) RequestChanges(ctx context.Context, proofID uuid.UUID) (*models.Proof, error) {
	proof, err := o.repo.GetProof(ctx, proofID)
	if err != nil {
		return nil, err
	}
	if proof.Status != models.ProofPending {
		return nil, fmt.Errorf("%w: proof %s -> %s", e.ErrInvalidTransition, proof.Status, models.ProofChangesRequested)
	}
	job, err := o.repo.GetJob(ctx, proof.JobID)
	if err != nil {
		return nil, err
	}
	if !canTransition(job.Status, models.JobInProduction) {
		return nil, fmt.Errorf("%w: job %s -> %s", e.ErrInvalidTransition, job.Status, models.JobInProduction)
	}
	customer, err := o.repo.GetCompany(ctx, job.CustomerID)
	if err != nil {
		return nil, err
	}

	err = o.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.UpdateProofStatus(ctx, proofID, models.ProofChangesRequested); err != nil {
			return err
		}
		if err := tx.UpdateJobStatus(ctx, job.ID, models.JobInProduction); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, &models.Notification{
			ID:        uuid.New(),
			JobID:     &job.ID,
			Type:      "changes_requested",
			Recipient: customer.Email,
			Subject:   fmt.Sprintf("Changes requested on job %s", job.JobNumber),
			Body:      fmt.Sprintf("Proof v%d was sent back for changes.", proof.Version),
			Status:    models.NotificationPending,
		})
	})
	if err != nil {
		return nil, err
	}
	proof.Status = models.ProofChangesRequested
	return proof, nil
}

// CompleteJob records the external completion signal and attempts the
// producer-facing invoice on the standard path.
func (o *Orchestrator) CompleteJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := o.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !canTransition(job.Status, models.JobCompleted) {
		return nil, fmt.Errorf("%w: job %s -> %s", e.ErrInvalidTransition, job.Status, models.JobCompleted)
	}
	customer, err := o.repo.GetCompany(ctx, job.CustomerID)
	if err != nil {
		return nil, err
	}

	err = o.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.UpdateJobStatus(ctx, jobID, models.JobCompleted); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, &models.Notification{
			ID:        uuid.New(),
			JobID:     &jobID,
			Type:      "job_completed",
			Recipient: customer.Email,
			Subject:   fmt.Sprintf("Job %s completed", job.JobNumber),
			Body:      "Your order has shipped.",
			Status:    models.NotificationPending,
		})
	})
	if err != nil {
		return nil, err
	}
	job.Status = models.JobCompleted

	if job.RoutingType == models.RoutingStandard {
		if _, err := o.invoices.EnsureInvoice(ctx, jobID, o.parties.Producer, o.parties.Intermediary); err != nil {
			o.logger.Error("producer invoice deferred after completion",
				zap.Error(err),
				zap.String("job_number", job.JobNumber),
			)
		}
	}
	return job, nil
}

// CancelJob cancels any non-terminal job.
func (o *Orchestrator) CancelJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := o.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !canTransition(job.Status, models.JobCancelled) {
		return nil, fmt.Errorf("%w: job %s -> %s", e.ErrInvalidTransition, job.Status, models.JobCancelled)
	}
	customer, err := o.repo.GetCompany(ctx, job.CustomerID)
	if err != nil {
		return nil, err
	}

	err = o.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.UpdateJobStatus(ctx, jobID, models.JobCancelled); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, &models.Notification{
			ID:        uuid.New(),
			JobID:     &jobID,
			Type:      "job_cancelled",
			Recipient: customer.Email,
			Subject:   fmt.Sprintf("Job %s cancelled", job.JobNumber),
			Body:      "Your order has been cancelled.",
			Status:    models.NotificationPending,
		})
	})
	if err != nil {
		return nil, err
	}
	job.Status = models.JobCancelled
	return job, nil
}

// HandlePODocument parses an uploaded PO PDF and carries a valid extracted
// number onto the job's first hop as its reference. Extraction failure
// falls back to ensuring the chain with generated numbers; it is never a
// hard failure.
func (o *Orchestrator) HandlePODocument(ctx context.Context, jobID uuid.UUID, doc []byte) (*models.PurchaseOrder, error) {
	job, err := o.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	extractedNo := ""
	if o.poExtract != nil && len(doc) > 0 {
		number, err := o.poExtract.ExtractPONumber(ctx, doc)
		if err != nil {
			o.logger.Warn("PO number extraction failed, falling back to generated number",
				zap.Error(fmt.Errorf("%w: %v", e.ErrExtraction, err)),
				zap.String("job_number", job.JobNumber),
			)
		} else if ponumber.Validate(number) {
			extractedNo = ponumber.Normalize(number)
		}
	}

	if err := o.EnsureChain(ctx, jobID); err != nil {
		return nil, err
	}
	pos, err := o.repo.ListPurchaseOrders(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(pos) == 0 {
		return nil, fmt.Errorf("%w: job %s has no purchase orders", e.ErrNotFound, job.JobNumber)
	}
	first := &pos[0]
	if extractedNo == "" || first.ReferencePONumber == extractedNo {
		return first, nil
	}
	return o.chain.UpdatePO(ctx, pochain.UpdateRequest{
		ID:                first.ID,
		ReferencePONumber: &extractedNo,
	})
}

// GetJob exposes a job read for the API layer.
func (o *Orchestrator) GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	return o.repo.GetJob(ctx, jobID)
}
