package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/inkbridge/settlement/internal/settlement/db"
	"github.com/inkbridge/settlement/internal/settlement/db/dbtest"
	e "github.com/inkbridge/settlement/internal/settlement/errors"
	"github.com/inkbridge/settlement/internal/settlement/invoice"
	"github.com/inkbridge/settlement/internal/settlement/models"
	"github.com/inkbridge/settlement/internal/settlement/pochain"
	"github.com/inkbridge/settlement/internal/settlement/pricing"
	"github.com/inkbridge/settlement/internal/settlement/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubPOExtractor struct {
	number string
	err    error
}

func (s *stubPOExtractor) ExtractPONumber(context.Context, []byte) (string, error) {
	return s.number, s.err
}

// flakyInvoices wraps the real generator so tests can make invoicing fail.
type flakyInvoices struct {
	inner *invoice.Generator
	fail  bool
}

func (f *flakyInvoices) EnsureInvoice(ctx context.Context, jobID, fromID, toID uuid.UUID) (*models.Invoice, error) {
	if f.fail {
		return nil, errors.New("invoicing backend down")
	}
	return f.inner.EnsureInvoice(ctx, jobID, fromID, toID)
}

type fixture struct {
	repo     *db.Repository
	orch     *Orchestrator
	invoices *flakyInvoices
	poExt    *stubPOExtractor
	nextNo   int

	broker       *models.Company
	intermediary *models.Company
	producer     *models.Company
	customer     *models.Company
	vendor       *models.Company
}

func int64Ptr(v int64) *int64 { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := dbtest.NewRepository(t)
	logger := zaptest.NewLogger(t)

	mkCompany := func(name string, role models.CompanyRole) *models.Company {
		c := &models.Company{
			ID:    uuid.New(),
			Name:  name,
			Role:  role,
			Email: name + "@example.com",
		}
		require.NoError(t, repo.CreateCompany(ctx, c))
		return c
	}

	f := &fixture{
		repo:         repo,
		broker:       mkCompany("broker", models.RoleBroker),
		intermediary: mkCompany("intermediary", models.RoleIntermediary),
		producer:     mkCompany("producer", models.RoleProducer),
		customer:     mkCompany("customer", models.RoleCustomer),
		vendor:       mkCompany("vendor", models.RoleThirdPartyVendor),
		poExt:        &stubPOExtractor{},
	}

	parties := routing.Parties{
		Broker:       f.broker.ID,
		Intermediary: f.intermediary.ID,
		Producer:     f.producer.ID,
	}
	chain := pochain.NewManager(repo, nil, f.producer.ID, "BPI", logger)
	f.invoices = &flakyInvoices{inner: invoice.NewGenerator(repo, nil, logger)}
	f.orch = NewOrchestrator(
		repo,
		pricing.NewCalculator(nil),
		routing.NewResolver(parties),
		chain,
		f.invoices,
		nil,
		f.poExt,
		parties,
		logger,
	)
	return f
}

func (f *fixture) standardRequest() *CreateJobRequest {
	no := 1042 + f.nextNo
	f.nextNo++
	return &CreateJobRequest{
		JobNumber:   fmt.Sprintf("%d", no),
		CustomerID:  f.customer.ID,
		Quantity:    10000,
		Size:        "SM_7_25_16_375",
		RoutingType: models.RoutingStandard,
	}
}

func (f *fixture) createStandardJob(t *testing.T) *models.Job {
	t.Helper()
	job, err := f.orch.CreateJob(context.Background(), f.standardRequest())
	require.NoError(t, err)
	return job
}

func (f *fixture) approvedJob(t *testing.T) (*models.Job, *models.Proof) {
	t.Helper()
	ctx := context.Background()
	job := f.createStandardJob(t)
	proof, err := f.orch.UploadProof(ctx, job.ID, "file-1")
	require.NoError(t, err)
	proof, err = f.orch.ApproveProof(ctx, proof.ID)
	require.NoError(t, err)
	return job, proof
}

func TestCreateJobStandardBuildsTwoHopChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.createStandardJob(t)

	require.NotNil(t, job.CustomerTotal)
	require.NotNil(t, job.ProducerTotal)
	assert.Equal(t, int64(98000), *job.CustomerTotal)
	assert.Equal(t, *job.CustomerTotal, *job.BrokerMargin+*job.IntermediaryTotal)
	assert.Equal(t, *job.IntermediaryTotal, *job.IntermediaryMargin+*job.ProducerTotal)

	pos, err := f.repo.ListPurchaseOrders(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, pos, 2)

	marginSum := pos[0].MarginAmount + pos[1].MarginAmount
	assert.Equal(t, *job.CustomerTotal-*job.ProducerTotal, marginSum,
		"hop margins must sum to customerTotal - producerTotal")

	// The downstream hop carries the upstream number for traceability.
	assert.Equal(t, pos[0].PONumber, pos[1].ReferencePONumber)
	assert.Equal(t, "BPI-1042", pos[0].PONumber)

	notices, err := f.repo.ListNotifications(ctx, job.ID)
	require.NoError(t, err)
	types := make([]string, 0, len(notices))
	for _, n := range notices {
		types = append(types, n.Type)
	}
	assert.Contains(t, types, "job_created")
	assert.Contains(t, types, "po_created", "the producer-facing PO announces itself")
}

func TestCreateJobThirdPartyVendorSingleHop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, err := f.orch.CreateJob(ctx, &CreateJobRequest{
		JobNumber:       "2001",
		CustomerID:      f.customer.ID,
		Quantity:        10000,
		Size:            "SM_7_25_16_375",
		RoutingType:     models.RoutingThirdPartyVendor,
		VendorID:        &f.vendor.ID,
		VendorAmount:    int64Ptr(51000),
		IntermediaryCut: int64Ptr(5000),
	})
	require.NoError(t, err)

	require.NotNil(t, job.BrokerMargin)
	assert.Equal(t, int64(98000-51000-5000), *job.BrokerMargin)
	assert.Equal(t, int64(5000), *job.IntermediaryMargin)

	pos, err := f.repo.ListPurchaseOrders(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, pos, 1)
	require.NotNil(t, pos[0].TargetVendorID)
	assert.Equal(t, f.vendor.ID, *pos[0].TargetVendorID)
	assert.Equal(t, int64(51000), pos[0].VendorAmount)
}

func TestCreateJobThirdPartyVendorWithoutVendorFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.CreateJob(context.Background(), &CreateJobRequest{
		JobNumber:   "2002",
		CustomerID:  f.customer.ID,
		Quantity:    10000,
		Size:        "SM_7_25_16_375",
		RoutingType: models.RoutingThirdPartyVendor,
	})
	assert.ErrorIs(t, err, e.ErrInvalidRouting)
}

func TestCreateJobDuplicateNumberRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.standardRequest()
	_, err := f.orch.CreateJob(ctx, req)
	require.NoError(t, err)

	_, err = f.orch.CreateJob(ctx, req)
	assert.ErrorIs(t, err, e.ErrValidation)
}

func TestCreateJobLossOverrideClampsTotals(t *testing.T) {
	f := newFixture(t)

	req := f.standardRequest()
	req.OverridePrice = int64Ptr(40000)
	job, err := f.orch.CreateJob(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, job.IsLoss)
	assert.Equal(t, int64(8500), job.LossAmount)
	assert.Equal(t, *job.ProducerTotal, *job.CustomerTotal, "totals clamp to the cost floor")
	assert.Equal(t, *job.CustomerTotal, *job.BrokerMargin+*job.IntermediaryTotal)
}

func TestHandleFilesUploadedIsRetriable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.createStandardJob(t)
	require.NoError(t, f.orch.HandleFilesUploaded(ctx, job.ID))
	require.NoError(t, f.orch.HandleFilesUploaded(ctx, job.ID))

	pos, err := f.repo.ListPurchaseOrders(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, pos, 2, "duplicate upload triggers must not duplicate the chain")
}

func TestUploadProofAssignsVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.createStandardJob(t)

	first, err := f.orch.UploadProof(ctx, job.ID, "file-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version, "a job with no proofs starts at version 1")
	require.NotNil(t, first.ShareToken)
	require.NotNil(t, first.ShareExpiresAt)

	second, err := f.orch.UploadProof(ctx, job.ID, "file-2")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	got, err := f.orch.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobReadyForProof, got.Status)
}

func TestApproveProofCreatesCustomerInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, proof := f.approvedJob(t)
	assert.Equal(t, models.ProofApproved, proof.Status)

	got, err := f.orch.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobProofApproved, got.Status)

	invoices, err := f.repo.ListInvoices(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, f.broker.ID, invoices[0].FromCompanyID)
	assert.Equal(t, f.customer.ID, invoices[0].ToCompanyID)
	assert.Equal(t, *job.CustomerTotal, invoices[0].Amount)
}

func TestApproveProofSurvivesInvoicingFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.createStandardJob(t)
	proof, err := f.orch.UploadProof(ctx, job.ID, "file-1")
	require.NoError(t, err)

	f.invoices.fail = true
	proof, err = f.orch.ApproveProof(ctx, proof.ID)
	require.NoError(t, err, "approval must succeed even when invoicing cannot")
	assert.Equal(t, models.ProofApproved, proof.Status)

	got, err := f.orch.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobProofApproved, got.Status)

	invoices, err := f.repo.ListInvoices(ctx, job.ID)
	require.NoError(t, err)
	assert.Empty(t, invoices, "the missing invoice is left for a later pass")

	// The later pass succeeds and exactly one invoice exists.
	f.invoices.fail = false
	_, err = f.invoices.EnsureInvoice(ctx, job.ID, f.broker.ID, f.customer.ID)
	require.NoError(t, err)
	invoices, err = f.repo.ListInvoices(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestApproveProofIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, proof := f.approvedJob(t)

	again, err := f.orch.ApproveProof(ctx, proof.ID)
	require.NoError(t, err, "a duplicate approval trigger is suppressed")
	assert.Equal(t, models.ProofApproved, again.Status)

	invoices, err := f.repo.ListInvoices(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestApproveProofRejectsStaleVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.createStandardJob(t)
	v1, err := f.orch.UploadProof(ctx, job.ID, "file-1")
	require.NoError(t, err)
	_, err = f.orch.UploadProof(ctx, job.ID, "file-2")
	require.NoError(t, err)

	_, err = f.orch.ApproveProof(ctx, v1.ID)
	assert.ErrorIs(t, err, e.ErrValidation, "only the latest version gates the job")
}

func TestRequestChangesReturnsJobToProduction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.createStandardJob(t)
	proof, err := f.orch.UploadProof(ctx, job.ID, "file-1")
	require.NoError(t, err)

	proof, err = f.orch.RequestChanges(ctx, proof.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProofChangesRequested, proof.Status)

	got, err := f.orch.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobInProduction, got.Status)

	// A corrected proof starts a fresh review round.
	next, err := f.orch.UploadProof(ctx, job.ID, "file-2")
	require.NoError(t, err)
	assert.Equal(t, 2, next.Version)
}

func TestCompleteJobIssuesProducerInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job, _ := f.approvedJob(t)

	completed, err := f.orch.CompleteJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, completed.Status)

	invoices, err := f.repo.ListInvoices(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	var producerFacing *models.Invoice
	for i := range invoices {
		if invoices[i].FromCompanyID == f.producer.ID {
			producerFacing = &invoices[i]
		}
	}
	require.NotNil(t, producerFacing)
	assert.Equal(t, *job.ProducerTotal, producerFacing.Amount)
}

func TestCancelJobTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.createStandardJob(t)
	cancelled, err := f.orch.CancelJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCancelled, cancelled.Status)

	_, err = f.orch.CancelJob(ctx, job.ID)
	assert.ErrorIs(t, err, e.ErrInvalidTransition, "cancelled is terminal")

	completedJob, _ := f.approvedJob(t)
	_, err = f.orch.CompleteJob(ctx, completedJob.ID)
	require.NoError(t, err)
	_, err = f.orch.CancelJob(ctx, completedJob.ID)
	assert.ErrorIs(t, err, e.ErrInvalidTransition, "completed is terminal")
}

func TestHandlePODocumentAppliesExtractedReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.createStandardJob(t)
	f.poExt.number = "cust-555"

	po, err := f.orch.HandlePODocument(ctx, job.ID, []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "CUST-555", po.ReferencePONumber)
	assert.Equal(t, "BPI-1042", po.PONumber, "the hop keeps its own number")
}

func TestHandlePODocumentFallsBackOnExtractionFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.createStandardJob(t)
	f.poExt.err = errors.New("unreadable scan")

	po, err := f.orch.HandlePODocument(ctx, job.ID, []byte("%PDF-1.4"))
	require.NoError(t, err, "extraction failure is never a hard failure")
	assert.Equal(t, "BPI-1042", po.PONumber, "generated fallback number remains in place")
	assert.Empty(t, po.ReferencePONumber)
}
