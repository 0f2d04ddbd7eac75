// Package models defines the persistent entities of the settlement engine:
// companies, jobs, the purchase-order chain, invoices, proofs and the
// notification outbox. Entities carry gorm tags and are shared between the
// repository and the service layer.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyRole tags the position a company can occupy in a job's chain.
type CompanyRole string

const (
	RoleBroker           CompanyRole = "BROKER"
	RoleIntermediary     CompanyRole = "INTERMEDIARY"
	RoleProducer         CompanyRole = "PRODUCER"
	RoleCustomer         CompanyRole = "CUSTOMER"
	RoleThirdPartyVendor CompanyRole = "THIRD_PARTY_VENDOR"
)

// Company is a named party in the purchase-order chain. Identity is stable:
// once a job references a company, the row is never repointed.
type Company struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name      string      `gorm:"size:120;uniqueIndex"`
	Role      CompanyRole `gorm:"size:32;index"`
	Email     string      `gorm:"size:254"`
	Phone     string      `gorm:"size:32"`
	Address   string      `gorm:"size:500"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoutingType selects the chain topology for a job.
type RoutingType string

const (
	RoutingStandard         RoutingType = "STANDARD"
	RoutingThirdPartyVendor RoutingType = "THIRD_PARTY_VENDOR"
)

// JobStatus is the job lifecycle state.
type JobStatus string

const (
	JobPending       JobStatus = "PENDING"
	JobReadyForProof JobStatus = "READY_FOR_PROOF"
	JobProofApproved JobStatus = "PROOF_APPROVED"
	JobInProduction  JobStatus = "IN_PRODUCTION"
	JobCompleted     JobStatus = "COMPLETED"
	JobCancelled     JobStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobCancelled
}

// Job is one unit of work for a customer. All monetary fields are minor
// units (cents); pointers distinguish "not yet priced" from zero. Whenever
// the three chain totals are populated the engine guarantees
// CustomerTotal = BrokerMargin + IntermediaryTotal and
// IntermediaryTotal = IntermediaryMargin + ProducerTotal.
type Job struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	JobNumber     string    `gorm:"size:32;uniqueIndex"`
	CustomerID    uuid.UUID `gorm:"type:uuid;index"`
	VendorID      *uuid.UUID `gorm:"type:uuid"`
	Quantity      int64
	Size          string      `gorm:"size:64"`
	RoutingType   RoutingType `gorm:"size:32"`
	Spec          *JobSpec    `gorm:"serializer:json"`
	OverridePrice *int64

	CustomerTotal      *int64
	IntermediaryTotal  *int64
	IntermediaryMargin *int64
	ProducerTotal      *int64
	BrokerMargin       *int64
	PaperCostTotal     *int64
	IsLoss             bool
	LossAmount         int64

	Status    JobStatus `gorm:"size:32;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// POStatus is the purchase-order lifecycle state.
type POStatus string

const (
	POPending   POStatus = "PENDING"
	POConfirmed POStatus = "CONFIRMED"
	POReceived  POStatus = "RECEIVED"
	POCancelled POStatus = "CANCELLED"
)

// PurchaseOrder is one hop of a job's chain. Exactly one of TargetCompanyID
// and TargetVendorID is set. MarginAmount always equals
// OriginalAmount - VendorAmount. The composite unique indexes are the
// enforcement mechanism behind EnsurePO's idempotency.
type PurchaseOrder struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	JobID           uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_po_company_hop;uniqueIndex:idx_po_vendor_hop"`
	OriginCompanyID uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_po_company_hop;uniqueIndex:idx_po_vendor_hop"`
	TargetCompanyID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_po_company_hop"`
	TargetVendorID  *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_po_vendor_hop"`

	OriginalAmount int64
	VendorAmount   int64
	MarginAmount   int64

	PONumber          string `gorm:"size:64"`
	ReferencePONumber string `gorm:"size:64"`
	// ExtractedAmount holds a document-extracted total for reconciliation.
	// It is reference data and never feeds job money fields.
	ExtractedAmount *int64

	Status    POStatus `gorm:"size:32;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Invoice bills one hop of a completed chain. PaidAt only ever moves from
// nil to a timestamp. The composite unique index enforces at most one
// invoice per (job, from, to).
type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	JobID         uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_invoice_hop"`
	FromCompanyID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_invoice_hop"`
	ToCompanyID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_invoice_hop"`

	InvoiceNo string `gorm:"size:32;uniqueIndex"`
	Amount    int64
	IssuedAt  time.Time
	DueAt     time.Time
	PaidAt    *time.Time
	PDFRef    string `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceSequence allocates year-scoped invoice numbers. NextNo is read and
// incremented under a row lock inside the invoice-creating transaction.
type InvoiceSequence struct {
	Year   int `gorm:"primaryKey"`
	NextNo int64
}

// ProofStatus is the proof review state.
type ProofStatus string

const (
	ProofPending          ProofStatus = "PENDING"
	ProofApproved         ProofStatus = "APPROVED"
	ProofChangesRequested ProofStatus = "CHANGES_REQUESTED"
)

// Proof is one uploaded proof version for a job. Versions start at 1 and
// increase per job; only the latest version gates job transitions.
type Proof struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	JobID          uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_proof_version"`
	Version        int       `gorm:"uniqueIndex:idx_proof_version"`
	FileID         string    `gorm:"size:255"`
	Status         ProofStatus `gorm:"size:32"`
	ShareToken     *string     `gorm:"size:64"`
	ShareExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NotificationStatus is the outbox delivery state.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED"
)

// Notification is an outbox row. It is written in the same transaction as
// the state change it announces, so the table doubles as the audit trail:
// a row exists whether or not delivery ever succeeds. The dispatcher is the
// only writer of Status, Attempts and SentAt after creation.
type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	JobID      *uuid.UUID `gorm:"type:uuid;index"`
	Type       string     `gorm:"size:64;index"`
	Recipient  string     `gorm:"size:254"`
	Subject    string     `gorm:"size:255"`
	Body       string     `gorm:"size:10000"`
	Attachment string     `gorm:"size:255"`

	Status    NotificationStatus `gorm:"size:16;index"`
	Attempts  int
	SentAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
