// Package routing decides the purchase-order chain topology for a job:
// which hops exist and which company or vendor occupies each position.
// Topology is fixed once at job creation and never re-resolved.
package routing

import (
	"fmt"

	"github.com/google/uuid"
	e "github.com/inkbridge/settlement/internal/settlement/errors"
	"github.com/inkbridge/settlement/internal/settlement/models"
	"github.com/inkbridge/settlement/internal/settlement/pricing"
)

// Parties are the brokerage's fixed chain positions, configured at startup.
type Parties struct {
	Broker       uuid.UUID
	Intermediary uuid.UUID
	Producer     uuid.UUID
}

// Hop is one origin-to-target leg to materialize as a purchase order.
// Exactly one of TargetCompany and TargetVendor is set.
type Hop struct {
	Origin        uuid.UUID
	TargetCompany *uuid.UUID
	TargetVendor  *uuid.UUID

	OriginalAmount int64
	VendorAmount   int64
}

// Request carries the routing inputs for one job.
type Request struct {
	RoutingType  models.RoutingType
	Breakdown    *pricing.Breakdown
	VendorID     *uuid.UUID
	VendorAmount *int64
	// IntermediaryCut is the separately supplied intermediary share on the
	// third-party-vendor path, replacing the derived 50/50 split.
	IntermediaryCut *int64
}

// Resolver maps a routing request to its ordered hop list.
type Resolver struct {
	parties Parties
}

// NewResolver returns a resolver over the configured chain parties.
func NewResolver(parties Parties) *Resolver {
	return &Resolver{parties: parties}
}

// Resolve returns the hops to materialize, in chain order. Standard routing
// yields Broker→Intermediary then Intermediary→Producer; third-party-vendor
// routing yields a single Broker→Vendor hop.
func (r *Resolver) Resolve(req Request) ([]Hop, error) {
	if req.Breakdown == nil {
		return nil, fmt.Errorf("%w: routing requires a priced job", e.ErrValidation)
	}
	switch req.RoutingType {
	case models.RoutingStandard:
		intermediary := r.parties.Intermediary
		producer := r.parties.Producer
		return []Hop{
			{
				Origin:         r.parties.Broker,
				TargetCompany:  &intermediary,
				OriginalAmount: req.Breakdown.CustomerTotal,
				VendorAmount:   req.Breakdown.IntermediaryTotal,
			},
			{
				Origin:         intermediary,
				TargetCompany:  &producer,
				OriginalAmount: req.Breakdown.IntermediaryTotal,
				VendorAmount:   req.Breakdown.ProducerTotal,
			},
		}, nil
	case models.RoutingThirdPartyVendor:
		if req.VendorID == nil || *req.VendorID == uuid.Nil {
			return nil, fmt.Errorf("%w: third-party-vendor routing requires a vendor id", e.ErrInvalidRouting)
		}
		if req.VendorAmount == nil || *req.VendorAmount < 0 {
			return nil, fmt.Errorf("%w: third-party-vendor routing requires a non-negative vendor amount", e.ErrInvalidRouting)
		}
		return []Hop{
			{
				Origin:         r.parties.Broker,
				TargetVendor:   req.VendorID,
				OriginalAmount: req.Breakdown.CustomerTotal,
				VendorAmount:   *req.VendorAmount,
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown routing type %q", e.ErrInvalidRouting, req.RoutingType)
	}
}
