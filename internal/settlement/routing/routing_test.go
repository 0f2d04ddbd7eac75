package routing

import (
	"testing"

	"github.com/google/uuid"
	e "github.com/inkbridge/settlement/internal/settlement/errors"
	"github.com/inkbridge/settlement/internal/settlement/models"
	"github.com/inkbridge/settlement/internal/settlement/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParties() Parties {
	return Parties{
		Broker:       uuid.New(),
		Intermediary: uuid.New(),
		Producer:     uuid.New(),
	}
}

func pricedBreakdown() *pricing.Breakdown {
	return &pricing.Breakdown{
		CustomerTotal:      98000,
		IntermediaryTotal:  73250,
		IntermediaryMargin: 24750,
		ProducerTotal:      48500,
		BrokerMargin:       24750,
	}
}

func TestResolveStandardTwoHops(t *testing.T) {
	parties := testParties()
	resolver := NewResolver(parties)

	hops, err := resolver.Resolve(Request{
		RoutingType: models.RoutingStandard,
		Breakdown:   pricedBreakdown(),
	})
	require.NoError(t, err)
	require.Len(t, hops, 2)

	first, second := hops[0], hops[1]
	assert.Equal(t, parties.Broker, first.Origin)
	require.NotNil(t, first.TargetCompany)
	assert.Equal(t, parties.Intermediary, *first.TargetCompany)
	assert.Nil(t, first.TargetVendor)
	assert.Equal(t, int64(98000), first.OriginalAmount)
	assert.Equal(t, int64(73250), first.VendorAmount)

	assert.Equal(t, parties.Intermediary, second.Origin)
	require.NotNil(t, second.TargetCompany)
	assert.Equal(t, parties.Producer, *second.TargetCompany)
	assert.Equal(t, int64(73250), second.OriginalAmount)
	assert.Equal(t, int64(48500), second.VendorAmount)

	// Per-hop margins sum to customerTotal - producerTotal.
	marginSum := (first.OriginalAmount - first.VendorAmount) + (second.OriginalAmount - second.VendorAmount)
	assert.Equal(t, int64(98000-48500), marginSum)
}

func TestResolveThirdPartyVendorSingleHop(t *testing.T) {
	parties := testParties()
	resolver := NewResolver(parties)
	vendorID := uuid.New()
	vendorAmount := int64(51000)
	cut := int64(5000)

	hops, err := resolver.Resolve(Request{
		RoutingType:     models.RoutingThirdPartyVendor,
		Breakdown:       pricedBreakdown(),
		VendorID:        &vendorID,
		VendorAmount:    &vendorAmount,
		IntermediaryCut: &cut,
	})
	require.NoError(t, err)
	require.Len(t, hops, 1)

	hop := hops[0]
	assert.Equal(t, parties.Broker, hop.Origin)
	assert.Nil(t, hop.TargetCompany)
	require.NotNil(t, hop.TargetVendor)
	assert.Equal(t, vendorID, *hop.TargetVendor)
	assert.Equal(t, int64(98000), hop.OriginalAmount)
	assert.Equal(t, vendorAmount, hop.VendorAmount)
}

func TestResolveThirdPartyVendorValidation(t *testing.T) {
	resolver := NewResolver(testParties())
	vendorID := uuid.New()
	negative := int64(-1)

	tests := []struct {
		name string
		req  Request
	}{
		{"missing vendor id", Request{
			RoutingType:  models.RoutingThirdPartyVendor,
			Breakdown:    pricedBreakdown(),
			VendorAmount: new(int64),
		}},
		{"nil vendor id", Request{
			RoutingType:  models.RoutingThirdPartyVendor,
			Breakdown:    pricedBreakdown(),
			VendorID:     &uuid.Nil,
			VendorAmount: new(int64),
		}},
		{"missing vendor amount", Request{
			RoutingType: models.RoutingThirdPartyVendor,
			Breakdown:   pricedBreakdown(),
			VendorID:    &vendorID,
		}},
		{"negative vendor amount", Request{
			RoutingType:  models.RoutingThirdPartyVendor,
			Breakdown:    pricedBreakdown(),
			VendorID:     &vendorID,
			VendorAmount: &negative,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.Resolve(tt.req)
			assert.ErrorIs(t, err, e.ErrInvalidRouting)
		})
	}
}

func TestResolveUnpricedOrUnknownType(t *testing.T) {
	resolver := NewResolver(testParties())

	_, err := resolver.Resolve(Request{RoutingType: models.RoutingStandard})
	assert.ErrorIs(t, err, e.ErrValidation)

	_, err = resolver.Resolve(Request{RoutingType: "DROP_SHIP", Breakdown: pricedBreakdown()})
	assert.ErrorIs(t, err, e.ErrInvalidRouting)
}
