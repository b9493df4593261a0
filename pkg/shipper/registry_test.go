package shipper_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/fancourier/pkg/shipper"
	"github.com/tournevent/fancourier/pkg/shipper/mock"
)

func newRequest() *shipper.RateRequest {
	return &shipper.RateRequest{
		Destination: shipper.Address{
			City:    "Cluj-Napoca",
			State:   "CJ",
			Country: "RO",
		},
		Items:     []shipper.Item{{WeightKg: 1.2, Quantity: 2}},
		CartTotal: decimal.NewFromInt(150),
	}
}

func TestRegistry_Register(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("fc_pro_redcode"))

	got, err := registry.Get("fc_pro_redcode")
	require.NoError(t, err, "method should be registered")
	assert.Equal(t, "fc_pro_redcode", got.ID())
}

func TestRegistry_Register_Override(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("fc_pro_redcode").WithPriority(1))
	registry.Register(mock.New("fc_pro_redcode").WithPriority(9))

	all := registry.All()
	require.Len(t, all, 1)
	assert.Equal(t, 9, all[0].Priority())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := shipper.NewRegistry()

	_, err := registry.Get("nonexistent")
	assert.Error(t, err, "should return error for unregistered method")
	assert.True(t, errors.Is(err, shipper.ErrMethodNotFound))
}

func TestRegistry_All_SortedByPriority(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("fc_pro_fanbox").WithPriority(5))
	registry.Register(mock.New("fc_pro_redcode").WithPriority(10))
	registry.Register(mock.New("fc_pro_collect_point_omv").WithPriority(8))

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "fc_pro_redcode", all[0].ID())
	assert.Equal(t, "fc_pro_collect_point_omv", all[1].ID())
	assert.Equal(t, "fc_pro_fanbox", all[2].ID())
}

func TestRegistry_GetAllRates(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("fc_pro_fanbox").WithPriority(5))
	registry.Register(mock.New("fc_pro_redcode").WithPriority(10).WithCost(decimal.NewFromFloat(22.5)))

	rates, errs := registry.GetAllRates(context.Background(), newRequest())

	assert.Empty(t, errs, "should have no errors from mock methods")
	require.Len(t, rates, 2, "should have rates from both methods")
	assert.Equal(t, "fc_pro_redcode", rates[0].MethodID)
	assert.True(t, decimal.NewFromFloat(22.5).Equal(rates[0].Cost))
	assert.Equal(t, "fc_pro_fanbox", rates[1].MethodID)
	for _, r := range rates {
		assert.NotEmpty(t, r.RateID)
	}
}

func TestRegistry_GetAllRates_Empty(t *testing.T) {
	registry := shipper.NewRegistry()

	rates, errs := registry.GetAllRates(context.Background(), newRequest())

	assert.Empty(t, rates, "should return empty results for empty registry")
	assert.NotEmpty(t, errs, "should return error for empty registry")
}

func TestRegistry_GetAllRates_PartialFailure(t *testing.T) {
	registry := shipper.NewRegistry()

	failing := mock.New("fc_pro_redcode").WithPriority(10)
	failing.Err = shipper.ErrWeightExceeded
	registry.Register(failing)
	registry.Register(mock.New("fc_pro_fanbox").WithPriority(5))

	rates, errs := registry.GetAllRates(context.Background(), newRequest())

	require.Len(t, rates, 1)
	assert.Equal(t, "fc_pro_fanbox", rates[0].MethodID)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], shipper.ErrWeightExceeded))
	assert.True(t, shipper.IsUnavailable(errs[0]))
	assert.Contains(t, errs[0].Error(), "fc_pro_redcode")
}

func TestRegistry_GetRates_Subset(t *testing.T) {
	registry := shipper.NewRegistry()

	redcode := mock.New("fc_pro_redcode")
	registry.Register(redcode)
	registry.Register(mock.New("fc_pro_fanbox"))
	registry.Register(mock.New("fc_pro_produse_albe"))

	rates, errs := registry.GetRates(context.Background(), newRequest(), []string{"fc_pro_fanbox", "fc_pro_produse_albe"})

	assert.Empty(t, errs)
	assert.Len(t, rates, 2)
	assert.Equal(t, 0, redcode.Calls())
}

func TestRegistry_GetRates_EmptyIDs(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("fc_pro_redcode"))
	registry.Register(mock.New("fc_pro_fanbox"))

	// Empty list should quote all methods
	rates, errs := registry.GetRates(context.Background(), newRequest(), []string{})

	assert.Empty(t, errs)
	assert.Len(t, rates, 2, "should get rates from all methods when empty list")
}

func TestRegistry_GetRates_NotFound(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("fc_pro_redcode"))

	rates, errs := registry.GetRates(context.Background(), newRequest(), []string{"nonexistent"})

	assert.Len(t, rates, 0)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], shipper.ErrMethodNotFound))
}

func TestRateRequest_PackageWeight(t *testing.T) {
	req := newRequest()
	assert.InDelta(t, 2.4, req.PackageWeight(), 1e-9)

	req.Items = []shipper.Item{{WeightKg: 0, Quantity: 3}}
	assert.Equal(t, shipper.MinPackageWeightKg, req.PackageWeight())

	req.Items = nil
	assert.Equal(t, shipper.MinPackageWeightKg, req.PackageWeight())
}
