package order_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/fancourier/pkg/order"
	"github.com/tournevent/fancourier/pkg/selection"
	"github.com/tournevent/fancourier/pkg/shipper"
)

func primaverii() selection.Record {
	return selection.FromPickupPoint(selection.PickupPoint{
		Name:        "FANBox Primaverii",
		Address:     "Bucuresti, Bucuresti, Str. Primaverii, 10, 011171, Non-stop",
		Description: "Non-stop",
		Schedule:    "L-D 00:00-24:00",
	})
}

func TestFromSelection(t *testing.T) {
	m, ok := order.FromSelection("fc_pro_fanbox:3", primaverii())
	require.True(t, ok)

	assert.Equal(t, order.Meta{
		Name:        "FANBox Primaverii",
		FullAddress: "Bucuresti, Bucuresti, Str. Primaverii, 10, 011171, Non-stop",
		Description: "Non-stop",
		Schedule:    "L-D 00:00-24:00",
		County:      "Bucuresti",
		Locality:    "Bucuresti",
		Address:     "Bucuresti, Bucuresti, Str. Primaverii, 10, 011171, Non-stop",
	}, m)
}

func TestFromSelection_NotApplicable(t *testing.T) {
	_, ok := order.FromSelection("fc_pro_redcode", primaverii())
	assert.False(t, ok)

	_, ok = order.FromSelection("fc_pro_fanbox", selection.Record{Address: "Cluj|Cluj-Napoca"})
	assert.False(t, ok)
}

func TestFromSelection_UndefinedValues(t *testing.T) {
	m, ok := order.FromSelection("fc_pro_fanbox", selection.Record{
		Name:        "FANBox Gara",
		Address:     "undefined|Cluj-Napoca",
		FullAddress: "Cluj, undefined, Str. Garii",
		Description: "undefined",
		Schedule:    "undefined",
	})
	require.True(t, ok)
	assert.Equal(t, "", m.FullAddress)
	assert.Equal(t, "", m.Description)
	assert.Equal(t, "", m.Schedule)
	assert.Equal(t, "Cluj", m.County)
	assert.Equal(t, "Cluj-Napoca", m.Locality)
	assert.Equal(t, "Cluj-Napoca, Cluj", m.Address)
}

func TestFromSelection_LocationFromFullAddress(t *testing.T) {
	rec := selection.Record{
		Name:        "FANBox Horea",
		FullAddress: "Cluj, Cluj-Napoca, Str. Horea, 5, 400000",
	}

	m, ok := order.FromSelection("fc_pro_fanbox:1", rec)
	require.True(t, ok)
	assert.Equal(t, "Cluj", m.County)
	assert.Equal(t, "Cluj-Napoca", m.Locality)

	got := m.Override(shipper.Address{City: "Arad", State: "AR", Postcode: "310001"})
	assert.Equal(t, "Cluj-Napoca", got.City)
	assert.Equal(t, "Cluj", got.State)
	assert.Empty(t, got.Postcode)
}

func TestFromSelection_AddressFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{"both parts", "Cluj|Cluj-Napoca", "Cluj-Napoca, Cluj"},
		{"county only", "Cluj|", "Cluj"},
		{"malformed", "Cluj", ""},
		{"too many parts", "a|b|c", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := order.FromSelection("fc_pro_fanbox", selection.Record{Name: "X", Address: tt.address})
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Address)
		})
	}
}

func TestMeta_Values(t *testing.T) {
	m := order.Meta{Name: "FANBox Gara"}
	assert.Equal(t, map[string]string{
		order.KeyName:        "FANBox Gara",
		order.KeyFullAddress: "",
		order.KeyDescription: "",
		order.KeySchedule:    "",
	}, m.Values())

	full, _ := order.FromSelection("fc_pro_fanbox", primaverii())
	assert.Equal(t, full, order.MetaFromValues(full.Values()))
}

func TestMeta_Override(t *testing.T) {
	m, _ := order.FromSelection("fc_pro_fanbox", primaverii())
	got := m.Override(shipper.Address{
		FirstName: "Ana",
		Line1:     "Str. Lunga 1",
		City:      "Brasov",
		State:     "BV",
		Postcode:  "500001",
		Country:   "RO",
	})

	assert.Equal(t, shipper.Address{
		FirstName: "Ana",
		Company:   "FANBox Primaverii",
		Line1:     m.FullAddress,
		Line2:     "Non-stop",
		City:      "Bucuresti",
		State:     "Bucuresti",
		Country:   "RO",
	}, got)
}

func TestMeta_DisplayAddress(t *testing.T) {
	m, _ := order.FromSelection("fc_pro_fanbox", primaverii())
	assert.Equal(t, "Bucuresti, Bucuresti, Str. Primaverii, 10, 011171", m.DisplayAddress())

	m = order.Meta{Address: "Cluj-Napoca, Cluj"}
	assert.Equal(t, "Cluj-Napoca, Cluj", m.DisplayAddress())
}

func TestPlace(t *testing.T) {
	ctx := context.Background()
	store := order.NewMemoryStore()

	o := &order.Order{ID: "1001", MethodID: "fc_pro_fanbox", Shipping: shipper.Address{City: "Iasi", Postcode: "700001"}}
	m, err := order.Place(ctx, store, o, primaverii())
	require.NoError(t, err)
	require.NotNil(t, m)

	got, err := store.Get(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "FANBox Primaverii", got.Meta[order.KeyName])
	assert.Equal(t, "Bucuresti", got.Meta[order.KeyCounty])
	assert.Equal(t, "Bucuresti", got.Shipping.City)
	assert.Equal(t, "", got.Shipping.Postcode)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestPlace_OtherMethod(t *testing.T) {
	ctx := context.Background()
	store := order.NewMemoryStore()

	o := &order.Order{ID: "1002", MethodID: "fc_pro_redcode", Shipping: shipper.Address{City: "Iasi"}}
	m, err := order.Place(ctx, store, o, primaverii())
	require.NoError(t, err)
	assert.Nil(t, m)

	got, err := store.Get(ctx, "1002")
	require.NoError(t, err)
	assert.Empty(t, got.Meta)
	assert.Equal(t, "Iasi", got.Shipping.City)
}

func TestPlace_FanboxWithoutLocker(t *testing.T) {
	store := order.NewMemoryStore()
	_, err := order.Place(context.Background(), store, &order.Order{ID: "1003", MethodID: "fc_pro_fanbox"}, selection.Record{})
	assert.ErrorIs(t, err, order.ErrNoSelection)

	_, err = store.Get(context.Background(), "1003")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestPlace_WrittenOnce(t *testing.T) {
	ctx := context.Background()
	store := order.NewMemoryStore()

	_, err := order.Place(ctx, store, &order.Order{ID: "1004", MethodID: "fc_pro_fanbox"}, primaverii())
	require.NoError(t, err)

	other := selection.FromPickupPoint(selection.PickupPoint{
		Name:    "FANBox Horea",
		Address: "Cluj, Cluj-Napoca, Str. Horea, 5, 400000",
	})
	_, err = order.Place(ctx, store, &order.Order{ID: "1004", MethodID: "fc_pro_fanbox"}, other)
	assert.ErrorIs(t, err, order.ErrAlreadyPlaced)

	got, err := store.Get(ctx, "1004")
	require.NoError(t, err)
	assert.Equal(t, "FANBox Primaverii", got.Meta[order.KeyName])
	assert.Equal(t, "Bucuresti", got.Shipping.City)
}

func TestMemoryStore_Copies(t *testing.T) {
	ctx := context.Background()
	store := order.NewMemoryStore()
	o := &order.Order{ID: "1", Meta: map[string]string{"k": "v"}}
	require.NoError(t, store.Save(ctx, o))

	o.Meta["k"] = "changed"
	got, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "v", got.Meta["k"])

	assert.Error(t, store.Save(ctx, &order.Order{}))
}
