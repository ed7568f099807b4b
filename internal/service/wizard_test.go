package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carappx/internal/bus"
	"carappx/internal/model"
)

type fakeUploader struct {
	failing map[string]bool
	calls   []string
}

func (u *fakeUploader) Upload(_ context.Context, localURI string) (string, error) {
	u.calls = append(u.calls, localURI)
	if u.failing[localURI] {
		return "", errors.New("upload rejected")
	}
	return "https://img.example.com/" + localURI, nil
}

type fakeCreator struct {
	created []*model.ServiceListing
	err     error
}

func (c *fakeCreator) CreateItem(_ context.Context, l *model.ServiceListing) (*model.ServiceListing, error) {
	if c.err != nil {
		return nil, c.err
	}
	copied := *l
	copied.ID = fmt.Sprintf("created-%d", len(c.created)+1)
	c.created = append(c.created, &copied)
	return &copied, nil
}

func newTestWizard(t *testing.T) (*Wizard, *fakeUploader, *fakeCreator) {
	t.Helper()
	uploader := &fakeUploader{failing: make(map[string]bool)}
	creator := &fakeCreator{}
	w := NewWizard(WizardDeps{
		Bus:      bus.NewLocationBus(),
		Uploader: uploader,
		Creator:  creator,
		Catalog:  StaticBrandCatalog{},
		Log:      zap.NewNop(),
	})
	return w, uploader, creator
}

func TestWizardTypeSelectionFlow(t *testing.T) {
	w, _, _ := newTestWizard(t)
	require.NoError(t, w.Open(nil))
	defer w.Close()

	assert.Equal(t, StateTypeSelection, w.State())

	require.NoError(t, w.PickType(model.ItemCarwash))
	assert.Equal(t, StateForm, w.State())

	assert.Equal(t, BackToTypeSelection, w.Back())
	assert.Equal(t, StateTypeSelection, w.State())
}

func TestWizardPinnedTypeBackCloses(t *testing.T) {
	w, _, _ := newTestWizard(t)
	typ := model.ItemCarwash
	require.NoError(t, w.Open(&typ))

	assert.Equal(t, StateForm, w.State())
	assert.Equal(t, BackClose, w.Back())

	_, err := w.Submit(context.Background(), "")
	assert.Error(t, err, "closed wizard must not accept a submit")
}

func TestWizardDependentModelOptions(t *testing.T) {
	w, _, _ := newTestWizard(t)
	typ := model.ItemDismantler
	require.NoError(t, w.Open(&typ))
	defer w.Close()

	assert.Nil(t, w.FieldOptions("model"), "model options must be empty before a brand is chosen")
	assert.Equal(t, StaticBrandCatalog{}.Brands(), w.FieldOptions("brand"))

	require.NoError(t, w.SetField("brand", "BMW"))
	assert.Equal(t,
		[]string{"1 Series", "3 Series", "5 Series", "7 Series", "X1", "X3", "X5", "X6"},
		w.FieldOptions("model"))

	require.NoError(t, w.SetField("model", "X5"))

	// switching brand resets the dependent selection
	require.NoError(t, w.SetField("brand", "Toyota"))
	assert.Empty(t, w.Draft().Fields["model"])
	assert.Equal(t, StaticBrandCatalog{}.ModelsForBrand("Toyota"), w.FieldOptions("model"))

	// re-setting the same value must not reset anything
	require.NoError(t, w.SetField("model", "RAV4"))
	require.NoError(t, w.SetField("brand", "Toyota"))
	assert.Equal(t, "RAV4", w.Draft().Fields["model"])
}

func TestWizardValidateAggregatesMissingFields(t *testing.T) {
	w, _, creator := newTestWizard(t)
	typ := model.ItemPart
	require.NoError(t, w.Open(&typ))
	defer w.Close()

	_, err := w.Submit(context.Background(), model.TierRegular)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t,
		[]string{"Part name", "Brand", "Price", "Phone", "Photos"},
		verr.MissingLabels)
	assert.Empty(t, creator.created, "validation failure must not reach the network")
}

func TestWizardYearRangeRule(t *testing.T) {
	w, _, _ := newTestWizard(t)
	typ := model.ItemDismantler
	require.NoError(t, w.Open(&typ))
	defer w.Close()

	require.NoError(t, w.SetField("brand", "BMW"))
	require.NoError(t, w.SetField("model", "X5"))
	require.NoError(t, w.SetField("phone", "555 12 34 56"))
	require.NoError(t, w.SetField("yearFrom", "2020"))
	require.NoError(t, w.SetField("yearTo", "2015"))
	w.SetLocation(41.7151, 44.8271, "Tbilisi")

	_, err := w.Submit(context.Background(), model.TierRegular)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "year from must not exceed year to", verr.Message)

	require.NoError(t, w.SetField("yearTo", "2022"))
	_, err = w.Submit(context.Background(), model.TierRegular)
	assert.NoError(t, err)
}

func TestWizardPaidSubmitReturnsPaymentParams(t *testing.T) {
	w, uploader, creator := newTestWizard(t)
	typ := model.ItemPart
	require.NoError(t, w.Open(&typ))

	require.NoError(t, w.SetField("name", "Front bumper"))
	require.NoError(t, w.SetField("brand", "BMW"))
	require.NoError(t, w.SetField("price", "150"))
	require.NoError(t, w.SetField("phone", "555123456"))
	w.AddPhoto("file:///tmp/bumper.jpg")

	res, err := w.Submit(context.Background(), model.TierVIP)
	require.NoError(t, err)
	require.NotNil(t, res.Payment)
	assert.Nil(t, res.Created)
	assert.Equal(t, model.TierVIP, res.Payment.Tier)
	assert.Equal(t, 15.0, res.Payment.PriceGEL)
	assert.Equal(t, "Front bumper", res.Payment.Draft.Fields["name"])

	// the paid path defers persistence to the payment flow
	assert.Empty(t, creator.created)
	assert.Empty(t, uploader.calls)

	_, err = w.Submit(context.Background(), model.TierVIP)
	assert.Error(t, err, "wizard must be closed after handing off to payment")
}

func TestWizardUnknownTierRejectedLocally(t *testing.T) {
	w, _, creator := newTestWizard(t)
	typ := model.ItemPart
	require.NoError(t, w.Open(&typ))
	defer w.Close()

	require.NoError(t, w.SetField("name", "Front bumper"))
	require.NoError(t, w.SetField("brand", "BMW"))
	require.NoError(t, w.SetField("price", "150"))
	require.NoError(t, w.SetField("phone", "555123456"))
	w.AddPhoto("file:///tmp/bumper.jpg")

	_, err := w.Submit(context.Background(), model.PaymentTier("gold"))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "gold")
	assert.Empty(t, creator.created)
	assert.Equal(t, StateForm, w.State(), "draft stays open for a corrected tier")
}

func TestWizardFreeSubmitUploadsAndCreates(t *testing.T) {
	w, uploader, creator := newTestWizard(t)
	uploader.failing["file:///tmp/blurry.jpg"] = true

	typ := model.ItemCarwash
	require.NoError(t, w.Open(&typ))

	require.NoError(t, w.SetField("name", "Splash Wash"))
	require.NoError(t, w.SetField("phone", "0555 12 34 56"))
	require.NoError(t, w.SetField("services", "basic,premium"))
	w.SetLocation(41.7151, 44.8271, "Rustaveli Ave 12")
	w.AddPhoto("file:///tmp/front.jpg")
	w.AddPhoto("file:///tmp/blurry.jpg")

	res, err := w.Submit(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, res.Created)
	assert.Nil(t, res.Payment)

	require.Len(t, creator.created, 1)
	got := creator.created[0]
	assert.Equal(t, "Splash Wash", got.Name)
	assert.Equal(t, "carwash", got.Type)
	assert.Equal(t, "Rustaveli Ave 12", got.Address)
	assert.Equal(t, "+995555123456", got.Phone)

	// failed upload is tolerated, successful one kept
	assert.Equal(t, []string{"file:///tmp/front.jpg", "file:///tmp/blurry.jpg"}, uploader.calls)
	assert.Equal(t, []string{"https://img.example.com/file:///tmp/front.jpg"}, []string(got.Images))
}

func TestWizardCreateFailureKeepsDraft(t *testing.T) {
	w, _, creator := newTestWizard(t)
	creator.err = errors.New("backend down")

	typ := model.ItemStore
	require.NoError(t, w.Open(&typ))
	defer w.Close()

	require.NoError(t, w.SetField("name", "Parts Depot"))
	require.NoError(t, w.SetField("phone", "555000111"))
	w.SetLocation(41.72, 44.80, "")

	_, err := w.Submit(context.Background(), "")
	require.Error(t, err)

	assert.Equal(t, StateForm, w.State())
	assert.Equal(t, "Parts Depot", w.Draft().Fields["name"], "draft must survive a failed create for retry")

	creator.err = nil
	res, err := w.Submit(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, res.Created)
}

func TestWizardLocationHandoffOverBus(t *testing.T) {
	locations := bus.NewLocationBus()
	w := NewWizard(WizardDeps{
		Bus:      locations,
		Uploader: &fakeUploader{},
		Creator:  &fakeCreator{},
		Catalog:  StaticBrandCatalog{},
		Log:      zap.NewNop(),
	})
	require.NoError(t, w.Open(nil))
	defer w.Close()

	require.NoError(t, w.PickType(model.ItemMechanic))
	w.BeginLocationPick()
	assert.True(t, w.Hidden())

	locations.Publish(bus.LocationEvent{Latitude: 41.7, Longitude: 44.8, Address: "Vake"})

	require.Eventually(t, func() bool {
		d := w.Draft()
		return d.Latitude != nil && d.Longitude != nil && d.Address == "Vake"
	}, time.Second, 5*time.Millisecond)
	assert.False(t, w.Hidden(), "picking is finished once the event lands")
}
