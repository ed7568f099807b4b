package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"carappx/internal/bus"
	"carappx/internal/model"
	"carappx/internal/utils"
)

// WizardState is the wizard's current screen.
type WizardState string

const (
	StateTypeSelection WizardState = "type-selection"
	StateForm          WizardState = "form"
)

// BackAction tells the caller what the back gesture should do.
type BackAction string

const (
	BackToTypeSelection BackAction = "type-selection"
	BackClose           BackAction = "close"
)

// ValidationError aggregates local submit rejections. No network call is
// made when one of these is returned.
type ValidationError struct {
	MissingLabels []string
	Message       string
}

func (e *ValidationError) Error() string {
	if len(e.MissingLabels) > 0 {
		return "missing required fields: " + strings.Join(e.MissingLabels, ", ")
	}
	return e.Message
}

// Uploader pushes a locally staged photo to remote storage and returns its
// public URL.
type Uploader interface {
	Upload(ctx context.Context, localURI string) (string, error)
}

// ItemCreator persists a normalized free-save payload.
type ItemCreator interface {
	CreateItem(ctx context.Context, listing *model.ServiceListing) (*model.ServiceListing, error)
}

// WizardDeps are the wizard's collaborators.
type WizardDeps struct {
	Bus      *bus.LocationBus
	Uploader Uploader
	Creator  ItemCreator
	Catalog  BrandCatalog
	Log      *zap.Logger
}

// Wizard is the dynamic add-item flow: one state machine whose field set,
// validation and submission path all come from the type's schema table.
type Wizard struct {
	deps WizardDeps

	mu     sync.Mutex
	state  WizardState
	schema *TypeSchema
	draft  model.AddItemDraft
	pinned bool // default type injected by the caller; back is remapped to close
	hidden bool // temporarily hidden while the map picker is up
	sub    *bus.Subscription
	open   bool
}

// NewWizard creates a closed wizard.
func NewWizard(deps WizardDeps) *Wizard {
	return &Wizard{deps: deps}
}

// Open starts the wizard. With a defaultType the wizard opens directly in
// the form state and back is remapped to close; otherwise it opens on type
// selection. Opening subscribes to the location bus for the map-picking
// handoff.
func (w *Wizard) Open(defaultType *model.ItemType) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.sub != nil {
		w.sub.Cancel()
	}

	w.open = true
	w.hidden = false
	if defaultType != nil {
		schema, ok := SchemaFor(*defaultType)
		if !ok {
			w.open = false
			return fmt.Errorf("unknown item type %q", *defaultType)
		}
		w.schema = schema
		w.draft = model.NewAddItemDraft(*defaultType)
		w.state = StateForm
		w.pinned = true
	} else {
		w.schema = nil
		w.draft = model.AddItemDraft{}
		w.state = StateTypeSelection
		w.pinned = false
	}

	w.sub = w.deps.Bus.Subscribe()
	go w.consumeLocations(w.sub)
	return nil
}

func (w *Wizard) consumeLocations(sub *bus.Subscription) {
	for ev := range sub.C {
		w.mu.Lock()
		if w.open {
			lat, lng := ev.Latitude, ev.Longitude
			w.draft.Latitude = &lat
			w.draft.Longitude = &lng
			w.draft.Address = ev.Address
			w.hidden = false
		}
		w.mu.Unlock()
	}
}

// Close tears the wizard down: the bus subscription is cancelled so no
// callback can fire afterwards, and the draft is destroyed.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sub != nil {
		w.sub.Cancel()
		w.sub = nil
	}
	w.open = false
	w.hidden = false
	w.schema = nil
	w.draft = model.AddItemDraft{}
	w.state = StateTypeSelection
	w.pinned = false
}

// State returns the current wizard state.
func (w *Wizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Draft returns a copy of the in-progress draft.
func (w *Wizard) Draft() model.AddItemDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := w.draft
	d.Fields = make(map[string]string, len(w.draft.Fields))
	for k, v := range w.draft.Fields {
		d.Fields[k] = v
	}
	d.Photos = append([]string(nil), w.draft.Photos...)
	return d
}

// PickType transitions type-selection -> form and clears any draft values.
func (w *Wizard) PickType(t model.ItemType) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateTypeSelection {
		return fmt.Errorf("type already selected")
	}
	schema, ok := SchemaFor(t)
	if !ok {
		return fmt.Errorf("unknown item type %q", t)
	}
	w.schema = schema
	w.draft = model.NewAddItemDraft(t)
	w.state = StateForm
	return nil
}

// Back handles the back gesture. With a pinned default type the wizard
// closes instead of returning to type selection.
func (w *Wizard) Back() BackAction {
	w.mu.Lock()
	if w.state != StateForm {
		w.mu.Unlock()
		return BackClose
	}
	if w.pinned {
		w.mu.Unlock()
		w.Close()
		return BackClose
	}
	w.state = StateTypeSelection
	w.schema = nil
	w.draft = model.AddItemDraft{}
	w.mu.Unlock()
	return BackToTypeSelection
}

// SetField stores a field value. Setting a field that other fields depend on
// resets those dependents to empty.
func (w *Wizard) SetField(key, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateForm || w.schema == nil {
		return fmt.Errorf("no form is open")
	}
	if _, ok := w.schema.Field(key); !ok {
		return fmt.Errorf("unknown field %q for type %s", key, w.schema.Type)
	}
	if w.draft.Fields[key] != value {
		for _, dep := range w.schema.Dependents(key) {
			w.draft.Fields[dep] = ""
		}
	}
	w.draft.Fields[key] = value
	return nil
}

// AddPhoto stages a local photo URI for upload on submit.
func (w *Wizard) AddPhoto(localURI string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Photos = append(w.draft.Photos, localURI)
}

// SetLocation merges picked coordinates into the draft directly, bypassing
// the bus. Used when the coordinates arrive in-band with a request rather
// than from the map-picking screen.
func (w *Wizard) SetLocation(lat, lng float64, address string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Latitude = &lat
	w.draft.Longitude = &lng
	w.draft.Address = address
	w.hidden = false
}

// BeginLocationPick hides the modal while the external map-picking screen is
// up; the LocationPicked event clears the flag again.
func (w *Wizard) BeginLocationPick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hidden = true
}

// Hidden reports whether the modal is temporarily hidden for picking.
func (w *Wizard) Hidden() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hidden
}

// FieldOptions returns the current options for a select field. Dependent
// selects resolve against the value of the field they depend on - the model
// list for the currently chosen brand - and are empty until it is set.
func (w *Wizard) FieldOptions(key string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.schema == nil {
		return nil
	}
	field, ok := w.schema.Field(key)
	if !ok {
		return nil
	}
	if field.DependsOn != "" {
		parent := w.draft.Fields[field.DependsOn]
		if parent == "" {
			return nil
		}
		if field.DependsOn == "brand" {
			return w.deps.Catalog.ModelsForBrand(parent)
		}
		return field.Options
	}
	if field.Key == "brand" && len(field.Options) == 0 {
		return w.deps.Catalog.Brands()
	}
	return field.Options
}

// Validate checks the draft against the schema: every required field must be
// non-empty (aggregated into one message), and a filled year range must have
// from <= to.
func (w *Wizard) Validate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.validateLocked()
}

func (w *Wizard) validateLocked() error {
	if w.schema == nil {
		return &ValidationError{Message: "no item type selected"}
	}

	var missing []string
	for _, f := range w.schema.Fields {
		if !f.Required {
			continue
		}
		switch f.Kind {
		case KindPhoto:
			if len(w.draft.Photos) == 0 {
				missing = append(missing, f.Label)
			}
		case KindLocation:
			if w.draft.Latitude == nil || w.draft.Longitude == nil {
				missing = append(missing, f.Label)
			}
		default:
			if strings.TrimSpace(w.draft.Fields[f.Key]) == "" {
				missing = append(missing, f.Label)
			}
		}
	}
	if w.schema.RequirePhoto && len(w.draft.Photos) == 0 {
		if !contains(missing, "Photos") {
			missing = append(missing, "Photos")
		}
	}
	if len(missing) > 0 {
		return &ValidationError{MissingLabels: missing}
	}

	from, to := w.draft.Fields["yearFrom"], w.draft.Fields["yearTo"]
	if from != "" && to != "" {
		fromYear, err1 := strconv.Atoi(from)
		toYear, err2 := strconv.Atoi(to)
		if err1 == nil && err2 == nil && fromYear > toYear {
			return &ValidationError{Message: "year from must not exceed year to"}
		}
	}
	return nil
}

// Submit validates the draft and runs the type's submission path. Paid types
// serialize the draft into payment parameters and close the wizard without
// persisting; free types normalize phones, upload photos sequentially and
// call the create endpoint. On create failure the draft stays intact for
// resubmission.
func (w *Wizard) Submit(ctx context.Context, tier model.PaymentTier) (*model.SubmitResult, error) {
	w.mu.Lock()
	if w.state != StateForm || w.schema == nil {
		w.mu.Unlock()
		return nil, fmt.Errorf("no form is open")
	}
	if err := w.validateLocked(); err != nil {
		w.mu.Unlock()
		return nil, err
	}

	schema := w.schema
	draft := w.draft

	if schema.Paid {
		if tier == "" {
			tier = model.TierRegular
		}
		price, ok := schema.TierPrices[tier]
		if !ok {
			w.mu.Unlock()
			return nil, &ValidationError{Message: fmt.Sprintf("unknown payment tier %q", tier)}
		}
		w.mu.Unlock()
		// Persistence belongs to the payment flow; the modal closes now.
		w.Close()
		return &model.SubmitResult{Payment: &model.PaymentParams{
			Draft:    draft,
			Tier:     tier,
			PriceGEL: price,
		}}, nil
	}
	w.mu.Unlock()

	listing := w.buildListing(schema, draft)

	// Sequential uploads keep bandwidth bounded and make failure attribution
	// per-photo unambiguous. Failed photos are dropped, successful ones kept.
	for _, uri := range draft.Photos {
		url, err := w.deps.Uploader.Upload(ctx, uri)
		if err != nil {
			w.deps.Log.Warn("photo upload failed, continuing with partial set",
				zap.String("uri", uri), zap.Error(err))
			continue
		}
		listing.Images = append(listing.Images, url)
	}

	created, err := w.deps.Creator.CreateItem(ctx, listing)
	if err != nil {
		// draft untouched so the user can retry
		return nil, fmt.Errorf("create %s: %w", schema.Type, err)
	}

	w.Close()
	return &model.SubmitResult{Created: created}, nil
}

func (w *Wizard) buildListing(schema *TypeSchema, draft model.AddItemDraft) *model.ServiceListing {
	listing := &model.ServiceListing{
		Name:        draft.Fields["name"],
		Description: draft.Fields["description"],
		Address:     draft.Address,
		Latitude:    draft.Latitude,
		Longitude:   draft.Longitude,
		Type:        string(schema.Type),
		Category:    string(schema.Type),
	}
	if listing.Name == "" {
		listing.Name = strings.TrimSpace(draft.Fields["brand"] + " " + draft.Fields["model"])
	}
	if raw := draft.Fields["price"]; raw != "" {
		listing.Price = model.ParseFlexPrice(raw)
	}
	for _, f := range schema.Fields {
		if f.Kind == KindPhone {
			if v := draft.Fields[f.Key]; v != "" {
				listing.Phone = utils.NormalizePhone(v)
			}
		}
	}
	return listing
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
