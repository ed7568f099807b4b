package service

import (
	"fmt"
	"time"

	"carappx/internal/model"
)

// FieldKind is the input widget a descriptor renders as.
type FieldKind string

const (
	KindText           FieldKind = "text"
	KindSelect         FieldKind = "select"
	KindTextarea       FieldKind = "textarea"
	KindPhoto          FieldKind = "photo"
	KindPhone          FieldKind = "phone"
	KindLocation       FieldKind = "location"
	KindServicesConfig FieldKind = "services-config"
	KindTimeSlots      FieldKind = "time-slots-config"
	KindRealTimeStatus FieldKind = "real-time-status-config"
)

// FieldDescriptor declares one wizard form field. All per-type variability
// lives in these tables; the presentation layer never branches on item type.
type FieldDescriptor struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Kind      FieldKind `json:"kind"`
	Required  bool      `json:"required"`
	Options   []string  `json:"options,omitempty"`
	DependsOn string    `json:"depends_on,omitempty"`
}

// TypeSchema maps an item type to its ordered field set, payment rules and
// photo requirement.
type TypeSchema struct {
	Type         model.ItemType
	Fields       []FieldDescriptor
	Paid         bool
	TierPrices   map[model.PaymentTier]float64
	RequirePhoto bool
}

// Field returns the descriptor for a key.
func (s *TypeSchema) Field(key string) (*FieldDescriptor, bool) {
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// Dependents returns the keys of fields whose options depend on the given
// field's value.
func (s *TypeSchema) Dependents(key string) []string {
	var deps []string
	for i := range s.Fields {
		if s.Fields[i].DependsOn == key {
			deps = append(deps, s.Fields[i].Key)
		}
	}
	return deps
}

// paid listing prices, GEL
var paidTiers = map[model.PaymentTier]float64{
	model.TierRegular: 5,
	model.TierVIP:     15,
}

func yearOptions() []string {
	current := time.Now().Year()
	years := make([]string, 0, current-1979)
	for y := current; y >= 1980; y-- {
		years = append(years, fmt.Sprintf("%d", y))
	}
	return years
}

// SchemaFor resolves the schema table for an item type, once, at screen-open
// time.
func SchemaFor(t model.ItemType) (*TypeSchema, bool) {
	s, ok := schemas[t]
	return s, ok
}

var schemas map[model.ItemType]*TypeSchema

func init() {
	years := yearOptions()

	schemas = map[model.ItemType]*TypeSchema{
		model.ItemDismantler: {
			Type: model.ItemDismantler,
			Paid: true, TierPrices: paidTiers,
			Fields: []FieldDescriptor{
				{Key: "brand", Label: "Brand", Kind: KindSelect, Required: true},
				{Key: "model", Label: "Model", Kind: KindSelect, Required: true, DependsOn: "brand"},
				{Key: "yearFrom", Label: "Year from", Kind: KindSelect, Options: years},
				{Key: "yearTo", Label: "Year to", Kind: KindSelect, Options: years},
				{Key: "description", Label: "Description", Kind: KindTextarea},
				{Key: "phone", Label: "Phone", Kind: KindPhone, Required: true},
				{Key: "location", Label: "Location", Kind: KindLocation, Required: true},
				{Key: "photos", Label: "Photos", Kind: KindPhoto},
			},
		},
		model.ItemPart: {
			Type: model.ItemPart,
			Paid: true, TierPrices: paidTiers,
			RequirePhoto: true,
			Fields: []FieldDescriptor{
				{Key: "name", Label: "Part name", Kind: KindText, Required: true},
				{Key: "brand", Label: "Brand", Kind: KindSelect, Required: true},
				{Key: "model", Label: "Model", Kind: KindSelect, DependsOn: "brand"},
				{Key: "price", Label: "Price", Kind: KindText, Required: true},
				{Key: "description", Label: "Description", Kind: KindTextarea},
				{Key: "phone", Label: "Phone", Kind: KindPhone, Required: true},
				{Key: "photos", Label: "Photos", Kind: KindPhoto, Required: true},
			},
		},
		model.ItemStore: {
			Type: model.ItemStore,
			Fields: []FieldDescriptor{
				{Key: "name", Label: "Store name", Kind: KindText, Required: true},
				{Key: "description", Label: "Description", Kind: KindTextarea},
				{Key: "phone", Label: "Phone", Kind: KindPhone, Required: true},
				{Key: "location", Label: "Location", Kind: KindLocation, Required: true},
				{Key: "photos", Label: "Photos", Kind: KindPhoto},
			},
		},
		model.ItemCarwash: {
			Type: model.ItemCarwash,
			Fields: []FieldDescriptor{
				{Key: "name", Label: "Car wash name", Kind: KindText, Required: true},
				{Key: "description", Label: "Description", Kind: KindTextarea},
				{Key: "phone", Label: "Phone", Kind: KindPhone, Required: true},
				{Key: "location", Label: "Location", Kind: KindLocation, Required: true},
				{Key: "services", Label: "Services", Kind: KindServicesConfig, Required: true},
				{Key: "timeSlots", Label: "Time slots", Kind: KindTimeSlots},
				{Key: "realTimeStatus", Label: "Live status", Kind: KindRealTimeStatus},
				{Key: "photos", Label: "Photos", Kind: KindPhoto},
			},
		},
		model.ItemMechanic: {
			Type: model.ItemMechanic,
			Fields: []FieldDescriptor{
				{Key: "name", Label: "Workshop name", Kind: KindText, Required: true},
				{Key: "specialization", Label: "Specialization", Kind: KindSelect, Options: []string{
					"engine", "transmission", "suspension", "electrics", "bodywork", "diagnostics",
				}},
				{Key: "description", Label: "Description", Kind: KindTextarea},
				{Key: "phone", Label: "Phone", Kind: KindPhone, Required: true},
				{Key: "location", Label: "Location", Kind: KindLocation, Required: true},
				{Key: "photos", Label: "Photos", Kind: KindPhoto},
			},
		},
		model.ItemService: {
			Type: model.ItemService,
			Fields: []FieldDescriptor{
				{Key: "name", Label: "Service name", Kind: KindText, Required: true},
				{Key: "category", Label: "Category", Kind: KindSelect, Options: []string{
					"towing", "tire-change", "detailing", "inspection", "other",
				}, Required: true},
				{Key: "description", Label: "Description", Kind: KindTextarea},
				{Key: "phone", Label: "Phone", Kind: KindPhone, Required: true},
				{Key: "location", Label: "Location", Kind: KindLocation, Required: true},
				{Key: "photos", Label: "Photos", Kind: KindPhoto},
			},
		},
	}
}

// BrandCatalog resolves car brands and the models registered for each brand.
// The wizard's dependent "model" select draws its options from here.
type BrandCatalog interface {
	Brands() []string
	ModelsForBrand(brand string) []string
}

// StaticBrandCatalog is the built-in catalog used when the lookup endpoint
// has nothing better.
type StaticBrandCatalog struct{}

var staticBrands = []string{"BMW", "Mercedes-Benz", "Toyota", "Honda", "Ford", "Volkswagen"}

var staticModels = map[string][]string{
	"BMW":           {"1 Series", "3 Series", "5 Series", "7 Series", "X1", "X3", "X5", "X6"},
	"Mercedes-Benz": {"A-Class", "C-Class", "E-Class", "S-Class", "GLC", "GLE"},
	"Toyota":        {"Corolla", "Camry", "RAV4", "Land Cruiser", "Prius"},
	"Honda":         {"Civic", "Accord", "CR-V", "Fit"},
	"Ford":          {"Focus", "Fiesta", "Mustang", "Explorer", "Transit"},
	"Volkswagen":    {"Golf", "Passat", "Tiguan", "Touareg", "Polo"},
}

// Brands lists the known brands.
func (StaticBrandCatalog) Brands() []string { return staticBrands }

// ModelsForBrand lists the models registered for a brand; unknown brands
// yield an empty list.
func (StaticBrandCatalog) ModelsForBrand(brand string) []string {
	return staticModels[brand]
}
