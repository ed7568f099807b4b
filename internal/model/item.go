package model

import "fmt"

// ItemType discriminates what kind of listing the add-item wizard creates.
// It selects the field schema, the validation rules and the submission path.
type ItemType string

const (
	ItemDismantler ItemType = "dismantler"
	ItemPart       ItemType = "part"
	ItemStore      ItemType = "store"
	ItemCarwash    ItemType = "carwash"
	ItemMechanic   ItemType = "mechanic"
	ItemService    ItemType = "service"
)

// AllItemTypes lists every supported discriminator, in the order the type
// picker presents them.
var AllItemTypes = []ItemType{
	ItemDismantler, ItemPart, ItemStore, ItemCarwash, ItemMechanic, ItemService,
}

// ParseItemType validates a raw discriminator string.
func ParseItemType(s string) (ItemType, error) {
	for _, t := range AllItemTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown item type %q", s)
}

// PaymentTier is a paid-listing pricing level.
type PaymentTier string

const (
	TierRegular PaymentTier = "regular"
	TierVIP     PaymentTier = "vip"
)

// AddItemDraft is the wizard's in-progress, unpersisted form state. Fields
// holds raw values keyed by schema field key; Photos holds locally staged
// image URIs not yet uploaded.
type AddItemDraft struct {
	Type      ItemType          `json:"type"`
	Fields    map[string]string `json:"fields"`
	Photos    []string          `json:"photos,omitempty"`
	Latitude  *float64          `json:"latitude,omitempty"`
	Longitude *float64          `json:"longitude,omitempty"`
	Address   string            `json:"address,omitempty"`
}

// NewAddItemDraft creates an empty draft for the given type.
func NewAddItemDraft(t ItemType) AddItemDraft {
	return AddItemDraft{Type: t, Fields: make(map[string]string)}
}

// PaymentParams carries a not-yet-persisted draft into the separate payment
// flow. Persistence is the payment flow's responsibility.
type PaymentParams struct {
	Draft    AddItemDraft `json:"draft"`
	Tier     PaymentTier  `json:"tier"`
	PriceGEL float64      `json:"price_gel"`
}

// SubmitResult is the outcome of a wizard submission: exactly one of Created
// (free save path) or Payment (paid path) is set.
type SubmitResult struct {
	Created *ServiceListing `json:"created,omitempty"`
	Payment *PaymentParams  `json:"payment,omitempty"`
}
