package model

// Unit is the measurement unit attached to a requested quantity or pack size.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLitre      Unit = "l"
	UnitMillilitre Unit = "ml"
	UnitCount      Unit = "count"
)

// Base returns the canonical unit quantities are normalised to before
// comparison: kilograms for weight, litres for volume, count as-is.
func (u Unit) Base() Unit {
	switch u {
	case UnitGram:
		return UnitKilogram
	case UnitMillilitre:
		return UnitLitre
	default:
		return u
	}
}

// NormalizeQuantity converts a quantity into its base unit.
func NormalizeQuantity(qty float64, u Unit) (float64, Unit) {
	switch u {
	case UnitGram, UnitMillilitre:
		return qty / 1000, u.Base()
	default:
		return qty, u
	}
}

// Availability describes a source's stock state for an offer.
type Availability string

const (
	InStock    Availability = "in_stock"
	OutOfStock Availability = "out_of_stock"
	LowStock   Availability = "low_stock"
)

// Offer is one vendor's priced pack for a product. Offers are immutable
// values; a fresher fetch supersedes them, nothing mutates them.
type Offer struct {
	Source       string       `json:"source"`
	ItemName     string       `json:"item_name"`
	Brand        string       `json:"brand"`
	PackSize     float64      `json:"pack_size"`
	PackUnit     Unit         `json:"pack_unit"`
	Price        float64      `json:"price"`
	Category     string       `json:"category"`
	Availability Availability `json:"availability"`
}

// ResponseStatus is the status declared by an offer source response.
type ResponseStatus string

const (
	StatusSuccess   ResponseStatus = "success"
	StatusNoResults ResponseStatus = "no_results"
	StatusError     ResponseStatus = "error"
)

// SourceResponse is the wire shape returned by one offer source for one
// product query.
type SourceResponse struct {
	ProductName  string         `json:"product_name"`
	Offers       []Offer        `json:"variants"`
	Status       ResponseStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
}
