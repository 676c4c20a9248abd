package vendors

import (
	"context"
	"strings"

	"github.com/cartpilot/server/internal/agent/model"
)

// CatalogSource simulates one vendor's search endpoint over an in-memory
// catalog, keyed by normalised product name.
type CatalogSource struct {
	name    string
	catalog map[string][]model.Offer
}

func NewCatalogSource(name string, catalog map[string][]model.Offer) *CatalogSource {
	return &CatalogSource{name: name, catalog: catalog}
}

func (s *CatalogSource) Name() string { return s.name }

func (s *CatalogSource) Search(_ context.Context, productKey string) (*model.SourceResponse, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(productKey), " ", "_"))

	offers, ok := s.catalog[key]
	if !ok || len(offers) == 0 {
		return &model.SourceResponse{
			ProductName: productKey,
			Offers:      []model.Offer{},
			Status:      model.StatusNoResults,
		}, nil
	}

	return &model.SourceResponse{
		ProductName: productKey,
		Offers:      offers,
		Status:      model.StatusSuccess,
	}, nil
}

func offer(source, item, brand string, pack float64, unit model.Unit, price float64, category string) model.Offer {
	return model.Offer{
		Source:       source,
		ItemName:     item,
		Brand:        brand,
		PackSize:     pack,
		PackUnit:     unit,
		Price:        price,
		Category:     category,
		Availability: model.InStock,
	}
}

// DefaultSources returns the four simulated vendors with their catalogs.
func DefaultSources() []OfferSource {
	zepto := map[string][]model.Offer{
		"basmati_rice": {
			offer("zepto", "basmati_rice", "Daawat Premium", 5, model.UnitKilogram, 450, "staples"),
			offer("zepto", "basmati_rice", "India Gate Classic", 1, model.UnitKilogram, 120, "staples"),
		},
		"groundnut": {
			offer("zepto", "groundnut", "Nutraj Premium", 1, model.UnitKilogram, 360, "dry_fruits"),
			offer("zepto", "groundnut", "Farm Fresh", 250, model.UnitGram, 100, "dry_fruits"),
		},
		"toor_dal": {
			offer("zepto", "toor_dal", "Tata Sampann", 1, model.UnitKilogram, 185, "pulses"),
		},
		"sugar": {
			offer("zepto", "sugar", "Madhur Pure", 1, model.UnitKilogram, 52, "staples"),
			offer("zepto", "sugar", "Madhur Pure", 5, model.UnitKilogram, 245, "staples"),
		},
	}

	blinkit := map[string][]model.Offer{
		"basmati_rice": {
			offer("blinkit", "basmati_rice", "India Gate Feast", 5, model.UnitKilogram, 475, "staples"),
			offer("blinkit", "basmati_rice", "Fortune Everyday", 1, model.UnitKilogram, 105, "staples"),
		},
		"fabric_conditioner": {
			offer("blinkit", "fabric_conditioner", "Comfort Pure", 2, model.UnitLitre, 280, "household"),
			offer("blinkit", "fabric_conditioner", "Comfort Morning Fresh", 860, model.UnitMillilitre, 135, "household"),
		},
		"groundnut": {
			offer("blinkit", "groundnut", "Tulsi Raw", 500, model.UnitGram, 190, "dry_fruits"),
		},
		"tea": {
			offer("blinkit", "tea", "Red Label", 500, model.UnitGram, 260, "beverages"),
			offer("blinkit", "tea", "Taj Mahal", 250, model.UnitGram, 160, "beverages"),
		},
	}

	swiggy := map[string][]model.Offer{
		"basmati_rice": {
			offer("swiggy_instamart", "basmati_rice", "Daawat Rozana", 1, model.UnitKilogram, 98, "staples"),
		},
		"groundnut": {
			offer("swiggy_instamart", "groundnut", "Vedaka Whole", 500, model.UnitGram, 175, "dry_fruits"),
		},
		"milk": {
			offer("swiggy_instamart", "milk", "Amul Taaza", 1, model.UnitLitre, 54, "dairy"),
			offer("swiggy_instamart", "milk", "Nandini Homogenised", 500, model.UnitMillilitre, 24, "dairy"),
		},
		"sugar": {
			offer("swiggy_instamart", "sugar", "Dhampure Speciality", 1, model.UnitKilogram, 58, "staples"),
		},
	}

	bigbasket := map[string][]model.Offer{
		"basmati_rice": {
			offer("bigbasket", "basmati_rice", "BB Royal Organic", 5, model.UnitKilogram, 520, "staples"),
			offer("bigbasket", "basmati_rice", "BB Royal Organic", 1, model.UnitKilogram, 115, "staples"),
		},
		"fabric_conditioner": {
			offer("bigbasket", "fabric_conditioner", "Softouch Rose", 2, model.UnitLitre, 265, "household"),
		},
		"groundnut": {
			offer("bigbasket", "groundnut", "BB Popular", 1, model.UnitKilogram, 340, "dry_fruits"),
		},
		"tea": {
			offer("bigbasket", "tea", "BB Royal Assam", 500, model.UnitGram, 240, "beverages"),
		},
		"milk": {
			offer("bigbasket", "milk", "Amul Gold", 1, model.UnitLitre, 66, "dairy"),
		},
	}

	return []OfferSource{
		NewCatalogSource("zepto", zepto),
		NewCatalogSource("blinkit", blinkit),
		NewCatalogSource("swiggy_instamart", swiggy),
		NewCatalogSource("bigbasket", bigbasket),
	}
}
