package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Categories is the fixed product taxonomy.
var Categories = []string{
	"Religious",
	"Figurines",
	"Sets",
	"Royal",
	"Performing Arts",
	"Toys",
	"Instruments",
	"Rural Life",
	"Animals",
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type Artisan struct {
	Name       string `json:"name,omitempty" bson:"name,omitempty"`
	Experience string `json:"experience,omitempty" bson:"experience,omitempty"`
	Specialty  string `json:"specialty,omitempty" bson:"specialty,omitempty"`
}

type Dimensions struct {
	Length float64 `json:"length,omitempty" bson:"length,omitempty"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`
}

type ShippingInfo struct {
	Weight     float64 `json:"weight,omitempty" bson:"weight,omitempty"`
	Dimensions string  `json:"dimensions,omitempty" bson:"dimensions,omitempty"`
	Fragile    *bool   `json:"fragile,omitempty" bson:"fragile,omitempty"`
}

type Product struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title            string             `json:"title" bson:"title"`
	Description      string             `json:"description" bson:"description"`
	OriginalPrice    float64            `json:"originalPrice" bson:"originalPrice"`
	SalePrice        float64            `json:"salePrice" bson:"salePrice"`
	Discount         float64            `json:"discount" bson:"discount"`
	Images           []string           `json:"images" bson:"images"`
	Category         string             `json:"category" bson:"category"`
	Rating           float64            `json:"rating" bson:"rating"`
	Reviews          int                `json:"reviews" bson:"reviews"`
	Stock            int                `json:"stock" bson:"stock"`
	IsFlashSale      bool               `json:"isFlashSale" bson:"isFlashSale"`
	IsFeatured       bool               `json:"isFeatured" bson:"isFeatured"`
	Artisan          *Artisan           `json:"artisan,omitempty" bson:"artisan,omitempty"`
	Dimensions       *Dimensions        `json:"dimensions,omitempty" bson:"dimensions,omitempty"`
	Weight           float64            `json:"weight,omitempty" bson:"weight,omitempty"`
	Materials        []string           `json:"materials,omitempty" bson:"materials,omitempty"`
	CareInstructions string             `json:"careInstructions,omitempty" bson:"careInstructions,omitempty"`
	ShippingInfo     *ShippingInfo      `json:"shippingInfo,omitempty" bson:"shippingInfo,omitempty"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// FirstImage returns the cover image or "" when there is none.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceLow  ProductSort = "price-low"
	SortPriceHigh ProductSort = "price-high"
	SortRating    ProductSort = "rating"
	SortFeatured  ProductSort = "featured"
)

type ProductFilter struct {
	Category  string
	Search    string
	MinPrice  *float64
	MaxPrice  *float64
	Featured  bool
	FlashSale bool
	IDs       []primitive.ObjectID
	Sort      ProductSort
}

// CategoryCount is one row of the categories listing.
type CategoryCount struct {
	Name  string `json:"name" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}
