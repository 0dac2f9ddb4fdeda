package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CartLine is one entry of a browser cart submitted for checking.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartLineCheck reports how a cart line compares with live stock and price.
type CartLineCheck struct {
	ProductID primitive.ObjectID `json:"productId"`
	Title     string             `json:"title,omitempty"`
	Image     string             `json:"image,omitempty"`
	Price     float64            `json:"price"`
	Requested int                `json:"requested"`
	Available int                `json:"available"`
	OK        bool               `json:"ok"`
	Reason    string             `json:"reason,omitempty"`
}

type CartCheck struct {
	Items        []CartLineCheck `json:"items"`
	Subtotal     float64         `json:"subtotal"`
	ShippingCost float64         `json:"shippingCost"`
	Total        float64         `json:"total"`
	Valid        bool            `json:"valid"`
}
