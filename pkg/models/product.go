package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Price     float64            `json:"price" bson:"price"`
	Image     string             `json:"image" bson:"image"`
	Category  string             `json:"category" bson:"category"`
	Stock     int                `json:"stock" bson:"stock"`
	Premium   bool               `json:"premium" bson:"premium"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

// InStock reports whether at least qty units are available.
func (p *Product) InStock(qty int) bool {
	return p.Stock >= qty
}

// ProductInput is the payload for creating a product.
type ProductInput struct {
	Name     string  `json:"name" binding:"required,min=3"`
	Price    float64 `json:"price" binding:"required,gt=0"`
	Image    string  `json:"image" binding:"required"`
	Category string  `json:"category" binding:"required"`
	Stock    int     `json:"stock" binding:"min=0"`
	Premium  bool    `json:"premium"`
}

func (in *ProductInput) Product() *Product {
	return &Product{
		Name:     in.Name,
		Price:    in.Price,
		Image:    in.Image,
		Category: in.Category,
		Stock:    in.Stock,
		Premium:  in.Premium,
	}
}

// ProductPatch enumerates the mutable product fields. Nil means unchanged.
type ProductPatch struct {
	Name     *string  `json:"name,omitempty" binding:"omitempty,min=3"`
	Price    *float64 `json:"price,omitempty" binding:"omitempty,gt=0"`
	Image    *string  `json:"image,omitempty" binding:"omitempty,min=1"`
	Category *string  `json:"category,omitempty" binding:"omitempty,min=1"`
	Stock    *int     `json:"stock,omitempty" binding:"omitempty,min=0"`
	Premium  *bool    `json:"premium,omitempty"`
}

func (p *ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Image == nil &&
		p.Category == nil && p.Stock == nil && p.Premium == nil
}

func (p *ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Image != nil {
		product.Image = *p.Image
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.Premium != nil {
		product.Premium = *p.Premium
	}
}
