package catalog

import (
	"errors"
	"time"
)

// Product is a sellable catalog item. Price is in minor units (cents); no
// floats.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion,omitempty"`
	Brand       string    `json:"marca,omitempty"`
	Price       int64     `json:"precio"`
	Stock       int       `json:"stock"`
	CategoryID  int64     `json:"categoriaId,omitempty"`
	ImageURL    string    `json:"imagenUrl,omitempty"`
	CreatedAt   time.Time `json:"fechaCreacion,omitempty"`
}

// Category groups products.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion,omitempty"`
	CreatedAt   time.Time `json:"fechaCreacion,omitempty"`
}

// Filter narrows product listings. Zero values mean "no constraint".
type Filter struct {
	Query      string
	CategoryID int64
	MinPrice   int64
	MaxPrice   int64
	Limit      int
	Offset     int
}

var (
	ErrNotFound     = errors.New("catalog: not found")
	ErrInvalidInput = errors.New("catalog: invalid input")
)

func validateProduct(p *Product) error {
	if p.Name == "" {
		return ErrInvalidInput
	}
	if p.Price < 0 || p.Stock < 0 {
		return ErrInvalidInput
	}
	return nil
}
