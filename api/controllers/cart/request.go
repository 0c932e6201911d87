package cart

import cartsvc "github.com/harvestconnect/harvestcart/internal/cart"

// AddItemRequest is the body of POST /api/v1/cart/items. The max/lte bounds
// mirror cartsvc.MaxInputQuantity and cartsvc.MaxInputPrice.
type AddItemRequest struct {
	ID       int64    `json:"id" validate:"required,min=1"`
	Title    string   `json:"title" validate:"required"`
	Price    *float64 `json:"price" validate:"required,gte=0,lte=1000000"`
	Quantity int      `json:"quantity" validate:"required,min=1,max=10000"`
	Image    string   `json:"image" validate:"omitempty,url"`
}

func (r AddItemRequest) toLineItem() cartsvc.LineItem {
	item := cartsvc.LineItem{
		ID:       r.ID,
		Title:    r.Title,
		Quantity: r.Quantity,
		Image:    r.Image,
	}
	if r.Price != nil {
		item.Price = *r.Price
	}
	return item
}

// UpdateQuantityRequest is the body of PATCH /api/v1/cart/items/{id}. Zero or
// a negative quantity removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=10000"`
}
