package cart

// AddItemRequest names the product by id or by its product page.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required_without=Page,max=64"`
	Page      string `json:"page" validate:"required_without=ProductID,max=256"`
	Size      string `json:"size" validate:"max=16"`
	Color     string `json:"color" validate:"max=32"`
}

type SetQuantityRequest struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Size      string `json:"size" validate:"max=16"`
	Color     string `json:"color" validate:"max=32"`
	Quantity  int    `json:"quantity" validate:"min=1,max=99"`
}

type RemoveItemRequest struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Size      string `json:"size" validate:"max=16"`
	Color     string `json:"color" validate:"max=32"`
}
