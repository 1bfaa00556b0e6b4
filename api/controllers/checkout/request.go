package checkout

type PinRequest struct {
	PinCode string `json:"pincode" validate:"required,max=16"`
}
