// Package pb holds the wire messages and service descriptor of
// cart.v1.CartService, as described in api/cart/v1/cart.proto. Messages
// are carried with the JSON codec.
package pb

type CartLine struct {
	Id     int64   `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Image  string  `json:"image"`
	Amount int64   `json:"amount"`
}

type GetCartRequest struct{}

type GetCartResponse struct {
	Items       []*CartLine `json:"items"`
	TotalAmount int64       `json:"total_amount"`
}

func (x *GetCartResponse) GetItems() []*CartLine {
	if x != nil {
		return x.Items
	}
	return nil
}

type AddItemRequest struct {
	RequestId string `json:"request_id,omitempty"`
	ProductId int64  `json:"product_id"`
}

func (x *AddItemRequest) GetRequestId() string {
	if x != nil {
		return x.RequestId
	}
	return ""
}

func (x *AddItemRequest) GetProductId() int64 {
	if x != nil {
		return x.ProductId
	}
	return 0
}

type RemoveItemRequest struct {
	RequestId string `json:"request_id,omitempty"`
	ProductId int64  `json:"product_id"`
}

func (x *RemoveItemRequest) GetRequestId() string {
	if x != nil {
		return x.RequestId
	}
	return ""
}

func (x *RemoveItemRequest) GetProductId() int64 {
	if x != nil {
		return x.ProductId
	}
	return 0
}

type UpdateAmountRequest struct {
	RequestId string `json:"request_id,omitempty"`
	ProductId int64  `json:"product_id"`
	Delta     int64  `json:"delta"`
}

func (x *UpdateAmountRequest) GetRequestId() string {
	if x != nil {
		return x.RequestId
	}
	return ""
}

func (x *UpdateAmountRequest) GetProductId() int64 {
	if x != nil {
		return x.ProductId
	}
	return 0
}

func (x *UpdateAmountRequest) GetDelta() int64 {
	if x != nil {
		return x.Delta
	}
	return 0
}

// MutationResponse reports the outcome of a cart operation together with
// the cart as it stands afterwards.
type MutationResponse struct {
	Success bool        `json:"success"`
	Outcome string      `json:"outcome"`
	Message string      `json:"message,omitempty"`
	Items   []*CartLine `json:"items"`
}

func (x *MutationResponse) GetSuccess() bool {
	if x != nil {
		return x.Success
	}
	return false
}

func (x *MutationResponse) GetOutcome() string {
	if x != nil {
		return x.Outcome
	}
	return ""
}

func (x *MutationResponse) GetMessage() string {
	if x != nil {
		return x.Message
	}
	return ""
}

func (x *MutationResponse) GetItems() []*CartLine {
	if x != nil {
		return x.Items
	}
	return nil
}
