package domain

import "time"

type Operation string

const (
	OperationAddItem      Operation = "add_item"
	OperationRemoveItem   Operation = "remove_item"
	OperationUpdateAmount Operation = "update_amount"
)

// Outcome is the terminal state of one cart operation.
type Outcome string

const (
	OutcomeUpdated       Outcome = "updated"
	OutcomeUnchanged     Outcome = "unchanged"
	OutcomeStockExceeded Outcome = "stock_exceeded"
	OutcomeFailed        Outcome = "failed"
)

// Rejected reports whether the outcome should be surfaced to the user.
func (o Outcome) Rejected() bool {
	return o == OutcomeStockExceeded || o == OutcomeFailed
}

// Notification describes a rejected or failed operation. Rendering it
// into text is left to the notifier.
type Notification struct {
	ID        string    `json:"id"`
	Operation Operation `json:"operation"`
	Reason    Outcome   `json:"reason"`
	ProductID int64     `json:"product_id"`
	At        time.Time `json:"at"`
}
