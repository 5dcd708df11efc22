// Package notify delivers rejected cart operations to the user.
package notify

import "github.com/rl1809/cart-sync/internal/core/domain"

const (
	MsgAddFailed     = "Erro na adição do produto"
	MsgRemoveFailed  = "Erro na remoção do produto"
	MsgUpdateFailed  = "Erro na alteração de quantidade do produto"
	MsgStockExceeded = "Quantidade solicitada fora de estoque"
)

// Message returns the user-facing text for a rejected operation, or ""
// when the outcome is not a rejection.
func Message(op domain.Operation, outcome domain.Outcome) string {
	switch outcome {
	case domain.OutcomeStockExceeded:
		return MsgStockExceeded
	case domain.OutcomeFailed:
		switch op {
		case domain.OperationAddItem:
			return MsgAddFailed
		case domain.OperationRemoveItem:
			return MsgRemoveFailed
		case domain.OperationUpdateAmount:
			return MsgUpdateFailed
		}
	}
	return ""
}
