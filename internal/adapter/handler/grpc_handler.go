package handler

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/cart-sync/internal/adapter/handler/pb"
	"github.com/rl1809/cart-sync/internal/adapter/notify"
	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/core/service"
	"github.com/rl1809/cart-sync/internal/port"
)

var errDuplicateRequest = errors.New("duplicate request")

type GRPCHandler struct {
	pb.UnimplementedCartServiceServer
	cartService *service.CartService
	idempotency port.IdempotencyRepository
}

// NewGRPCHandler builds the gRPC surface. idempotency may be nil.
func NewGRPCHandler(cartService *service.CartService, idempotency port.IdempotencyRepository) *GRPCHandler {
	return &GRPCHandler{cartService: cartService, idempotency: idempotency}
}

func (h *GRPCHandler) GetCart(ctx context.Context, req *pb.GetCartRequest) (*pb.GetCartResponse, error) {
	cart := h.cartService.Cart()
	return &pb.GetCartResponse{
		Items:       toPBLines(cart),
		TotalAmount: int64(cart.TotalAmount()),
	}, nil
}

func (h *GRPCHandler) AddItem(ctx context.Context, req *pb.AddItemRequest) (*pb.MutationResponse, error) {
	if err := h.claim(ctx, req.GetRequestId()); err != nil {
		return h.claimFailed(err)
	}

	outcome, _ := h.cartService.AddItem(ctx, req.GetProductId())
	h.release(ctx, req.GetRequestId(), outcome)
	return h.mutationResponse(domain.OperationAddItem, outcome), nil
}

func (h *GRPCHandler) RemoveItem(ctx context.Context, req *pb.RemoveItemRequest) (*pb.MutationResponse, error) {
	if err := h.claim(ctx, req.GetRequestId()); err != nil {
		return h.claimFailed(err)
	}

	outcome, _ := h.cartService.RemoveItem(ctx, req.GetProductId())
	h.release(ctx, req.GetRequestId(), outcome)
	return h.mutationResponse(domain.OperationRemoveItem, outcome), nil
}

func (h *GRPCHandler) UpdateAmount(ctx context.Context, req *pb.UpdateAmountRequest) (*pb.MutationResponse, error) {
	if err := h.claim(ctx, req.GetRequestId()); err != nil {
		return h.claimFailed(err)
	}

	outcome, _ := h.cartService.UpdateAmount(ctx, req.GetProductId(), int(req.GetDelta()))
	h.release(ctx, req.GetRequestId(), outcome)
	return h.mutationResponse(domain.OperationUpdateAmount, outcome), nil
}

func (h *GRPCHandler) claim(ctx context.Context, requestID string) error {
	if requestID == "" || h.idempotency == nil {
		return nil
	}

	ok, err := h.idempotency.SetIdempotency(ctx, requestID)
	if err != nil {
		return err
	}
	if !ok {
		return errDuplicateRequest
	}
	return nil
}

// release frees the request id of a failed operation so the same request
// can be retried.
func (h *GRPCHandler) release(ctx context.Context, requestID string, outcome domain.Outcome) {
	if requestID == "" || h.idempotency == nil || outcome != domain.OutcomeFailed {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := h.idempotency.ReleaseIdempotency(ctx, requestID); err != nil {
		slog.WarnContext(ctx, "release idempotency key", slog.String("request_id", requestID), slog.Any("err", err))
	}
}

func (h *GRPCHandler) claimFailed(err error) (*pb.MutationResponse, error) {
	if errors.Is(err, errDuplicateRequest) {
		return &pb.MutationResponse{
			Success: false,
			Message: "duplicate request",
			Items:   toPBLines(h.cartService.Cart()),
		}, nil
	}
	return nil, status.Error(codes.Unavailable, "idempotency store unavailable")
}

func (h *GRPCHandler) mutationResponse(op domain.Operation, outcome domain.Outcome) *pb.MutationResponse {
	return &pb.MutationResponse{
		Success: !outcome.Rejected(),
		Outcome: string(outcome),
		Message: notify.Message(op, outcome),
		Items:   toPBLines(h.cartService.Cart()),
	}
}

func toPBLines(cart domain.Cart) []*pb.CartLine {
	out := make([]*pb.CartLine, 0, len(cart))
	for _, line := range cart {
		out = append(out, &pb.CartLine{
			Id:     line.ID,
			Title:  line.Title,
			Price:  line.Price,
			Image:  line.Image,
			Amount: int64(line.Amount),
		})
	}
	return out
}
