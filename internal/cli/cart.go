package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rl1809/cart-sync/internal/adapter/handler/pb"
)

// ErrRejected is returned when the server refused a cart change.
var ErrRejected = errors.New("operation rejected")

func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c pb.CartServiceClient) error {
				resp, err := c.GetCart(ctx, &pb.GetCartRequest{})
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSONOut(cmd.OutOrStdout(), resp)
				}
				writeLines(cmd.OutOrStdout(), resp.GetItems())
				fmt.Fprintf(cmd.OutOrStdout(), "total: %d\n", resp.TotalAmount)
				return nil
			})
		},
	}
}

func NewAddCommand(opts *RootOptions) *cobra.Command {
	var requestID string
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd, opts, func(ctx context.Context, c pb.CartServiceClient) error {
				resp, err := c.AddItem(ctx, &pb.AddItemRequest{RequestId: requestID, ProductId: productID})
				return printMutation(cmd, opts, resp, err)
			})
		},
	}
	cmd.Flags().StringVar(&requestID, "request-id", "", "idempotency key")
	return cmd
}

func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	var requestID string
	cmd := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd, opts, func(ctx context.Context, c pb.CartServiceClient) error {
				resp, err := c.RemoveItem(ctx, &pb.RemoveItemRequest{RequestId: requestID, ProductId: productID})
				return printMutation(cmd, opts, resp, err)
			})
		},
	}
	cmd.Flags().StringVar(&requestID, "request-id", "", "idempotency key")
	return cmd
}

func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	var (
		requestID string
		delta     int64
	)
	cmd := &cobra.Command{
		Use:   "update <product-id> --delta <n>",
		Short: "Change the amount of a product already in the cart",
		Example: `  cartctl update 3 --delta 1
  cartctl update 3 --delta=-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd, opts, func(ctx context.Context, c pb.CartServiceClient) error {
				resp, err := c.UpdateAmount(ctx, &pb.UpdateAmountRequest{RequestId: requestID, ProductId: productID, Delta: delta})
				return printMutation(cmd, opts, resp, err)
			})
		},
	}
	cmd.Flags().StringVar(&requestID, "request-id", "", "idempotency key")
	cmd.Flags().Int64Var(&delta, "delta", 1, "amount to add (negative to decrease)")
	return cmd
}

func withClient(cmd *cobra.Command, opts *RootOptions, fn func(context.Context, pb.CartServiceClient) error) error {
	client, closer, err := opts.Dial(opts.Addr)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()
	return fn(ctx, client)
}

func printMutation(cmd *cobra.Command, opts *RootOptions, resp *pb.MutationResponse, err error) error {
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		if err := writeJSONOut(out, resp); err != nil {
			return err
		}
	} else {
		if resp.GetOutcome() != "" {
			fmt.Fprintf(out, "outcome: %s\n", resp.GetOutcome())
		}
		if resp.GetMessage() != "" {
			fmt.Fprintf(out, "message: %s\n", resp.GetMessage())
		}
		writeLines(out, resp.GetItems())
	}

	if !resp.GetSuccess() {
		return fmt.Errorf("%w: %s", ErrRejected, resp.GetMessage())
	}
	return nil
}

func writeLines(w io.Writer, items []*pb.CartLine) {
	if len(items) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	for _, line := range items {
		fmt.Fprintf(w, "%6d  %-40s x%-3d %10.2f\n", line.Id, line.Title, line.Amount, line.Price)
	}
}

func writeJSONOut(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseProductID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}
