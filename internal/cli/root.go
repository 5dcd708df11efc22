// Package cli implements cartctl, the command-line client of the cart
// service.
package cli

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/cart-sync/internal/adapter/handler/pb"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Addr       string
	Format     string // "json" | "text"
	Timeout    time.Duration
	ConfigFile string

	// Dial opens a client for Addr. Replaced in tests.
	Dial func(addr string) (pb.CartServiceClient, io.Closer, error)
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Dial: dialGRPC})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cartctl",
		Short: "Inspect and change the shopping cart",
		Long:  "cartctl talks to a running cart-sync server over gRPC and seeds its catalog.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", "localhost:8081", "gRPC address of the cart server")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "request timeout")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file (seed only)")

	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

func dialGRPC(addr string) (pb.CartServiceClient, io.Closer, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return pb.NewCartServiceClient(conn), conn, nil
}
