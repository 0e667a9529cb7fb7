// Command lockdownctl talks to a running lockdown service over gRPC.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/delivery/grpcapi"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	serverAddr string
	actor      string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "lockdownctl",
	Short:         "Operate the kitchen lockdown service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show day phase and current lockdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *grpcapi.LockdownClient) (*structpb.Struct, error) {
			return c.GetStatus(ctx)
		})
	},
}

var canServeCmd = &cobra.Command{
	Use:   "can-serve <menu-item-id>",
	Short: "Check whether a menu item may be served",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *grpcapi.LockdownClient) (*structpb.Struct, error) {
			return c.CanServe(ctx, args[0])
		})
	},
}

func init() {
	defaultActor := os.Getenv("LOCKDOWN_ACTOR")
	if defaultActor == "" {
		defaultActor = os.Getenv("USER")
	}

	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s", "localhost:50071", "Lockdown service gRPC address")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor, "Identity recorded on audit entries")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(canServeCmd)
	rootCmd.AddCommand(phaseCmd)
	rootCmd.AddCommand(ccpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type call func(ctx context.Context, c *grpcapi.LockdownClient) (*structpb.Struct, error)

func withClient(cmd *cobra.Command, fn call) error {
	conn, err := grpc.NewClient(serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	out, err := fn(ctx, grpcapi.NewLockdownClient(conn, actor))
	if err != nil {
		return err
	}
	return printStruct(cmd, out)
}

func printStruct(cmd *cobra.Command, s *structpb.Struct) error {
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
