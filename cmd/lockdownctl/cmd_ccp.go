package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-lockdown-service/internal/delivery/grpcapi"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	reportReason string
	reportMeta   []string
)

var ccpCmd = &cobra.Command{
	Use:   "ccp",
	Short: "Report, resolve and list critical control point failures",
}

var ccpReportCmd = &cobra.Command{
	Use:   "report <menu-item-id>...",
	Short: "Report a CCP failure blocking the given menu items",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, err := parseMetadata(reportMeta)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *grpcapi.LockdownClient) (*structpb.Struct, error) {
			return c.ReportFailure(ctx, args, reportReason, meta)
		})
	},
}

var ccpResolveCmd = &cobra.Command{
	Use:   "resolve <record-id>",
	Short: "Resolve an active CCP failure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *grpcapi.LockdownClient) (*structpb.Struct, error) {
			return c.ResolveFailure(ctx, args[0])
		})
	},
}

var ccpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active CCP failures, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *grpcapi.LockdownClient) (*structpb.Struct, error) {
			return c.ListActiveFailures(ctx)
		})
	},
}

func init() {
	ccpReportCmd.Flags().StringVarP(&reportReason, "reason", "r", "", "Why the control point failed")
	ccpReportCmd.Flags().StringArrayVarP(&reportMeta, "meta", "m", nil, "Extra key=value metadata, repeatable")
	_ = ccpReportCmd.MarkFlagRequired("reason")

	ccpCmd.AddCommand(ccpReportCmd)
	ccpCmd.AddCommand(ccpResolveCmd)
	ccpCmd.AddCommand(ccpListCmd)
}

func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("metadata %q: expected key=value", pair)
		}
		out[k] = v
	}
	return out, nil
}
