package main

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
)

var rolloverDate string

var phaseCmd = &cobra.Command{
	Use:   "phase",
	Short: "Move the business day through its phases",
}

var phaseSetCmd = &cobra.Command{
	Use:   "set <phase>",
	Short: "Advance to the next phase (OPENING, OPEN, CLOSING, CLOSED)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *grpcapi.LockdownClient) (*structpb.Struct, error) {
			return c.TransitionPhase(ctx, args[0])
		})
	},
}

var phaseRolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Start a new business day in NOT_STARTED",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date := rolloverDate
		if date == "" {
			date = domain.BusinessDate(time.Now(), time.Local)
		}
		return withClient(cmd, func(ctx context.Context, c *grpcapi.LockdownClient) (*structpb.Struct, error) {
			return c.Rollover(ctx, date)
		})
	},
}

func init() {
	phaseRolloverCmd.Flags().StringVar(&rolloverDate, "date", "", "Business date YYYY-MM-DD (default: today, local time)")

	phaseCmd.AddCommand(phaseSetCmd)
	phaseCmd.AddCommand(phaseRolloverCmd)
}
