package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tentens-tech/user-service/internal/delivery"
)

func NewRootCommand(newApp delivery.AppFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "user-service",
		Short:        "user-service keeps a shop customer's session and addresses",
		SilenceUsage: true,
	}
	initCommands(rootCmd, newApp)
	return rootCmd
}

func Execute(ctx context.Context) error {
	return NewRootCommand(delivery.DefaultAppFactory).ExecuteContext(ctx)
}

func initCommands(rootCmd *cobra.Command, newApp delivery.AppFactory) {
	rootCmd.AddCommand(
		delivery.NewServe(newApp),
		delivery.NewLogin(newApp),
		delivery.NewLogout(newApp),
		delivery.NewReset(newApp),
		delivery.NewWhoami(newApp),
		delivery.NewAddresses(newApp),
		delivery.NewAddress(newApp),
	)
}
