package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/tentens-tech/user-service/internal/application"
	"github.com/tentens-tech/user-service/internal/user"
)

func withApplication(cmd *cobra.Command, newApp AppFactory, run func(ctx context.Context, app *application.Application) error) error {
	ctx := cmd.Context()
	app, err := newApp(ctx)
	if err != nil {
		return errors.Annotate(err, "failed to create application")
	}
	defer app.Close()

	return run(ctx, app)
}

func printJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func NewLogin(newApp AppFactory) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the shop and keep the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd, newApp, func(ctx context.Context, app *application.Application) error {
				session, err := app.Users.Login(ctx, username, password)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %v\n", session.Customer.Email)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "shop user name")
	cmd.Flags().StringVar(&password, "password", "", "shop password")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func NewLogout(newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd, newApp, func(ctx context.Context, app *application.Application) error {
				if err := app.Users.Logout(ctx); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return err
			})
		},
	}
}

func NewReset(newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop the session and every stored address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd, newApp, func(ctx context.Context, app *application.Application) error {
				if err := app.Users.Reset(ctx); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Storage cleared")
				return err
			})
		},
	}
}

func NewWhoami(newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the email address of the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd, newApp, func(ctx context.Context, app *application.Application) error {
				email, err := app.Users.Email(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), email)
				return err
			})
		},
	}
}

func NewAddresses(newApp AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "addresses",
		Short: "Print the addresses of the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApplication(cmd, newApp, func(ctx context.Context, app *application.Application) error {
				addresses, err := app.Users.Addresses(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, addresses)
			})
		},
	}
}

func NewAddress(newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Read or replace the stored invoice and shipping addresses",
	}
	cmd.AddCommand(newAddressGet(newApp), newAddressSet(newApp))
	return cmd
}

var addressKinds = []string{application.AddressInvoice, application.AddressShipping}

func newAddressGet(newApp AppFactory) *cobra.Command {
	var maxAge string

	cmd := &cobra.Command{
		Use:       "get invoice|shipping",
		Short:     "Print a stored address",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: addressKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			age, err := application.ParseMaxAge(maxAge)
			if err != nil {
				return err
			}

			return withApplication(cmd, newApp, func(ctx context.Context, app *application.Application) error {
				var address user.Address
				if args[0] == application.AddressInvoice {
					address, err = app.Users.InvoiceAddress(ctx, age)
				} else {
					address, err = app.Users.ShippingAddress(ctx, age)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd, address)
			})
		},
	}

	cmd.Flags().StringVar(&maxAge, "max-age", "", "maximum age in minutes, unlimited when empty")

	return cmd
}

func newAddressSet(newApp AppFactory) *cobra.Command {
	var country, raw string

	cmd := &cobra.Command{
		Use:       "set invoice|shipping",
		Short:     "Replace a stored address",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: addressKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			address := user.NewAddress(country)
			if raw != "" {
				address = nil
				if err := json.Unmarshal([]byte(raw), &address); err != nil {
					return errors.NotValidf("address JSON")
				}
			}

			return withApplication(cmd, newApp, func(ctx context.Context, app *application.Application) error {
				if args[0] == application.AddressInvoice {
					return app.Users.UpdateInvoiceAddress(ctx, address)
				}
				return app.Users.UpdateShippingAddress(ctx, address)
			})
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "country of the new address")
	cmd.Flags().StringVar(&raw, "json", "", "the full address as a JSON object")
	cmd.MarkFlagsMutuallyExclusive("country", "json")
	cmd.MarkFlagsOneRequired("country", "json")

	return cmd
}
