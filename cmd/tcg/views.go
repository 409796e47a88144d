package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/tcg-ledger/internal/api"
	"github.com/Veraticus/tcg-ledger/internal/cli"
	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/spf13/cobra"
)

func viewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Manage saved order views",
		Long: `Saved views are named filters. Open one with 'tcg browse --view <name>'.
The dashboard also remembers the last filter you used and opens with it.`,
	}

	cmd.AddCommand(viewsSaveCmd())
	cmd.AddCommand(viewsListCmd())
	cmd.AddCommand(viewsDeleteCmd())

	return cmd
}

func viewsSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "save <name>",
		Short:   "Save a filter under a name",
		Example: `  tcg views save "Owing at EB" --store "EB Games" --owing`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := stateFromFlags(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			v, err := store.SaveView(ctx, api.Orders.Name, args[0], s)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved view %q: %s", v.Name, describeQuery(v.Query))))
			return nil
		},
	}
	addFilterFlags(cmd, true)
	return cmd
}

func viewsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			views, err := store.ListViews(ctx, api.Orders.Name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No saved views. Use 'tcg views save <name>' to create one."))
				return nil
			}

			t := cli.NewTable(out)
			if err := t.Header("Name", "Filter", "Updated"); err != nil {
				return err
			}
			for _, v := range views {
				if err := t.Row(v.Name, describeQuery(v.Query), v.UpdatedAt.Local().Format("2006-01-02 15:04")); err != nil {
					return fmt.Errorf("failed to write view row: %w", err)
				}
			}
			return t.Flush()
		},
	}
}

func viewsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			if err := store.DeleteView(ctx, api.Orders.Name, args[0]); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("No saved view named %q", args[0]), err)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted view "+args[0]))
			return nil
		},
	}
}

// describeQuery shows the constraints of an encoded filter, or "all orders".
func describeQuery(raw string) string {
	if q := filter.ConstraintValues(filter.Decode(raw)).Encode(); q != "" {
		return q
	}
	return "all orders"
}
