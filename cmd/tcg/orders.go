package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/tcg-ledger/internal/api"
	"github.com/Veraticus/tcg-ledger/internal/cli"
	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/Veraticus/tcg-ledger/internal/mutation"
	"github.com/Veraticus/tcg-ledger/internal/tui"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order", "o"},
		Short:   "List and change purchase orders",
	}

	cmd.AddCommand(ordersListCmd())
	cmd.AddCommand(ordersShowCmd())
	cmd.AddCommand(ordersCreateCmd())
	cmd.AddCommand(ordersUpdateCmd())
	cmd.AddCommand(ordersDeleteCmd())
	cmd.AddCommand(ordersBulkUpdateCmd())
	cmd.AddCommand(ordersBulkDeleteCmd())
	cmd.AddCommand(ordersStoresCmd())
	cmd.AddCommand(ordersExportCmd())
	cmd.AddCommand(ordersImportCmd())

	return cmd
}

func ordersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of orders",
		Long: `List one page of orders matching the given filter.

A filter can be given as flags, as an encoded query (--query), or both; flags
win over the query. --print-query prints the canonical query for the result,
which can be passed to 'tcg browse --query' or saved with 'tcg views save'.`,
		Args: cobra.NoArgs,
		RunE: runOrdersList,
	}
	addFilterFlags(cmd, true)
	cmd.Flags().Bool("print-query", false, "print the encoded filter before the results")
	return cmd
}

func runOrdersList(cmd *cobra.Command, _ []string) error {
	s, err := stateFromFlags(cmd)
	if err != nil {
		return err
	}
	records, err := orderRecords()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if printQuery, _ := cmd.Flags().GetBool("print-query"); printQuery {
		fmt.Fprintln(out, filter.Encode(s))
	}

	res, err := records.List(cmd.Context(), s)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	if len(res.Items) == 0 {
		if s.HasConstraints() {
			fmt.Fprintln(out, cli.InfoStyle.Render("No orders match these filters."))
		} else {
			fmt.Fprintln(out, cli.InfoStyle.Render("No orders yet. Use 'tcg orders create' to add one."))
		}
		return nil
	}

	if err := cli.WriteOrders(out, res.Items); err != nil {
		return err
	}

	start, end := res.Range()
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("%s · page %d of %d",
		tui.ShowingText(start, end, res.Total), res.Page, res.TotalPages())))
	return nil
}

func ordersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := orderRecords()
			if err != nil {
				return err
			}
			o, err := records.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get order: %w", err)
			}
			return cli.WriteOrder(cmd.OutOrStdout(), o)
		},
	}
}

// Order field flag names.
const (
	flagProduct     = "product"
	flagStoreName   = "store"
	flagQty         = "qty"
	flagCost        = "cost"
	flagPaid        = "paid"
	flagSold        = "sold"
	flagOrderStatus = "status"
	flagURL         = "url"
	flagReleaseDate = "release-date"
	flagOrderDate   = "order-date"
	flagNotes       = "notes"
)

func addOrderFlags(f *pflag.FlagSet) {
	f.String(flagProduct, "", "product name")
	f.String(flagStoreName, "", "store name")
	f.Int(flagQty, 1, "quantity")
	f.String(flagCost, "", "cost per item")
	f.String(flagPaid, "", "amount paid")
	f.String(flagSold, "", "sold price")
	f.String(flagOrderStatus, "", "status (Pending, Delivered, Sold)")
	f.String(flagURL, "", "product URL")
	f.String(flagReleaseDate, "", "release date (YYYY-MM-DD)")
	f.String(flagOrderDate, "", "order date (YYYY-MM-DD, default today)")
	f.String(flagNotes, "", "notes")
}

// orderFlags reads the order field flags that were set on the command line.
type orderFlags struct {
	f *pflag.FlagSet
}

func (o orderFlags) str(name string) *string {
	if !o.f.Changed(name) {
		return nil
	}
	v, _ := o.f.GetString(name)
	v = strings.TrimSpace(v)
	return &v
}

func (o orderFlags) money(name string) (*decimal.Decimal, error) {
	v := o.str(name)
	if v == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(*v, "$"))
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("--%s must be an amount like 12.50", name), err)
	}
	return &d, nil
}

func (o orderFlags) date(name string) (*model.Date, error) {
	v := o.str(name)
	if v == nil || *v == "" {
		return nil, nil
	}
	d, err := model.ParseDate(*v)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("--%s must be a date like 2025-01-31", name), err)
	}
	return &d, nil
}

func (o orderFlags) status() (*model.Status, error) {
	v := o.str(flagOrderStatus)
	if v == nil {
		return nil, nil
	}
	s, err := parseStatus(*v)
	if err != nil || s == "" {
		return nil, common.NewUserError("--status must be Pending, Delivered or Sold", common.ErrValidation)
	}
	return &s, nil
}

// update collects every set flag into a partial update.
func (o orderFlags) update() (model.OrderUpdate, error) {
	var u model.OrderUpdate
	var err error

	u.ProductName = o.str(flagProduct)
	u.StoreName = o.str(flagStoreName)
	u.ProductURL = o.str(flagURL)
	u.Notes = o.str(flagNotes)
	if o.f.Changed(flagQty) {
		n, _ := o.f.GetInt(flagQty)
		u.Quantity = &n
	}
	if u.CostPerItem, err = o.money(flagCost); err != nil {
		return u, err
	}
	if u.AmountPaid, err = o.money(flagPaid); err != nil {
		return u, err
	}
	if u.SoldPrice, err = o.money(flagSold); err != nil {
		return u, err
	}
	if u.Status, err = o.status(); err != nil {
		return u, err
	}
	if u.ReleaseDate, err = o.date(flagReleaseDate); err != nil {
		return u, err
	}
	if u.OrderDate, err = o.date(flagOrderDate); err != nil {
		return u, err
	}
	return u, nil
}

// create builds a new order from the flags.
func (o orderFlags) create() (model.OrderCreate, error) {
	u, err := o.update()
	if err != nil {
		return model.OrderCreate{}, err
	}

	c := model.OrderCreate{
		ReleaseDate: u.ReleaseDate,
		OrderDate:   u.OrderDate,
		SoldPrice:   u.SoldPrice,
		ProductURL:  u.ProductURL,
		Notes:       u.Notes,
		Quantity:    1,
	}
	if u.ProductName != nil {
		c.ProductName = *u.ProductName
	}
	if u.StoreName != nil {
		c.StoreName = *u.StoreName
	}
	if u.Quantity != nil {
		c.Quantity = *u.Quantity
	}
	if u.CostPerItem != nil {
		c.CostPerItem = *u.CostPerItem
	}
	if u.AmountPaid != nil {
		c.AmountPaid = *u.AmountPaid
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	return c, nil
}

func ordersCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an order",
		Example: `  tcg orders create --product "Surging Sparks Booster Box" --store "EB Games" \
    --qty 2 --cost 215.00 --paid 100 --release-date 2024-11-08`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := orderFlags{cmd.Flags()}.create()
			if err != nil {
				return err
			}
			records, err := orderRecords()
			if err != nil {
				return err
			}

			created, err := mutation.New(records).Create(cmd.Context(), in)
			if err != nil {
				return describeMutationError("create order", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess("Created order "+created.ID))
			return cli.WriteOrder(out, created)
		},
	}
	addOrderFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired(flagProduct)
	_ = cmd.MarkFlagRequired(flagStoreName)
	_ = cmd.MarkFlagRequired(flagCost)
	return cmd
}

func ordersUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an order",
		Long: `Change fields of an order. Only the flags given are sent; everything
else is left as it is.`,
		Example: `  tcg orders update 7f3c --status Delivered --paid 215`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := orderFlags{cmd.Flags()}.update()
			if err != nil {
				return err
			}
			if u.IsEmpty() {
				return common.NewUserError("Nothing to update: pass at least one field flag", common.ErrNoChanges)
			}

			records, err := orderRecords()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// Validation needs the stored record for cross-field rules.
			current, err := records.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get order: %w", err)
			}

			updated, err := mutation.New(records).Update(ctx, current, u)
			if err != nil {
				return describeMutationError("update order", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess("Updated order "+updated.ID))
			return cli.WriteOrder(out, updated)
		},
	}
	addOrderFlags(cmd.Flags())
	return cmd
}

func ordersDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirm(cmd, fmt.Sprintf("Delete order %s?", args[0]))
			if err != nil || !ok {
				return err
			}

			records, err := orderRecords()
			if err != nil {
				return err
			}
			if err := mutation.New(records).Delete(cmd.Context(), args[0]); err != nil {
				return describeMutationError("delete order", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted order "+args[0]))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func ordersBulkUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bulk-update",
		Short:   "Set status or amount paid on several orders",
		Example: `  tcg orders bulk-update --ids 7f3c,91aa,0b12 --status Sold`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := idsFlag(cmd)
			if err != nil {
				return err
			}
			flags := orderFlags{cmd.Flags()}
			var u model.OrderUpdate
			if u.Status, err = flags.status(); err != nil {
				return err
			}
			if u.AmountPaid, err = flags.money(flagPaid); err != nil {
				return err
			}

			records, err := orderRecords()
			if err != nil {
				return err
			}
			res, err := mutation.New(records).BulkUpdate(cmd.Context(), ids, u)
			if err != nil {
				return describeMutationError("update orders", err)
			}
			writeBulkResult(cmd.OutOrStdout(), res, "Updated")
			return nil
		},
	}
	cmd.Flags().String("ids", "", "comma-separated order ids")
	cmd.Flags().String(flagOrderStatus, "", "status (Pending, Delivered, Sold)")
	cmd.Flags().String(flagPaid, "", "amount paid")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

func ordersBulkDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk-delete",
		Short: "Delete several orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := idsFlag(cmd)
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, fmt.Sprintf("Delete %d orders?", len(ids)))
			if err != nil || !ok {
				return err
			}

			records, err := orderRecords()
			if err != nil {
				return err
			}
			res, err := mutation.New(records).BulkDelete(cmd.Context(), ids)
			if err != nil {
				return describeMutationError("delete orders", err)
			}
			writeBulkResult(cmd.OutOrStdout(), res, "Deleted")
			return nil
		},
	}
	cmd.Flags().String("ids", "", "comma-separated order ids")
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

func ordersStoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List store name suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := orderRecords()
			if err != nil {
				return err
			}
			stores, err := records.Stores(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list stores: %w", err)
			}
			for _, s := range stores {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func idsFlag(cmd *cobra.Command) ([]string, error) {
	raw, _ := cmd.Flags().GetString("ids")
	ids := splitIDs(raw)
	if len(ids) == 0 {
		return nil, common.NewUserError("--ids must list at least one order id", common.ErrNoSelection)
	}
	return ids, nil
}

// confirm asks before a destructive command unless --yes was given.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	ok, err := cli.Confirm(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), question)
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("Cancelled."))
	}
	return ok, nil
}

// describeMutationError turns validation failures into a message that
// lists each field.
func describeMutationError(op string, err error) error {
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		return common.NewUserError("Cannot "+op+": "+verr.Error(), err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func writeBulkResult(w io.Writer, res model.BulkResult, verb string) {
	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("%s %d %s", verb, res.Count, plural(res.Count, api.Orders.Name))
	}
	err := res.Err()
	switch {
	case err == nil:
		fmt.Fprintln(w, cli.FormatSuccess(msg))
	case res.Partial():
		fmt.Fprintln(w, cli.FormatSuccess(msg))
		fmt.Fprintln(w, cli.FormatWarning(err.Error()))
	default:
		// Nothing was changed.
		fmt.Fprintln(w, cli.FormatError(err.Error()))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
