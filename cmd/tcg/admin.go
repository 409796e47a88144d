package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/api"
	"github.com/Veraticus/tcg-ledger/internal/cli"
	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/filter"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/Veraticus/tcg-ledger/internal/mutation"
	"github.com/Veraticus/tcg-ledger/internal/query"
	"github.com/spf13/cobra"
)

// adminQueries are the cached admin reads plus the coordinator that drops
// them after an account change.
type adminQueries struct {
	stats    *query.Executor[model.AdminStatistics]
	users    *query.Executor[[]model.User]
	accounts *mutation.Accounts
}

// newAdminQueries builds the admin caches. The user list is narrowed by
// base; a state's search text overrides base.Search.
func newAdminQueries(client *api.Client, base model.UserFilter) *adminQueries {
	q := &adminQueries{
		stats: query.NewExecutor("statistics", func(ctx context.Context, _ filter.State) (model.AdminStatistics, error) {
			return client.AdminStatistics(ctx)
		}),
		users: query.NewExecutor("user", func(ctx context.Context, s filter.State) ([]model.User, error) {
			f := base
			if s.Search != "" {
				f.Search = s.Search
			}
			return client.Users(ctx, f)
		}),
	}
	q.accounts = mutation.NewAccounts(client, q.users)
	q.accounts.Register(q.stats)
	return q
}

// findUser resolves an id or an email address. Anything without an @ is
// taken as an id and not looked up.
func (q *adminQueries) findUser(ctx context.Context, ref string) (model.User, error) {
	if !strings.Contains(ref, "@") {
		return model.User{ID: ref}, nil
	}
	users, err := q.users.Fetch(ctx, filter.Default().WithSearch(ref))
	if err != nil {
		return model.User{}, fmt.Errorf("failed to look up %s: %w", ref, err)
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, ref) {
			return u, nil
		}
	}
	return model.User{}, common.NewUserError("No user with email "+ref, common.ErrNotFound)
}

func adminStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show user and order counts across the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			q := newAdminQueries(client, model.UserFilter{})
			s, err := q.stats.Fetch(cmd.Context(), filter.Default())
			if err != nil {
				return fmt.Errorf("failed to get admin statistics: %w", err)
			}
			writeAdminStatistics(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func writeAdminStatistics(w io.Writer, s model.AdminStatistics) {
	body := fmt.Sprintf("Users:          %d (%d active in 7 days, %d in 30 days)\n"+
		"New users:      %d this week, %d this month\n"+
		"Orders:         %d (%.2f per user)\n"+
		"Tiers:          %s\n"+
		"Grandfathered:  %d",
		s.TotalUsers, s.ActiveUsers7d, s.ActiveUsers30d,
		s.NewUsersThisWeek, s.NewUsersThisMonth,
		s.TotalOrders, s.AvgOrdersPerUser,
		tierCounts(s, nil), s.GrandfatheredUsers)
	fmt.Fprintln(w, cli.RenderBox(cli.ChartIcon+" Admin statistics", body))
}

// tierCounts lists users per tier, showing the move from before when given.
func tierCounts(s model.AdminStatistics, before *model.AdminStatistics) string {
	parts := make([]string, 0, len(model.Tiers))
	for _, t := range model.Tiers {
		n := strconv.Itoa(s.TierUsers(t))
		if before != nil && before.TierUsers(t) != s.TierUsers(t) {
			n = strconv.Itoa(before.TierUsers(t)) + " → " + n
		}
		parts = append(parts, string(t)+" "+n)
	}
	return strings.Join(parts, " · ")
}

func adminUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List user accounts",
		Example: `  tcg admin users --tier free --grandfathered=false
  tcg admin users --search @example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := userFilterFromFlags(cmd)
			if err != nil {
				return err
			}
			client, _, err := newClient()
			if err != nil {
				return err
			}
			q := newAdminQueries(client, f)
			users, err := q.users.Fetch(cmd.Context(), filter.Default())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			return writeUsers(cmd.OutOrStdout(), users)
		},
	}
	f := cmd.Flags()
	f.String("search", "", "match part of the email address")
	f.String("tier", "", "only users on this tier (free, basic, pro)")
	f.Bool("grandfathered", false, "only grandfathered users; =false for the rest")
	f.Int("limit", 0, "maximum users to list (server default 100)")
	f.Int("offset", 0, "users to skip")
	return cmd
}

func userFilterFromFlags(cmd *cobra.Command) (model.UserFilter, error) {
	flags := cmd.Flags()
	var f model.UserFilter
	f.Search, _ = flags.GetString("search")
	f.Search = strings.TrimSpace(f.Search)
	if raw, _ := flags.GetString("tier"); raw != "" {
		tier, err := parseTier(raw)
		if err != nil {
			return model.UserFilter{}, err
		}
		f.Tier = tier
	}
	f.Grandfathered = changedBool(flags, "grandfathered")
	f.Limit, _ = flags.GetInt("limit")
	f.Offset, _ = flags.GetInt("offset")
	if f.Limit < 0 || f.Offset < 0 {
		return model.UserFilter{}, common.NewUserError("--limit and --offset cannot be negative", common.ErrValidation)
	}
	return f, nil
}

func parseTier(raw string) (model.Tier, error) {
	tier, err := model.ParseTier(raw)
	if err != nil {
		return "", common.NewUserError(fmt.Sprintf("Unknown tier %q; use free, basic or pro", raw), err)
	}
	return tier, nil
}

func writeUsers(w io.Writer, users []model.User) error {
	if len(users) == 0 {
		fmt.Fprintln(w, cli.InfoStyle.Render("No users match."))
		return nil
	}

	t := cli.NewTable(w)
	if err := t.Header("Email", "Name", "Tier", "Orders", "Grandfathered", "Admin", "Joined", "ID"); err != nil {
		return err
	}
	for _, u := range users {
		joined := "-"
		if !u.CreatedAt.IsZero() {
			joined = u.CreatedAt.Local().Format(time.DateOnly)
		}
		err := t.Row(u.Email, u.Name(), string(u.Tier), strconv.Itoa(u.OrdersCount),
			yesNo(u.IsGrandfathered), yesNo(u.IsAdmin), joined, u.ID)
		if err != nil {
			return fmt.Errorf("failed to write user row: %w", err)
		}
	}
	return t.Flush()
}

func adminSetTierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-tier <user-id|email> <tier>",
		Short: "Move a user to another subscription tier",
		Long: `Manually override a user's tier. This does not touch any billing
subscription the user may have.`,
		Example: `  tcg admin set-tier ash@example.com basic`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := parseTier(args[1])
			if err != nil {
				return err
			}
			client, _, err := newClient()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			q := newAdminQueries(client, model.UserFilter{})

			user, err := q.findUser(ctx, args[0])
			if err != nil {
				return err
			}
			if user.Tier == tier {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s is already on %s", user.Email, tier)))
				return nil
			}

			before, err := q.stats.Fetch(ctx, filter.Default())
			if err != nil {
				return fmt.Errorf("failed to get admin statistics: %w", err)
			}

			updated, err := q.accounts.SetTier(ctx, user.ID, tier)
			if err != nil {
				return fmt.Errorf("failed to change tier: %w", err)
			}
			slog.Info("User tier changed", "user", updated.ID, "tier", updated.Tier)

			moved := fmt.Sprintf("Moved %s to %s", updated.Email, updated.Tier)
			if user.Tier != "" {
				moved = fmt.Sprintf("Moved %s from %s to %s", updated.Email, user.Tier, updated.Tier)
			}
			fmt.Fprintln(out, cli.FormatSuccess(moved))

			after, err := q.stats.Fetch(ctx, filter.Default())
			if err != nil {
				slog.Warn("Failed to refresh admin statistics", "error", err)
				return nil
			}
			fmt.Fprintln(out, "Tiers: "+tierCounts(after, &before))
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
