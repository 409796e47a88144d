package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/cli"
	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notify"},
		Short:   "Show or change reminder and digest settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show notification preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			prefs, err := client.NotificationPreferences(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get notification preferences: %w", err)
			}
			writeNotificationPreferences(cmd.OutOrStdout(), prefs)
			return nil
		},
	})

	set := &cobra.Command{
		Use:     "set",
		Short:   "Change notification preferences",
		Example: `  tcg notifications set --release-reminders --release-days 3`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := notificationUpdate(cmd.Flags())
			if u == (model.NotificationPreferencesUpdate{}) {
				return common.NewUserError("Nothing to change; pass at least one setting flag", common.ErrValidation)
			}
			client, _, err := newClient()
			if err != nil {
				return err
			}
			prefs, err := client.UpdateNotificationPreferences(cmd.Context(), u)
			if err != nil {
				return settingsError("notification preferences", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Notification preferences updated"))
			writeNotificationPreferences(cmd.OutOrStdout(), prefs)
			return nil
		},
	}
	f := set.Flags()
	f.Bool("release-reminders", false, "remind me before release dates")
	f.Int("release-days", 0, "days before release to remind (1-30)")
	f.Bool("payment-reminders", false, "remind me about amounts owing")
	f.Int("payment-threshold", 0, "only remind when owing at least this much")
	f.Bool("weekly-digest", false, "send a weekly digest")
	f.Bool("monthly-digest", false, "send a monthly digest")
	cmd.AddCommand(set)

	return cmd
}

// notificationUpdate reads the flags the user actually set.
func notificationUpdate(f *pflag.FlagSet) model.NotificationPreferencesUpdate {
	return model.NotificationPreferencesUpdate{
		ReleaseRemindersEnabled: changedBool(f, "release-reminders"),
		ReleaseReminderDays:     changedInt(f, "release-days"),
		PaymentRemindersEnabled: changedBool(f, "payment-reminders"),
		PaymentThreshold:        changedInt(f, "payment-threshold"),
		WeeklyDigestEnabled:     changedBool(f, "weekly-digest"),
		MonthlyDigestEnabled:    changedBool(f, "monthly-digest"),
	}
}

func writeNotificationPreferences(w io.Writer, p model.NotificationPreferences) {
	body := fmt.Sprintf("Release reminders: %s (%d days before)\n"+
		"Payment reminders: %s (threshold %d)\n"+
		"Weekly digest:     %s\nMonthly digest:    %s",
		onOff(p.ReleaseRemindersEnabled), p.ReleaseReminderDays,
		onOff(p.PaymentRemindersEnabled), p.PaymentThreshold,
		onOff(p.WeeklyDigestEnabled), onOff(p.MonthlyDigestEnabled))
	fmt.Fprintln(w, cli.RenderBox("Notifications", body))
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer users and global settings",
		Long:  `Commands for administrators. Other accounts are refused by the server.`,
	}

	settings := &cobra.Command{
		Use:   "settings",
		Short: "Show or change system settings",
	}

	settings.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show system settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			s, err := client.SystemSettings(cmd.Context())
			if err != nil {
				return settingsError("system settings", err)
			}
			writeSystemSettings(cmd.OutOrStdout(), s)
			return nil
		},
	})

	set := &cobra.Command{
		Use:   "set",
		Short: "Change system settings",
		Example: `  tcg admin settings set --maintenance --message "Back at 10pm"
  tcg admin settings set --maintenance=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := systemSettingsUpdate(cmd.Flags())
			if u == (model.SystemSettingsUpdate{}) {
				return common.NewUserError("Nothing to change; pass at least one setting flag", common.ErrValidation)
			}
			client, _, err := newClient()
			if err != nil {
				return err
			}
			s, err := client.UpdateSystemSettings(cmd.Context(), u)
			if err != nil {
				return settingsError("system settings", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("System settings updated"))
			writeSystemSettings(cmd.OutOrStdout(), s)
			return nil
		},
	}
	f := set.Flags()
	f.Bool("maintenance", false, "turn maintenance mode on or off")
	f.String("message", "", "message shown while in maintenance")
	f.Bool("subscriptions", false, "enable subscriptions")
	f.Int("free-limit", 0, "order limit for the free tier")
	f.Int("basic-limit", 0, "order limit for the basic tier")
	settings.AddCommand(set)

	cmd.AddCommand(settings, adminStatsCmd(), adminUsersCmd(), adminSetTierCmd())
	return cmd
}

func systemSettingsUpdate(f *pflag.FlagSet) model.SystemSettingsUpdate {
	u := model.SystemSettingsUpdate{
		MaintenanceMode:      changedBool(f, "maintenance"),
		SubscriptionsEnabled: changedBool(f, "subscriptions"),
		FreeTierLimit:        changedInt(f, "free-limit"),
		BasicTierLimit:       changedInt(f, "basic-limit"),
	}
	if f.Changed("message") {
		msg, _ := f.GetString("message")
		u.MaintenanceMessage = &msg
	}
	return u
}

func writeSystemSettings(w io.Writer, s model.SystemSettings) {
	limit := func(n *int) string {
		if n == nil {
			return "unlimited"
		}
		return strconv.Itoa(*n)
	}
	maintenance := onOff(s.MaintenanceMode)
	if s.MaintenanceMode && s.MaintenanceMessage != nil && *s.MaintenanceMessage != "" {
		maintenance += ": " + *s.MaintenanceMessage
	}
	grandfather := "-"
	if s.GrandfatherDate != nil {
		grandfather = s.GrandfatherDate.Format(time.DateOnly)
	}
	body := fmt.Sprintf("Maintenance:    %s\nSubscriptions:  %s\n"+
		"Free tier:      %s\nBasic tier:     %s\nGrandfathered:  %s",
		maintenance, onOff(s.SubscriptionsEnabled), limit(s.FreeTierLimit), limit(s.BasicTierLimit), grandfather)
	fmt.Fprintln(w, cli.RenderBox("System settings", body))
}

func maintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Maintenance mode helpers",
	}

	wait := &cobra.Command{
		Use:   "wait",
		Short: "Wait until the service leaves maintenance mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, cfg, err := newClient()
			if err != nil {
				return err
			}
			interval := cfg.PollInterval
			if cmd.Flags().Changed("interval") {
				interval, _ = cmd.Flags().GetDuration("interval")
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "Wait", "")

			out := cmd.OutOrStdout()
			err = client.WaitForService(ctx, interval, func(msg string) {
				line := "Service is under maintenance"
				if msg != "" {
					line += ": " + msg
				}
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s (checking again in %s)", line, interval)))
			})
			if err != nil {
				if handler.WasInterrupted() {
					return nil
				}
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess("Service is available"))
			return nil
		},
	}
	wait.Flags().Duration("interval", 0, "time between checks (default maintenance.poll_interval)")
	cmd.AddCommand(wait)

	return cmd
}

// settingsError turns a client-side validation failure into a message.
func settingsError(what string, err error) error {
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		return common.NewUserError("Cannot update "+what+": "+verr.Error(), err)
	}
	return fmt.Errorf("failed to load or update %s: %w", what, err)
}

func changedBool(f *pflag.FlagSet, name string) *bool {
	if !f.Changed(name) {
		return nil
	}
	v, _ := f.GetBool(name)
	return &v
}

func changedInt(f *pflag.FlagSet, name string) *int {
	if !f.Changed(name) {
		return nil
	}
	v, _ := f.GetInt(name)
	return &v
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
