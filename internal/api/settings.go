package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/tcg-ledger/internal/common"
	"github.com/Veraticus/tcg-ledger/internal/model"
)

const (
	notificationPrefsPath = "/api/v1/notifications/preferences"
	adminSettingsPath     = "/api/v1/admin/settings"
)

// NotificationPreferences fetches the user's reminder settings.
func (c *Client) NotificationPreferences(ctx context.Context) (model.NotificationPreferences, error) {
	var out model.NotificationPreferences
	err := c.do(ctx, request{method: http.MethodGet, path: notificationPrefsPath, op: "get notification preferences"}, &out)
	return out, err
}

// UpdateNotificationPreferences validates and saves a partial change.
func (c *Client) UpdateNotificationPreferences(ctx context.Context, u model.NotificationPreferencesUpdate) (model.NotificationPreferences, error) {
	if err := model.Validate(u); err != nil {
		return model.NotificationPreferences{}, err
	}
	req, err := jsonRequest(http.MethodPut, notificationPrefsPath, "update notification preferences", u)
	if err != nil {
		return model.NotificationPreferences{}, err
	}
	var out model.NotificationPreferences
	err = c.do(ctx, req, &out)
	return out, err
}

// SystemSettings fetches the global admin settings.
func (c *Client) SystemSettings(ctx context.Context) (model.SystemSettings, error) {
	var out model.SystemSettings
	err := c.do(ctx, request{method: http.MethodGet, path: adminSettingsPath, op: "get system settings"}, &out)
	return out, err
}

// UpdateSystemSettings saves a partial change to the global settings.
func (c *Client) UpdateSystemSettings(ctx context.Context, u model.SystemSettingsUpdate) (model.SystemSettings, error) {
	if err := model.Validate(u); err != nil {
		return model.SystemSettings{}, err
	}
	req, err := jsonRequest(http.MethodPut, adminSettingsPath, "update system settings", u)
	if err != nil {
		return model.SystemSettings{}, err
	}
	var out model.SystemSettings
	err = c.do(ctx, req, &out)
	return out, err
}

// DefaultMaintenancePollInterval is how often WaitForService checks again.
const DefaultMaintenancePollInterval = 30 * time.Second

// WaitForService polls until maintenance mode is off, calling onPoll after
// each check while the service is still down. Admins read the flag from the
// settings endpoint; everyone else checks an endpoint the maintenance gate
// covers. Errors other than a missing, rejected or unprivileged credential
// count as still down.
func (c *Client) WaitForService(ctx context.Context, interval time.Duration, onPoll func(message string)) error {
	if interval <= 0 {
		interval = DefaultMaintenancePollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		down, message, err := c.maintenanceStatus(ctx)
		if err != nil {
			return err
		}
		if !down {
			slog.Info("Service is available")
			return nil
		}
		if onPoll != nil {
			onPoll(message)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) maintenanceStatus(ctx context.Context) (bool, string, error) {
	settings, err := c.SystemSettings(ctx)
	if err == nil {
		msg := ""
		if settings.MaintenanceMessage != nil {
			msg = *settings.MaintenanceMessage
		}
		return settings.MaintenanceMode, msg, nil
	}
	if !errors.Is(err, common.ErrForbidden) && !errors.Is(err, common.ErrUnauthenticated) {
		return classifyCheck(ctx, err)
	}

	// Not an admin: any gated endpoint answers 503 while maintenance is on.
	if _, err := c.NotificationPreferences(ctx); err != nil {
		return classifyCheck(ctx, err)
	}
	return false, "", nil
}

func classifyCheck(ctx context.Context, err error) (bool, string, error) {
	var maint *common.MaintenanceError
	switch {
	case errors.As(err, &maint):
		return true, maint.Message, nil
	case errors.Is(err, common.ErrUnauthenticated), errors.Is(err, common.ErrForbidden):
		return false, "", err
	case ctx.Err() != nil:
		return false, "", ctx.Err()
	default:
		slog.Debug("Maintenance check failed", "error", err)
		return true, "", nil
	}
}
