package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrThemeNotReady indicates the platform did not finish processing a newly
// created theme before the configured deadline.
var ErrThemeNotReady = errors.New("theme processing did not finish before deadline")

const (
	themeName   = "Dawn"
	themeSource = "https://codeload.github.com/Shopify/dawn/zip/refs/heads/main"
)

// ThemeWaitConfig bounds the poll-until-ready loop after theme creation.
// The platform processes uploaded themes asynchronously; a theme cannot be
// mutated until processing completes.
type ThemeWaitConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Deadline        time.Duration
}

// DefaultThemeWait polls at 500ms doubling up to 5s, for at most 30s.
func DefaultThemeWait() ThemeWaitConfig {
	return ThemeWaitConfig{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Deadline:        30 * time.Second,
	}
}

// setupTheme finds or creates the storefront theme, waits for it to be
// ready, writes its settings, and publishes it when it is not already the
// main theme.
func (o *Orchestrator) setupTheme(ctx context.Context) error {
	theme, err := o.findThemeByName(ctx, themeName)
	if err != nil {
		return err
	}

	if theme == nil {
		theme, err = o.createTheme(ctx)
		if err != nil {
			return err
		}
	}

	themeID, err := themeIDOf(theme)
	if err != nil {
		return err
	}

	if err := o.waitForThemeReady(ctx, themeID); err != nil {
		return err
	}

	if err := o.writeThemeSettings(ctx, themeID); err != nil {
		return err
	}

	if role, _ := theme["role"].(string); role != "main" {
		return o.publishTheme(ctx, themeID)
	}

	o.logger.Info("Theme already published", "theme_id", themeID)

	return nil
}

func (o *Orchestrator) findThemeByName(ctx context.Context, name string) (map[string]any, error) {
	body, err := o.client.Get(ctx, "themes")
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}

	themes, _ := body["themes"].([]any)
	for _, entry := range themes {
		theme, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		if theme["name"] == name {
			return theme, nil
		}
	}

	return nil, nil
}

func (o *Orchestrator) createTheme(ctx context.Context) (map[string]any, error) {
	o.logger.Info("Creating theme from source package", "name", themeName)

	body, err := o.client.Post(ctx, "themes", map[string]any{
		"theme": map[string]any{
			"name": themeName,
			"src":  themeSource,
			"role": "unpublished",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create theme: %w", err)
	}

	theme, ok := body["theme"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("theme creation returned unexpected body: %v", body)
	}

	return theme, nil
}

// waitForThemeReady polls theme processing status with bounded exponential
// backoff until the platform reports it done or the deadline passes.
func (o *Orchestrator) waitForThemeReady(ctx context.Context, themeID int64) error {
	deadline := time.Now().Add(o.themeWait.Deadline)
	interval := o.themeWait.InitialInterval

	for {
		body, err := o.client.Get(ctx, fmt.Sprintf("themes/%d", themeID))
		if err != nil {
			return fmt.Errorf("failed to query theme %d status: %w", themeID, err)
		}

		theme, _ := body["theme"].(map[string]any)
		if processing, _ := theme["processing"].(bool); !processing {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("theme %d: %w", themeID, ErrThemeNotReady)
		}

		o.logger.Debug("Theme still processing", "theme_id", themeID, "retry_in", interval)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		interval *= 2
		if interval > o.themeWait.MaxInterval {
			interval = o.themeWait.MaxInterval
		}
	}
}

func (o *Orchestrator) writeThemeSettings(ctx context.Context, themeID int64) error {
	settings := map[string]any{
		"current": map[string]any{
			"colors_accent_1":   "#b76e79",
			"colors_background": "#fdfaf7",
			"type_header_font":  "assistant_n4",
			"sections": map[string]any{
				"main-header": map[string]any{"logo_position": "middle-center"},
			},
		},
	}

	value, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode theme settings: %w", err)
	}

	_, err = o.client.Put(ctx, fmt.Sprintf("themes/%d/assets", themeID), map[string]any{
		"asset": map[string]any{
			"key":   "config/settings_data.json",
			"value": string(value),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write theme settings: %w", err)
	}

	o.logger.Info("Wrote theme settings", "theme_id", themeID)

	return nil
}

func (o *Orchestrator) publishTheme(ctx context.Context, themeID int64) error {
	_, err := o.client.Put(ctx, fmt.Sprintf("themes/%d", themeID), map[string]any{
		"theme": map[string]any{
			"id":   themeID,
			"role": "main",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish theme %d: %w", themeID, err)
	}

	o.logger.Info("Published theme", "theme_id", themeID)

	return nil
}

func themeIDOf(theme map[string]any) (int64, error) {
	id, ok := theme["id"].(float64)
	if !ok {
		return 0, fmt.Errorf("theme has no numeric id: %v", theme["id"])
	}

	return int64(id), nil
}
