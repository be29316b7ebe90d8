package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/framez/internal/client/settings"
)

// Theme toggles the stored theme, or sets it when value is given.
func (a *App) Theme(ctx context.Context, value string) error {
	var (
		t   settings.Theme
		err error
	)
	if value == "" {
		t, err = a.settings.Toggle(ctx)
	} else {
		t, err = settings.ParseTheme(value)
		if err == nil {
			err = a.settings.SetTheme(ctx, t)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Theme: %s\n", t)
	return nil
}
