package cli

import (
	"context"
	"fmt"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for email, display name and password and creates an
// account. It does not sign in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter display name", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	if err := a.authService.Register(ctx, email, name, string(password)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Success! You can now log in.")
	return nil
}

// Login authenticates, persists the session token and starts the feed.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	id, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Welcome, %s!\n", id.Name)
	a.startFeed(ctx)
	return nil
}

// Logout stops the feed and forgets the stored session.
func (a *App) Logout(ctx context.Context) error {
	a.stopFeed()
	a.search.Clear(ctx)
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// Profile shows the current identity, or renames it when name is given.
func (a *App) Profile(ctx context.Context, name string) error {
	if name == "" {
		id, _ := a.session.Identity()
		fmt.Fprintf(a.out, "%s (id %s)\n", id.Name, id.UserID)
		return nil
	}

	id, err := a.authService.UpdateProfile(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Display name changed to %s\n", id.Name)
	return nil
}
