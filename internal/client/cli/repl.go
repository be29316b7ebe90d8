package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context, name string) error
	Feed(ctx context.Context) error
	Refresh(ctx context.Context) error
	Post(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Mine(ctx context.Context) error
	Search(ctx context.Context, query string) error
	Recent(ctx context.Context) error
	Recall(ctx context.Context, n string) error
	ClearRecent(ctx context.Context) error
	Theme(ctx context.Context, value string) error
}

const (
	helpGuest  = "Available commands: register, login, theme [light|dark], help, exit"
	helpMember = "Available commands: feed, refresh, post, edit <id>, delete <id>, mine, search <query>, recent, recall <n>, clearrecent, profile [name], theme [light|dark], logout, help, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF, on ctx cancellation, or when the user types "exit" or
// "quit". Handler errors are reported to out and do not stop the loop.
//
//	Not logged in:
//	  register, login, theme, help, exit | quit
//
//	Logged in:
//	  feed, refresh, post, edit <id>, delete <id>, mine,
//	  search <query>, recent, recall <n>, clearrecent,
//	  profile [name], theme [light|dark], logout, help, exit | quit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "fz%s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		arg = strings.TrimSpace(arg)
		if cmd == "" {
			continue
		}

		if cmd == "exit" || cmd == "quit" {
			fmt.Fprintln(out, "Bye!")
			return
		}

		report(out, dispatch(ctx, a, cmd, arg, out))
	}
}

var errUnknownCommand = errors.New("unknown command")

func dispatch(ctx context.Context, a execIface, cmd, arg string, out io.Writer) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			fmt.Fprintln(out, helpMember)
		} else {
			fmt.Fprintln(out, helpGuest)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "theme":
		return a.Theme(ctx, arg)
	}

	if !a.isLoggedIn() {
		switch cmd {
		case "logout", "profile", "feed", "refresh", "post", "edit", "delete",
			"mine", "search", "recent", "recall", "clearrecent":
			fmt.Fprintln(out, "Please log in first.")
			return nil
		}
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "profile":
		return a.Profile(ctx, arg)
	case "feed", "f":
		return a.Feed(ctx)
	case "refresh":
		return a.Refresh(ctx)
	case "post":
		return a.Post(ctx)
	case "edit":
		return withArg(out, "edit <id>", arg, func() error { return a.Edit(ctx, arg) })
	case "delete":
		return withArg(out, "delete <id>", arg, func() error { return a.Delete(ctx, arg) })
	case "recall":
		return withArg(out, "recall <n>", arg, func() error { return a.Recall(ctx, arg) })
	case "mine":
		return a.Mine(ctx)
	case "search":
		return a.Search(ctx, arg)
	case "recent":
		return a.Recent(ctx)
	case "clearrecent":
		return a.ClearRecent(ctx)
	}
	return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
}

func withArg(out io.Writer, usage, arg string, fn func() error) error {
	if arg == "" {
		fmt.Fprintln(out, "Usage:", usage)
		return nil
	}
	return fn()
}

func report(out io.Writer, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, errUnknownCommand) {
		fmt.Fprintf(out, "Unknown command: %s (type 'help')\n", strings.TrimPrefix(err.Error(), errUnknownCommand.Error()+": "))
		return
	}
	fmt.Fprintln(out, userMessage(err))
}
