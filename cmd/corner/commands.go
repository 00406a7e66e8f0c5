package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/collectorscorner/corner/internal/submit"
	"github.com/collectorscorner/corner/internal/validate"
)

func (c *cli) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.runTUI()
	}
	switch args[0] {
	case "login":
		return c.login(ctx)
	case "register":
		return c.register(ctx)
	case "logout":
		return c.logout(ctx)
	case "whoami":
		return c.whoami(ctx)
	case "forgot-password":
		return c.forgotPassword(ctx)
	case "reset-password":
		return c.resetPassword(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q, see: corner help", args[0])
	}
}

func (c *cli) login(ctx context.Context) error {
	username, err := c.prompt("Username")
	if err != nil {
		return err
	}
	password, err := c.promptSecret("Password")
	if err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	if errs := validate.Login(username, password); !errs.Valid() {
		return c.invalid(errs)
	}

	if _, err := c.api.Login(ctx, username, password); err != nil {
		return c.failed("login", err)
	}
	c.log.Info("signed in", "username", username)

	name := username
	if u, err := c.api.GetUser(ctx); err == nil {
		name = u.Username
	} else {
		c.log.Warn("load user after login", "err", err)
	}
	fmt.Fprintf(c.out, "Signed in as %s.\n", name)
	printGreeting(c.out)
	return nil
}

func (c *cli) register(ctx context.Context) error {
	username, err := c.prompt("Username")
	if err != nil {
		return err
	}
	email, err := c.prompt("Email")
	if err != nil {
		return err
	}
	password, err := c.promptSecret("Password")
	if err != nil {
		return err
	}
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if errs := validate.Register(username, email, password); !errs.Valid() {
		return c.invalid(errs)
	}

	if _, err := c.api.Register(ctx, username, email, password); err != nil {
		return c.failed("register", err)
	}
	fmt.Fprintln(c.out, "Account created. Sign in with: corner login")
	return nil
}

func (c *cli) logout(ctx context.Context) error {
	_, ok, err := c.sessions.Current(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if !ok {
		fmt.Fprintln(c.out, "Already logged out.")
		return nil
	}
	if err := c.api.Logout(ctx); err != nil {
		return err
	}
	c.log.Info("signed out")
	fmt.Fprintln(c.out, "Logged out.")
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	sess, ok, err := c.sessions.Current(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if !ok || !sess.Valid(time.Now()) {
		fmt.Fprintln(c.out, "Not signed in. Run: corner login")
		return nil
	}
	u, err := c.api.GetUser(ctx)
	if err != nil {
		return c.failed("whoami", err)
	}
	fmt.Fprintf(c.out, "%s <%s>, %d collections\n", u.Username, u.Email, len(u.Collections))
	return nil
}

func (c *cli) forgotPassword(ctx context.Context) error {
	email, err := c.prompt("Email")
	if err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if errs := validate.Forgot(email); !errs.Valid() {
		return c.invalid(errs)
	}
	if err := c.api.ForgotPassword(ctx, email); err != nil {
		return c.failed("forgot-password", err)
	}
	fmt.Fprintln(c.out, "A reset link has been sent to your email.")
	fmt.Fprintln(c.out, "Then run: corner reset-password <token>")
	return nil
}

// resetPassword takes the reset token as its only argument, or prompts for it.
func (c *cli) resetPassword(ctx context.Context, args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		t, err := c.prompt("Reset token")
		if err != nil {
			return err
		}
		token = t
	}
	password, err := c.promptSecret("New password")
	if err != nil {
		return err
	}
	confirm, err := c.promptSecret("Confirm password")
	if err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if errs := validate.Reset(token, password, confirm); !errs.Valid() {
		return c.invalid(errs)
	}
	if err := c.api.ResetPassword(ctx, token, password, confirm); err != nil {
		return c.failed("reset-password", err)
	}
	fmt.Fprintln(c.out, "Password changed. Sign in with: corner login")
	return nil
}

// -- prompts --

func (c *cli) prompt(label string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret reads without echo when stdin is a terminal.
func (c *cli) promptSecret(label string) (string, error) {
	if !c.terminal {
		return c.prompt(label)
	}
	fmt.Fprintf(c.out, "%s: ", label)
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(c.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}

// -- errors --

func (c *cli) invalid(errs validate.ErrorMap) error {
	for _, f := range errs.Fields() {
		fmt.Fprintf(c.out, "  %s %s\n", f, errs[f])
	}
	return fmt.Errorf("%w: %s", errInvalidInput, errs)
}

// failed logs the raw API error and returns the user-facing message.
func (c *cli) failed(op string, err error) error {
	c.log.Warn(op+" failed", "err", err)
	return errors.New(submit.ErrorMessage(err))
}
