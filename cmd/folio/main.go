// Command folio is a terminal client for the portfolio API. The session is
// persisted between runs the same way a browser frontend would keep it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/devfolio/portfolio-sync/internal/app"
	"github.com/devfolio/portfolio-sync/internal/config"
	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/validation"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

const usage = `usage: folio <command> [flags]

commands:
  login -email E [-password P]
  register -email E -name N [-password P]
  logout
  whoami
  list <projects|experience|education|certificates|social-links|skill-categories|skills> [-category ID]
  portfolios
  portfolio <slug> [-project SLUG]

The password falls back to FOLIO_PASSWORD.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	a, err := app.New(cfg, app.WithNavigator(app.NavigatorFunc(func(string) {
		fmt.Fprintln(os.Stderr, "session expired, run `folio login` again")
	})))
	if err != nil {
		return err
	}
	defer a.Close()

	if err := <-a.Start(ctx); err != nil {
		a.Logger.Warn("stored session discarded", "error", err)
	}

	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", os.Getenv("FOLIO_PASSWORD"), "account password")
		fs.Parse(args)

		user, err := a.Session.Login(ctx, models.LoginRequest{Email: *email, Password: *password})
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s\n", user.FullName)
		return nil

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		name := fs.String("name", "", "full name")
		password := fs.String("password", os.Getenv("FOLIO_PASSWORD"), "account password")
		fs.Parse(args)

		user, err := a.Session.Register(ctx, models.RegisterRequest{Email: *email, Password: *password, FullName: *name})
		if err != nil {
			return err
		}
		fmt.Printf("registered %s, portfolio slug %q\n", user.FullName, user.Slug)
		return nil

	case "logout":
		a.Session.Logout()
		fmt.Println("logged out")
		return nil

	case "whoami":
		snap := a.Session.Snapshot()
		if !snap.IsAuthenticated {
			return client.ErrNotAuthenticated
		}
		return printJSON(snap.User)

	case "list":
		return list(ctx, a, args)

	case "portfolios":
		r := a.Hooks.Portfolios.List(ctx)
		if r.Err != nil {
			return r.Err
		}
		return printJSON(r.Data)

	case "portfolio":
		if len(args) == 0 {
			return errors.New("portfolio: slug required")
		}
		slug := args[0]
		fs := flag.NewFlagSet("portfolio", flag.ExitOnError)
		project := fs.String("project", "", "project slug")
		fs.Parse(args[1:])

		if *project != "" {
			r := a.Hooks.Portfolios.GetProject(ctx, slug, *project)
			if r.Err != nil {
				return r.Err
			}
			return printJSON(r.Data)
		}
		r := a.Hooks.Portfolios.Get(ctx, slug)
		if r.Err != nil {
			return r.Err
		}
		return printJSON(r.Data)

	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

func list(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		return errors.New("list: resource required")
	}
	if !a.Session.IsAuthenticated() {
		return client.ErrNotAuthenticated
	}

	h := a.Hooks
	switch args[0] {
	case "projects":
		r := h.Projects.List(ctx)
		return output(r.Data, r.Err)
	case "experience":
		r := h.Experience.List(ctx)
		return output(r.Data, r.Err)
	case "education":
		r := h.Education.List(ctx)
		return output(r.Data, r.Err)
	case "certificates":
		r := h.Certificates.List(ctx)
		return output(r.Data, r.Err)
	case "social-links":
		r := h.SocialLinks.List(ctx)
		return output(r.Data, r.Err)
	case "skill-categories":
		r := h.SkillCategories.List(ctx)
		return output(r.Data, r.Err)
	case "skills":
		fs := flag.NewFlagSet("skills", flag.ExitOnError)
		category := fs.String("category", "", "skill category id")
		fs.Parse(args[1:])

		id, err := strconv.ParseInt(*category, 10, 64)
		if err != nil {
			return fmt.Errorf("list skills: invalid -category %q", *category)
		}
		r := h.Skills.List(ctx, id)
		return output(r.Data, r.Err)
	default:
		return fmt.Errorf("list: unknown resource %q", args[0])
	}
}

func output(v any, err error) error {
	if err != nil {
		return err
	}
	return printJSON(v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe prefers the backend's own message and lists field errors
func describe(err error) string {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return client.Message(err)
	}
	return err.Error()
}
