package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/auth"
	"github.com/stemsi/candidate-portal/internal/candidate"
	"github.com/stemsi/candidate-portal/internal/config"
	"github.com/stemsi/candidate-portal/internal/gateway"
	"github.com/stemsi/candidate-portal/internal/logger"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/render"
	"github.com/stemsi/candidate-portal/internal/result"
	"github.com/stemsi/candidate-portal/internal/session"
	"github.com/stemsi/candidate-portal/internal/validator"
	"golang.org/x/term"
)

const usage = `usage: portalctl <command> [flags]

commands:
  login [-remember] [-role admin|user]   sign in (prompts for email and password)
  logout                                 sign out and clear the stored token
  whoami                                 show the stored session
  candidates [-page N] [filters]         list one page of candidates
  candidate <id>                         show one candidate
  result <examId>                        show a graded result
  proctoring <examId>                    show the proctoring log summary
`

type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	session   *session.Session
	client    *gateway.Client
	auth      *auth.Service
	directory *candidate.Directory
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	// Logs go to stderr so tables on stdout stay clean.
	log := logger.SetupTo(os.Stderr, getLevel(cfg.LogLevel), "pretty")
	validator.Setup()

	// ─── Open Session Store ────────────────────────────────────────────
	// A CLI process is short-lived, so both scopes live in the file.
	store, err := session.OpenBolt(cfg.CLISessionDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer store.Close()
	sess := session.New(store.Scope(session.ScopeDurable), store.Scope(session.ScopeTab))

	client := gateway.New(cfg.APIBaseURL, cfg.HTTPTimeout, sess, log)
	a := &app{
		cfg:       cfg,
		log:       log,
		session:   sess,
		client:    client,
		auth:      auth.NewService(client, sess, log),
		directory: candidate.NewDirectory(client, cfg.PageSize, log),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.HTTPTimeout)
	defer cancel()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		report(err)
		store.Close()
		os.Exit(1)
	}
}

// getLevel keeps the CLI quiet unless debug logging was asked for.
func getLevel(level string) string {
	if level == "debug" || level == "trace" {
		return level
	}
	return "warn"
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		if err := a.auth.Logout(ctx); err != nil {
			return err
		}
		render.Success(os.Stdout, "Logged out.")
		return nil
	case "whoami":
		return a.whoami()
	case "candidates":
		return a.candidates(ctx, args)
	case "candidate":
		if len(args) != 1 {
			return errors.New("usage: portalctl candidate <id>")
		}
		c, err := a.directory.Get(ctx, args[0])
		if err != nil {
			return err
		}
		render.Candidate(os.Stdout, c)
		return nil
	case "result":
		if len(args) != 1 {
			return errors.New("usage: portalctl result <examId>")
		}
		report, err := result.NewViewer(a.client).Load(ctx, args[0])
		if err != nil {
			return err
		}
		render.Report(os.Stdout, report)
		return nil
	case "proctoring":
		if len(args) != 1 {
			return errors.New("usage: portalctl proctoring <examId>")
		}
		summary, err := a.client.ProctoringSummary(ctx, args[0])
		if err != nil {
			return err
		}
		render.ProctoringSummary(os.Stdout, args[0], summary)
		return nil
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	remember := fs.Bool("remember", false, "keep the session in the durable scope")
	role := fs.String("role", "", "admin or user")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after password input
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	landing, err := a.auth.Login(ctx, model.LoginRequest{
		Email:    email,
		Password: string(bytePassword),
		Role:     model.Role(*role),
		Remember: *remember,
	})
	if err != nil {
		return err
	}
	render.Success(os.Stdout, "Logged in. Landing page: %s", landing)
	return nil
}

func (a *app) whoami() error {
	claims, err := a.session.Claims()
	if err != nil {
		return err
	}
	status := "active"
	if !a.session.IsAuthenticated() {
		status = "expired"
	}
	fmt.Printf("email:   %s\nrole:    %s\nsession: %s\nlanding: %s\n", claims.Email, claims.Role, status, a.session.Landing())
	if claims.ExpiresAt != nil {
		fmt.Printf("expires: %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

func (a *app) candidates(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("candidates", flag.ContinueOnError)
	page := fs.Int("page", 1, "page number")
	search := fs.String("search", "", "name, email or phone contains")
	gender := fs.String("gender", "", "Male, Female or Other")
	qualification := fs.String("qualification", "", "qualification contains")
	skills := fs.String("skills", "", "a skill contains")
	expMin := fs.Int("exp-min", -1, "minimum experience")
	expMax := fs.Int("exp-max", -1, "maximum experience")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := candidate.Filter{
		Search:        *search,
		Gender:        model.Gender(*gender),
		Qualification: *qualification,
		Skills:        *skills,
	}
	if *expMin >= 0 {
		filter.ExpMin = expMin
	}
	if *expMax >= 0 {
		filter.ExpMax = expMax
	}

	p, err := a.directory.Page(ctx, *page, filter)
	if err != nil {
		return err
	}
	render.Candidates(os.Stdout, p)
	return nil
}

// report prints err the way a user should read it.
func report(err error) {
	var formErr *validator.Error
	var gwErr *gateway.Error
	switch {
	case errors.As(err, &formErr):
		render.Failure(os.Stderr, "%s", formErr.Error())
		for field, msg := range formErr.Fields {
			render.Failure(os.Stderr, "  %s: %s", field, msg)
		}
	case errors.Is(err, session.ErrNoSession):
		render.Failure(os.Stderr, "Not logged in. Run: portalctl login")
	case errors.As(err, &gwErr) && gwErr.Kind == gateway.KindAuth:
		render.Failure(os.Stderr, "Session expired or access denied. Run: portalctl login")
	case errors.As(err, &gwErr):
		render.Failure(os.Stderr, "%s", gwErr.Message)
	default:
		render.Failure(os.Stderr, "%v", err)
	}
}
