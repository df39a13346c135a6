package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/Johannes-Berggren/CommitQuery/internal/api"
	"github.com/Johannes-Berggren/CommitQuery/internal/config"
	"github.com/Johannes-Berggren/CommitQuery/internal/console"
	"github.com/Johannes-Berggren/CommitQuery/internal/git"
	"github.com/Johannes-Berggren/CommitQuery/internal/models"
	"github.com/Johannes-Berggren/CommitQuery/internal/session"
	"github.com/Johannes-Berggren/CommitQuery/internal/ui"
	"github.com/spf13/cobra"
)

const debugLogFile = "cq-debug.log"

// Exit codes
const (
	ExitSuccess      = 0
	ExitRuntimeError = 1
	ExitAuthError    = 3
)

var (
	flagServer    string
	flagConfigDir string
	flagTimeout   time.Duration
	flagDebug     bool
	flagNoGit     bool
	flagPageSize  int
)

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

var logFile io.Closer

var rootCmd = &cobra.Command{
	Use:               "cq",
	Short:             "A terminal client for the commit query server",
	Long:              `CommitQuery - browse, export and copy commit history served by a commit query server`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
			logFile = nil
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		// Without a usable token the app opens on the login screen.
		_, guardErr := e.store.Guard()
		if guardErr != nil {
			log.Printf("session: %v", guardErr)
		}

		local := detectCheckout(cmd.Context())
		m := ui.NewModel(ui.Deps{
			Initial:   models.Query{ProjectID: local.Project, Branch: local.Branch},
			Service:   e.client,
			Tokens:    e.store,
			Clipboard: clipboardWrite,
			Server:    e.cfg.Server,
			PageSize:  e.cfg.PageSize,
			LoggedIn:  guardErr == nil,
		})

		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running app: %w", err)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagServer, "server", "", "commit query server URL (env "+config.EnvServer+")")
	pf.StringVar(&flagConfigDir, "config", "", "config directory (default: platform config dir)")
	pf.DurationVar(&flagTimeout, "timeout", 0, "per-request timeout (env "+config.EnvTimeout+")")
	pf.BoolVar(&flagDebug, "debug", false, "write a debug log to "+debugLogFile)
	pf.BoolVar(&flagNoGit, "no-git", false, "do not take project and branch from the git checkout")
	pf.IntVar(&flagPageSize, "page-size", 0, "commits per page, 1-100 (env "+config.EnvPageSize+")")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(commitsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		console.ErrorPrint("Error: %v", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var authErr *api.AuthError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, session.ErrNotAuthenticated), errors.As(err, &authErr):
		return ExitAuthError
	default:
		return ExitRuntimeError
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	console.SetVerbose(flagDebug)
	if !flagDebug {
		log.SetOutput(io.Discard)
		return nil
	}
	f, err := tea.LogToFile(debugLogFile, "cq")
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	logFile = f
	return nil
}

// env bundles what every command needs.
type env struct {
	cfg    config.Config
	store  *session.Store
	client *api.Client
}

func loadEnv() (*env, error) {
	if flagPageSize != 0 {
		if err := (models.Query{PageSize: flagPageSize}).ValidatePageSize(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(config.Overrides{
		ConfigDir: flagConfigDir,
		Server:    flagServer,
		Timeout:   flagTimeout,
		PageSize:  flagPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	console.Verbose("server %s, config dir %s", cfg.Server, cfg.Dir)

	store := session.NewStore(cfg.Dir)
	client := api.NewClient(cfg.Server, store, api.Options{
		Timeout: cfg.Timeout,
		Retries: cfg.Retries,
	})
	return &env{cfg: cfg, store: store, client: client}, nil
}

// detectCheckout reads project and branch defaults from the surrounding git checkout.
func detectCheckout(ctx context.Context) git.Checkout {
	if flagNoGit {
		return git.Checkout{}
	}
	local, err := git.Detect(ctx)
	if err != nil {
		log.Printf("no git checkout: %v", err)
		return git.Checkout{}
	}
	console.Verbose("git checkout: project %q, branch %q", local.Project, local.Branch)
	return local
}

// rejected clears the stored token when the server no longer accepts it.
func (e *env) rejected(err error) error {
	var authErr *api.AuthError
	if !errors.As(err, &authErr) {
		return err
	}
	if cerr := e.store.Clear(); cerr != nil {
		log.Printf("clearing token: %v", cerr)
	}
	log.Printf("session rejected, redirect %s", authErr.Redirect)
	return fmt.Errorf("%w (run `cq login`)", authErr)
}
