// Package cli wires the cobra command tree for cat-tagline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"cat-tagline-go/internal/bootstrap"
	"cat-tagline-go/internal/domain/tagline"
	"cat-tagline-go/internal/platform/config"
	platformerrors "cat-tagline-go/internal/platform/errors"
	"cat-tagline-go/internal/platform/logging"
)

// ErrReported marks a failure whose message was already written to the output.
var ErrReported = errors.New("cat-tagline: failure already reported")

const (
	rule       = "=================================================="
	setupHint  = "Make sure to set your OPENAI_API_KEY in a .env file"
	successMsg = "SUCCESS! Here's your cat content:"
)

// Runner runs the pipeline once.
type Runner interface {
	Run(ctx context.Context) *tagline.Result
}

// App holds the injectable pieces of the command tree.
type App struct {
	Out       io.Writer
	Err       io.Writer
	Loader    *config.Loader
	LookupEnv func(string) (string, bool)
	NewRunner func(tagline.Options) (Runner, error)
	Serve     func(context.Context) error
}

func (a *App) withDefaults() *App {
	app := *a
	if app.Out == nil {
		app.Out = os.Stdout
	}
	if app.Err == nil {
		app.Err = os.Stderr
	}
	if app.Loader == nil {
		app.Loader = config.NewLoader()
	}
	if app.NewRunner == nil {
		app.NewRunner = func(opts tagline.Options) (Runner, error) {
			g, err := tagline.NewGenerator(opts)
			if err != nil {
				return nil, err
			}
			return g, nil
		}
	}
	if app.Serve == nil {
		app.Serve = bootstrap.Run
	}
	return &app
}

// NewCLI returns the root command.
func NewCLI(a *App) *cobra.Command {
	if a == nil {
		a = &App{}
	}
	app := a.withDefaults()

	rootCmd := &cobra.Command{
		Use:   "cat-tagline",
		Short: "Fetch a random cat and caption it",
		Long:  "Fetches a random cat image, describes it with a vision model and writes a funny tagline for it.",
		Args:  cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.generateHandler(cmd.Context())
		},
	}
	rootCmd.SetOut(app.Out)
	rootCmd.SetErr(app.Err)

	cobra.EnableCommandSorting = false

	serveCmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the web UI",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Serve(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCmd)
	return rootCmd
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context) error {
	return NewCLI(nil).ExecuteContext(ctx)
}

func (a *App) generateHandler(ctx context.Context) error {
	loaded, err := a.Loader.Load()
	if err != nil {
		return a.reportConfigError(err)
	}
	cfg := loaded.Config

	logger := logging.NewConsole(cfg.Log.Level, a.Err)
	defer logger.Close()

	runner, err := a.NewRunner(tagline.Options{
		Config:    cfg,
		Logger:    logger.Legacy(),
		LookupEnv: a.LookupEnv,
	})
	if err != nil {
		if platformerrors.IsKind(err, platformerrors.KindConfig) {
			return a.reportConfigError(err)
		}
		return err
	}

	fmt.Fprintln(a.Out, "Fetching a random cat...")
	result := runner.Run(ctx)
	if result == nil || !result.Success {
		msg := "unknown error"
		if result != nil && result.Error != "" {
			msg = result.Error
		}
		fmt.Fprintf(a.Out, "\nPipeline failed: %s\n", msg)
		return ErrReported
	}

	printResult(a.Out, result)
	return nil
}

func (a *App) reportConfigError(err error) error {
	fmt.Fprintf(a.Out, "Configuration error: %v\n", err)
	fmt.Fprintln(a.Out, setupHint)
	return ErrReported
}

func printResult(w io.Writer, result *tagline.Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, successMsg)
	fmt.Fprintln(w, rule)

	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetAutoWrapText(true)
	table.SetColWidth(72)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Image", result.ImagePath},
		{"Description", strings.TrimSpace(result.Description)},
		{"Tagline", result.DisplayTagline()},
	})
	table.Render()

	fmt.Fprintln(w, rule)
}
