package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/nanowrimo/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// skipSetup marks commands that run without configuration
const skipSetup = "nano/skip-setup"

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp())
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nano",
		Short: "Command line client for the NaNoWriMo API",
		Long: color.CyanString(`nano - NaNoWriMo from the terminal

Reads users, projects, groups, challenges and every other resource the
NaNoWriMo API serves, logging in with the configured account when a
request needs it.

Configuration is read from nano.yaml in the working directory or the user
config directory. Every key can be overridden with a NANO_ environment
variable, e.g. NANO_AUTH_IDENTIFIER.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.noColor {
				color.NoColor = true
			}
			if cmd.Annotations[skipSetup] != "" {
				return nil
			}
			return a.setup(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default is ./nano.yaml)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "hide progress indicators")
	flags.BoolVar(&a.lenient, "lenient", false, "accept resources of kinds this client does not know")
	flags.BoolVar(&a.jsonOut, "json", false, "print responses as JSON")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log every exchange to stderr")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCompletionCommand())
	rootCmd.AddCommand(newKindsCommand(a))
	rootCmd.AddCommand(newLoginCommand(a))
	rootCmd.AddCommand(newLogoutCommand(a))
	rootCmd.AddCommand(newWhoamiCommand(a))
	rootCmd.AddCommand(newGetCommand(a))
	rootCmd.AddCommand(newListCommand(a))
	rootCmd.AddCommand(newRelatedCommand(a))
	rootCmd.AddCommand(newFundometerCommand(a))
	rootCmd.AddCommand(newSearchCommand(a))
	rootCmd.AddCommand(newNotificationsCommand(a))
	rootCmd.AddCommand(newChallengesCommand(a))
	rootCmd.AddCommand(newStoreCommand(a))
	rootCmd.AddCommand(newOffersCommand(a))
	rootCmd.AddCommand(newPageCommand(a))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Long:        "Display the nano version, Git commit, build date, and Go version",
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()
			for _, line := range [][2]string{
				{"nano version: ", Version},
				{"Git commit: ", GitCommit},
				{"Build date: ", BuildDate},
				{"Go version: ", goVer},
			} {
				titleColor.Fprint(out, line[0])
				fmt.Fprintln(out, line[1])
			}
		},
	}
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command, cancelling requests when ctx ends
func ExecuteContext(ctx context.Context) error {
	a := newApp()
	defer a.teardown()

	rootCmd := newRootCommand(a)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		renderError(rootCmd.ErrOrStderr(), err, color.NoColor)
		return err
	}
	return nil
}

func renderError(w io.Writer, err error, noColor bool) {
	var kerr *kindError
	var cerr configError
	switch {
	case errors.As(err, &kerr):
		fmt.Fprint(w, ui.UnknownKindError(kerr.name, kerr.suggestions, noColor))
	case errors.As(err, &cerr):
		fmt.Fprint(w, ui.ConfigError(cerr.Error(), noColor))
	default:
		fmt.Fprint(w, ui.FaultError(err, noColor))
	}
}
