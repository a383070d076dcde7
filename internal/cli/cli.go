// Package cli implements the get_draws command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lbwsg/get-draws/internal/domain"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK              = 0
	ExitInternal        = 1
	ExitUsage           = 2
	ExitInvalidLocation = 3
	ExitNoData          = 4
	ExitFetchFailure    = 5
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

type options struct {
	OutputDir              string `flag:"output-dir" validate:"required_with=Measure,excluded_with=Source"`
	Measure                string `flag:"measure" validate:"omitempty,oneof=exposure relative_risk population_attributable_fraction"`
	Source                 string `flag:"source" validate:"omitempty,oneof=exposure rr burdenator"`
	Location               string `flag:"location" validate:"required,excludesall=/\\"`
	ExitZeroOnFetchFailure bool
}

// exitError carries a run failure that has already been logged.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// Execute runs get_draws with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(stderr, "Error: %v\nRun '%s --help' for usage.\n", err, root.Name())
	return ExitUsage
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:   "get_draws",
		Short: "Pull LBWSG draws for one location and save them as an artifact",
		Long: `get_draws resolves a location name against the reporting and model-results
location sets, pulls low birth weight and short gestation draws for every age
group and both sexes, and writes them to disk.

Measure mode writes <output-dir>/<location>_<measure>.pickle and a run log
under <output-dir>/logs. Source mode writes <location>_<source>.pkl into the
working directory.`,
		Example: `  get_draws -o /share/lbwsg -m exposure -l Global
  get_draws -s rr -l "Andhra Pradesh"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOptions(opts); err != nil {
				return err
			}
			if code := run(cmd.Context(), opts, stdout, stderr); code != ExitOK {
				return &exitError{code: code, err: fmt.Errorf("exit status %d", code)}
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.Flags()
	f.StringVarP(&opts.OutputDir, "output-dir", "o", "", "directory for the artifact and its logs/ (measure mode)")
	f.StringVarP(&opts.Measure, "measure", "m", "", "measure to pull: "+joinMeasures())
	f.StringVarP(&opts.Source, "source", "s", "", "draws source to pull into the working directory: "+joinSources())
	f.StringVarP(&opts.Location, "location", "l", "", "location name, e.g. Global or \"Andhra Pradesh\"")
	f.BoolVar(&opts.ExitZeroOnFetchFailure, "exit-zero-on-fetch-failure", false, "exit 0 when no data is available or the age group or draws fetch fails; location errors still fail")

	_ = root.MarkFlagRequired("location")
	root.MarkFlagsMutuallyExclusive("measure", "source")
	root.MarkFlagsOneRequired("measure", "source")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the get_draws version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "get_draws %s\n", Version)
		},
	})

	return root
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("flag")
	})
	return v
}

func validateOptions(opts options) error {
	err := validate.Struct(opts)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("invalid --%s %q: must be one of %s", fe.Field(), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required":
		return fmt.Sprintf("--%s is required", fe.Field())
	case "required_with":
		return fmt.Sprintf("--%s is required with --%s", fe.Field(), flagName(fe.Param()))
	case "excluded_with":
		return fmt.Sprintf("--%s cannot be used with --%s", fe.Field(), flagName(fe.Param()))
	case "excludesall":
		return fmt.Sprintf("invalid --%s %q: must not contain a path separator", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("invalid --%s", fe.Field())
	}
}

// flagName maps an options field name to its flag.
func flagName(field string) string {
	f, ok := reflect.TypeFor[options]().FieldByName(field)
	if !ok {
		return strings.ToLower(field)
	}
	return f.Tag.Get("flag")
}

func joinMeasures() string {
	names := make([]string, 0, len(domain.Measures()))
	for _, m := range domain.Measures() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

func joinSources() string {
	names := make([]string, 0, len(domain.Sources()))
	for _, s := range domain.Sources() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// logPath is <dir>/logs/<location>_<measure>.log.
func logPath(dir, location string, m domain.Measure) string {
	return filepath.Join(dir, "logs", fmt.Sprintf("%s_%s.log", location, m))
}
