package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/formflow/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database string
	Form     string
	After    int64
	Limit    int
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journaled form events",
		Long: `List the form events recorded in a journal database, in sequence order.

Example:
  formflow journal --db ./formflow.db
  formflow journal --db ./formflow.db --form profile --after 120 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	cmd.Flags().StringVar(&opts.Form, "form", "", "only events of this form")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events after this seq")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events (0 = all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Opening would create an empty database; a missing file is a typo.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	records, err := j.List(cmd.Context(), journal.Filter{Form: opts.Form, AfterSeq: opts.After, Limit: opts.Limit})
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read journal", err)
	}
	formatter.VerboseLog("Read %d event(s) from %s", len(records), opts.Database)

	return formatter.Success(records, formatRecords(records))
}

func formatRecords(records []journal.Record) string {
	if len(records) == 0 {
		return "No events."
	}
	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%6d  %-12s %-7s %-10s", r.Seq, r.Form, r.Type, r.Resolution)
		if r.Source != "" {
			fmt.Fprintf(&b, " source=%s", r.Source)
		}
		fmt.Fprintf(&b, " code=%s", r.Code)
		for _, e := range r.Errors {
			if e.Element != "" {
				fmt.Fprintf(&b, " %s:%s", e.Element, e.Key)
			} else {
				fmt.Fprintf(&b, " %s", e.Key)
			}
		}
	}
	return b.String()
}
