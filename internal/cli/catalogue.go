package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nl-sql-search/internal/render"
	"nl-sql-search/internal/schema"
	"nl-sql-search/internal/search"
)

var errHistoryDisabled = errors.New("search history is not enabled (set history.enabled in config)")

func NewValidateCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <sql>",
		Short: "Check a SQL statement against the safety rules",
		Example: `  nlsql validate "SELECT * FROM employees"
  nlsql validate "DELETE FROM orders" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verdict := search.ValidateSQL(strings.Join(args, " "))

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(verdict); err != nil {
					return err
				}
			} else if verdict.Valid {
				render.Success(cmd.OutOrStdout(), "%s", verdict.Reason)
			} else {
				render.Error(cmd.OutOrStdout(), "%s", verdict.Reason)
			}

			if !verdict.Valid {
				return reportedError{errors.New(verdict.Reason)}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the verdict as JSON")
	return cmd
}

func NewSchemaCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the schema questions are answered against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"tables":        schema.Tables,
					"relationships": schema.Relationships,
				})
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), schema.Describe())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tables and relationships as JSON")
	return cmd
}

func NewExamplesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "List example questions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printExamples(cmd.OutOrStdout())
		},
	}
}

func NewHistoryCommand(factory RuntimeFactory, global *GlobalOptions) *cobra.Command {
	var (
		limit    int
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := factory(cmd.Context(), global)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			if clearAll {
				if rt.History == nil {
					return errHistoryDisabled
				}
				if err := rt.History.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clear history: %w", err)
				}
				render.Success(cmd.OutOrStdout(), "History cleared")
				return nil
			}
			return printHistory(cmd.Context(), cmd.OutOrStdout(), rt.History, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete all recorded searches")
	return cmd
}

func printHistory(ctx context.Context, w io.Writer, store HistoryStore, limit int) error {
	if store == nil {
		return errHistoryDisabled
	}

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No searches recorded yet.")
		return nil
	}

	cols := []string{"when", "outcome", "rows", "question", "sql / error"}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		detail := e.SQL
		if e.Error != "" {
			detail = e.Error
		}
		rows = append(rows, []any{
			e.CreatedAt.Local().Format(time.DateTime),
			string(e.Outcome),
			e.RowCount,
			e.Question,
			detail,
		})
	}
	return render.Table(w, cols, rows)
}
