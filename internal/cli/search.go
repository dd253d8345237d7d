package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "nl-sql-search/internal/common/errors"
	"nl-sql-search/internal/render"
)

type SearchOptions struct {
	Format  string
	Output  string
	HideSQL bool
}

func NewSearchCommand(factory RuntimeFactory, global *GlobalOptions) *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "search <question>",
		Short: "Answer one question and print the results",
		Example: `  nlsql search "Who earns more than 70000?"
  nlsql search "List all products" --format json
  nlsql search "Total orders by customer" --format csv --output query_results.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(opts.Format)
			if err != nil {
				return err
			}

			rt, err := factory(cmd.Context(), global)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			out := cmd.OutOrStdout()
			results := out
			if opts.Output != "" {
				f, err := os.Create(opts.Output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				results = f
			}

			question := strings.Join(args, " ")
			err = answer(cmd.Context(), rt, question, answerOptions{
				out:     out,
				errOut:  cmd.ErrOrStderr(),
				results: results,
				format:  format,
				showSQL: !opts.HideSQL,
			})
			if err == nil && opts.Output != "" {
				render.Info(out, "Results written to %s", opts.Output)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write results to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.HideSQL, "no-sql", false, "Do not print the generated SQL")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

type answerOptions struct {
	out     io.Writer
	errOut  io.Writer
	results io.Writer
	format  render.Format
	showSQL bool
}

// answer runs one search, records it in history and prints the outcome.
// Failures are printed and returned as reportedError.
func answer(ctx context.Context, rt *Runtime, question string, opts answerOptions) error {
	question = strings.TrimSpace(question)
	if question == "" {
		render.Warning(opts.errOut, "Please enter a question")
		return reportedError{apperrors.NewInvalidInputError("question is empty")}
	}

	start := time.Now()
	result, err := rt.Searcher.Search(ctx, question)
	if rt.History != nil {
		rt.History.RecordSearch(ctx, question, result, err, time.Since(start))
	}

	if err != nil {
		stdErr := apperrors.Normalize(err)
		if sql, ok := stdErr.Metadata["sql"].(string); ok && opts.showSQL {
			render.SQL(opts.errOut, sql)
		}
		render.Error(opts.errOut, "%s", stdErr.Message)
		return reportedError{err}
	}

	if opts.showSQL {
		render.SQL(opts.out, result.SQL)
		_, _ = fmt.Fprintln(opts.out)
	}

	if result.RowCount() == 0 {
		render.Warning(opts.out, "%s", render.Summary(0))
		if opts.format == render.FormatTable {
			return nil
		}
	} else {
		render.Success(opts.out, "%s", render.Summary(result.RowCount()))
	}

	return render.Results(opts.results, result.Columns, result.Rows, opts.format)
}
