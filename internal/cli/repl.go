package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"nl-sql-search/internal/examples"
	"nl-sql-search/internal/render"
	"nl-sql-search/internal/schema"
)

const (
	replPrompt         = "nlsql> "
	historyFileName    = ".nlsql_history"
	defaultHistoryRows = 10
)

type REPLOptions struct {
	Format      string
	HistoryFile string
}

func NewREPLCommand(factory RuntimeFactory, global *GlobalOptions) *cobra.Command {
	opts := &REPLOptions{}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Ask questions interactively",
		Long: `Start an interactive prompt. Every line is a question; lines starting
with a dot are commands (type .help to list them).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, factory, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVar(&opts.HistoryFile, "history-file", "", "Prompt history file (default: ~/.nlsql_history)")

	return cmd
}

// replSession is the state shared by the prompt loop and dot-commands.
type replSession struct {
	rt     *Runtime
	out    io.Writer
	errOut io.Writer
	format render.Format
}

func runREPL(cmd *cobra.Command, factory RuntimeFactory, global *GlobalOptions, opts *REPLOptions) error {
	ctx := cmd.Context()

	format, err := render.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	rt, err := factory(ctx, global)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     resolveHistoryFile(opts.HistoryFile),
		AutoComplete:    newDotCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := &replSession{rt: rt, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr(), format: format}

	_, _ = fmt.Fprintln(s.out, "Natural Language Database Search")
	_, _ = fmt.Fprintln(s.out, "Ask a question about employees, departments, products or orders.")
	_, _ = fmt.Fprintln(s.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(s.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := s.handleDotCommand(ctx, line); quit {
				break
			}
			continue
		}

		// failures are already printed
		_ = answer(ctx, rt, line, answerOptions{
			out:     s.out,
			errOut:  s.errOut,
			results: s.out,
			format:  s.format,
			showSQL: true,
		})
		_, _ = fmt.Fprintln(s.out)
	}

	return nil
}

// handleDotCommand runs one dot-command and reports whether the session
// should end.
func (s *replSession) handleDotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".schema":
		_, _ = fmt.Fprint(s.out, schema.Describe())

	case ".examples":
		printExamples(s.out)

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(s.out, "Current format: %s\n", s.format)
			return false
		}
		format, err := render.ParseFormat(parts[1])
		if err != nil {
			render.Error(s.errOut, "%v", err)
			return false
		}
		s.format = format
		render.Info(s.out, "Output format set to %s", format)

	case ".history":
		limit := defaultHistoryRows
		if len(parts) > 1 {
			n, err := strconv.Atoi(parts[1])
			if err != nil || n <= 0 {
				render.Error(s.errOut, "Usage: .history [n]")
				return false
			}
			limit = n
		}
		if err := printHistory(ctx, s.out, s.rt.History, limit); err != nil {
			render.Error(s.errOut, "%v", err)
		}

	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		render.Error(s.errOut, "Unknown command: %s (type .help for commands)", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .schema           Show the database schema
  .examples         Show example questions
  .format [name]    Show or set the output format (table, json, csv, md)
  .history [n]      Show the last n searches (default 10)
  .clear            Clear the screen
  .quit / .exit     Exit

Tips:
  - Any other line is sent as a question
  - Use arrow keys to navigate previous questions
`
	_, _ = fmt.Fprintln(w, help)
}

func newDotCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".schema"),
		readline.PcItem(".examples"),
		readline.PcItem(".format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("csv"),
			readline.PcItem("md"),
		),
		readline.PcItem(".history"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

// resolveHistoryFile returns path, or ~/.nlsql_history, or "" (no history
// file) when the home directory is unknown.
func resolveHistoryFile(path string) string {
	if path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFileName)
}

func printExamples(w io.Writer) {
	for _, g := range examples.All() {
		_, _ = fmt.Fprintf(w, "%s:\n", g.Name)
		for _, q := range g.Questions {
			_, _ = fmt.Fprintf(w, "  - %s\n", q)
		}
	}
}
