package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/librespark/verbadge/internal/config"
	"github.com/librespark/verbadge/internal/versioncheck"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	checkSources sourceFlags
	checkJSON    bool
)

func init() {
	checkSources.register(checkCmd)
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare the deployed version with the latest upstream version",
	Long: `Reads VERSION.txt from the deployment (or a local file) and the latest
VERSION.txt from upstream, trying the mirror first and GitHub directly when the
mirror is slow or failing.

  verbadge check                                   # deployment at base_url
  verbadge check --base-url https://tv.example.com
  verbadge check --current-file ./VERSION.txt --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Current()
		if err != nil {
			return err
		}
		checkSources.apply(cmd, &s)

		client := &http.Client{}
		r := newResolver(s, currentSource(&checkSources, s, client), client, slog.Default())

		stop := startSpinner(cmd.ErrOrStderr(), !checkJSON)
		res, err := r.Resolve(cmd.Context())
		stop()

		return printCheck(cmd.OutOrStdout(), res, err, checkJSON)
	},
}

// printCheck writes the check outcome as a table and status line, or as JSON.
// The check error is returned so the command exits non-zero.
func printCheck(w io.Writer, res *versioncheck.Result, checkErr error, asJSON bool) error {
	if asJSON {
		out := struct {
			*versioncheck.Result
			Error string `json:"error,omitempty"`
		}{Result: res}
		if checkErr != nil {
			out.Error = checkErr.Error()
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return checkErr
	}

	if checkErr != nil {
		fmt.Fprintln(w, "Version: detection failed")
		return fmt.Errorf("checking versions: %w", checkErr)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"", "Version", "Formatted"})
	t.AppendRow(table.Row{"Current", res.Current, res.CurrentFormatted})
	t.AppendRow(table.Row{"Latest", res.Latest, res.LatestFormatted})
	t.AppendFooter(table.Row{"Source", res.Source, ""})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if res.HasUpdate {
		fmt.Fprintf(w, "Update available: %s -> %s\n", res.CurrentFormatted, res.LatestFormatted)
	} else {
		fmt.Fprintf(w, "You are on the latest version (%s)\n", res.CurrentFormatted)
	}
	return nil
}

// startSpinner shows a spinner on w while a check runs, only when w is a
// terminal. The returned func stops it.
func startSpinner(w io.Writer, enabled bool) func() {
	f, ok := w.(*os.File)
	if !enabled || !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = " Checking for updates..."
	s.Start()
	return s.Stop
}
