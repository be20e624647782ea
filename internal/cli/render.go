package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/librespark/verbadge/internal/config"
	"github.com/librespark/verbadge/internal/footer"
	"github.com/librespark/verbadge/internal/versioncheck"
	"github.com/spf13/cobra"
)

var (
	renderSources sourceFlags
	renderOutput  string
	renderInPlace bool
	renderLang    string
)

func init() {
	renderSources.register(renderCmd)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "-", "Write the page here ('-' for stdout)")
	renderCmd.Flags().BoolVar(&renderInPlace, "in-place", false, "Overwrite the input page")
	renderCmd.Flags().StringVar(&renderLang, "lang", "", "Label language (e.g. en, zh-TW)")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render <page.html>",
	Short: "Inject the version indicator into an HTML page",
	Long: `Runs one version check and inserts the indicator after the footer's
copyright line (or into the footer container) of the given page.

  verbadge render site/index.html -o dist/index.html
  verbadge render site/index.html --in-place --lang zh-TW`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Current()
		if err != nil {
			return err
		}
		renderSources.apply(cmd, &s)
		if cmd.Flags().Changed("lang") {
			s.Lang = renderLang
		}

		input := args[0]
		page, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("reading page: %w", err)
		}

		client := &http.Client{}
		r := newResolver(s, currentSource(&renderSources, s, client), client, slog.Default())
		res, checkErr := resolveOnce(cmd.Context(), r)

		adapter := footer.New(footer.NewLabels(s.Lang), footer.Link{URL: s.RepoURL, NewTab: true})
		out, err := adapter.Rewrite(page, res, checkErr)
		if errors.Is(err, footer.ErrNoFooter) {
			slog.Warn("no footer found, page left unchanged", "page", input)
		} else if err != nil {
			return err
		}

		dest := renderOutput
		if renderInPlace {
			dest = input
		}
		if dest == "-" {
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		if err := os.WriteFile(dest, out, 0644); err != nil {
			return fmt.Errorf("writing page: %w", err)
		}
		return nil
	},
}

// resolveOnce runs a single check bounded by ctx.
func resolveOnce(ctx context.Context, r *versioncheck.Resolver) (*versioncheck.Result, error) {
	res, err := r.Resolve(ctx)
	if err != nil {
		slog.Warn("version check failed", "error", err)
	}
	return res, err
}
