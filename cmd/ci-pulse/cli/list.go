package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/davarch/ci-pulse/internal/domain"
	"github.com/davarch/ci-pulse/internal/exposition"
	"github.com/spf13/cobra"
)

var (
	listOnlySelected   bool
	listOnlyUnselected bool
	listJSON           bool
	listFile           string
)

type listItem struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

var listCmd = &cobra.Command{
	Use:       "list projects|refs",
	Short:     "List the projects or refs found in the exposition",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"projects", "refs"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		crit, err := cfg.Criteria()
		if err != nil {
			return err
		}

		snap, err := fetchSnapshot(cmd.Context(), sourceFor(cfg, listFile))
		if err != nil {
			return err
		}

		names, sel := snap.Projects.Sorted(), crit.Projects
		if args[0] == "refs" {
			names, sel = snap.Refs.Sorted(), crit.Refs
		}

		items := make([]listItem, 0, len(names))
		for _, n := range names {
			selected := sel.Len() == 0 || sel.Has("") || sel.Has(n)
			if listOnlySelected && !selected {
				continue
			}
			if listOnlyUnselected && selected {
				continue
			}
			items = append(items, listItem{Name: n, Selected: selected})
		}

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tSELECTED")
		for _, it := range items {
			_, _ = fmt.Fprintf(w, "%s\t%t\n", it.Name, it.Selected)
		}
		_ = w.Flush()
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listOnlySelected, "selected", false, "show only names the configured filter selects")
	listCmd.Flags().BoolVar(&listOnlyUnselected, "unselected", false, "show only names the configured filter hides")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")
	listCmd.Flags().StringVar(&listFile, "file", "", `read the exposition from a file ("-" for stdin) instead of the endpoint`)

	listCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if listOnlySelected && listOnlyUnselected {
			return fmt.Errorf("flags --selected and --unselected are mutually exclusive")
		}
		return nil
	}

	rootCmd.AddCommand(listCmd)
}

// fetchSnapshot reads and parses one exposition without rendering it.
func fetchSnapshot(ctx context.Context, src domain.MetricsSource) (domain.Snapshot, error) {
	body, err := src.Fetch(ctx)
	if err != nil {
		return domain.EmptySnapshot(), err
	}
	return exposition.Parse(body).Snapshot, nil
}
