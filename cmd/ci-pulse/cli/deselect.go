package cli

import (
	"fmt"

	"github.com/davarch/ci-pulse/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var deselectCmd = &cobra.Command{
	Use:   "deselect <project>",
	Short: "Remove a project from the default filter in config.yaml",
	Args:  cobra.MatchAll(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		current := cfg.Filter.Projects
		if selectsAll(current) {
			// An open filter has no list to remove from; pin it to what the
			// exporter currently reports.
			snap, err := fetchSnapshot(cmd.Context(), sourceFor(cfg, ""))
			if err != nil {
				return fmt.Errorf("deselect from an open filter needs the live project list: %w", err)
			}
			current = snap.Projects.Sorted()
		}

		projects, changed := deselectProject(current, name)
		if !changed {
			fmt.Printf("no change (project %q not selected)\n", name)
			return nil
		}
		cfg.Filter.Projects = projects

		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
		fmt.Printf("deselected: %s\n", name)

		return nil
	},
}

func init() {
	deselectCmd.ValidArgsFunction = completeProjects

	rootCmd.AddCommand(deselectCmd)
}

func selectsAll(projects []string) bool {
	if len(projects) == 0 {
		return true
	}
	for _, p := range projects {
		if p == "" {
			return true
		}
	}
	return false
}

func deselectProject(current []string, name string) ([]string, bool) {
	out := make([]string, 0, len(current))
	changed := false
	for _, p := range current {
		if p == name {
			changed = true
			continue
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out, changed
}
