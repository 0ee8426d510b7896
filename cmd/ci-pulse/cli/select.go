package cli

import (
	"fmt"
	"slices"

	"github.com/davarch/ci-pulse/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select <project>",
	Short: "Add a project to the default filter in config.yaml",
	Args:  cobra.MatchAll(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		projects, changed := selectProject(cfg.Filter.Projects, name)
		if !changed {
			fmt.Printf("no change (project %q already selected)\n", name)
			return nil
		}
		cfg.Filter.Projects = projects

		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}

		fmt.Printf("selected: %s\n", name)
		return nil
	},
}

func init() {
	selectCmd.ValidArgsFunction = completeProjects
	rootCmd.AddCommand(selectCmd)
}

// selectProject adds name to an explicit selection. The "All" entry is
// dropped so the selection narrows to what was picked.
func selectProject(current []string, name string) ([]string, bool) {
	if slices.Contains(current, name) && !slices.Contains(current, "") {
		return current, false
	}
	out := make([]string, 0, len(current)+1)
	for _, p := range current {
		if p != "" && p != name {
			out = append(out, p)
		}
	}
	return append(out, name), true
}

// completeProjects offers the projects currently present in the exposition.
func completeProjects(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	snap, err := fetchSnapshot(cmd.Context(), sourceFor(cfg, ""))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	out := make([]string, 0, snap.Projects.Len())
	for _, p := range snap.Projects.Sorted() {
		if toComplete == "" || startsWith(p, toComplete) {
			out = append(out, p)
		}
	}

	return out, cobra.ShellCompDirectiveNoFileComp
}

func startsWith(s, pref string) bool {
	if len(pref) > len(s) {
		return false
	}

	return s[:len(pref)] == pref
}
