package cli

import (
	"os"

	"github.com/davarch/ci-pulse/internal/application"
	"github.com/davarch/ci-pulse/internal/domain"
	"github.com/davarch/ci-pulse/internal/infrastructure/logging"
	"github.com/davarch/ci-pulse/internal/infrastructure/render_term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	showFile    string
	showJSON    bool
	showFilters filterFlags
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Fetch the exposition once and print the dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		criteria, err := showFilters.criteria(cmd, cfg)
		if err != nil {
			return err
		}

		obs, shutdown, err := observer(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(cmd.Context()) }()

		var view domain.Presenter = render_term.New(os.Stdout)
		if showJSON {
			view = newJSONPresenter(os.Stdout)
		}

		uc := application.NewRefreshUseCase(log, application.NewSnapshotStore(), application.Deps{
			Source:    sourceFor(cfg, showFile),
			Presenter: view,
			Observer:  obs,
		}, criteria)

		if err := uc.Refresh(cmd.Context()); err != nil {
			log.Debug("refresh failed", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showFile, "file", "", `read the exposition from a file ("-" for stdin) instead of the endpoint`)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print JSON")
	showFilters.register(showCmd)

	_ = showCmd.RegisterFlagCompletionFunc("status", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return statusNames(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(showCmd)
}

func statusNames() []string {
	return []string{
		string(domain.StatusSuccess), string(domain.StatusFailed), string(domain.StatusCanceled),
		string(domain.StatusSkipped), string(domain.StatusRunning), string(domain.StatusPending),
		string(domain.StatusCreated), string(domain.StatusUnknown),
	}
}
