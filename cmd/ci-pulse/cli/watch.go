package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/davarch/ci-pulse/internal/application"
	"github.com/davarch/ci-pulse/internal/domain"
	"github.com/davarch/ci-pulse/internal/infrastructure/cache_fs"
	"github.com/davarch/ci-pulse/internal/infrastructure/config"
	"github.com/davarch/ci-pulse/internal/infrastructure/logging"
	"github.com/davarch/ci-pulse/internal/infrastructure/notify_libnotify"
	"github.com/davarch/ci-pulse/internal/infrastructure/render_term"
	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const watchHint = "enter: refresh │ a+enter: toggle auto refresh │ q+enter: quit"

var (
	watchNoAuto  bool
	watchFilters filterFlags
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the dashboard on screen, refreshing on a timer or on demand",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		tty := isatty.IsTerminal(os.Stdout.Fd())
		log, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, Quiet: tty})
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		criteria, err := watchFilters.criteria(cmd, cfg)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		obs, shutdown, err := observer(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			_ = shutdown(sctx)
		}()

		deps := application.Deps{
			Source:    sourceFor(cfg, ""),
			Presenter: render_term.New(os.Stdout).WithHint(watchHint),
			Cache:     cache_fs.New(cfg.Cache.Path),
			Observer:  obs,
		}
		if cfg.Notify.Enabled {
			deps.Notifier = notify_libnotify.NewSoft().WithDefaults(notify_libnotify.Options{Urgency: "normal"})
		}

		uc := application.NewRefreshUseCase(log, application.NewSnapshotStore(), deps, criteria)
		sched := application.NewScheduler(log, uc, cfg.Refresh.Interval, cfg.Refresh.PauseFile)

		log.Info("start",
			zap.String("version", buildVersion()),
			zap.String("metrics", cfg.Metrics.URL),
			zap.Duration("every", cfg.Refresh.Interval),
			zap.Bool("auto", cfg.AutoRefresh() && !watchNoAuto),
			zap.String("cache", cfg.Cache.Path),
			zap.String("pause_file", cfg.Refresh.PauseFile),
		)

		if err := uc.Refresh(ctx); err != nil {
			log.Warn("initial refresh failed", zap.Error(err))
		}
		if cfg.AutoRefresh() && !watchNoAuto {
			sched.Start(ctx)
		}

		watchAndReload(ctx, cfgPath, log, sched, uc, func(c config.Config) (domain.Criteria, error) {
			return watchFilters.criteria(cmd, c)
		})
		go readKeys(ctx, os.Stdin, log, sched, uc, cancel)

		<-ctx.Done()
		sched.Stop()
		log.Info("stopped")
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoAuto, "no-auto", false, "start with auto refresh off")
	watchFilters.register(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

// readKeys handles line-based commands from stdin until EOF.
func readKeys(ctx context.Context, r io.Reader, log *zap.Logger, sched *application.Scheduler, uc *application.RefreshUseCase, quit context.CancelFunc) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "":
			go func() {
				if err := uc.Refresh(ctx); err != nil && ctx.Err() == nil {
					log.Warn("manual refresh failed", zap.Error(err))
				}
			}()
		case "a":
			sched.Toggle(ctx)
		case "q":
			quit()
			return
		}
	}
}

// watchAndReload re-reads the config file when it changes. Filter flags given on
// the command line keep winning over the reloaded file.
func watchAndReload(ctx context.Context, cfgPath string, log *zap.Logger, sched *application.Scheduler, uc *application.RefreshUseCase,
	criteriaOf func(config.Config) (domain.Criteria, error)) {
	if cfgPath == "" {
		return
	}

	dir := filepath.Dir(cfgPath)
	base := filepath.Base(cfgPath)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("fsnotify init failed", zap.Error(err))
		return
	}

	if err := w.Add(dir); err != nil {
		log.Warn("fsnotify add dir failed", zap.String("dir", dir), zap.Error(err))
		_ = w.Close()
		return
	}

	reload := func() {
		cfg, err := loadConfig()
		if err != nil {
			log.Warn("config reload failed", zap.Error(err))
			return
		}
		criteria, err := criteriaOf(cfg)
		if err != nil {
			log.Warn("config reload: bad filter", zap.Error(err))
			return
		}
		sched.SetInterval(cfg.Refresh.Interval)
		if err := uc.SetCriteria(ctx, criteria); err != nil {
			log.Warn("config reload: render failed", zap.Error(err))
		}
		log.Info("config reloaded", zap.Duration("every", cfg.Refresh.Interval))
	}

	go func() {
		defer func() { _ = w.Close() }()

		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}

				if filepath.Base(ev.Name) != base {
					continue
				}

				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					if debounce == nil {
						debounce = time.AfterFunc(300*time.Millisecond, reload)
					} else {
						debounce.Reset(300 * time.Millisecond)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("fsnotify error", zap.Error(err))
			}
		}
	}()
}
