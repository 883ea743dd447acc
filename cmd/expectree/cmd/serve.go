package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/expectree/internal/check"
	"github.com/solatis/expectree/internal/codec"
	"github.com/solatis/expectree/internal/core/logging"
	"github.com/solatis/expectree/internal/core/metrics"
	"github.com/solatis/expectree/internal/core/server"
	"github.com/solatis/expectree/internal/state"
)

var serveCmd = &cobra.Command{
	Use:   "serve TREE",
	Short: "Serve the root status over gRPC health and re-check on fact changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
	serveCmd.Flags().String("metrics-addr", ":9090", "Prometheus listen address (empty to disable)")
	serveCmd.Flags().String("facts", "", "JSON or YAML facts file; checks re-run when it changes")
	serveCmd.Flags().Bool("watch-tree", false, "rebind when the tree document changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	logger := logging.FromContext(ctx)

	serveCfg := cfg.Serve
	if cmd.Flags().Changed("host") {
		serveCfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		serveCfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("metrics-addr") {
		serveCfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	}
	factsPath, _ := cmd.Flags().GetString("facts")
	watchTree, _ := cmd.Flags().GetBool("watch-tree")
	treePath := args[0]

	t, err := loadTree(treePath, false)
	if err != nil {
		return err
	}

	m := metrics.New()
	defer m.Track(t)()

	defer t.Subscribe(func(ev state.Event) {
		if ev.PreviousSnapshot != nil && ev.PreviousSnapshot.Status != ev.Snapshot.Status {
			logger.Info("root status changed", "from", ev.PreviousSnapshot.Status, "to", ev.Snapshot.Status)
		}
	})()

	registry, err := check.DefaultRegistry()
	if err != nil {
		return err
	}
	runner := &check.Runner{
		Registry:    registry,
		Concurrency: cfg.Checks.Concurrency,
		Logger:      logger,
		Observe:     m.ObserveCheck,
	}
	rc := &rechecker{
		tree:      t,
		runner:    runner,
		factsPath: factsPath,
		treePath:  treePath,
		logger:    logger,
	}
	rc.Recheck(ctx)

	grpcServer, err := server.NewGRPCServer(serveCfg, t, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting expectree", "version", Version, "host", serveCfg.Host, "port", serveCfg.Port, "root", t.Status())
	errChan := make(chan error, 4)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	var metricsServer *http.Server
	if serveCfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{Addr: serveCfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics server: %w", err)
			}
		}()
		logger.Info("serving metrics", "addr", serveCfg.MetricsAddr)
	}

	if factsPath != "" {
		go watch(ctx, errChan, factsPath, serveCfg.Debounce, logger, func() { rc.Recheck(ctx) })
	}
	if watchTree {
		go watch(ctx, errChan, treePath, serveCfg.Debounce, logger, func() {
			if err := rc.Reload(ctx); err != nil {
				logger.Error("failed to reload tree", "path", treePath, "error", err)
			}
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case runErr = <-errChan:
	case <-sigChan:
		logger.Info("shutting down gracefully")
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 30*time.Second)
	defer done()
	var errs []error
	errs = append(errs, runErr, grpcServer.Shutdown(shutdownCtx))
	if metricsServer != nil {
		errs = append(errs, metricsServer.Shutdown(shutdownCtx))
	}
	return errors.Join(errs...)
}

func watch(ctx context.Context, errChan chan<- error, path string, debounce time.Duration, logger *slog.Logger, onChange func()) {
	err := check.WatchFile(ctx, path, debounce, logger, onChange)
	if err != nil && !errors.Is(err, context.Canceled) {
		errChan <- fmt.Errorf("watch %s: %w", path, err)
	}
}

// rechecker re-runs checks and reloads the tree document for serve. Both
// watchers call into it; runs never overlap each other or a rebind.
type rechecker struct {
	mu sync.Mutex

	tree      *state.Tree
	runner    *check.Runner
	factsPath string
	treePath  string
	logger    *slog.Logger
}

// Recheck runs every check against the current facts file.
func (r *rechecker) Recheck(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recheck(ctx)
}

func (r *rechecker) recheck(ctx context.Context) {
	if r.factsPath == "" {
		return
	}
	facts, err := codec.ReadFacts(r.factsPath)
	if err != nil {
		r.logger.Error("failed to read facts", "path", r.factsPath, "error", err)
		return
	}
	summary, err := r.runner.Run(ctx, r.tree, facts)
	if err != nil && ctx.Err() == nil {
		r.logger.Warn("some checks failed", "error", err)
	}
	r.logger.Info("checks complete", "passed", summary.Passed, "failed", summary.Failed,
		"unknown", summary.Unknown, "root", r.tree.Status())
}

// Reload re-reads the tree document, rebinds onto it and re-runs the checks.
// Leaves keep their status when their id survives.
func (r *rechecker) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := codec.ReadFile(r.treePath)
	if err != nil {
		return err
	}
	ids, err := cfg.IDGenerator()
	if err != nil {
		return err
	}
	root, err := codec.ImportRoot(doc, codec.ImportOptions{PreserveIDs: true, IDs: ids})
	if err != nil {
		return err
	}
	if err := r.tree.Rebind(root); err != nil {
		return err
	}
	r.logger.Info("tree reloaded", "path", r.treePath, "leaves", len(root.Leaves()), "changes", len(r.tree.Diffs()))
	r.recheck(ctx)
	return nil
}
