// Command wetgis runs the wetland delineation GIS tools: attachment export,
// map date-and-export, project scaffolding, domain cleanup, geodatabase export
// and the validate-then-append loader.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	kafkaadapter "github.com/couchcryptid/wetland-gis-tools/internal/adapter/kafka"
	"github.com/couchcryptid/wetland-gis-tools/internal/config"
	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/observability"
	"github.com/couchcryptid/wetland-gis-tools/internal/reference"
)

// Exit codes.
const (
	exitOK           = 0
	exitOther        = 1
	exitPrecondition = 2
	exitExists       = 3
	exitExternal     = 4
	exitPartial      = 5
)

// publishTimeout bounds run event delivery once the tool's work is done.
const publishTimeout = 10 * time.Second

// errPartial marks a run that finished with failed guarded steps.
var errPartial = errors.New("completed with failures")

type publisher interface {
	Publish(ctx context.Context, ev *domain.RunEvent) error
	Close() error
}

// app holds what every subcommand needs. It is filled in by the root
// command's pre-run hook.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	tables    *reference.Tables
	publisher publisher

	verbose        bool
	out            io.Writer
	publishTimeout time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, publishTimeout: publishTimeout}
	root := &cobra.Command{
		Use:           "wetgis",
		Short:         "Wetland delineation GIS tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		a.exportAttachmentsCmd(),
		a.updateMapsCmd(),
		a.newProjectCmd(),
		a.newPersonProjectCmd(),
		a.deleteUnusedDomainsCmd(),
		a.exportGeodatabaseCmd(),
		a.appendCmd(),
		a.validateCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(cfg, a.verbose)
	a.metrics = observability.NewMetrics()

	if a.tables, err = reference.Load(cfg.ReferenceFile); err != nil {
		return fmt.Errorf("load reference tables: %w", err)
	}
	a.logger.Debug("reference tables loaded", "version", a.tables.Version())

	if cfg.RunEventsEnabled() {
		a.publisher = kafkaadapter.NewPublisher(cfg, a.logger)
		a.logger.Debug("run events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		a.publisher = kafkaadapter.NopPublisher{}
	}
	return nil
}

func (a *app) teardown() {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("run event publisher close error", "error", err)
	}
}

// run wraps one tool invocation in a run event. fn reports whether guarded
// steps failed. The event is recorded in metrics and published whatever the
// outcome; neither can fail the run. The publisher is closed on return.
func (a *app) run(ctx context.Context, tool string, args []string, fn func(ev *domain.RunEvent) (partial bool, err error)) error {
	defer a.teardown()
	ev := domain.NewRunEvent(tool, args)
	a.logger.Info("run started", "tool", tool, "run_id", ev.ID)

	partial, err := fn(ev)
	ev.Finish(err, partial)

	a.metrics.ObserveRun(ev)
	if a.cfg.MetricsTextfile != "" {
		if werr := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); werr != nil {
			a.logger.Error("metrics not written", "path", a.cfg.MetricsTextfile, "error", werr)
		}
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.publishTimeout)
	if perr := a.publisher.Publish(pctx, ev); perr != nil {
		a.logger.Error("run event not published", "run_id", ev.ID, "error", perr)
	}
	cancel()

	switch {
	case err != nil:
		a.logger.Error("run failed", "tool", tool, "kind", domain.KindName(err), "error", err,
			"duration", ev.Duration())
		return err
	case partial:
		a.logger.Warn("run finished with failures", "tool", tool, "summary", ev.Summary, "duration", ev.Duration())
		return errPartial
	}
	a.logger.Info("run finished", "tool", tool, "summary", ev.Summary, "duration", ev.Duration())
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, errPartial) {
		return exitPartial
	}
	switch domain.KindOf(err) {
	case domain.ErrPreconditionFailed:
		return exitPrecondition
	case domain.ErrResourceExists:
		return exitExists
	case domain.ErrExternalCallFailed:
		return exitExternal
	}
	// Errors raised before a run starts, such as bad arguments, are not logged yet.
	fmt.Fprintln(os.Stderr, "wetgis:", err)
	return exitOther
}
