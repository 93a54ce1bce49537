package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wakala/be2bill/internal/batch"
	"github.com/wakala/be2bill/internal/batch/observer"
	"github.com/wakala/be2bill/internal/repository"
)

var (
	batchReport   string
	batchQuiet    bool
	batchNoLedger bool
	batchSleep    time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file|->",
	Short: "Run a CSV batch file of gateway operations",
	Long: `Run every line of a CSV batch file as one gateway operation.

The first line names the parameters (OPERATIONTYPE, AMOUNT, ORDERID...).
IDENTIFIER and HASH are added by the tool and must not appear in the file.
Each line's outcome is printed, and optionally written to a CSV report,
stored in the ledger database and published to NATS.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchReport, "report", "r", "", "write a CSV report to this file")
	batchCmd.Flags().BoolVarP(&batchQuiet, "quiet", "q", false, "do not print a line per operation")
	batchCmd.Flags().BoolVar(&batchNoLedger, "no-ledger", false, "do not record the run in the database")
	batchCmd.Flags().DurationVar(&batchSleep, "sleep", 0, "pause between lines (overrides batch.sleep)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, source, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	client, err := a.client()
	if err != nil {
		return err
	}
	proc := batch.NewProcessor(client,
		batch.WithDialect(a.dialect()),
		batch.WithLogger(a.logger.Named("batch")),
	)

	if !batchQuiet {
		proc.Attach(observer.NewDebug(cmd.OutOrStdout()))
	}

	if batchReport != "" {
		report, err := observer.NewFileReportPath(batchReport)
		if err != nil {
			return err
		}
		defer report.Close()
		proc.Attach(report)
	}

	var ledger *observer.Ledger
	if !batchNoLedger && a.cfg.Database.Path != "" {
		db, err := repository.InitDB(a.cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("init db: %w", err)
		}
		defer db.Close()

		ledger = observer.NewLedger(repository.NewLedgerRepo(db), nil)
		runID, err := ledger.Begin(ctx, source)
		if err != nil {
			return err
		}
		a.logger.Info("batch run started", zap.String("run_id", runID), zap.String("source", source))
		proc.Attach(ledger)
	}

	if a.cfg.NATS.URL != "" {
		nc, err := connectNATS(a.cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer nc.Drain()

		runID := ""
		if ledger != nil {
			runID = ledger.RunID()
		}
		proc.Attach(observer.NewPublisher(nc, a.cfg.NATS.Subject, runID))
	}

	proc.Attach(observer.NewMetrics(a.registry))
	if addr := a.cfg.Listen.MetricsAddress; addr != "" {
		stopMetrics := serveMetrics(addr)
		defer stopMetrics()
	}

	sleep := a.cfg.Batch.Sleep
	if cmd.Flags().Changed("sleep") {
		sleep = batchSleep
	}
	if sleep > 0 {
		proc.Attach(observer.NewSleep(sleep, nil))
	}

	runErr := proc.Run(ctx, in)
	if ledger != nil {
		// The run context may be cancelled already; the final status must
		// still be written.
		if err := ledger.Finish(context.Background(), runErr); err != nil {
			a.logger.Error("finish ledger run", zap.Error(err))
		}
	}
	if runErr != nil {
		return fmt.Errorf("batch %s: %w", source, runErr)
	}
	return nil
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open batch file: %w", err)
	}
	return f, path, nil
}

func connectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("be2bill"),
		nats.ReconnectWait(3*time.Second),
		nats.MaxReconnects(5),
		nats.PingInterval(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return nc, nil
}

// serveMetrics exposes the registry until the returned function is called.
func serveMetrics(addr string) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
