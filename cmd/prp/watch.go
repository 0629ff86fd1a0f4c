package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/prp-express/constants"
	"github.com/joseph-ayodele/prp-express/internal/export"
	"github.com/joseph-ayodele/prp-express/internal/ingest"
)

type watchOptions struct {
	subject  string
	inbox    string
	outDir   string
	defaults fieldDefaults
	debounce time.Duration
}

func watchCmd(g *globalFlags) *cobra.Command {
	o := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch an inbox directory and export each report as soon as it is complete",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, g, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.subject, "subject", "s", "", "Subject to extract from each PSP (required)")
	f.StringVar(&o.inbox, "inbox", "", "Directory to watch for PSP files (required)")
	f.StringVarP(&o.outDir, "out", "o", "", "Output directory (default from PRP_OUT_DIR)")
	f.StringVar(&o.defaults.teacher, "teacher", "", "Responsible teacher for every report")
	f.StringVar(&o.defaults.taking, "taking", "", "Whether students take the subject (YES or NO)")
	f.StringVar(&o.defaults.proposal, "proposal", "", "Methodological proposal for every report")
	f.StringVar(&o.defaults.plan, "plan", "", "Detailed evaluation plan for every report")
	f.DurationVar(&o.debounce, "debounce", 500*time.Millisecond, "Wait this long after the last write before reading a file")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("inbox")
	return cmd
}

func runWatch(ctx context.Context, g *globalFlags, o *watchOptions) error {
	if _, err := o.defaults.values(); err != nil {
		return err
	}
	rt, err := newRuntime(ctx, g, o.subject)
	if err != nil {
		return err
	}
	log := rt.logger
	store := rt.store

	outDir := o.outDir
	if outDir == "" {
		outDir = rt.cfg.Export.OutDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	exporter := export.NewService(log, 1)
	namer := export.NewNamer()
	ingestor := ingest.NewFSIngestor(store, log)

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{o.inbox},
		InitialScan: true,
		SkipHidden:  true,
		Debounce:    o.debounce,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	log.Info("watch.start", "inbox", o.inbox, "out", outDir)

	// finish waits for one record to settle, fills the defaults and writes
	// the workbook when nothing is missing.
	finish := func(id string) {
		rec, ok, err := store.WaitRecord(ctx, parseID(id))
		if err != nil || !ok {
			return
		}
		if rec.Status == constants.StatusNotFound {
			log.Info("watch.record.not_found", "student", rec.StudentName, "subject", rec.Subject)
			return
		}
		if err := o.defaults.applyTo(store, rec.ID); err != nil {
			log.Warn("watch.defaults.failed", "error", err)
			return
		}
		rec, _ = store.Get(rec.ID)
		data, err := exporter.ExportReportXLSX(ctx, rec)
		if err != nil {
			log.Info("watch.record.incomplete", "student", rec.StudentName, "missing", rec.MissingFields())
			return
		}
		p := filepath.Join(outDir, namer.Next(rec))
		if err := os.WriteFile(p, data, 0o644); err != nil {
			log.Error("watch.write.failed", "path", p, "error", err)
			return
		}
		log.Info("watch.record.exported", "student", rec.StudentName, "path", p)
	}

	pending := make(chan struct{}, 64)
	for {
		select {
		case p, ok := <-events:
			if !ok {
				return drain(rt, pending)
			}
			res, err := ingestor.IngestPath(ctx, p)
			if err != nil {
				log.Warn("watch.ingest.failed", "path", p, "error", err)
				continue
			}
			if res.Skipped || res.Deduplicated || res.ReportID == "" {
				continue
			}
			pending <- struct{}{}
			go func(id string) {
				defer func() { <-pending }()
				finish(id)
			}(res.ReportID)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Warn("watch.error", "error", err)
		}
	}
}

// drain waits for every finish goroutine to return, then stops the queue.
func drain(rt *runtime, pending chan struct{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), rt.cfg.Queue.Timeout)
	defer cancel()
	for i := 0; i < cap(pending); i++ {
		select {
		case pending <- struct{}{}:
		case <-ctx.Done():
			rt.close(ctx)
			return errors.New("timed out waiting for in-flight reports")
		}
	}
	rt.close(ctx)
	rt.logger.Info("watch.stop", "records", rt.store.Len())
	fmt.Fprintf(os.Stderr, "processed %d reports\n", rt.store.Len())
	return nil
}
