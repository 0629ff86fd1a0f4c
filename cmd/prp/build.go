package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/prp-express/constants"
	"github.com/joseph-ayodele/prp-express/internal/export"
	"github.com/joseph-ayodele/prp-express/internal/ingest"
	"github.com/joseph-ayodele/prp-express/internal/session"
	"github.com/joseph-ayodele/prp-express/internal/utils"
)

type buildOptions struct {
	subject       string
	defaults      fieldDefaults
	refine        []string
	clearNotFound bool
	partial       bool
	outDir        string
	skipHidden    bool
	timeout       time.Duration
}

func buildCmd(g *globalFlags) *cobra.Command {
	o := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build [flags] FILE|DIR...",
		Short: "Extract, complete and export PRP reports in one pass",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), g, o, args, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.subject, "subject", "s", "", "Subject to extract from each PSP (required)")
	f.StringVar(&o.defaults.teacher, "teacher", "", "Responsible teacher for every report")
	f.StringVar(&o.defaults.taking, "taking", "", "Whether students take the subject (YES or NO)")
	f.StringVar(&o.defaults.proposal, "proposal", "", "Methodological proposal for every report")
	f.StringVar(&o.defaults.plan, "plan", "", "Detailed evaluation plan for every report")
	f.StringSliceVar(&o.refine, "refine", nil, "Fields to rewrite formally with the LLM (repeatable)")
	f.BoolVar(&o.clearNotFound, "clear-not-found", false, "Drop students whose PSP does not mention the subject")
	f.BoolVar(&o.partial, "partial", false, "Export complete reports even when others are incomplete")
	f.StringVarP(&o.outDir, "out", "o", "", "Output directory (default from PRP_OUT_DIR)")
	f.BoolVar(&o.skipHidden, "skip-hidden", true, "Skip hidden files and directories")
	f.DurationVar(&o.timeout, "timeout", 10*time.Minute, "Overall time limit")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func runBuild(ctx context.Context, g *globalFlags, o *buildOptions, paths []string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if strings.TrimSpace(o.subject) == "" {
		return errors.New("--subject is required")
	}
	if _, err := o.defaults.values(); err != nil {
		return err
	}
	refine := make([]constants.Field, 0, len(o.refine))
	for _, name := range o.refine {
		f, ok := constants.ParseField(name)
		if !ok {
			return fmt.Errorf("--refine: unknown field %q", name)
		}
		refine = append(refine, f)
	}

	rt, err := newRuntime(ctx, g, o.subject)
	if err != nil {
		return err
	}
	defer rt.close(context.Background())
	log := rt.logger
	store := rt.store

	ingestor := ingest.NewFSIngestor(store, log)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if _, _, err := ingestor.IngestDirectory(ctx, p, o.skipHidden); err != nil {
				return err
			}
			continue
		}
		if _, err := ingestor.IngestPath(ctx, p); err != nil {
			log.Warn("build.ingest.failed", "path", p, "error", err)
		}
	}
	if store.Len() == 0 {
		return errors.New("no PSP content found in the given paths")
	}

	if err := store.Settled(ctx); err != nil {
		return fmt.Errorf("waiting for extraction: %w", err)
	}
	if o.clearNotFound {
		store.ClearNotFound()
	}
	if err := applyDefaults(store, o.defaults); err != nil {
		return err
	}
	refineAll(ctx, rt, refine)

	printSummary(out, store)

	outDir := o.outDir
	if outDir == "" {
		outDir = rt.cfg.Export.OutDir
	}
	exporter := export.NewService(log, rt.cfg.Queue.Workers)
	written, err := exportSession(ctx, exporter, store, outDir, o.partial)
	for _, p := range written {
		fmt.Fprintln(out, p)
	}
	return err
}

// applyDefaults fills the first record and copies each value onto the rest.
func applyDefaults(store *session.Store, d fieldDefaults) error {
	vals, err := d.values()
	if err != nil || len(vals) == 0 {
		return err
	}
	recs := store.Records()
	if len(recs) == 0 {
		return nil
	}
	first := recs[0].ID
	store.SetActive(first)
	for f, v := range vals {
		store.UpdateField(first, f, v)
		if _, err := store.Propagate(f, session.AllRecords); err != nil {
			return fmt.Errorf("propagate %s: %w", f, err)
		}
	}
	return nil
}

func refineAll(ctx context.Context, rt *runtime, fields []constants.Field) {
	if len(fields) == 0 {
		return
	}
	for _, rec := range rt.store.Records() {
		rt.store.SetActive(rec.ID)
		for _, f := range fields {
			if _, err := rt.store.Refine(ctx, f); err != nil {
				rt.logger.Warn("build.refine.skipped", "student", rec.StudentName, "field", f, "reason", err)
			}
		}
	}
}

func exportSession(ctx context.Context, exporter *export.Service, store *session.Store, dir string, partial bool) ([]string, error) {
	recs := store.Records()
	if store.AllComplete() {
		return exporter.WriteAll(ctx, dir, recs)
	}
	if !partial {
		return nil, fmt.Errorf("%w: fill the missing fields or pass --partial", export.ErrIncomplete)
	}

	return exporter.WriteComplete(ctx, dir, recs)
}

func printSummary(out io.Writer, store *session.Store) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STUDENT\tSTATUS\tMISSING")
	for i, rec := range store.Records() {
		missing := make([]string, 0)
		for _, f := range rec.MissingFields() {
			missing = append(missing, f.Label())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			utils.Truncate(rec.DisplayName(fmt.Sprintf("Alumno %d", i+1)), 32),
			rec.Status,
			utils.Truncate(strings.Join(missing, ", "), 60),
		)
	}
	_ = tw.Flush()
}
