package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	audithandler "auditwatch/internal/audit/handler"
	"auditwatch/internal/audit/monitor"
	auditservice "auditwatch/internal/audit/service"
	auditstore "auditwatch/internal/audit/store"
	"auditwatch/internal/compliance/seed"
	complianceservice "auditwatch/internal/compliance/service"
	compliancestore "auditwatch/internal/compliance/store"
	incidentservice "auditwatch/internal/incident/service"
	incidentstore "auditwatch/internal/incident/store"
	reporthandler "auditwatch/internal/report/handler"
	reportmodels "auditwatch/internal/report/models"
	reportservice "auditwatch/internal/report/service"
	id "auditwatch/pkg/domain"
	"auditwatch/pkg/platform/httputil"
)

// maxEventLine bounds one JSON line in an events file.
const maxEventLine = 1 << 20

type reportFlags struct {
	catalog string
	events  string
	from    string
	to      string
}

func newReportCommand(opts *options) *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report STANDARD",
		Short: "Generate a compliance report from a catalog and exported events",
		Long: `report loads the requirement catalog into an in-memory registry, replays
the events file (one JSON event per line, in the POST /v1/audit/events form)
through pattern monitoring and incident handling, and prints the report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			standard, err := id.ParseStandard(args[0])
			if err != nil {
				return err
			}
			window, err := flags.window(time.Now().UTC())
			if err != nil {
				return err
			}

			e := newEngine(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})))
			ctx := cmd.Context()
			if err := e.seed(ctx, flags.catalog); err != nil {
				return err
			}
			if flags.events != "" {
				f, err := os.Open(flags.events)
				if err != nil {
					return fmt.Errorf("open events file: %w", err)
				}
				defer f.Close()
				if _, err := e.replay(ctx, f); err != nil {
					return err
				}
			}

			report := e.generator.Generate(ctx, standard, window)
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, reporthandler.ToReportResponse(report))
			}
			printReport(out, report)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.catalog, "catalog", "", "YAML requirement catalog (default: built-in)")
	cmd.Flags().StringVar(&flags.events, "events", "", "JSON lines file of access events")
	cmd.Flags().StringVar(&flags.from, "from", "", "window start, RFC3339 (default: 30 days before --to)")
	cmd.Flags().StringVar(&flags.to, "to", "", "window end, RFC3339 (default: now)")
	return cmd
}

func (f *reportFlags) window(now time.Time) (reportmodels.Window, error) {
	w := reportmodels.Window{To: now}
	var err error
	if f.to != "" {
		if w.To, err = time.Parse(time.RFC3339, f.to); err != nil {
			return w, fmt.Errorf("--to must be RFC3339: %w", err)
		}
	}
	w.From = w.To.Add(-reportmodels.DefaultWindow)
	if f.from != "" {
		if w.From, err = time.Parse(time.RFC3339, f.from); err != nil {
			return w, fmt.Errorf("--from must be RFC3339: %w", err)
		}
	}
	return w, nil
}

// engine is the full pipeline on in-memory stores.
type engine struct {
	logger    *slog.Logger
	registry  *complianceservice.Registry
	recorder  *auditservice.Recorder
	generator *reportservice.Generator
}

func newEngine(logger *slog.Logger) *engine {
	cfg := monitor.DefaultConfig()
	incidents := incidentservice.New(incidentstore.NewInMemoryStore(), incidentservice.WithLogger(logger))
	// DefaultConfig always validates.
	mon, _ := monitor.New(monitor.NewInMemoryWindowStore(cfg.FailureWindow),
		monitor.WithLogger(logger),
		monitor.WithConfig(cfg),
		monitor.WithFlagHandler(incidents),
	)
	registry := complianceservice.New(compliancestore.NewInMemoryStore(), complianceservice.WithLogger(logger))
	recorder := auditservice.New(auditstore.NewInMemoryStore(),
		auditservice.WithLogger(logger),
		auditservice.WithPatternObserver(mon),
	)
	return &engine{
		logger:    logger,
		registry:  registry,
		recorder:  recorder,
		generator: reportservice.New(registry, incidents, recorder, reportservice.WithLogger(logger)),
	}
}

func (e *engine) seed(ctx context.Context, catalogPath string) error {
	_, cmds, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}
	_, err = seed.New(e.registry, e.logger).SeedAll(ctx, cmds)
	return err
}

// replay records every event in r. Blank lines are skipped; the first bad
// line aborts with its line number.
func (e *engine) replay(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	recorded, line := 0, 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var req audithandler.RecordEventRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return recorded, fmt.Errorf("events line %d: %w", line, err)
		}
		if err := httputil.PrepareRequest(&req); err != nil {
			return recorded, fmt.Errorf("events line %d: %w", line, err)
		}
		cmd, err := req.ToCommand()
		if err != nil {
			return recorded, fmt.Errorf("events line %d: %w", line, err)
		}
		if _, err := e.recorder.Record(ctx, cmd); err != nil {
			return recorded, fmt.Errorf("events line %d: %w", line, err)
		}
		recorded++
	}
	if err := scanner.Err(); err != nil {
		return recorded, fmt.Errorf("read events: %w", err)
	}
	return recorded, nil
}

func printReport(w io.Writer, r *reportmodels.Report) {
	fmt.Fprintf(w, "%s compliance report %s .. %s\n", r.Standard,
		r.Window.From.Format(time.RFC3339), r.Window.To.Format(time.RFC3339))
	fmt.Fprintf(w, "  score:         %d (%s)\n", r.ComplianceScore, r.Status)
	fmt.Fprintf(w, "  requirements:  %d/%d fulfilled, %d critical gaps, %d overdue reviews\n",
		r.Requirements.Fulfilled, r.Requirements.Total, r.CriticalGaps, r.Requirements.OverdueReviews)
	fmt.Fprintf(w, "  incidents:     %d total, %d open\n", r.Incidents.Total, r.Incidents.Open)
	fmt.Fprintf(w, "  events:        %d total, %d failures, %d denials, %d high risk\n",
		r.Events.Total, r.Events.Failures, r.Events.Denials, r.Events.HighRisk)
	if len(r.Flags) > 0 {
		fmt.Fprintf(w, "  flags:         %s\n", strings.Join(r.FlagStrings(), ", "))
	}
}
