package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"vcfo/internal/config"
	"vcfo/internal/dataprocessing"
	"vcfo/internal/exporter"
	"vcfo/internal/files"
	"vcfo/internal/infrastructure"
	"vcfo/pkg/contracts"
	"vcfo/pkg/contracts/domain"
)

// Export file names written under -export-dir
const (
	CSVExportName      = "financial-records.csv"
	WorkbookExportName = "financial-records.xlsx"
)

type options struct {
	files     []string
	dir       string
	exportDir string
	maxBytes  int64
	topDays   int
	period    string
	logLevel  string
	indent    bool
	latest    bool
	version   bool
}

// FileSummary reports how one input file was parsed
type FileSummary struct {
	File     string `json:"file"`
	Rows     int    `json:"rows"`
	Accepted int    `json:"accepted"`
	Dropped  int    `json:"dropped"`
}

// Output is the JSON document printed on stdout
type Output struct {
	Files     []FileSummary        `json:"files"`
	Dashboard domain.DashboardView `json:"dashboard"`
	Trend     []domain.TrendPoint  `json:"trend,omitempty"`
	Exports   []string             `json:"exports,omitempty"`
}

type parsedFile struct {
	records []domain.FinancialRecord
	stats   dataprocessing.ParseStats
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(contracts.GetVersionInfo())
		return
	}

	logger := infrastructure.NewJSONLogger(os.Stderr, opts.logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, logger); err != nil {
		logger.Error("Ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.dir, "dir", "", "also ingest every CSV and XLSX export in this directory")
	fs.BoolVar(&opts.latest, "latest", false, "with -dir, ingest only the most recently modified export")
	fs.Int64Var(&opts.maxBytes, "max-bytes", config.DefaultMaxUploadBytes, "reject input files larger than this")
	fs.StringVar(&opts.exportDir, "export-dir", "", "write "+CSVExportName+" and "+WorkbookExportName+" into this directory")
	fs.IntVar(&opts.topDays, "top-days", config.DefaultTopDaysLimit, "number of best sales days to report")
	fs.StringVar(&opts.period, "trend", "", "also print the sales trend: daily, weekly or monthly")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.BoolVar(&opts.indent, "indent", true, "indent the JSON output")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: ingest [flags] [file.csv|file.xlsx ...]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.files = fs.Args()
	if opts.version {
		return opts, nil
	}
	if len(opts.files) == 0 && opts.dir == "" {
		fs.Usage()
		return opts, errors.New("at least one input file or -dir is required")
	}
	if opts.latest && opts.dir == "" {
		return opts, errors.New("-latest requires -dir")
	}
	if opts.topDays <= 0 {
		return opts, fmt.Errorf("-top-days must be positive, got %d", opts.topDays)
	}
	switch domain.Granularity(opts.period) {
	case "", domain.GranularityDaily, domain.GranularityWeekly, domain.GranularityMonthly:
	default:
		return opts, fmt.Errorf("-trend must be daily, weekly or monthly, got %q", opts.period)
	}

	return opts, nil
}

// run parses every input file concurrently, merges the records and prints
// the dashboard. Any file failing validation aborts the run.
func run(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger) error {
	inputs, err := resolveInputs(opts, logger)
	if err != nil {
		return err
	}
	opts.files = inputs

	logger.InfoContext(ctx, "Starting ingest",
		slog.Int("files", len(opts.files)),
		slog.String("export_dir", opts.exportDir))

	parser := dataprocessing.NewParser(logger)
	parsed := make([]parsedFile, len(opts.files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range opts.files {
		g.Go(func() error {
			records, stats, err := loadFile(gctx, parser, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			parsed[i] = parsedFile{records: records, stats: stats}
			logger.InfoContext(gctx, "Parsed file",
				slog.String("file", path),
				slog.Int("accepted", stats.Accepted),
				slog.Int("dropped", stats.Dropped))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := Output{Files: make([]FileSummary, len(opts.files))}
	var records []domain.FinancialRecord
	for i, p := range parsed {
		out.Files[i] = FileSummary{
			File:     opts.files[i],
			Rows:     p.stats.Rows,
			Accepted: p.stats.Accepted,
			Dropped:  p.stats.Dropped,
		}
		records = append(records, p.records...)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	aggregator := dataprocessing.NewAggregator(logger, dataprocessing.AggregatorConfig{TopDays: opts.topDays})
	out.Dashboard = aggregator.Aggregate(ctx, records)

	if opts.period != "" {
		points, err := dataprocessing.TrendSeries(records, domain.Granularity(opts.period))
		if err != nil {
			return err
		}
		out.Trend = points
	}

	if opts.exportDir != "" {
		writer := exporter.NewWriter(logger, opts.exportDir)
		csvPath, err := writer.WriteCSVFile(CSVExportName, records, exporter.WriteOptions{BOMPrefix: true})
		if err != nil {
			return fmt.Errorf("failed to write CSV export: %w", err)
		}
		xlsxPath, err := writer.WriteWorkbookFile(WorkbookExportName, out.Dashboard)
		if err != nil {
			return fmt.Errorf("failed to write workbook export: %w", err)
		}
		out.Exports = []string{csvPath, xlsxPath}
	}

	enc := json.NewEncoder(stdout)
	if opts.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logger.InfoContext(ctx, "Ingest complete",
		slog.Int("records", len(records)),
		slog.Float64("total_sales", out.Dashboard.Summary.TotalSales))
	return nil
}

// resolveInputs appends the exports found under -dir, or only the newest one
// with -latest, to the named files and validates every input, plus the
// export directory, before parsing
func resolveInputs(opts options, logger *slog.Logger) ([]string, error) {
	inputs := append([]string(nil), opts.files...)
	if opts.dir != "" {
		found, err := files.NewDiscovery("").FindExports(opts.dir)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			logger.Warn("No exports found", slog.String("directory", opts.dir))
		}
		if latest, ok := files.GetLatestFile(found); ok && opts.latest {
			logger.Info("Using latest export",
				slog.String("file", latest.Path),
				slog.Time("modified", latest.ModTime))
			found = []files.FileInfo{latest}
		}
		inputs = append(inputs, files.Paths(found)...)
	}
	if len(inputs) == 0 {
		return nil, errors.New("no input files to ingest")
	}

	validator := files.NewValidator(opts.maxBytes, logger)
	for _, path := range inputs {
		if err := validator.ValidateInput(path); err != nil {
			return nil, err
		}
	}
	if opts.exportDir != "" {
		if err := validator.ValidateOutputDirectory(opts.exportDir); err != nil {
			return nil, err
		}
	}
	return inputs, nil
}

// loadFile validates and parses one CSV or XLSX export
func loadFile(ctx context.Context, parser *dataprocessing.Parser, path string) ([]domain.FinancialRecord, dataprocessing.ParseStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, dataprocessing.ParseStats{}, err
	}

	if strings.EqualFold(filepath.Ext(path), files.ExtXLSX) {
		f, err := os.Open(path)
		if err != nil {
			return nil, dataprocessing.ParseStats{}, err
		}
		defer f.Close()
		return parser.ParseWorkbook(ctx, f)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, dataprocessing.ParseStats{}, err
	}
	raw := string(body)
	if err := dataprocessing.CheckHeaders(raw); err != nil {
		return nil, dataprocessing.ParseStats{}, err
	}
	return parser.Parse(ctx, raw)
}
