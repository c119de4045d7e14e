package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koltyakov/gosip/api"
	"github.com/spf13/cobra"

	"spreport/application"
	"spreport/database"
	"spreport/domain/contracts"
	"spreport/domain/report"
	"spreport/infrastructure/collectors"
	"spreport/infrastructure/config"
	"spreport/infrastructure/repositories"
	"spreport/infrastructure/spclient"
	"spreport/interfaces/console"
	"spreport/logging"
	"spreport/spauth"
)

var (
	flagOutput        string
	flagDBPath        string
	flagConcurrency   int
	flagPageSize      int
	flagTimeout       int
	flagIncludeHidden bool
	flagNoProgress    bool
)

var rootCmd = &cobra.Command{
	Use:   "spreport",
	Short: "SharePoint Online reporting tool",
	Long: `spreport produces CSV reports from a SharePoint Online site:
per-folder statistics for a document library, and per-user permission
assignments across document libraries.

Authentication uses an Azure AD app registration with a certificate,
configured through SP_SITE_URL, SP_TENANT_ID, SP_CLIENT_ID, SP_CERT_PATH
and SP_CERT_PASSWORD (a .env file in the working directory is honored).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "-", "output file path, or - for stdout")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "sqlite run-history database path (empty disables history)")
	rootCmd.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 0, "parallel folder workers (default 4)")
	rootCmd.PersistentFlags().IntVar(&flagPageSize, "page-size", 0, "page size for SharePoint requests (default 500)")
	rootCmd.PersistentFlags().IntVar(&flagTimeout, "timeout", 0, "overall report timeout in seconds (default 1800)")
	rootCmd.PersistentFlags().BoolVar(&flagIncludeHidden, "include-hidden", false, "include hidden document libraries")
	rootCmd.PersistentFlags().BoolVar(&flagNoProgress, "no-progress", false, "suppress progress output on stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// buildParameters combines defaults with command-line overrides.
func buildParameters() *report.ReportParameters {
	params := report.DefaultParameters()
	params.SkipHidden = !flagIncludeHidden
	if flagConcurrency > 0 {
		params.Concurrency = flagConcurrency
	}
	if flagPageSize > 0 {
		params.PageSize = flagPageSize
	}
	if flagTimeout > 0 {
		params.Timeout = flagTimeout
	}
	return params
}

// runtime bundles everything a report command needs and knows how to tear
// it down again.
type runtime struct {
	siteURL  string
	service  *application.ReportService
	params   *report.ReportParameters
	out      io.Writer
	outPath  string
	cleanups []func()
}

func (rt *runtime) close() {
	for i := len(rt.cleanups) - 1; i >= 0; i-- {
		rt.cleanups[i]()
	}
}

// buildRuntime wires authentication, the SharePoint client, optional run
// history and the output stream into a ready report service.
func buildRuntime() (*runtime, error) {
	authCfg, err := spauth.FromEnv()
	if err != nil {
		return nil, err
	}

	authClient, err := spauth.NewClient(authCfg)
	if err != nil {
		return nil, fmt.Errorf("create SharePoint client: %w", err)
	}

	params := buildParameters()
	if err := params.ValidateAndSetDefaults(nil); err != nil {
		return nil, err
	}

	spClient := spclient.NewSharePointClient(api.NewSP(authClient), authClient, params)

	// Each worker authenticates independently so no connection state is
	// shared across goroutines.
	newClient := collectors.ClientFactory(func() (spclient.SharePointClient, error) {
		c, err := spauth.NewClient(authCfg)
		if err != nil {
			return nil, fmt.Errorf("create worker client: %w", err)
		}
		return spclient.NewSharePointClient(api.NewSP(c), c, params), nil
	})

	rt := &runtime{siteURL: authCfg.SiteURL, params: params}

	runRepo, dbCleanup, err := openRunRepository()
	if err != nil {
		return nil, err
	}
	if dbCleanup != nil {
		rt.cleanups = append(rt.cleanups, dbCleanup)
	}

	out, outPath, outCleanup, err := openOutput()
	if err != nil {
		rt.close()
		return nil, err
	}
	if outCleanup != nil {
		rt.cleanups = append(rt.cleanups, outCleanup)
	}
	rt.out = out
	rt.outPath = outPath

	var progress report.ProgressReporter
	if flagNoProgress {
		progress = report.NewNoOpProgressReporter()
	} else {
		progress = console.NewProgressReporter(os.Stderr)
	}

	rt.service = application.NewReportService(params, spClient, newClient, runRepo, progress)
	return rt, nil
}

// openRunRepository opens the sqlite run-history store when --db is set.
func openRunRepository() (contracts.RunRepository, func(), error) {
	if flagDBPath == "" {
		return nil, nil, nil
	}

	dbConfig := config.LoadDatabaseConfigFromEnv()
	dbConfig.Path = flagDBPath

	db, err := database.New(*dbConfig, logging.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("open run-history database: %w", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			logging.Warn("Failed to close database", "error", err.Error())
		}
	}
	return repositories.NewSqliteRunRepository(db), cleanup, nil
}

// openOutput resolves the --output flag to a writer. "-" means stdout.
func openOutput() (io.Writer, string, func(), error) {
	if flagOutput == "" || flagOutput == "-" {
		return os.Stdout, "", nil, nil
	}

	f, err := os.Create(flagOutput)
	if err != nil {
		return nil, "", nil, fmt.Errorf("create output file: %w", err)
	}
	cleanup := func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close output file", "path", flagOutput, "error", err.Error())
		}
	}
	return f, flagOutput, cleanup, nil
}

// reportContext returns a context bounded by the report timeout that is also
// cancelled on SIGINT/SIGTERM.
func reportContext(params *report.ReportParameters) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, time.Duration(params.Timeout)*time.Second)
	return ctx, func() {
		cancel()
		stop()
	}
}
