// Package commands holds what the report commands share: their flags, the
// connection to AWS and the collect, aggregate, render and export run.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/spf13/cobra"

	awsinternal "ddbreport/internal/aws"
	"ddbreport/internal/aws/utils"
	"ddbreport/internal/collector"
	"ddbreport/internal/config"
	"ddbreport/internal/logging"
	"ddbreport/internal/output"
	"ddbreport/internal/output/text"
	"ddbreport/internal/report"
	"ddbreport/internal/tables"
)

// Backend is the AWS side of a run
type Backend interface {
	collector.Source

	// AccountID returns the id of the account the tables live in
	AccountID(ctx context.Context) (string, error)

	// Uploader returns an S3 uploader for a bucket in region
	Uploader(region string) s3manageriface.UploaderAPI
}

// Connect opens the Backend described by cfg. Tests replace it.
var Connect = connect

type awsBackend struct {
	*awsinternal.CloudWatchSource
	sess *session.Session
	sts  stsiface.STSAPI
}

func (b *awsBackend) AccountID(ctx context.Context) (string, error) {
	return utils.GetAccountID(ctx, b.sts)
}

func (b *awsBackend) Uploader(region string) s3manageriface.UploaderAPI {
	sess, err := awsinternal.GetSessionInRegion(b.sess, region)
	if err != nil {
		logging.Warn("Falling back to the report session for S3", map[string]interface{}{
			"region": region,
			"error":  err.Error(),
		})
		sess = b.sess
	}
	return output.NewUploader(s3.New(sess), nil)
}

func connect(ctx context.Context, cfg *config.GlobalConfig) (Backend, error) {
	if cfg.Profile != "" && cfg.Profile != "default" && !awsinternal.IsValidProfile(cfg.Profile) {
		return nil, fmt.Errorf("profile %q not found in the shared AWS config files", cfg.Profile)
	}

	sess, err := awsinternal.NewSession(cfg.Profile, cfg.Region)
	if err != nil {
		return nil, err
	}

	sess, err = awsinternal.AssumeRole(ctx, sess, cfg.Role)
	if err != nil {
		return nil, err
	}

	if err := validateRegion(ctx, sess, cfg.Region); err != nil {
		return nil, err
	}

	clients := utils.CreateServiceClients(sess)

	identity, err := utils.GetIdentity(ctx, clients.STS)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve caller identity: %w", err)
	}
	logging.Info("Connected", map[string]interface{}{
		"account": identity.Account,
		"arn":     identity.ARN,
		"region":  cfg.Region,
	})

	limits := cfg.RateLimit()
	logging.Debug("Request pacing", map[string]interface{}{
		"requests_per_second": limits.RequestsPerSecond,
		"interval":            limits.Interval().String(),
	})

	return &awsBackend{
		CloudWatchSource: awsinternal.NewCloudWatchSource(clients.DynamoDB, clients.CloudWatch, limits.RequestsPerSecond),
		sess:             sess,
		sts:              clients.STS,
	}, nil
}

// validateRegion rejects a region that is not enabled for the account. A
// caller without ec2:DescribeRegions skips the check.
func validateRegion(ctx context.Context, sess *session.Session, region string) error {
	err := awsinternal.ValidateRegion(ctx, awsinternal.NewRegionClient(sess), region)
	if err == nil || errors.Is(err, awsinternal.ErrRegionNotEnabled) {
		return err
	}
	logging.Debug("Skipping region validation", map[string]interface{}{
		"error": err.Error(),
	})
	return nil
}

// Options holds the command-local flags of a report run. Everything else is
// read from config once flags are bound.
type Options struct {
	Tables []string
	Period time.Duration
}

// AddReportFlags registers the flags shared by the report commands
func AddReportFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringSliceVar(&opts.Tables, "tables", nil, "Tables to report, short names are expanded for every environment (default: discover)")
	AddSelectionFlags(cmd)
	cmd.Flags().Int("hours", config.DefaultHours, "Lookback window in hours")
	cmd.Flags().Int("min-name-width", config.DefaultMinNameWidth, "Minimum width of the table name column")
	cmd.Flags().String("save", "none", "Export the report as gzipped JSON (none, filesystem, s3)")
	cmd.Flags().String("output-dir", config.DefaultOutputDir, "Base directory of filesystem exports")
	cmd.Flags().String("bucket", "", "S3 bucket name (required when --save=s3)")
	cmd.Flags().String("bucket-region", "", "S3 bucket region (required when --save=s3)")
}

// AddSelectionFlags registers the flags that choose which tables are covered
func AddSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("envs", config.DefaultEnvironments, "Environment tags, in display order")
	cmd.Flags().String("namespace", "", "Name segment after the environment tag, e.g. features")
}

// Selection returns the table selection of the loaded configuration
func Selection() tables.Selection {
	return tables.Selection{
		Environments: config.Report.Environments,
		Namespace:    config.Report.Namespace,
	}
}

// exportConfig validates the export flags
func exportConfig() (output.Config, error) {
	target, err := output.ParseType(config.Report.Save)
	if err != nil {
		return output.Config{}, err
	}
	cfg := output.Config{
		Type:      target,
		S3Bucket:  config.Report.Bucket,
		S3Region:  config.Report.BucketRegion,
		OutputDir: config.Report.OutputDir,
	}
	return cfg, cfg.Validate()
}

// Run produces one report of kind and prints it to the command's output
func Run(cmd *cobra.Command, kind report.Kind, opts *Options) error {
	rc := config.Report
	if rc.Hours <= 0 {
		return fmt.Errorf("--hours must be positive, got %d", rc.Hours)
	}
	if len(rc.Environments) == 0 {
		return fmt.Errorf("--envs must name at least one environment")
	}
	if err := report.ValidateTags(rc.Environments); err != nil {
		return fmt.Errorf("--envs: %w", err)
	}
	if kind == report.Throughput && (opts.Period < time.Minute || opts.Period%time.Minute != 0) {
		return fmt.Errorf("--period must be a positive multiple of 60 seconds, got %v", opts.Period.Seconds())
	}
	export, err := exportConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()

	backend, err := Connect(ctx, config.Config)
	if err != nil {
		logging.Error("Failed to connect to AWS", err)
		return err
	}

	sel := Selection()
	names, err := collector.Resolve(ctx, backend, sel, opts.Tables)
	if err != nil {
		logging.Error("Failed to resolve tables", err)
		return err
	}

	end := time.Now().UTC().Truncate(time.Second)
	window := report.Window{Start: end.Add(-time.Duration(rc.Hours) * time.Hour), End: end}
	logging.RunStart(string(kind), config.Config.Region, rc.Hours, len(names))

	copts := collector.Options{Window: window, Period: opts.Period, Workers: config.Config.MaxWorkers}
	var resources []report.ResourceMetrics
	if kind == report.Throughput {
		resources, err = collector.Throughput(ctx, backend, names, copts)
	} else {
		resources, err = collector.ReadWrite(ctx, backend, names, copts)
	}
	if err != nil {
		var fetchErr *collector.FetchError
		if errors.As(err, &fetchErr) {
			logging.FetchError(fetchErr.Table, fetchErr.Metric, fetchErr.Err)
		} else {
			logging.Error("Collection failed", err)
		}
		return err
	}

	rpt := report.Aggregate(resources, report.Options{
		Environments: sel.Environments,
		Namespace:    sel.Namespace,
	})
	rpt.Kind = kind
	rpt.Region = config.Config.Region
	rpt.Window = window
	if kind == report.Throughput {
		rpt.Period = opts.Period
	}

	renderer := text.NewRenderer(text.Options{MinNameWidth: rc.MinNameWidth})
	fmt.Fprint(cmd.OutOrStdout(), renderer.Render(rpt))

	if export.Type != output.None {
		if err := save(ctx, backend, export, rpt); err != nil {
			logging.Error("Failed to export report", err, map[string]interface{}{
				"target": string(export.Type),
			})
			return err
		}
	}

	logging.RunComplete(string(kind), len(names), time.Since(started))
	return nil
}

func save(ctx context.Context, backend Backend, cfg output.Config, rpt report.Report) error {
	account, err := backend.AccountID(ctx)
	if err != nil {
		return err
	}

	var uploader s3manageriface.UploaderAPI
	if cfg.Type == output.S3 {
		uploader = backend.Uploader(cfg.S3Region)
	}

	dest, err := output.NewWriter(cfg, uploader).Write(account, rpt)
	if err != nil {
		return err
	}
	logging.Info("Report saved", map[string]interface{}{
		"destination": dest,
	})
	return nil
}
