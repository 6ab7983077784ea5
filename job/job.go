// Package job runs the pipeline end to end for a single subject: it fetches
// the HCP files, checks them, renders the pipeline configuration, runs the
// pipeline and uploads its results.
package job

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pluto-org-co/afqhcp/afq"
	"github.com/pluto-org-co/afqhcp/filesystem"
	"github.com/pluto-org-co/afqhcp/filesystem/directory"
	"github.com/pluto-org-co/afqhcp/filesystem/pathmod"
	"github.com/pluto-org-co/afqhcp/hcp"
)

const ConfigFile = "afq_config.toml"

var ErrNoResults = errors.New("pipeline produced no results")

type Job struct {
	Options afq.Options
	Subject int
	// Destination of the results: bucket, bucket/prefix or s3://bucket/prefix
	Outbucket string
	// Directory where the study is downloaded. Kept between runs so fetches can resume
	WorkDir string
	Workers int
	// Filesystem rooted at the HCP bucket
	HCP filesystem.Filesystem
	// Filesystem rooted at the output bucket
	Output        filesystem.Filesystem
	Runner        afq.Runner
	SkipPreflight bool
	Logger        *slog.Logger
}

func DefaultWorkDir() (workDir string) {
	return filepath.Join(os.TempDir(), "afqhcp")
}

func (j *Job) validate() (err error) {
	switch {
	case j.Subject <= 0:
		return fmt.Errorf("invalid subject: %d", j.Subject)
	case j.HCP == nil:
		return errors.New("no HCP filesystem")
	case j.Output == nil:
		return errors.New("no output filesystem")
	case j.Runner == nil:
		return errors.New("no pipeline runner")
	}
	return nil
}

// Runs the whole job and returns the remote path holding the results.
// Nothing is uploaded when any previous step fails.
func Run(ctx context.Context, job Job) (remotePath string, err error) {
	err = job.validate()
	if err != nil {
		return "", err
	}
	if job.WorkDir == "" {
		job.WorkDir = DefaultWorkDir()
	}
	if job.Workers < 1 {
		job.Workers = 1
	}
	if job.Logger == nil {
		job.Logger = slog.Default()
	}

	opts := job.Options.WithDefaults()
	study := hcp.Study(opts.Session)
	exportPath := afq.ExportPath(opts.Session, opts.SegAlgo, opts.UseCallosal)

	_, prefix, err := afq.ParseBucketPath(job.Outbucket)
	if err != nil {
		return "", fmt.Errorf("failed to parse outbucket: %w", err)
	}

	logger := job.Logger.With("subject", job.Subject, "study", study)

	root, err := filepath.Abs(filepath.Join(job.WorkDir, study))
	if err != nil {
		return "", fmt.Errorf("failed to resolve study directory: %w", err)
	}
	local := directory.New(root, 0o755, 0o644)

	logger.Info("Fetching dataset", "root", root)
	_, stats, err := hcp.Fetch(ctx, local, job.HCP, hcp.FetchOptions{
		Study:    study,
		Subjects: []int{job.Subject},
		Workers:  job.Workers,
		Logger:   logger,
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch dataset: %w", err)
	}
	logger.Info("Dataset ready", "downloaded", stats.Downloaded, "skipped", stats.Skipped, "bytes", stats.Bytes)

	if !job.SkipPreflight {
		header, err := hcp.Preflight(ctx, local, job.Subject)
		if err != nil {
			return "", fmt.Errorf("failed to preflight: %w", err)
		}
		logger.Info("Preflight passed", "dims", header.Dims)
	}

	params := afq.Build(opts)

	if opts.ReuseTractography {
		err = fetchTractography(ctx, local, job.Output, prefix, opts.Session, job.Subject, params.Tracking.OdfModel)
		if err != nil {
			return "", fmt.Errorf("failed to fetch previous tractography: %w", err)
		}
		logger.Info("Reusing tractography")
	}
	params.Participants = []string{strconv.Itoa(job.Subject)}

	// Outputs of earlier runs for this subject may come from other parameters
	subjectResults := append(hcp.AFQLocation(), afq.SubjectLabel(job.Subject))
	err = local.RemoveAll(ctx, subjectResults)
	if err != nil {
		return "", fmt.Errorf("failed to clear previous results: %w", err)
	}

	configPath := filepath.Join(root, ConfigFile)
	err = afq.WriteConfigFile(configPath, root, params)
	if err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	logger.Info("Running pipeline", "config", configPath, "odf-model", params.Tracking.OdfModel, "bundles", params.BundleInfo)
	start := time.Now()
	err = job.Runner.Export(ctx, configPath)
	if err != nil {
		return "", fmt.Errorf("failed to export results: %w", err)
	}
	logger.Info("Pipeline finished", "took", time.Since(start).Round(time.Second))

	remotePath = afq.RemotePath(job.Outbucket, exportPath)
	logger.Info("Uploading results", "destination", remotePath)

	// Only this subject is published, the study directory is shared between runs
	results := directory.New(filepath.Join(append([]string{root}, subjectResults...)...), 0o755, 0o644)
	dst := pathmod.Prefix(job.Output, append(prefix, exportPath, afq.SubjectLabel(job.Subject))...)
	syncStats, err := filesystem.SyncWorkers(job.Workers, ctx, dst, results, filesystem.WithSyncOptionLogger(logger))
	if err != nil {
		return "", fmt.Errorf("failed to upload results: %w", err)
	}
	if syncStats.Transferred+syncStats.Skipped == 0 {
		return "", fmt.Errorf("failed to upload results: %w", ErrNoResults)
	}
	logger.Info("Uploaded", "transferred", syncStats.Transferred, "skipped", syncStats.Skipped)

	return remotePath, nil
}

// Copies the deterministic tractography of a previous default run into the
// dmriprep derivative, where the pipeline looks for custom tractography.
func fetchTractography(ctx context.Context, local, output filesystem.Filesystem, prefix []string, session string, subject int, model string) (err error) {
	previous := afq.ExportPath(session, afq.DefaultSegAlgo, false)
	src := pathmod.Prefix(output, append(prefix, previous)...)

	target := append(hcp.DmriprepLocation(), afq.CustomTractographyLocation(subject)...)
	dst := pathmod.New(local, func([]string) []string { return target })

	location := afq.TractographyLocation(subject, model)
	exists, err := filesystem.Exists(ctx, src, location)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("no tractography from a previous run at %s: %w", filesystem.LocationString(append(prefix, previous, filesystem.LocationString(location))), fs.ErrNotExist)
	}

	return filesystem.CopyFile(ctx, dst, src, location)
}
