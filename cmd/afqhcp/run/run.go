package run

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pluto-org-co/afqhcp/afq"
	"github.com/pluto-org-co/afqhcp/cmd/afqhcp/config"
	"github.com/pluto-org-co/afqhcp/job"
	"github.com/urfave/cli/v3"
)

const (
	SubjectFlag           = "subject"
	AccessKeyFlag         = "ak"
	SecretKeyFlag         = "sk"
	HCPAccessKeyFlag      = "hcpak"
	HCPSecretKeyFlag      = "hcpsk"
	OutbucketFlag         = "outbucket"
	SessionFlag           = "session"
	ShellFlag             = "shell"
	CallosalFlag          = "callosal"
	ReuseTractographyFlag = "reuse-tractography"
	SkipPreflightFlag     = "skip-preflight"
	ConfigFlag            = "config"
	WorkDirFlag           = "work-dir"
)

func validateShell(s string) (err error) {
	shell := strings.ToLower(s)
	if strings.Contains(shell, "single") || strings.Contains(shell, "multi") {
		return nil
	}
	return fmt.Errorf("unknown shell: %s: expecting single or multi, optionally with csd", s)
}

func validateSession(s string) (err error) {
	if s == "" || strings.ContainsAny(s, "/\\") {
		return fmt.Errorf("invalid session: %q", s)
	}
	return nil
}

func NewRunCommand() (cmd *cli.Command) {
	return &cli.Command{
		Name:        "run",
		Description: "fetch a HCP subject, run the tractography pipeline over it and upload the results",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     SubjectFlag,
				Usage:    "HCP subject identifier",
				Required: true,
				OnlyOnce: true,
				Validator: func(subject int) error {
					if subject <= 0 {
						return fmt.Errorf("subject must be positive: %d", subject)
					}
					return nil
				},
			},
			&cli.StringFlag{
				Name:     AccessKeyFlag,
				Usage:    "Access key of the output bucket",
				Required: true,
				OnlyOnce: true,
				Sources:  cli.EnvVars("AFQHCP_ACCESS_KEY"),
			},
			&cli.StringFlag{
				Name:     SecretKeyFlag,
				Usage:    "Secret key of the output bucket",
				Required: true,
				OnlyOnce: true,
				Sources:  cli.EnvVars("AFQHCP_SECRET_KEY"),
			},
			&cli.StringFlag{
				Name:     HCPAccessKeyFlag,
				Usage:    "Access key of the HCP open access bucket",
				Required: true,
				OnlyOnce: true,
				Sources:  cli.EnvVars("HCP_ACCESS_KEY"),
			},
			&cli.StringFlag{
				Name:     HCPSecretKeyFlag,
				Usage:    "Secret key of the HCP open access bucket",
				Required: true,
				OnlyOnce: true,
				Sources:  cli.EnvVars("HCP_SECRET_KEY"),
			},
			&cli.StringFlag{
				Name:     OutbucketFlag,
				Usage:    "Destination of the results: bucket, bucket/prefix or s3://bucket/prefix",
				Required: true,
				OnlyOnce: true,
				Sources:  cli.EnvVars("AFQHCP_OUTBUCKET"),
				Validator: func(s string) error {
					_, _, err := afq.ParseBucketPath(s)
					return err
				},
			},
			&cli.StringFlag{
				Name:      SessionFlag,
				Usage:     "HCP release, the study is HCP_<session>",
				Value:     afq.DefaultSession,
				OnlyOnce:  true,
				Validator: validateSession,
			},
			&cli.StringFlag{
				Name:      ShellFlag,
				Usage:     "Acquisition model: single, multi or multi_csd",
				Value:     afq.DefaultShell,
				OnlyOnce:  true,
				Validator: validateShell,
			},
			&cli.BoolFlag{
				Name:  CallosalFlag,
				Usage: "Add the callosal bundles to the default set",
			},
			&cli.BoolFlag{
				Name:  ReuseTractographyFlag,
				Usage: "Reuse the tractography uploaded by a previous default run",
			},
			&cli.BoolFlag{
				Name:  SkipPreflightFlag,
				Usage: "Do not check the fetched diffusion image against its gradient table",
			},
			&cli.StringFlag{
				Name:     ConfigFlag,
				Usage:    "YAML configuration file",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     WorkDirFlag,
				Usage:    "Directory where the dataset is downloaded, overrides the configuration",
				OnlyOnce: true,
			},
		},
		Action: action,
	}
}

var RunCommand = NewRunCommand()

func action(ctx context.Context, c *cli.Command) (err error) {
	cfg, err := config.Load(c.String(ConfigFlag))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if workDir := c.String(WorkDirFlag); workDir != "" {
		cfg.Pipeline.WorkDir = workDir
	}

	outbucket := c.String(OutbucketFlag)
	bucket, _, err := afq.ParseBucketPath(outbucket)
	if err != nil {
		return err
	}

	logger := slog.Default()

	logger.Info("Preparing HCP FS")
	hcpFs, err := cfg.HCPFs(ctx, c.String(HCPAccessKeyFlag), c.String(HCPSecretKeyFlag))
	if err != nil {
		return fmt.Errorf("failed to prepare hcp fs: %w", err)
	}

	logger.Info("Preparing output FS", "bucket", bucket)
	outputFs, err := cfg.OutputFs(ctx, c.String(AccessKeyFlag), c.String(SecretKeyFlag), bucket)
	if err != nil {
		return fmt.Errorf("failed to prepare output fs: %w", err)
	}

	runner := afq.NewCommand(cfg.Pipeline.Command, logger)
	runner.Env = cfg.Pipeline.Env
	if cfg.Pipeline.GracePeriod > 0 {
		runner.GracePeriod = cfg.Pipeline.GracePeriod
	}

	remotePath, err := job.Run(ctx, job.Job{
		Options: afq.Options{
			Session:           c.String(SessionFlag),
			Shell:             c.String(ShellFlag),
			SegAlgo:           afq.DefaultSegAlgo,
			UseCallosal:       c.Bool(CallosalFlag),
			ReuseTractography: c.Bool(ReuseTractographyFlag),
		},
		Subject:       c.Int(SubjectFlag),
		Outbucket:     outbucket,
		WorkDir:       cfg.Pipeline.WorkDir,
		Workers:       cfg.Workers,
		HCP:           hcpFs,
		Output:        outputFs,
		Runner:        runner,
		SkipPreflight: c.Bool(SkipPreflightFlag),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	logger.Info("Done", "remote-path", remotePath)
	return nil
}
