// Copyright (C) 2025 ZedCloud Org.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pluto-org-co/afqhcp/afq"
	"github.com/pluto-org-co/afqhcp/filesystem/s3"
	"github.com/pluto-org-co/afqhcp/hcp"
	"github.com/pluto-org-co/afqhcp/ioutils"
	"gopkg.in/yaml.v3"
)

type (
	S3 struct {
		Endpoint string `yaml:"endpoint"`
		Region   string `yaml:"region"`
		Secure   bool   `yaml:"secure"`
	}
	HCP struct {
		S3     `yaml:",inline"`
		Bucket string `yaml:"bucket"`
	}
	Pipeline struct {
		// Command line of the pipeline, {config} is replaced with the configuration file
		Command     []string      `yaml:"command"`
		Env         []string      `yaml:"env,omitempty"`
		WorkDir     string        `yaml:"work-dir"`
		GracePeriod time.Duration `yaml:"grace-period"`
	}
	Retry struct {
		MaxAttempts int           `yaml:"max-attempts"`
		MinSleep    time.Duration `yaml:"min-sleep"`
	}
	Config struct {
		Workers  int      `yaml:"workers"`
		HCP      HCP      `yaml:"hcp"`
		Output   S3       `yaml:"output"`
		Pipeline Pipeline `yaml:"pipeline"`
		Retry    Retry    `yaml:"retry"`
	}
)

var Example = Config{
	Workers: 5,
	HCP: HCP{
		S3: S3{
			Endpoint: hcp.Endpoint,
			Region:   hcp.Region,
			Secure:   true,
		},
		Bucket: hcp.Bucket,
	},
	Output: S3{
		Endpoint: "s3.amazonaws.com",
		Region:   "us-west-2",
		Secure:   true,
	},
	Pipeline: Pipeline{
		Command:     afq.DefaultCommand,
		WorkDir:     "/var/lib/afqhcp",
		GracePeriod: 30 * time.Second,
	},
	Retry: Retry{
		MaxAttempts: 10,
		MinSleep:    time.Second,
	},
}

// Reads the configuration at filename on top of the example values.
// An empty filename returns the example.
func Load(filename string) (cfg Config, err error) {
	cfg = Example
	cfg.Pipeline.Command = append([]string(nil), Example.Pipeline.Command...)
	if filename == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("failed to read file: %w", err)
	}

	err = yaml.Unmarshal(contents, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to unmarshal contents: %w", err)
	}
	return cfg, nil
}

func (c *Config) client(s S3, accessKey, secretKey string) (client *minio.Client, err error) {
	transport, err := minio.DefaultTransport(s.Secure)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare transport: %w", err)
	}

	client, err = minio.New(
		s.Endpoint,
		&minio.Options{
			Creds:     credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure:    s.Secure,
			Region:    s.Region,
			Transport: ioutils.NewRetryTransport(transport, c.Retry.MaxAttempts, c.Retry.MinSleep),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare client: %w", err)
	}
	return client, nil
}

func bucketFs(ctx context.Context, client *minio.Client, bucket string) (fs *s3.S3, err error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %s: %w", bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket not found: %s", bucket)
	}
	return s3.New(client, bucket), nil
}

// Filesystem over the HCP open access bucket
func (c *Config) HCPFs(ctx context.Context, accessKey, secretKey string) (fs *s3.S3, err error) {
	client, err := c.client(c.HCP.S3, accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	return bucketFs(ctx, client, c.HCP.Bucket)
}

// Filesystem over the bucket receiving the results
func (c *Config) OutputFs(ctx context.Context, accessKey, secretKey, bucket string) (fs *s3.S3, err error) {
	client, err := c.client(c.Output, accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	return bucketFs(ctx, client, bucket)
}
