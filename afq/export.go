package afq

import (
	"errors"
	"fmt"
	"strings"
)

// Directory name used for the results of a run: hcp_<session>_<segAlgo>[_callosal]
func ExportPath(session, segAlgo string, callosal bool) (exportPath string) {
	exportPath = fmt.Sprintf("hcp_%s_%s", session, segAlgo)
	if callosal {
		exportPath += "_callosal"
	}
	return exportPath
}

func trimOutbucket(outbucket string) (trimmed string) {
	trimmed = strings.TrimPrefix(outbucket, "s3://")
	return strings.Trim(trimmed, "/")
}

// Full destination of a run: <outbucket>/<exportPath>, the outbucket keeps its scheme
func RemotePath(outbucket, exportPath string) (remote string) {
	return strings.TrimRight(outbucket, "/") + "/" + strings.Trim(exportPath, "/")
}

var ErrEmptyBucket = errors.New("empty bucket name")

// Splits bucket, bucket/prefix or s3://bucket/prefix into the bucket name and its key prefix
func ParseBucketPath(outbucket string) (bucket string, prefix []string, err error) {
	trimmed := trimOutbucket(outbucket)
	if trimmed == "" {
		return "", nil, fmt.Errorf("invalid outbucket: %q: %w", outbucket, ErrEmptyBucket)
	}

	parts := strings.Split(trimmed, "/")
	for _, part := range parts {
		if part == ".." {
			return "", nil, fmt.Errorf("invalid outbucket: %q: parent references are not allowed", outbucket)
		}
	}

	bucket = parts[0]
	for _, part := range parts[1:] {
		if part == "" || part == "." {
			continue
		}
		prefix = append(prefix, part)
	}
	return bucket, prefix, nil
}

func SubjectLabel(subject int) (label string) {
	return fmt.Sprintf("sub-%d", subject)
}

// Location, relative to the afq derivatives, of the deterministic tractography exported for the subject
func TractographyLocation(subject int, model string) (location []string) {
	sub := SubjectLabel(subject)
	return []string{
		sub, "ses-01",
		fmt.Sprintf("%s_dwi_space-RASMM_model-%s_desc-det_tractography.trk", sub, model),
	}
}

// Location, relative to the dmriprep derivatives, where a reused tractography is placed
func CustomTractographyLocation(subject int) (location []string) {
	sub := SubjectLabel(subject)
	return []string{sub, "ses-01", sub + "_customtrk.trk"}
}
