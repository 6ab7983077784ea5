package afq_test

import (
	"testing"

	"github.com/pluto-org-co/afqhcp/afq"
	"github.com/stretchr/testify/assert"
)

func Test_ExportPath(t *testing.T) {
	assertions := assert.New(t)

	assertions.Equal("hcp_1200_afq", afq.ExportPath("1200", "afq", false))
	assertions.Equal("hcp_1200_afq_callosal", afq.ExportPath("1200", "afq", true))
	assertions.Equal("hcp_retest_recobundles", afq.ExportPath("retest", "recobundles", false))

	for _, outbucket := range []string{"my-bucket", "my-bucket/", "my-bucket//"} {
		assertions.Equal("my-bucket/hcp_1200_afq", afq.RemotePath(outbucket, afq.ExportPath("1200", "afq", false)), outbucket)
	}
	assertions.Equal("my-bucket/runs/hcp_1200_afq", afq.RemotePath("my-bucket/runs", "hcp_1200_afq"))
	assertions.Equal("s3://my-bucket/hcp_1200_afq", afq.RemotePath("s3://my-bucket", "hcp_1200_afq"), "scheme should be kept")
	assertions.Equal("s3://my-bucket/runs/hcp_1200_afq_callosal", afq.RemotePath("s3://my-bucket/runs/", "hcp_1200_afq_callosal"))
}

func Test_ParseBucketPath(t *testing.T) {
	t.Run("Succeed", func(t *testing.T) {
		assertions := assert.New(t)

		type Test struct {
			Outbucket string
			Bucket    string
			Prefix    []string
		}
		tests := []Test{
			{Outbucket: "my-bucket", Bucket: "my-bucket"},
			{Outbucket: "s3://my-bucket/", Bucket: "my-bucket"},
			{Outbucket: "my-bucket/a/b", Bucket: "my-bucket", Prefix: []string{"a", "b"}},
			{Outbucket: "s3://my-bucket//a/./b/", Bucket: "my-bucket", Prefix: []string{"a", "b"}},
		}
		for _, test := range tests {
			bucket, prefix, err := afq.ParseBucketPath(test.Outbucket)
			if !assertions.Nil(err, test.Outbucket) {
				continue
			}
			assertions.Equal(test.Bucket, bucket, test.Outbucket)
			assertions.Equal(test.Prefix, prefix, test.Outbucket)
		}
	})
	t.Run("Fail", func(t *testing.T) {
		assertions := assert.New(t)

		_, _, err := afq.ParseBucketPath("")
		assertions.ErrorIs(err, afq.ErrEmptyBucket)

		_, _, err = afq.ParseBucketPath("s3://")
		assertions.ErrorIs(err, afq.ErrEmptyBucket)

		_, _, err = afq.ParseBucketPath("my-bucket/../other")
		assertions.NotNil(err)
	})
}

func Test_TractographyLocation(t *testing.T) {
	assertions := assert.New(t)

	assertions.Equal(
		[]string{"sub-100307", "ses-01", "sub-100307_dwi_space-RASMM_model-CSD_desc-det_tractography.trk"},
		afq.TractographyLocation(100307, afq.ModelCSD),
	)
	assertions.Equal(
		[]string{"sub-100307", "ses-01", "sub-100307_customtrk.trk"},
		afq.CustomTractographyLocation(100307),
	)
}
