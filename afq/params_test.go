package afq_test

import (
	"testing"

	"github.com/pluto-org-co/afqhcp/afq"
	"github.com/stretchr/testify/assert"
)

func Test_Build(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		assertions := assert.New(t)

		params := afq.Build(afq.DefaultOptions())

		assertions.Equal(afq.ModelCSD, params.Tracking.OdfModel, "default multi shell run tracks with CSD")
		assertions.Equal(afq.ScalarMask("dki_fa"), params.Tracking.SeedMask)
		assertions.Equal(afq.ScalarMask("dki_fa"), params.Tracking.StopMask)
		assertions.Equal([]string{"dki_fa", "dki_md"}, params.Scalars)
		assertions.Equal(afq.SegmentationParams{SegAlgo: "afq", RegAlgo: "syn"}, params.Segmentation)
		assertions.Equal(afq.DefaultBundles, params.BundleInfo)
		assertions.Equal(afq.BrainMaskDefinition, params.BrainMask)
		assertions.Equal("plotly", params.VizBackend)
		assertions.Zero(params.MinBval)
		assertions.Zero(params.MaxBval)
		assertions.Nil(params.CustomTractography)
	})
	t.Run("Zero options", func(t *testing.T) {
		assertions := assert.New(t)

		params := afq.Build(afq.Options{})
		assertions.Equal(afq.ModelCSD, params.Tracking.OdfModel, "empty options fall back to the defaults")
		assertions.Equal("afq", params.Segmentation.SegAlgo)
	})
	t.Run("Multi shell without CSD", func(t *testing.T) {
		assertions := assert.New(t)

		params := afq.Build(afq.Options{Shell: "multi"})
		assertions.Equal(afq.ModelDKI, params.Tracking.OdfModel)
		assertions.Equal([]string{"dki_fa", "dki_md"}, params.Scalars)
	})
	t.Run("Single shell", func(t *testing.T) {
		assertions := assert.New(t)

		params := afq.Build(afq.Options{Shell: "SINGLE"})
		assertions.Equal(afq.ModelDTI, params.Tracking.OdfModel)
		assertions.Empty(params.Tracking.SeedMask)
		assertions.Empty(params.Scalars)
		assertions.Equal(afq.SingleShellMinBval, params.MinBval)
		assertions.Equal(afq.SingleShellMaxBval, params.MaxBval)
		assertions.True(afq.Options{Shell: "single_csd"}.SingleShell())
	})
	t.Run("Callosal", func(t *testing.T) {
		assertions := assert.New(t)

		opts := afq.DefaultOptions()
		opts.UseCallosal = true
		params := afq.Build(opts)
		assertions.Equal(afq.CallosalBundles, params.BundleInfo)
	})
	t.Run("Reuse tractography", func(t *testing.T) {
		assertions := assert.New(t)

		opts := afq.DefaultOptions()
		opts.ReuseTractography = true
		params := afq.Build(opts)
		assertions.Equal(map[string]string{"suffix": "customtrk", "scope": "dmriprep"}, params.CustomTractography)
	})
}
