package hcp_test

import (
	"testing"

	"github.com/pluto-org-co/afqhcp/hcp"
	"github.com/stretchr/testify/assert"
)

func Test_DatasetDescription(t *testing.T) {
	assertions := assert.New(t)

	contents, err := hcp.DerivativeDescription("HCP_1200", hcp.Dmriprep).Marshal()
	if !assertions.Nil(err, "failed to marshal") {
		return
	}
	assertions.Contains(string(contents), `"PipelineDescription"`)

	desc, err := hcp.ParseDescription(contents)
	if !assertions.Nil(err, "failed to parse") {
		return
	}
	assertions.Equal("derivative", desc.DatasetType)
	if assertions.NotNil(desc.PipelineDescription) {
		assertions.Equal("dmriprep", desc.PipelineDescription.Name)
	}

	raw, err := hcp.RawDescription("HCP_1200").Marshal()
	if !assertions.Nil(err, "failed to marshal") {
		return
	}
	assertions.NotContains(string(raw), "PipelineDescription", "raw datasets have no pipeline")
}
