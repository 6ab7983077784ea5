package hcp_test

import (
	"testing"

	"github.com/pluto-org-co/afqhcp/filesystem"
	"github.com/pluto-org-co/afqhcp/hcp"
	"github.com/stretchr/testify/assert"
)

func Test_Files(t *testing.T) {
	assertions := assert.New(t)

	files := hcp.Files(hcp.Study("1200"), 100307)
	if !assertions.Len(files, 5) {
		return
	}

	expected := map[string]string{
		"derivatives/dmriprep/sub-100307/ses-01/dwi/sub-100307_dwi.bval":               "HCP_1200/100307/T1w/Diffusion/bvals",
		"derivatives/dmriprep/sub-100307/ses-01/dwi/sub-100307_dwi.bvec":               "HCP_1200/100307/T1w/Diffusion/bvecs",
		"derivatives/dmriprep/sub-100307/ses-01/dwi/sub-100307_dwi.nii.gz":             "HCP_1200/100307/T1w/Diffusion/data.nii.gz",
		"derivatives/dmriprep/sub-100307/ses-01/anat/sub-100307_T1w.nii.gz":            "HCP_1200/100307/T1w/T1w_acpc_dc.nii.gz",
		"derivatives/dmriprep/sub-100307/ses-01/anat/sub-100307_aparc+aseg_seg.nii.gz": "HCP_1200/100307/T1w/aparc+aseg.nii.gz",
	}
	for _, file := range files {
		location := filesystem.LocationString(file.Location)
		key, found := expected[location]
		if !assertions.True(found, "unexpected location: %s", location) {
			continue
		}
		assertions.Equal(key, file.Key)
	}

	image, bvals, bvecs := hcp.DWILocations(100307)
	assertions.Equal(files[2].Location, image)
	assertions.Equal(files[0].Location, bvals)
	assertions.Equal(files[1].Location, bvecs)
}
