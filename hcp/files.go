// Package hcp fetches Human Connectome Project diffusion data from its
// open-access bucket and lays it out as a BIDS dataset with a dmriprep
// derivative, the layout the tractography pipeline consumes.
package hcp

import (
	"fmt"
	"strconv"
)

const (
	Bucket         = "hcp-openaccess"
	Endpoint       = "s3.amazonaws.com"
	Region         = "us-east-1"
	DefaultSession = "1200"
	Session        = "ses-01"
	Derivatives    = "derivatives"
	Dmriprep       = "dmriprep"
	AFQ            = "afq"
)

// Study name for a release label, 1200 maps to HCP_1200
func Study(session string) (study string) {
	return "HCP_" + session
}

// Location of the dmriprep derivative relative to the study root
func DmriprepLocation() (location []string) {
	return []string{Derivatives, Dmriprep}
}

// Location of the pipeline outputs relative to the study root
func AFQLocation() (location []string) {
	return []string{Derivatives, AFQ}
}

type File struct {
	// Location relative to the study root
	Location []string
	// Key in the HCP bucket
	Key string
}

func join(parts ...[]string) (location []string) {
	for _, part := range parts {
		location = append(location, part...)
	}
	return location
}

// Files of a subject, in the order they are fetched
func Files(study string, subject int) (files []File) {
	id := strconv.Itoa(subject)
	sub := "sub-" + id
	sessionDir := join(DmriprepLocation(), []string{sub, Session})
	diffusion := fmt.Sprintf("%s/%s/T1w/Diffusion", study, id)
	t1w := fmt.Sprintf("%s/%s/T1w", study, id)

	return []File{
		{Location: join(sessionDir, []string{"dwi", sub + "_dwi.bval"}), Key: diffusion + "/bvals"},
		{Location: join(sessionDir, []string{"dwi", sub + "_dwi.bvec"}), Key: diffusion + "/bvecs"},
		{Location: join(sessionDir, []string{"dwi", sub + "_dwi.nii.gz"}), Key: diffusion + "/data.nii.gz"},
		{Location: join(sessionDir, []string{"anat", sub + "_T1w.nii.gz"}), Key: t1w + "/T1w_acpc_dc.nii.gz"},
		{Location: join(sessionDir, []string{"anat", sub + "_aparc+aseg_seg.nii.gz"}), Key: t1w + "/aparc+aseg.nii.gz"},
	}
}

// Locations of the DWI triplet of a subject relative to the study root
func DWILocations(subject int) (image, bvals, bvecs []string) {
	sub := "sub-" + strconv.Itoa(subject)
	dwi := join(DmriprepLocation(), []string{sub, Session, "dwi"})
	image = join(dwi, []string{sub + "_dwi.nii.gz"})
	bvals = join(dwi, []string{sub + "_dwi.bval"})
	bvecs = join(dwi, []string{sub + "_dwi.bvec"})
	return image, bvals, bvecs
}
