package afq

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const PreprocPipeline = "dmriprep"

type (
	BIDSSection struct {
		BidsPath                      string            `toml:"bids_path"`
		PreprocPipeline               string            `toml:"preproc_pipeline"`
		CustomTractographyBidsFilters map[string]string `toml:"custom_tractography_bids_filters,omitempty"`
		ParticipantLabels             []string          `toml:"participant_labels,omitempty"`
	}
	DataSection struct {
		BrainMaskDefinition string   `toml:"brain_mask_definition"`
		BundleInfo          string   `toml:"bundle_info"`
		Scalars             []string `toml:"scalars,omitempty"`
		MinBval             int      `toml:"min_bval,omitempty"`
		MaxBval             int      `toml:"max_bval,omitempty"`
	}
	VizSection struct {
		VizBackendSpec string `toml:"viz_backend_spec"`
	}
	// TOML configuration consumed by the pipeline CLI
	Document struct {
		BIDS         BIDSSection        `toml:"BIDS_PARAMS"`
		Data         DataSection        `toml:"DATA"`
		Segmentation SegmentationParams `toml:"SEGMENTATION_PARAMS"`
		Tracking     TrackingParams     `toml:"TRACTOGRAPHY_PARAMS"`
		Viz          VizSection         `toml:"VIZ"`
	}
)

func NewDocument(bidsRoot string, params Params) (doc Document) {
	return Document{
		BIDS: BIDSSection{
			BidsPath:                      bidsRoot,
			PreprocPipeline:               PreprocPipeline,
			CustomTractographyBidsFilters: params.CustomTractography,
			ParticipantLabels:             params.Participants,
		},
		Data: DataSection{
			BrainMaskDefinition: params.BrainMask,
			BundleInfo:          params.BundleInfo,
			Scalars:             params.Scalars,
			MinBval:             params.MinBval,
			MaxBval:             params.MaxBval,
		},
		Segmentation: params.Segmentation,
		Tracking:     params.Tracking,
		Viz: VizSection{
			VizBackendSpec: params.VizBackend,
		},
	}
}

func WriteConfig(w io.Writer, bidsRoot string, params Params) (err error) {
	err = toml.NewEncoder(w).Encode(NewDocument(bidsRoot, params))
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return nil
}

func WriteConfigFile(filename, bidsRoot string, params Params) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	defer file.Close()

	err = WriteConfig(file, bidsRoot, params)
	if err != nil {
		return err
	}
	return file.Close()
}

func ReadConfig(r io.Reader) (doc Document, err error) {
	err = toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return doc, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return doc, nil
}
