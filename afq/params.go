package afq

import (
	"fmt"
	"strings"
)

const (
	ModelDKI = "DKI"
	ModelCSD = "CSD"
	ModelDTI = "DTI"
)

const (
	DefaultSession = "1200"
	DefaultShell   = "multi_csd"
	DefaultSegAlgo = "afq"
	DefaultRegAlgo = "syn"
	DefaultViz     = "plotly"
)

// Single shell runs only keep the b=1000 shell
const (
	SingleShellMinBval = 990
	SingleShellMaxBval = 1010
)

// Masks are expressions evaluated by the pipeline
const (
	BrainMaskDefinition = "LabelledImageFile(suffix='seg', filters={'scope': 'dmriprep'}, exclusive_labels=[0])"
	DefaultBundles      = "default18_bd()"
	CallosalBundles     = "default18_bd() + callosal_bd()"
)

func ScalarMask(scalar string) (definition string) {
	return fmt.Sprintf("ScalarImage('%s')", scalar)
}

type Options struct {
	Session           string
	Shell             string
	SegAlgo           string
	UseCallosal       bool
	ReuseTractography bool
}

func DefaultOptions() (opts Options) {
	return Options{
		Session: DefaultSession,
		Shell:   DefaultShell,
		SegAlgo: DefaultSegAlgo,
	}
}

type TrackingParams struct {
	SeedMask string `toml:"seed_mask,omitempty"`
	StopMask string `toml:"stop_mask,omitempty"`
	OdfModel string `toml:"odf_model"`
}

type SegmentationParams struct {
	SegAlgo string `toml:"seg_algo"`
	RegAlgo string `toml:"reg_algo"`
}

type Params struct {
	BrainMask          string
	BundleInfo         string
	Scalars            []string
	MinBval            int
	MaxBval            int
	Tracking           TrackingParams
	Segmentation       SegmentationParams
	VizBackend         string
	CustomTractography map[string]string
	// Subject labels without the sub- prefix, every subject of the dataset when empty
	Participants []string
}

// Custom tractography files are looked up with these BIDS filters
var CustomTractographyFilters = map[string]string{
	"suffix": "customtrk",
	"scope":  "dmriprep",
}

func (o Options) WithDefaults() (opts Options) {
	opts = o
	if opts.Session == "" {
		opts.Session = DefaultSession
	}
	if opts.Shell == "" {
		opts.Shell = DefaultShell
	}
	if opts.SegAlgo == "" {
		opts.SegAlgo = DefaultSegAlgo
	}
	return opts
}

func (o Options) SingleShell() (single bool) {
	return strings.Contains(strings.ToLower(o.WithDefaults().Shell), "single")
}

// Builds the run parameters.
// Single shell data is modeled with DTI over the b=1000 shell. Multi shell data
// uses DKI derived masks and scalars, with CSD as the tracking model when the
// shell mentions csd.
func Build(opts Options) (params Params) {
	opts = opts.WithDefaults()
	shell := strings.ToLower(opts.Shell)

	params = Params{
		BrainMask:  BrainMaskDefinition,
		BundleInfo: DefaultBundles,
		Segmentation: SegmentationParams{
			SegAlgo: opts.SegAlgo,
			RegAlgo: DefaultRegAlgo,
		},
		VizBackend: DefaultViz,
	}

	if opts.UseCallosal {
		params.BundleInfo = CallosalBundles
	}

	if strings.Contains(shell, "single") {
		params.Tracking = TrackingParams{OdfModel: ModelDTI}
		params.MinBval = SingleShellMinBval
		params.MaxBval = SingleShellMaxBval
	} else {
		params.Tracking = TrackingParams{
			SeedMask: ScalarMask("dki_fa"),
			StopMask: ScalarMask("dki_fa"),
			OdfModel: ModelDKI,
		}
		params.Scalars = []string{"dki_fa", "dki_md"}

		if strings.Contains(shell, "csd") {
			params.Tracking.OdfModel = ModelCSD
		}
	}

	if opts.ReuseTractography {
		params.CustomTractography = CustomTractographyFilters
	}

	return params
}
