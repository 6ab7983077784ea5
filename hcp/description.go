package hcp

import (
	"fmt"

	"github.com/bytedance/sonic"
)

const BIDSVersion = "1.4.0"

type (
	PipelineDescription struct {
		Name string `json:"Name"`
	}
	DatasetDescription struct {
		Name                string                `json:"Name"`
		BIDSVersion         string                `json:"BIDSVersion"`
		DatasetType         string                `json:"DatasetType,omitempty"`
		PipelineDescription *PipelineDescription  `json:"PipelineDescription,omitempty"`
		GeneratedBy         []PipelineDescription `json:"GeneratedBy,omitempty"`
	}
)

func RawDescription(study string) (desc DatasetDescription) {
	return DatasetDescription{
		Name:        study,
		BIDSVersion: BIDSVersion,
		DatasetType: "raw",
	}
}

func DerivativeDescription(study, pipeline string) (desc DatasetDescription) {
	return DatasetDescription{
		Name:                study,
		BIDSVersion:         BIDSVersion,
		DatasetType:         "derivative",
		PipelineDescription: &PipelineDescription{Name: pipeline},
		GeneratedBy:         []PipelineDescription{{Name: pipeline}},
	}
}

func (d DatasetDescription) Marshal() (contents []byte, err error) {
	contents, err = sonic.ConfigStd.MarshalIndent(d, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dataset description: %w", err)
	}
	return contents, nil
}

func ParseDescription(contents []byte) (desc DatasetDescription, err error) {
	err = sonic.Unmarshal(contents, &desc)
	if err != nil {
		return desc, fmt.Errorf("failed to unmarshal dataset description: %w", err)
	}
	return desc, nil
}
