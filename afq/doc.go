// Package afq assembles the parameters of an AFQ (automated fiber
// quantification) run over a BIDS dataset, renders them as the pipeline's TOML
// configuration and invokes the external pipeline to export every derivative.
//
// Diffusion modeling, tractography, segmentation and visualization all happen
// in the external pipeline. This package only decides what it is asked to do
// and where its outputs are published.
package afq
