package hcp

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pluto-org-co/afqhcp/filesystem"
	"github.com/pluto-org-co/afqhcp/filesystem/gzipfs"
)

const (
	nifti1HeaderSize = 348
	nifti2HeaderSize = 540
)

var (
	ErrInvalidHeader    = errors.New("invalid nifti header")
	ErrNotDiffusion     = errors.New("image is not a 4D diffusion series")
	ErrGradientMismatch = errors.New("gradient table does not match the number of volumes")
)

type Header struct {
	Version  int
	Datatype int16
	// Size of every used dimension, dim[1..dim[0]]
	Dims []int64
}

func (h *Header) Volumes() (n int64) {
	if len(h.Dims) < 4 {
		return 1
	}
	return h.Dims[3]
}

func headerOrder(raw []byte, expected int32) (order binary.ByteOrder, ok bool) {
	switch {
	case int32(binary.LittleEndian.Uint32(raw)) == expected:
		return binary.LittleEndian, true
	case int32(binary.BigEndian.Uint32(raw)) == expected:
		return binary.BigEndian, true
	default:
		return nil, false
	}
}

// Decodes the NIfTI-1 or NIfTI-2 header at the beginning of r
func ReadHeader(r io.Reader) (header Header, err error) {
	raw := make([]byte, nifti2HeaderSize)
	n, err := io.ReadFull(r, raw[:nifti1HeaderSize])
	if err != nil {
		return header, fmt.Errorf("%w: read %d bytes: %w", ErrInvalidHeader, n, err)
	}

	if order, ok := headerOrder(raw, nifti1HeaderSize); ok {
		magic := string(raw[344:347])
		if magic != "n+1" && magic != "ni1" {
			return header, fmt.Errorf("%w: unexpected magic %q", ErrInvalidHeader, magic)
		}

		ndim := int16(order.Uint16(raw[40:]))
		if ndim < 1 || ndim > 7 {
			return header, fmt.Errorf("%w: dim[0] out of range: %d", ErrInvalidHeader, ndim)
		}
		header = Header{
			Version:  1,
			Datatype: int16(order.Uint16(raw[70:])),
			Dims:     make([]int64, ndim),
		}
		for index := range header.Dims {
			header.Dims[index] = int64(int16(order.Uint16(raw[42+2*index:])))
		}
		return header, nil
	}

	if order, ok := headerOrder(raw, nifti2HeaderSize); ok {
		n, err = io.ReadFull(r, raw[nifti1HeaderSize:])
		if err != nil {
			return header, fmt.Errorf("%w: read %d bytes: %w", ErrInvalidHeader, nifti1HeaderSize+n, err)
		}

		magic := string(raw[4:7])
		if magic != "n+2" && magic != "ni2" {
			return header, fmt.Errorf("%w: unexpected magic %q", ErrInvalidHeader, magic)
		}

		ndim := int64(order.Uint64(raw[16:]))
		if ndim < 1 || ndim > 7 {
			return header, fmt.Errorf("%w: dim[0] out of range: %d", ErrInvalidHeader, ndim)
		}
		header = Header{
			Version:  2,
			Datatype: int16(order.Uint16(raw[12:])),
			Dims:     make([]int64, ndim),
		}
		for index := range header.Dims {
			header.Dims[index] = int64(order.Uint64(raw[24+8*index:]))
		}
		return header, nil
	}

	return header, fmt.Errorf("%w: unknown header size", ErrInvalidHeader)
}

// Reads a whitespace separated table of numbers, one slice per non-empty line
func readTable(r io.Reader) (rows [][]float64, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, 0, len(fields))
		for _, field := range fields {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value: %q: %w", field, err)
			}
			row = append(row, value)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan table: %w", err)
	}
	return rows, nil
}

func openTable(ctx context.Context, fs filesystem.Filesystem, location []string) (rows [][]float64, err error) {
	rc, err := fs.Open(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to open: %s: %w", filesystem.LocationString(location), err)
	}
	defer rc.Close()

	rows, err = readTable(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read: %s: %w", filesystem.LocationString(location), err)
	}
	return rows, nil
}

// Checks the fetched DWI of subject is a 4D series matching its gradient table.
// fs must be rooted at the study.
func Preflight(ctx context.Context, fs filesystem.Filesystem, subject int) (header Header, err error) {
	imageLocation, bvalsLocation, bvecsLocation := DWILocations(subject)

	image, err := gzipfs.New(gzip.DefaultCompression, fs).Open(ctx, imageLocation)
	if err != nil {
		return header, fmt.Errorf("failed to open image: %w", err)
	}
	defer image.Close()

	header, err = ReadHeader(image)
	if err != nil {
		return header, fmt.Errorf("failed to read image header: %w", err)
	}
	if len(header.Dims) < 4 || header.Volumes() < 2 {
		return header, fmt.Errorf("%w: dims %v", ErrNotDiffusion, header.Dims)
	}
	volumes := header.Volumes()

	bvals, err := openTable(ctx, fs, bvalsLocation)
	if err != nil {
		return header, err
	}
	var nBvals int64
	for _, row := range bvals {
		nBvals += int64(len(row))
	}
	if nBvals != volumes {
		return header, fmt.Errorf("%w: %d b-values for %d volumes", ErrGradientMismatch, nBvals, volumes)
	}

	bvecs, err := openTable(ctx, fs, bvecsLocation)
	if err != nil {
		return header, err
	}
	if len(bvecs) != 3 {
		return header, fmt.Errorf("%w: expecting 3 b-vector rows, found %d", ErrGradientMismatch, len(bvecs))
	}
	for index, row := range bvecs {
		if int64(len(row)) != volumes {
			return header, fmt.Errorf("%w: b-vector row %d has %d values for %d volumes", ErrGradientMismatch, index, len(row), volumes)
		}
	}

	return header, nil
}
