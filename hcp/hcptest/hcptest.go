// Package hcptest builds small synthetic HCP subjects for tests.
package hcptest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// NIfTI-1 header of a float32 image with the given dimensions
func Nifti1Header(dims ...int16) (raw []byte) {
	raw = make([]byte, 352)
	binary.LittleEndian.PutUint32(raw[0:], 348)
	binary.LittleEndian.PutUint16(raw[40:], uint16(len(dims)))
	for index, dim := range dims {
		binary.LittleEndian.PutUint16(raw[42+2*index:], uint16(dim))
	}
	binary.LittleEndian.PutUint16(raw[70:], 16)
	binary.LittleEndian.PutUint16(raw[72:], 32)
	copy(raw[344:], "n+1\x00")
	return raw
}

func Gzip(raw []byte) (compressed []byte, err error) {
	var buffer bytes.Buffer
	writer := gzip.NewWriter(&buffer)
	_, err = writer.Write(raw)
	if err != nil {
		return nil, err
	}
	err = writer.Close()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func repeat(value string, n int) (line string) {
	values := make([]string, n)
	for index := range values {
		values[index] = value
	}
	return strings.Join(values, " ")
}

// Writes the objects of a subject with the given number of volumes under root, using the bucket key layout
func WriteSubject(root, study string, subject int, volumes int) (err error) {
	id := strconv.Itoa(subject)
	diffusion := filepath.Join(root, study, id, "T1w", "Diffusion")
	t1w := filepath.Join(root, study, id, "T1w")

	err = os.MkdirAll(diffusion, 0o755)
	if err != nil {
		return err
	}

	image, err := Gzip(Nifti1Header(2, 2, 2, int16(volumes)))
	if err != nil {
		return err
	}
	anat, err := Gzip(Nifti1Header(2, 2, 2))
	if err != nil {
		return err
	}

	bvals := repeat("1000", volumes) + "\n"
	bvecs := fmt.Sprintf("%s\n%s\n%s\n", repeat("1", volumes), repeat("0", volumes), repeat("0", volumes))

	files := map[string][]byte{
		filepath.Join(diffusion, "bvals"):        []byte(bvals),
		filepath.Join(diffusion, "bvecs"):        []byte(bvecs),
		filepath.Join(diffusion, "data.nii.gz"):  image,
		filepath.Join(t1w, "T1w_acpc_dc.nii.gz"): anat,
		filepath.Join(t1w, "aparc+aseg.nii.gz"):  anat,
	}
	for filename, contents := range files {
		err = os.WriteFile(filename, contents, 0o644)
		if err != nil {
			return err
		}
	}
	return nil
}
