// spatial applies a fitted ensemble across the model grid and carries
// the raster-side transforms: covariate stack loading, block-parallel
// inference, the conservation-lands adjustment with its sentinel
// domains, and the mask utilities used to build sampling frames.
//
// Rasters are flat .bil payloads over the full grid (row-major cell
// ids), float32 for continuous surfaces and int32 for the adjusted
// product, with companion .hdr files from the shared grid definition.
package spatial

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/maseology/goHydro/grid"
	"github.com/maseology/mmio"
)

// Nodata is the raster null for both float and integer products.
const Nodata = -9999.

// ReadBil reads a float32 .bil payload, checking cell-count alignment
// against the shared grid.
func ReadBil(fp string, ncell int) ([]float64, error) {
	b, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("ReadBil %s: %w", fp, err)
	}
	if len(b) != 4*ncell {
		return nil, fmt.Errorf("ReadBil %s: misaligned layer: %d cells, grid has %d", fp, len(b)/4, ncell)
	}
	f32 := make([]float32, ncell)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, f32); err != nil {
		return nil, fmt.Errorf("ReadBil %s: %w", fp, err)
	}
	o := make([]float64, ncell)
	for i, v := range f32 {
		o[i] = float64(v)
	}
	return o, nil
}

// ReadBilInt reads an int32 .bil payload with the same alignment check.
func ReadBilInt(fp string, ncell int) ([]int32, error) {
	b, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("ReadBilInt %s: %w", fp, err)
	}
	if len(b) != 4*ncell {
		return nil, fmt.Errorf("ReadBilInt %s: misaligned layer: %d cells, grid has %d", fp, len(b)/4, ncell)
	}
	o := make([]int32, ncell)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, o); err != nil {
		return nil, fmt.Errorf("ReadBilInt %s: %w", fp, err)
	}
	return o, nil
}

// WriteBil writes a float64 grid array as float32 .bil with its header.
func WriteBil(gd *grid.Definition, fp string, f []float64) error {
	f32 := func() []float32 {
		o := make([]float32, len(f))
		for i, v := range f {
			o[i] = float32(v)
		}
		return o
	}()
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, f32); err != nil {
		return fmt.Errorf("WriteBil %s: %w", fp, err)
	}
	if err := os.WriteFile(fp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("WriteBil %s: %w", fp, err)
	}
	gd.ToHDRfloat(mmio.RemoveExtension(fp)+".hdr", 1, 32)
	return nil
}

// WriteBilInt writes an int32 grid array as .bil with its header.
func WriteBilInt(gd *grid.Definition, fp string, ii []int32) error {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, ii); err != nil {
		return fmt.Errorf("WriteBilInt %s: %w", fp, err)
	}
	if err := os.WriteFile(fp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("WriteBilInt %s: %w", fp, err)
	}
	if err := gd.ToHDR(mmio.RemoveExtension(fp)+".hdr", 1, 32); err != nil {
		return fmt.Errorf("WriteBilInt %s: %w", fp, err)
	}
	return nil
}
