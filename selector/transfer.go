package selector

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/uwedeportivo/torrentzip"
)

// OSTransfer is the default Transferer, grounded on the teacher's Cp/Mv
// helpers: it shells out to the platform cp/mv rather than streaming the
// bytes itself, so large ROM files benefit from the OS's own copy
// acceleration (reflink/CoW on filesystems that support it).
type OSTransfer struct{}

func (OSTransfer) Copy(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := exec.Command("cp", src, dst).CombinedOutput()
	if err != nil {
		return fmt.Errorf("cp %s %s: %w: %s", src, dst, err, out)
	}
	return nil
}

func (OSTransfer) Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := exec.Command("mv", src, dst).CombinedOutput()
	if err != nil {
		return fmt.Errorf("mv %s %s: %w: %s", src, dst, err, out)
	}
	return nil
}

// WriteCompressedZip packs files into a single torrentzip-canonical archive
// at dstZip, for OutputMode ModeCompressedZip. torrentzip's writer mirrors
// archive/zip.Writer's Create/Close shape but normalizes compression
// parameters so byte-identical ROM sets always produce a byte-identical
// zip, and registers klauspost/compress's flate implementation for the
// actual deflate work (faster than the standard library's).
func WriteCompressedZip(dstZip string, files []ResolvedFile, open func(ResolvedFile) (io.ReadCloser, error)) error {
	if err := os.MkdirAll(filepath.Dir(dstZip), 0755); err != nil {
		return err
	}
	f, err := os.Create(dstZip)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := torrentzip.NewWriter(f)
	zw.RegisterCompressor(flate.BestCompression, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})
	defer zw.Close()

	for _, rf := range files {
		r, err := open(rf)
		if err != nil {
			return fmt.Errorf("opening %s for zip packing: %w", rf.SourcePath, err)
		}
		w, err := zw.Create(filepath.Base(rf.DestName))
		if err != nil {
			r.Close()
			return err
		}
		_, err = io.Copy(w, r)
		r.Close()
		if err != nil {
			return fmt.Errorf("packing %s into %s: %w", rf.SourcePath, dstZip, err)
		}
	}
	return nil
}
