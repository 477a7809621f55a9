package cqtscope

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/lestrrat-go/strftime"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Binary diagnostic dump format (spec section 6): a fixed
 *		16-byte header followed by a row-major float32 magnitude
 *		grid, for comparing a serial and parallel Dispatch run bit
 *		for bit, or for saving a spectrogram snapshot to disk.
 *		Timestamped dump filenames are built with strftime, the
 *		same pattern direwolf's log.go, xmit.go, tq.go and
 *		beacon.go use for naming rotated output files.
 *
 *------------------------------------------------------------------*/

const (
	dumpMagic   uint32 = 0x43515446 // "CQTF", little-endian on the wire
	dumpVersion uint32 = 1
	dumpHeaderSize = 16
)

// WriteMagnitudeDump writes data (row-major, width*height float32s) to
// w as a CQTF dump: magic, version, width, height, all little-endian
// uint32, followed by the raw float32 payload.
func WriteMagnitudeDump(w io.Writer, data []float32, width, height int) error {
	if len(data) != width*height {
		return &ConfigurationError{
			Field:  "data",
			Reason: "length does not match width*height",
		}
	}

	header := make([]byte, dumpHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], dumpMagic)
	binary.LittleEndian.PutUint32(header[4:8], dumpVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(width))
	binary.LittleEndian.PutUint32(header[12:16], uint32(height))

	if _, err := w.Write(header); err != nil {
		return err
	}

	payload := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(payload[i*4:i*4+4], math.Float32bits(v))
	}

	_, err := w.Write(payload)
	return err
}

// ReadMagnitudeDump reads and validates a CQTF dump, returning its
// width, height and row-major float32 payload. A bad magic or
// unsupported version is reported as an error rather than silently
// misreading the payload.
func ReadMagnitudeDump(r io.Reader) (width, height int, data []float32, err error) {
	header := make([]byte, dumpHeaderSize)
	if _, err = io.ReadFull(r, header); err != nil {
		return 0, 0, nil, fmt.Errorf("reading dump header: %w", err)
	}

	magic := binary.LittleEndian.Uint32(header[0:4])
	if magic != dumpMagic {
		return 0, 0, nil, fmt.Errorf("bad dump magic %#x, want %#x", magic, dumpMagic)
	}
	version := binary.LittleEndian.Uint32(header[4:8])
	if version != dumpVersion {
		return 0, 0, nil, fmt.Errorf("unsupported dump version %d, want %d", version, dumpVersion)
	}
	width = int(binary.LittleEndian.Uint32(header[8:12]))
	height = int(binary.LittleEndian.Uint32(header[12:16]))

	payload := make([]byte, width*height*4)
	if _, err = io.ReadFull(r, payload); err != nil {
		return 0, 0, nil, fmt.Errorf("reading dump payload: %w", err)
	}

	data = make([]float32, width*height)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4 : i*4+4]))
	}

	return width, height, data, nil
}

// dumpFilenamePattern mirrors the strftime patterns direwolf builds
// rotated log and transmit-file names from: a fixed prefix followed by
// a timestamp, here with the CQTF dump's own extension.
const dumpFilenamePattern = "cqt-dump-%Y%m%d-%H%M%S.bin"

// DumpFilename renders dumpFilenamePattern against t, giving every
// snapshot a unique, sortable name without the caller tracking a
// counter.
func DumpFilename(t time.Time) (string, error) {
	return strftime.Format(dumpFilenamePattern, t)
}
