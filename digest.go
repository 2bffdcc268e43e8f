package pdfsign

import (
	"crypto/sha256"
	"encoding/base64"
	"io"
	"os"
)

// digestStreamBufferSize is the fixed-size buffer the Digest Engine reuses
// across both ByteRange chunks; kept well above the 4 KiB floor 4.3 sets.
const digestStreamBufferSize = 32 * 1024

// ComputeDigest streams the two ByteRange chunks of path through SHA-256
// and returns the RFC 4648 padded base64 of the resulting hash. Memory use
// is bounded by digestStreamBufferSize regardless of file size.
func ComputeDigest(path string, br ByteRange) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ioFailure(path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, digestStreamBufferSize)

	if err := streamRange(f, h, buf, br.BeforeStart, br.BeforeSize); err != nil {
		return "", ioFailure(path, err)
	}
	if err := streamRange(f, h, buf, br.AfterStart, br.AfterSize); err != nil {
		return "", ioFailure(path, err)
	}

	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func streamRange(f io.ReadSeeker, h io.Writer, buf []byte, start, size int64) error {
	if size == 0 {
		return nil
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return err
	}
	_, err := io.CopyBuffer(h, io.LimitReader(f, size), buf)
	return err
}
