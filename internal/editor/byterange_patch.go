package editor

import (
	"bytes"
	"fmt"
)

// PatchByteRange scans the revision buffer for the reserved /ByteRange
// and /Contents tokens and rewrites the former with the real offsets,
// per placeholder protocol step 11. It must run after the xref table and
// trailer for this revision have been appended, since the final file
// size and the /Contents offsets both depend on everything that
// precedes them already being in place.
func (e *Editor) PatchByteRange() error {
	if !e.placed {
		return fmt.Errorf("no placeholder created for this editor session")
	}

	raw := e.buf.Buff.Bytes()

	contentsKey := []byte("/Contents<")
	contentsIdx := bytes.Index(raw, contentsKey)
	if contentsIdx < 0 {
		return fmt.Errorf("pdf malformed: /Contents placeholder not found in revision")
	}
	openAngle := contentsIdx + len(contentsKey) - 1
	closeAngle := bytes.IndexByte(raw[openAngle+1:], '>')
	if closeAngle < 0 {
		return fmt.Errorf("pdf malformed: /Contents placeholder is not terminated")
	}
	closeAngle += openAngle + 1

	byteRangeKey := []byte(byteRangePlaceholder)
	brIdx := bytes.Index(raw, byteRangeKey)
	if brIdx < 0 {
		return fmt.Errorf("pdf malformed: /ByteRange placeholder not found in revision")
	}

	beforeStart := int64(0)
	beforeSize := e.inputSize + int64(openAngle)
	afterStart := e.inputSize + int64(closeAngle) + 1
	afterSize := e.inputSize + int64(len(raw)) - afterStart

	newByteRange := fmt.Sprintf("/ByteRange[%d %d %d %d]", beforeStart, beforeSize, afterStart, afterSize)
	if len(newByteRange) > len(byteRangeKey) {
		return fmt.Errorf("pdf malformed: computed /ByteRange does not fit reserved width")
	}
	newByteRange += spaces(len(byteRangeKey) - len(newByteRange))

	copy(raw[brIdx:brIdx+len(byteRangeKey)], []byte(newByteRange))

	e.byteRangeStartByte = e.inputSize + int64(brIdx)
	e.signatureContentsStartByte = e.inputSize + int64(openAngle) + 1
	return nil
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

// ByteRangeArray returns the four integers PatchByteRange computed, for
// callers that need them without re-parsing the file (the Digest Engine
// and the Contents Injector).
func (e *Editor) ByteRangeArray() (before, beforeSize, after, afterSize int64, err error) {
	raw := e.buf.Buff.Bytes()
	brIdx := bytes.Index(raw, []byte("/ByteRange["))
	if brIdx < 0 {
		return 0, 0, 0, 0, fmt.Errorf("byte range not patched yet")
	}
	end := bytes.IndexByte(raw[brIdx:], ']')
	if end < 0 {
		return 0, 0, 0, 0, fmt.Errorf("pdf malformed: unterminated /ByteRange")
	}
	var vals [4]int64
	n, err := fmt.Sscanf(string(raw[brIdx+len("/ByteRange[")+0:brIdx+end]), "%d %d %d %d", &vals[0], &vals[1], &vals[2], &vals[3])
	if err != nil || n != 4 {
		return 0, 0, 0, 0, fmt.Errorf("pdf malformed: could not parse /ByteRange")
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}
