// Package editor implements the "PDF editor" capability the signing
// pipeline consumes: opening a PDF for incremental update, locating its
// AcroForm and page tree, and appending a new signature field, widget
// annotation, and catalog revision without disturbing any existing byte
// offsets.
//
// The approach mirrors how a conforming incremental update is built by
// hand: new objects are appended verbatim as bytes to a growing buffer,
// followed by a fresh cross-reference table and trailer that only
// describes what changed. Nothing earlier in the file is rewritten.
package editor

import (
	"io"

	pdflib "github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"
)

// Annotation widget flags, ISO 32000-1 Table 165.
const (
	FlagInvisible = 1 << 0
	FlagHidden    = 1 << 1
	FlagPrint     = 1 << 2
	FlagLocked    = 1 << 7
)

// VisibleFlags and InvisibleFlags are the exact widget flag combinations
// the placeholder protocol requires.
const (
	VisibleFlags   = FlagPrint | FlagLocked
	InvisibleFlags = FlagInvisible | FlagHidden | FlagLocked
)

// inputReader is what Open and Editor need from the source file: seeking
// to re-read it in full, plus the random access digitorus/pdf requires.
type inputReader interface {
	io.ReaderAt
	io.ReadSeeker
}

// xrefEntry is one appended object's absolute file offset (original
// document length plus its position in the revision), keyed by object
// number.
type xrefEntry struct {
	ID     uint32
	Gen    uint16
	Offset int64
}

// Editor is one open PDF, ready to receive a single incremental-update
// revision.
type Editor struct {
	path       string
	input      inputReader
	inputSize  int64
	reader     *pdflib.Reader
	buf        *filebuffer.Buffer
	nextObjID  uint32
	newEntries []xrefEntry
	rootRef    string // "N G R" for the existing /Root

	widgetObjID    uint32
	signatureObjID uint32

	byteRangeStartByte         int64 // offset of "/ByteRange[" placeholder: relative to buf start after CreatePlaceholder, absolute in the file after PatchByteRange
	signatureContentsStartByte int64 // offset of the byte just past '<': relative to buf start after CreatePlaceholder, absolute in the file after PatchByteRange
	signatureMaxLength         int   // reserved hex digit count, i.e. 2 * size_in_bytes

	placed bool
}
