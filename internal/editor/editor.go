package editor

import "io"

// Finish closes out the open revision: it writes the new xref
// subsection and trailer, then patches /ByteRange against the now-final
// layout. Call it exactly once after CreatePlaceholder.
func (e *Editor) Finish() error {
	xrefStart, err := e.writeXrefSection()
	if err != nil {
		return err
	}
	if err := e.writeTrailer(xrefStart); err != nil {
		return err
	}
	return e.PatchByteRange()
}

// WriteTo writes the original document bytes followed by this editor's
// appended revision. The original bytes are never touched: the earlier
// xref table, objects, and trailer all keep their existing offsets.
func (e *Editor) WriteTo(w io.Writer) (int64, error) {
	if _, err := e.input.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	written, err := io.CopyN(w, e.input, e.inputSize)
	if err != nil {
		return written, err
	}
	n, err := w.Write(e.buf.Buff.Bytes())
	return written + int64(n), err
}
