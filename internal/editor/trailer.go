package editor

import "strconv"

// writeTrailer appends the trailer dictionary and startxref pointer that
// close out this revision. /Root keeps the same reference the original
// document used — the catalog is rewritten in place, not relocated.
func (e *Editor) writeTrailer(xrefStart int64) error {
	var out []byte
	out = append(out, "trailer\n"...)
	out = append(out, "<< /Size "+strconv.FormatUint(uint64(e.nextObjID), 10)...)
	out = append(out, " /Root "+e.rootRef...)
	out = append(out, " /Prev "+strconv.FormatInt(e.reader.XrefInformation.StartPos, 10)...)
	out = append(out, " >>\n"...)
	out = append(out, "startxref\n"...)
	out = append(out, strconv.FormatInt(xrefStart, 10)...)
	out = append(out, "\n%%EOF\n"...)

	_, err := e.buf.Write(out)
	return err
}
