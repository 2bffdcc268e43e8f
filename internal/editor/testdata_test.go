package editor

import (
	"bytes"
	"fmt"
)

// buildMinimalPDF assembles a single-page PDF with a classic (non-stream)
// cross-reference table and no pre-existing AcroForm, tracking each
// object's offset as it writes rather than hand-computing byte counts.
func buildMinimalPDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int64, 5) // index 1..4 used

	write := func(id int, body string) {
		offsets[id] = int64(buf.Len())
		buf.WriteString(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", id, body))
	}

	write(1, "<< /Type /Catalog /Pages 2 0 R >>")
	write(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	write(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 4 0 R >>")
	write(4, "<< /Length 0 >>\nstream\n\nendstream")

	xrefStart := int64(buf.Len())
	buf.WriteString("xref\n0 5\n")
	buf.WriteString("0000000000 65535 f \n")
	for id := 1; id <= 4; id++ {
		buf.WriteString(fmt.Sprintf("%010d %05d n \n", offsets[id], 0))
	}
	buf.WriteString("trailer\n<< /Size 5 /Root 1 0 R >>\nstartxref\n")
	buf.WriteString(fmt.Sprintf("%d", xrefStart))
	buf.WriteString("\n%%EOF\n")

	return buf.Bytes()
}

// buildMinimalPDFWithAcroForm is buildMinimalPDF plus an empty AcroForm,
// for tests that exercise HasSignatureField/CreatePlaceholder against a
// document that already carries one.
func buildMinimalPDFWithAcroForm() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int64, 5)

	write := func(id int, body string) {
		offsets[id] = int64(buf.Len())
		buf.WriteString(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", id, body))
	}

	write(1, "<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [] >> >>")
	write(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	write(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 4 0 R /Annots [] >>")
	write(4, "<< /Length 0 >>\nstream\n\nendstream")

	xrefStart := int64(buf.Len())
	buf.WriteString("xref\n0 5\n")
	buf.WriteString("0000000000 65535 f \n")
	for id := 1; id <= 4; id++ {
		buf.WriteString(fmt.Sprintf("%010d %05d n \n", offsets[id], 0))
	}
	buf.WriteString("trailer\n<< /Size 5 /Root 1 0 R >>\nstartxref\n")
	buf.WriteString(fmt.Sprintf("%d", xrefStart))
	buf.WriteString("\n%%EOF\n")

	return buf.Bytes()
}
