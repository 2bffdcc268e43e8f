package pdfsign

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeTempFile writes data to a fresh file under t's temp directory and
// returns its path.
func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

// buildMinimalPDF assembles a single-page PDF with a classic
// cross-reference table, tracking each object's offset as it writes.
func buildMinimalPDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int64, 5)
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
