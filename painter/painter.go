// Package painter implements the appearance-drawing capability the
// placeholder writer delegates to for visible signatures: given a
// rectangle and the signature's display attributes, it returns a PDF
// content stream suitable for wrapping in a Form XObject.
package painter

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// avgCharWidthFactor approximates a base-14 font's average advance width as
// a fraction of its point size, for layout purposes only — this module
// never embeds a font program, so there are no real glyph metrics to
// measure against.
const avgCharWidthFactor = 0.5

// SignatureInfo is the subset of display attributes the painter draws.
// It mirrors the root package's SignatureInfo without importing it, to
// keep this package free of a dependency on the orchestrator.
type SignatureInfo struct {
	Author      string
	Reason      string
	CertifiedBy string
	DateTime    string
}

const (
	fontSize    = 9.0
	lineSpacing = fontSize + 2
	margin      = 4.0
)

// DrawSignatureAppearance renders info as stacked lines of text within a
// w×h rectangle, using the base-14 Helvetica font referenced by the
// caller's /Helv resource name. It never returns an empty stream: a
// signature with no display text still gets a visible border.
func DrawSignatureAppearance(w, h float64, info SignatureInfo) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("rectangle must have positive width and height")
	}

	var lines []string
	if info.Author != "" {
		lines = append(lines, "Digitally signed by "+info.Author)
	}
	if info.Reason != "" {
		lines = append(lines, "Reason: "+info.Reason)
	}
	if info.CertifiedBy != "" {
		lines = append(lines, "Certified by: "+info.CertifiedBy)
	}
	if info.DateTime != "" {
		lines = append(lines, "Date: "+info.DateTime)
	}

	maxWidth := w - 2*margin

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "q 0.75 w 0 0 0 RG %.2f %.2f %.2f %.2f re S Q\n", 0.5, 0.5, w-1, h-1)

	y := h - margin - fontSize
	for _, line := range lines {
		if y < margin {
			break
		}
		line = truncateToWidth(line, fontSize, maxWidth)

		buf.WriteString("q\nBT\n")
		fmt.Fprintf(&buf, "  /Helv %.2f Tf\n", fontSize)
		buf.WriteString("  0 0 0 rg\n")
		fmt.Fprintf(&buf, "  %.2f %.2f Td\n", margin, y)
		fmt.Fprintf(&buf, "  <%s> Tj\n", hex.EncodeToString([]byte(line)))
		buf.WriteString("ET\nQ\n")
		y -= lineSpacing
	}

	return buf.Bytes(), nil
}

// truncateToWidth shortens line with an ellipsis until its approximate
// width at size fits within maxWidth.
func truncateToWidth(line string, size, maxWidth float64) string {
	width := func(s string) float64 { return float64(len(s)) * size * avgCharWidthFactor }

	if maxWidth <= 0 || width(line) <= maxWidth {
		return line
	}
	for len(line) > 1 {
		line = line[:len(line)-1]
		if width(line+"...") <= maxWidth {
			return line + "..."
		}
	}
	return line
}
