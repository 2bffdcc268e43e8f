// Package fonts provides the font resources the painter capability draws
// signature appearances with.
package fonts

// StandardType identifies one of the base-14 PDF fonts, available in every
// conforming reader without embedding.
type StandardType int

const (
	// Helvetica is the standard sans-serif font.
	Helvetica StandardType = iota
	// HelveticaBold is bold Helvetica.
	HelveticaBold
	// HelveticaOblique is italic/oblique Helvetica.
	HelveticaOblique
	// TimesRoman is the standard serif font.
	TimesRoman
	// TimesBold is bold Times Roman.
	TimesBold
	// Courier is the standard monospace font.
	Courier
	// CourierBold is bold Courier.
	CourierBold
)

// Font is a font resource usable in a PDF appearance stream's /Resources.
type Font struct {
	Name string // PostScript BaseFont name
}

// Standard returns the Font for one of the base-14 types.
func Standard(ft StandardType) *Font {
	names := map[StandardType]string{
		Helvetica:        "Helvetica",
		HelveticaBold:    "Helvetica-Bold",
		HelveticaOblique: "Helvetica-Oblique",
		TimesRoman:       "Times-Roman",
		TimesBold:        "Times-Bold",
		Courier:          "Courier",
		CourierBold:      "Courier-Bold",
	}
	return &Font{Name: names[ft]}
}
