package editor

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	pdflib "github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"

	"github.com/casper2020/casper-pdf-signer/fonts"
)

// ErrFieldExists is returned by CreatePlaceholder when spec.Name collides
// with a /Sig field already present in the document's AcroForm.
var ErrFieldExists = errors.New("signature field already exists")

// ErrAlreadyPlaced is returned by CreatePlaceholder when called more than
// once against the same Editor session.
var ErrAlreadyPlaced = errors.New("placeholder already created for this editor session")

// byteRangePlaceholder reserves maximum width for each of the four
// /ByteRange integers so the post-write adjustment in PatchByteRange never
// has to change the token's encoded length.
const byteRangePlaceholder = "/ByteRange[0 ********** ********** **********]"

// WidgetSpec is the caller-supplied geometry and behavior for a new
// signature widget annotation, expressed in the top-origin coordinate
// system callers use; CreatePlaceholder converts to PDF's bottom-origin
// convention internally.
type WidgetSpec struct {
	Name       string
	Page       int
	X, Y, W, H float64
	Visible    bool
	Reason     string
	Date       time.Time
	SizeBytes  int
	Appearance []byte // pre-rendered appearance stream content, painter output; nil if invisible
}

// CreatePlaceholder appends a new revision containing an unsigned /Sig
// field, a widget annotation, and a rewritten catalog with /SigFlags=3,
// per the placeholder protocol. It does not write anything to the
// destination writer; call WriteTo for that.
func (e *Editor) CreatePlaceholder(spec WidgetSpec) error {
	if e.placed {
		return ErrAlreadyPlaced
	}
	if spec.SizeBytes <= 0 {
		return fmt.Errorf("size_in_bytes must be positive")
	}
	if e.HasSignatureField(spec.Name) {
		return fmt.Errorf("%w: %q", ErrFieldExists, spec.Name)
	}

	page, err := e.Page(spec.Page)
	if err != nil {
		return fmt.Errorf("locate page: %w", err)
	}
	pageW, pageH, err := e.PageSize(page)
	if err != nil {
		return fmt.Errorf("page size: %w", err)
	}
	_ = pageW

	pagePtr := page.GetPtr()

	e.buf = filebuffer.New([]byte{})
	e.signatureMaxLength = spec.SizeBytes * 2

	e.signatureObjID = e.allocObjID()
	e.widgetObjID = e.allocObjID()

	sigOffset := int64(e.buf.Buff.Len())
	sigBytes, byteRangeRel, contentsRel := e.buildSignatureObject(spec)
	if err := e.writeObject(e.signatureObjID, sigOffset, sigBytes); err != nil {
		return err
	}
	e.byteRangeStartByte = sigOffset + byteRangeRel
	e.signatureContentsStartByte = sigOffset + contentsRel

	// Bottom-origin rectangle per step 7.
	rectY0 := pageH - spec.Y - spec.H
	rect := [4]float64{spec.X, rectY0, spec.X + spec.W, rectY0 + spec.H}
	flags := InvisibleFlags
	if spec.Visible {
		flags = VisibleFlags
	}

	var apObjID uint32
	if len(spec.Appearance) > 0 {
		apObjID = e.allocObjID()
	}

	widgetOffset := int64(e.buf.Buff.Len())
	widgetBytes := e.buildWidgetObject(spec.Name, pagePtr, rect, flags, apObjID)
	if err := e.writeObject(e.widgetObjID, widgetOffset, widgetBytes); err != nil {
		return err
	}

	if apObjID != 0 {
		fontObjID := e.allocObjID()
		fontOffset := int64(e.buf.Buff.Len())
		if err := e.writeObject(fontObjID, fontOffset, buildHelveticaFontObject(fontObjID)); err != nil {
			return err
		}

		apOffset := int64(e.buf.Buff.Len())
		apBytes := buildAppearanceStreamObject(apObjID, fontObjID, rect, spec.Appearance)
		if err := e.writeObject(apObjID, apOffset, apBytes); err != nil {
			return err
		}
	}

	root := e.reader.Trailer().Key("Root")
	rootPtr := root.GetPtr()

	catalogOffset := int64(e.buf.Buff.Len())
	catalogBytes, rootID, err := e.buildCatalogObject()
	if err != nil {
		return err
	}
	if err := e.writeObjectGen(rootID, uint16(rootPtr.GetGen()), catalogOffset, catalogBytes); err != nil {
		return err
	}

	if err := e.writeNewAnnotsPageObject(pagePtr); err != nil {
		return err
	}

	e.placed = true
	return nil
}

// buildSignatureObject mirrors the layout the teacher builds by hand:
// ByteRange and Contents are reserved at maximum width first, their
// relative offsets captured, and patched in place afterward.
func (e *Editor) buildSignatureObject(spec WidgetSpec) (obj []byte, byteRangeRel, contentsRel int64) {
	var buf bytes.Buffer
	buf.WriteString(strconv.FormatUint(uint64(e.signatureObjID), 10) + " 0 obj\n")
	buf.WriteString("<< /Type /Sig")
	buf.WriteString(" /Filter /Adobe.PPKLite")
	buf.WriteString(" /SubFilter /adbe.pkcs7.detached")

	byteRangeRel = int64(buf.Len()) + 1
	buf.WriteString(" " + byteRangePlaceholder)

	contentsRel = int64(buf.Len()) + 11
	buf.WriteString(" /Contents<")
	buf.Write(bytes.Repeat([]byte("0"), e.signatureMaxLength))
	buf.WriteString(">")

	if spec.Reason != "" {
		buf.WriteString(" /Reason " + pdfString(spec.Reason))
	}
	buf.WriteString(" /M " + pdfDateTime(spec.Date))
	buf.WriteString(" >>\nendobj\n")

	return buf.Bytes(), byteRangeRel, contentsRel
}

func (e *Editor) buildWidgetObject(name string, pagePtr pdflib.Ptr, rect [4]float64, flags int, apObjID uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString(strconv.FormatUint(uint64(e.widgetObjID), 10) + " 0 obj\n")
	buf.WriteString("<< /Type /Annot")
	buf.WriteString(" /Subtype /Widget")
	buf.WriteString(fmt.Sprintf(" /Rect [%s %s %s %s]",
		formatNumber(rect[0]), formatNumber(rect[1]), formatNumber(rect[2]), formatNumber(rect[3])))
	buf.WriteString(" /P " + strconv.FormatUint(uint64(pagePtr.GetID()), 10) + " " + strconv.FormatUint(uint64(pagePtr.GetGen()), 10) + " R")
	buf.WriteString(" /F " + strconv.Itoa(flags))
	buf.WriteString(" /FT /Sig")
	buf.WriteString(" /T " + pdfString(name))
	buf.WriteString(" /Ff 1") // read-only, ISO 32000-1 table 221 bit 1
	buf.WriteString(" /V " + strconv.FormatUint(uint64(e.signatureObjID), 10) + " 0 R")

	if apObjID != 0 {
		buf.WriteString(fmt.Sprintf(" /AP << /N %d 0 R >>", apObjID))
	}

	buf.WriteString(" >>\nendobj\n")
	return buf.Bytes()
}

func buildAppearanceStreamObject(objID, fontObjID uint32, rect [4]float64, content []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(strconv.FormatUint(uint64(objID), 10) + " 0 obj\n")
	buf.WriteString("<< /Type /XObject")
	buf.WriteString(" /Subtype /Form")
	buf.WriteString(fmt.Sprintf(" /BBox [%s %s %s %s]",
		formatNumber(0), formatNumber(0), formatNumber(rect[2]-rect[0]), formatNumber(rect[3]-rect[1])))
	buf.WriteString(fmt.Sprintf(" /Resources << /Font << /Helv %d 0 R >> >>", fontObjID))
	buf.WriteString(fmt.Sprintf(" /Length %d", len(content)))
	buf.WriteString(" >>\nstream\n")
	buf.Write(content)
	buf.WriteString("\nendstream\nendobj\n")
	return buf.Bytes()
}

// buildHelveticaFontObject declares the base-14 Helvetica font with no
// embedded font program, the minimum a viewer needs to render Tj
// operators against /Helv.
func buildHelveticaFontObject(objID uint32) []byte {
	name := fonts.Standard(fonts.Helvetica).Name

	var buf bytes.Buffer
	buf.WriteString(strconv.FormatUint(uint64(objID), 10) + " 0 obj\n")
	buf.WriteString("<< /Type /Font /Subtype /Type1 /BaseFont /" + name + " /Encoding /WinAnsiEncoding >>\nendobj\n")
	return buf.Bytes()
}

// buildCatalogObject rewrites the document's root Catalog as a new
// revision of the same object number, folding in the existing AcroForm
// fields plus the new signature field and /SigFlags=3.
func (e *Editor) buildCatalogObject() ([]byte, uint32, error) {
	root := e.reader.Trailer().Key("Root")
	rootPtr := root.GetPtr()

	var buf bytes.Buffer
	buf.WriteString(strconv.FormatUint(uint64(rootPtr.GetID()), 10) + " " + strconv.FormatUint(uint64(rootPtr.GetGen()), 10) + " obj\n")
	buf.WriteString("<< /Type /Catalog")

	pages := root.Key("Pages")
	if pages.IsNull() {
		return nil, 0, fmt.Errorf("catalog is missing /Pages")
	}
	pagesPtr := pages.GetPtr()
	buf.WriteString(" /Pages " + strconv.FormatUint(uint64(pagesPtr.GetID()), 10) + " " + strconv.FormatUint(uint64(pagesPtr.GetGen()), 10) + " R")

	if names := root.Key("Names"); !names.IsNull() {
		p := names.GetPtr()
		buf.WriteString(" /Names " + strconv.FormatUint(uint64(p.GetID()), 10) + " " + strconv.FormatUint(uint64(p.GetGen()), 10) + " R")
	}

	buf.WriteString(" /AcroForm << /Fields [")
	existing := root.Key("AcroForm").Key("Fields")
	for i := 0; i < existing.Len(); i++ {
		p := existing.Index(i).GetPtr()
		if p.GetID() == 0 {
			continue
		}
		buf.WriteString(" " + strconv.FormatUint(uint64(p.GetID()), 10) + " " + strconv.FormatUint(uint64(p.GetGen()), 10) + " R")
	}
	buf.WriteString(" " + strconv.FormatUint(uint64(e.widgetObjID), 10) + " 0 R")
	buf.WriteString(" ] /NeedAppearances false /SigFlags 3 >>")

	buf.WriteString(" >>\nendobj\n")
	return buf.Bytes(), uint32(rootPtr.GetID()), nil
}

// writeNewAnnotsPageObject rewrites the signed page's object, same
// object number and generation as the original, adding the new widget
// to its /Annots array without disturbing any other key.
func (e *Editor) writeNewAnnotsPageObject(pagePtr pdflib.Ptr) error {
	original, err := e.reader.GetObject(pagePtr.GetID())
	if err != nil {
		return fmt.Errorf("resolve page object: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(strconv.FormatUint(uint64(pagePtr.GetID()), 10) + " " + strconv.FormatUint(uint64(pagePtr.GetGen()), 10) + " obj\n")
	buf.WriteString("<<")
	for _, k := range original.Keys() {
		if k == "Annots" {
			continue
		}
		buf.WriteString(" /" + k + " " + serializeValue(original.Key(k)))
	}

	buf.WriteString(" /Annots [")
	annots := original.Key("Annots")
	for i := 0; i < annots.Len(); i++ {
		buf.WriteString(" " + serializeValue(annots.Index(i)))
	}
	buf.WriteString(" " + strconv.FormatUint(uint64(e.widgetObjID), 10) + " 0 R")
	buf.WriteString(" ]")

	buf.WriteString(" >>\nendobj\n")

	offset := int64(e.buf.Buff.Len())
	return e.writeObjectGen(uint32(pagePtr.GetID()), uint16(pagePtr.GetGen()), offset, buf.Bytes())
}

func (e *Editor) allocObjID() uint32 {
	id := e.nextObjID
	e.nextObjID++
	return id
}

// writeObject appends content (a freshly allocated object, generation 0)
// to the revision buffer and registers its xref entry.
func (e *Editor) writeObject(id uint32, offset int64, content []byte) error {
	return e.writeObjectGen(id, 0, offset, content)
}

// writeObjectGen is writeObject generalized to a caller-supplied
// generation, for rewriting an existing object number: its xref entry's
// generation must match the "N G obj" header already burned into content,
// which for a reused object number is the original document's generation,
// not necessarily 0. offset is relative to the revision buffer; the xref
// entry records it as an absolute file offset.
func (e *Editor) writeObjectGen(id uint32, gen uint16, offset int64, content []byte) error {
	if _, err := e.buf.Write(content); err != nil {
		return err
	}
	e.newEntries = append(e.newEntries, xrefEntry{ID: id, Gen: gen, Offset: e.inputSize + offset})
	return nil
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
