package editor

import (
	"fmt"

	pdflib "github.com/digitorus/pdf"
)

// Open reads the PDF's cross-reference table and trailer so the editor can
// compose an incremental update against it. The returned Editor does not
// yet hold any new content in its buffer; CreatePlaceholder starts the
// revision.
func Open(input inputReader, size int64, path string) (*Editor, error) {
	rdr, err := pdflib.NewReader(input, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	root := rdr.Trailer().Key("Root")
	if root.IsNull() {
		return nil, fmt.Errorf("missing trailer /Root")
	}
	rootPtr := root.GetPtr()

	return &Editor{
		path:      path,
		input:     input,
		inputSize: size,
		reader:    rdr,
		nextObjID: uint32(rdr.XrefInformation.ItemCount),
		rootRef:   fmt.Sprintf("%d %d R", rootPtr.GetID(), rootPtr.GetGen()),
	}, nil
}

// Reader exposes the underlying digitorus/pdf reader for read-only access.
func (e *Editor) Reader() *pdflib.Reader {
	return e.reader
}

// PageCount returns the number of pages in the document.
func (e *Editor) PageCount() int {
	return e.reader.NumPage()
}

// Page returns the nth page (1-based) as a raw pdf.Value.
func (e *Editor) Page(n int) (pdflib.Value, error) {
	if n < 1 || n > e.reader.NumPage() {
		return pdflib.Value{}, fmt.Errorf("page %d out of range (1..%d)", n, e.reader.NumPage())
	}
	p := e.reader.Page(n)
	if p.V.IsNull() {
		return pdflib.Value{}, fmt.Errorf("page %d not found", n)
	}
	return p.V, nil
}

// PageSize returns a page's MediaBox width and height in points, walking
// up /Parent for an inherited MediaBox if the page itself has none.
func (e *Editor) PageSize(page pdflib.Value) (w, h float64, err error) {
	cur := page
	for depth := 0; depth < 32; depth++ {
		mb := cur.Key("MediaBox")
		if !mb.IsNull() && mb.Len() == 4 {
			x0 := mb.Index(0).Float64()
			y0 := mb.Index(1).Float64()
			x1 := mb.Index(2).Float64()
			y1 := mb.Index(3).Float64()
			return x1 - x0, y1 - y0, nil
		}
		parent := cur.Key("Parent")
		if parent.IsNull() {
			break
		}
		cur = parent
	}
	// Fall back to US Letter if no MediaBox is found anywhere in the chain;
	// malformed documents should not block placeholder insertion.
	return 612, 792, nil
}

// AcroForm returns the document's AcroForm dictionary, or a null Value if
// absent.
func (e *Editor) AcroForm() pdflib.Value {
	return e.reader.Trailer().Key("Root").Key("AcroForm")
}

// HasSignatureField reports whether a /Sig field with the given /T value
// already exists anywhere in the AcroForm field tree.
func (e *Editor) HasSignatureField(name string) bool {
	fields := e.AcroForm().Key("Fields")
	return findSignatureField(fields, name) != nil
}

// findSignatureField recursively searches an AcroForm /Fields array (and
// /Kids subtrees) for a /Sig field whose /T equals name, returning its
// dictionary value or nil.
func findSignatureField(fields pdflib.Value, name string) *pdflib.Value {
	if fields.IsNull() || fields.Kind() != pdflib.Array {
		return nil
	}
	for i := 0; i < fields.Len(); i++ {
		f := fields.Index(i)
		if f.Key("FT").Name() == "Sig" && f.Key("T").Text() == name {
			v := f
			return &v
		}
		if kids := f.Key("Kids"); !kids.IsNull() {
			if found := findSignatureField(kids, name); found != nil {
				return found
			}
		}
	}
	return nil
}

// fieldForAnnotation resolves an annotation's associated form field: itself,
// if it carries /FT directly (the merged widget+field layout CreatePlaceholder
// writes), otherwise the nearest ancestor reached by following /Parent that
// does. Mirrors QPDFAcroFormDocumentHelper::getFieldForAnnotation.
func fieldForAnnotation(annot pdflib.Value) pdflib.Value {
	cur := annot
	for depth := 0; depth < 32; depth++ {
		if !cur.Key("FT").IsNull() {
			return cur
		}
		parent := cur.Key("Parent")
		if parent.IsNull() {
			break
		}
		cur = parent
	}
	return annot
}

// FindSignatureFieldByteRangeOnPage scans one page's widget annotations for
// a /Sig field named name and returns its /ByteRange. Used by the byte-range
// reader (4.1): unlike HasSignatureField, which walks the whole AcroForm
// field tree for duplicate-name detection, this only considers fields whose
// widget annotation actually sits on the given page, so a single-page lookup
// correctly misses a field placed elsewhere.
func FindSignatureFieldByteRangeOnPage(page pdflib.Value, name string) ([4]int64, bool) {
	annots := page.Key("Annots")
	if annots.IsNull() || annots.Kind() != pdflib.Array {
		return [4]int64{}, false
	}
	for i := 0; i < annots.Len(); i++ {
		annot := annots.Index(i)
		if annot.Key("Subtype").Name() != "Widget" {
			continue
		}
		field := fieldForAnnotation(annot)
		if field.Key("FT").Name() != "Sig" || field.Key("T").Text() != name {
			continue
		}
		br := field.Key("V").Key("ByteRange")
		if br.IsNull() || br.Len() != 4 {
			return [4]int64{}, false
		}
		var out [4]int64
		for j := 0; j < 4; j++ {
			out[j] = br.Index(j).Int64()
		}
		return out, true
	}
	return [4]int64{}, false
}
