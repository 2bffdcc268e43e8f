package pdfsign

import (
	"os"

	"github.com/casper2020/casper-pdf-signer/internal/editor"
)

// GetByteRange opens path read-only, locates the /Sig field named name,
// and returns its /ByteRange. page follows the source's trinary
// convention: 0 scans every page front-to-back, a negative value scans
// back-to-front, and a page number ≥1 scans only that page.
func GetByteRange(path string, page int, name string) (ByteRange, error) {
	f, err := os.Open(path)
	if err != nil {
		return ByteRange{}, ioFailure(path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return ByteRange{}, ioFailure(path, err)
	}

	ed, err := editor.Open(f, st.Size(), path)
	if err != nil {
		return ByteRange{}, &Error{Kind: PdfMalformed, Path: path, Message: err.Error()}
	}

	order, err := pageScanOrder(page, ed.PageCount())
	if err != nil {
		return ByteRange{}, &Error{Kind: PdfMalformed, Path: path, Message: err.Error()}
	}

	for _, pageNum := range order {
		pg, err := ed.Page(pageNum)
		if err != nil {
			return ByteRange{}, &Error{Kind: PdfMalformed, Path: path, Message: err.Error()}
		}
		if arr, ok := editor.FindSignatureFieldByteRangeOnPage(pg, name); ok {
			return ByteRange{
				BeforeStart: arr[0],
				BeforeSize:  arr[1],
				AfterStart:  arr[2],
				AfterSize:   arr[3],
			}, nil
		}
	}

	return ByteRange{}, notFound(path, name, "no /Sig field with this name on the scanned page(s)")
}

// pageScanOrder expands the page argument into the sequence of page
// numbers (1-based) to examine, per the source's page=0/page<0/page>=1
// convention. A single out-of-range page is a distinct, non-NotFound
// failure mode per 4.1.
func pageScanOrder(page, pageCount int) ([]int, error) {
	switch {
	case page == 0:
		order := make([]int, pageCount)
		for i := 0; i < pageCount; i++ {
			order[i] = i + 1
		}
		return order, nil
	case page < 0:
		order := make([]int, pageCount)
		for i := 0; i < pageCount; i++ {
			order[i] = pageCount - i
		}
		return order, nil
	default:
		if page > pageCount {
			return nil, &Error{Kind: PdfMalformed, Message: "page out of range"}
		}
		return []int{page}, nil
	}
}
