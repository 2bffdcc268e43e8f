package editor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	pdflib "github.com/digitorus/pdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const maxASCIIRune = 127

func isASCII(s string) bool {
	for _, r := range s {
		if r > maxASCIIRune {
			return false
		}
	}
	return true
}

// pdfString renders text as a PDF literal string, escaping parens and
// backslashes for ASCII text and falling back to a UTF-16BE-with-BOM
// encoding for anything outside that range.
func pdfString(text string) string {
	if !isASCII(text) {
		enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
		res, _, err := transform.String(enc, text)
		if err != nil {
			res = text
		}
		return "(" + res + ")"
	}

	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ")", "\\)")
	text = strings.ReplaceAll(text, "(", "\\(")
	text = strings.ReplaceAll(text, "\r", "\\r")
	return "(" + text + ")"
}

// pdfDateTime renders a time.Time as a PDF date literal, D:YYYYMMDDHHMMSS+HH'MM'.
func pdfDateTime(date time.Time) string {
	_, offsetSeconds := date.Zone()
	abs := offsetSeconds
	if abs < 0 {
		abs = -abs
	}
	hours := abs / 3600
	minutes := (abs % 3600) / 60

	sign := "+"
	if offsetSeconds < 0 {
		sign = "-"
	}

	s := "D:" + date.Format("20060102150405") + sign +
		leftPad(strconv.Itoa(hours), "0", 2) + "'" +
		leftPad(strconv.Itoa(minutes), "0", 2) + "'"
	return pdfString(s)
}

func leftPad(s, pad string, width int) string {
	for len(s) < width {
		s = pad + s
	}
	return s
}

// serializeValue renders a pdf.Value back into PDF object syntax. Values
// that are themselves indirect objects (their own "N G obj") are emitted
// as references rather than inlined, which is what keeps this from
// recursing into parent/ancestor structures such as a page's /Parent.
func serializeValue(v pdflib.Value) string {
	if ptr := v.GetPtr(); ptr.GetID() != 0 {
		return fmt.Sprintf("%d %d R", ptr.GetID(), ptr.GetGen())
	}

	switch v.Kind() {
	case pdflib.Null:
		return "null"
	case pdflib.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case pdflib.Integer:
		return strconv.FormatInt(v.Int64(), 10)
	case pdflib.Real:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case pdflib.Name:
		return "/" + v.Name()
	case pdflib.String:
		return pdfString(v.Text())
	case pdflib.Array:
		var sb strings.Builder
		sb.WriteString("[ ")
		for i := 0; i < v.Len(); i++ {
			sb.WriteString(serializeValue(v.Index(i)))
			sb.WriteString(" ")
		}
		sb.WriteString("]")
		return sb.String()
	case pdflib.Dict:
		var sb strings.Builder
		sb.WriteString("<< ")
		for _, k := range v.Keys() {
			sb.WriteString("/" + k + " " + serializeValue(v.Key(k)) + " ")
		}
		sb.WriteString(">>")
		return sb.String()
	default:
		return "null"
	}
}
