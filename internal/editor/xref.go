package editor

import (
	"sort"
	"strconv"
	"strings"
)

// writeXrefSection appends a conforming incremental-update cross
// reference table: one subsection per contiguous run of new or
// rewritten object numbers, each entry ten-digit offset plus five-digit
// generation, terminated with the literal "n" (no frees are produced by
// this package). Returns the absolute file offset the subsection itself
// starts at, for the trailer's startxref value.
func (e *Editor) writeXrefSection() (xrefStart int64, err error) {
	entries := make([]xrefEntry, len(e.newEntries))
	copy(entries, e.newEntries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	xrefStart = e.inputSize + int64(e.buf.Buff.Len())

	var out strings.Builder
	out.WriteString("xref\n")

	i := 0
	for i < len(entries) {
		start := entries[i].ID
		j := i
		for j+1 < len(entries) && entries[j+1].ID == entries[j].ID+1 {
			j++
		}
		out.WriteString(strconv.FormatUint(uint64(start), 10) + " " + strconv.Itoa(j-i+1) + "\n")
		for k := i; k <= j; k++ {
			out.WriteString(xrefLine(entries[k].Offset, entries[k].Gen))
		}
		i = j + 1
	}

	if _, err := e.buf.Write([]byte(out.String())); err != nil {
		return 0, err
	}
	return xrefStart, nil
}

func xrefLine(offset int64, gen uint16) string {
	return leftPad(strconv.FormatInt(offset, 10), "0", 10) + " " +
		leftPad(strconv.Itoa(int(gen)), "0", 5) + " n \n"
}
