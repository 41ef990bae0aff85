package storage

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"unicode"
)

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Fprintf(format string, a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, a...)
}

// ASCII preview: printable -> itself, else '.'
func asciiPreview(b []byte) string {
	var buf bytes.Buffer
	for _, c := range b {
		r := rune(c)
		if c < unicode.MaxASCII && unicode.IsPrint(r) {
			buf.WriteRune(r)
		} else {
			buf.WriteByte('.')
		}
	}
	return buf.String()
}

// usedLen is the length of p up to and including its last non-zero byte.
func (p *Page) usedLen() int {
	for i := len(p.Buf) - 1; i >= 0; i-- {
		if p.Buf[i] != 0 {
			return i + 1
		}
	}
	return 0
}

// Debug writes a hex dump of the used prefix of p, 16 bytes per row.
// At most maxRows rows are printed; maxRows <= 0 prints them all.
func (p *Page) Debug(w io.Writer, id PageID, maxRows int) error {
	ew := &errWriter{w: w}
	used := p.usedLen()

	ew.Fprintf("=== Page %d ===\n", id)
	ew.Fprintf("pageSize=%d used=%d\n", len(p.Buf), used)

	const rowLen = 16
	rows := (used + rowLen - 1) / rowLen
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}
	for r := 0; r < rows && ew.err == nil; r++ {
		off := r * rowLen
		row := p.Buf[off:min(off+rowLen, len(p.Buf))]
		ew.Fprintf("%06x  %-32s  %s\n", off, hex.EncodeToString(row), asciiPreview(row))
	}
	if rows*rowLen < used {
		ew.Fprintf("... %d more bytes\n", used-rows*rowLen)
	}
	return ew.err
}

func (p *Page) DebugString(id PageID) string {
	var b bytes.Buffer
	if err := p.Debug(&b, id, 0); err != nil {
		// best-effort: surface the error in the output so callers see it
		_, _ = b.WriteString("\n<debug write error: " + err.Error() + ">\n")
	}
	return b.String()
}
