package storage

// Page is a fixed-size in-memory copy of one disk page.
// The layout of Buf is owned by the layers above the buffer pool.
type Page struct {
	Buf []byte
}

func NewPage() *Page {
	return &Page{Buf: make([]byte, PageSize)}
}

// PageFrom returns a page whose leading bytes are data. Extra bytes are dropped.
func PageFrom(data []byte) *Page {
	p := NewPage()
	copy(p.Buf, data)
	return p
}

func (p *Page) Bytes() []byte { return p.Buf }

// CopyFrom overwrites p with the contents of src.
func (p *Page) CopyFrom(src *Page) {
	n := copy(p.Buf, src.Buf)
	clear(p.Buf[n:])
}

func (p *Page) Reset() { clear(p.Buf) }

func (p *Page) sized() bool { return len(p.Buf) == PageSize }
