package protocol

// InputBuffer is a window onto received bytes.
type InputBuffer interface {
	Data() []byte
	Available() int
	// Pop discards n bytes from the front.
	Pop(n int)
}

// OutputBuffer accumulates encoded bytes for transmission.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// SliceInputBuffer is an InputBuffer over a byte slice.
type SliceInputBuffer struct {
	data []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte { return s.data }
func (s *SliceInputBuffer) Available() int { return len(s.data) }

func (s *SliceInputBuffer) Pop(n int) {
	s.data = s.data[min(n, len(s.data)):]
}

// ScratchOutput is a fixed-capacity OutputBuffer. Writes past capacity are
// truncated rather than reallocating.
type ScratchOutput struct {
	buf [OutputMax]byte
	pos int
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int { return s.pos }

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos >= 0 && pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos < 0 || pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset.
func (s *ScratchOutput) Result() []byte { return s.buf[:s.pos] }

// Free reports the remaining capacity.
func (s *ScratchOutput) Free() int { return len(s.buf) - s.pos }

func (s *ScratchOutput) Reset() { s.pos = 0 }

// FifoBuffer is a byte queue between a reader goroutine (USB, serial port)
// and the frame parser. Unread bytes are compacted to the front on write so
// Data always returns one contiguous slice.
type FifoBuffer struct {
	buf        []byte
	start, end int
}

func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the count written.
func (f *FifoBuffer) Write(data []byte) int {
	if len(data) > len(f.buf)-f.end && f.start > 0 {
		f.end = copy(f.buf, f.buf[f.start:f.end])
		f.start = 0
	}
	n := copy(f.buf[f.end:], data)
	f.end += n
	return n
}

// Read copies up to len(data) bytes out of the queue.
func (f *FifoBuffer) Read(data []byte) int {
	n := copy(data, f.buf[f.start:f.end])
	f.Pop(n)
	return n
}

func (f *FifoBuffer) Data() []byte { return f.buf[f.start:f.end] }
func (f *FifoBuffer) Available() int { return f.end - f.start }
func (f *FifoBuffer) Free() int { return len(f.buf) - f.Available() }
func (f *FifoBuffer) IsEmpty() bool { return f.start == f.end }

func (f *FifoBuffer) Pop(n int) {
	f.start += min(n, f.Available())
	if f.start == f.end {
		f.start, f.end = 0, 0
	}
}

func (f *FifoBuffer) Reset() {
	f.start, f.end = 0, 0
}
