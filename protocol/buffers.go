package protocol

// InputBuffer is a byte source the frame parser consumes from the front
type InputBuffer interface {
	// Data returns the unconsumed bytes as one contiguous slice
	Data() []byte

	// Available returns len(Data())
	Available() int

	// Pop drops n bytes from the front
	Pop(n int)
}

// OutputBuffer is where frames are assembled. Positions are absolute
// offsets returned by CurPosition.
type OutputBuffer interface {
	// Output appends data
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// Update overwrites the byte at pos (the length byte of a frame)
	Update(pos int, val byte)

	// DataSince returns everything written since pos
	DataSince(pos int) []byte

	// Truncate discards everything written since pos
	Truncate(pos int)
}

// ScratchOutput assembles one frame at a time in a fixed buffer so the
// firmware transmit path never allocates. Reset it before each frame: at
// twice MessageLengthMax, an oversized body written from position 0 is
// still long enough to fail EncodeFrame's length check. Bytes past the end
// are dropped.
type ScratchOutput struct {
	buf [MessageMax]byte
	pos int
}

// NewScratchOutput creates an empty ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

func (s *ScratchOutput) Truncate(pos int) {
	if pos >= 0 && pos < s.pos {
		s.pos = pos
	}
}

// Result returns the assembled frames, ready for the transmitter
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset empties the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// FifoBuffer holds bytes read from the serial port until the frame parser
// has consumed them. Unread bytes are kept at the front of one slice, so
// Data never copies or allocates.
type FifoBuffer struct {
	buf   []byte
	start int
	end   int
}

// NewFifoBuffer creates a FifoBuffer holding up to capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the count written
func (f *FifoBuffer) Write(data []byte) int {
	if f.end+len(data) > len(f.buf) && f.start > 0 {
		f.compact()
	}
	n := copy(f.buf[f.end:], data)
	f.end += n
	return n
}

// compact moves the unread bytes to the start of the buffer
func (f *FifoBuffer) compact() {
	f.end = copy(f.buf, f.buf[f.start:f.end])
	f.start = 0
}

func (f *FifoBuffer) Available() int {
	return f.end - f.start
}

// Free returns how many more bytes Write can accept
func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.Available()
}

func (f *FifoBuffer) Data() []byte {
	return f.buf[f.start:f.end]
}

func (f *FifoBuffer) Pop(n int) {
	if n > f.Available() {
		n = f.Available()
	}
	f.start += n
	if f.start == f.end {
		f.start, f.end = 0, 0
	}
}

// Reset drops all buffered bytes
func (f *FifoBuffer) Reset() {
	f.start, f.end = 0, 0
}
