package asset

// bitWriter packs values LSB first.
type bitWriter struct {
	buf []byte
	acc uint64
	n   uint
}

func (w *bitWriter) write(v uint32, bits uint) {
	w.acc |= uint64(v) << w.n
	w.n += bits
	for w.n >= 8 {
		w.buf = append(w.buf, byte(w.acc))
		w.acc >>= 8
		w.n -= 8
	}
}

// align pads to the next byte boundary.
func (w *bitWriter) align() {
	if w.n > 0 {
		w.buf = append(w.buf, byte(w.acc))
		w.acc, w.n = 0, 0
	}
}

type bitReader struct {
	buf []byte
	pos int
	acc uint64
	n   uint
}

func (r *bitReader) read(bits uint) (uint32, error) {
	for r.n < bits {
		if r.pos >= len(r.buf) {
			return 0, ErrCorruptPayload
		}
		r.acc |= uint64(r.buf[r.pos]) << r.n
		r.pos++
		r.n += 8
	}
	v := uint32(r.acc & (1<<bits - 1))
	r.acc >>= bits
	r.n -= bits
	return v, nil
}

func (r *bitReader) align() { r.acc, r.n = 0, 0 }

// take returns the next n whole bytes.
func (r *bitReader) take(n int) ([]byte, error) {
	r.align()
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, ErrCorruptPayload
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
