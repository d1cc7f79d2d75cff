package scancode

// TableLen returns the encoded size of a full cell table.
func TableLen(table []Behavior) int {
	n := 0
	for _, b := range table {
		n += b.EncodedLen()
	}
	return n
}

// EncodeTable concatenates the cells' encodings into dst and returns the
// number of bytes written.
func EncodeTable(dst []byte, table []Behavior) (int, error) {
	if len(dst) < TableLen(table) {
		return 0, ErrBufferTooSmall
	}
	i := 0
	for _, b := range table {
		if err := b.Encode(dst[i:]); err != nil {
			return 0, err
		}
		i += b.EncodedLen()
	}
	return i, nil
}

// AppendTable appends the cells' encodings to dst.
func AppendTable(dst []byte, table []Behavior) []byte {
	var buf [MaxEncodedLen]byte
	for _, b := range table {
		// Encode into a max-size scratch buffer cannot fail.
		_ = b.Encode(buf[:])
		dst = append(dst, buf[:b.EncodedLen()]...)
	}
	return dst
}

// DecodeTable decodes cells from src until the byte stream is exhausted,
// filling out in order. Cells beyond the encoded count keep their existing
// value; a stream encoding more cells than len(out) is rejected.
func DecodeTable(src []byte, out []Behavior) error {
	bufI := 0
	cell := 0
	for bufI < len(src) {
		if cell >= len(out) {
			return ErrInvalidFormat
		}
		b, err := Decode(src[bufI:])
		if err != nil {
			return err
		}
		out[cell] = b
		bufI += b.EncodedLen()
		cell++
	}
	return nil
}
