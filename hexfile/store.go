package hexfile

import "sort"

// Segment is a contiguous block of bytes at an absolute address, in
// storage byte order.
type Segment struct {
	Addr int
	Data []byte
}

// Store is an ordered collection of segments keyed by start address. Raw
// loads refuse to overlap an existing segment; HEX loading only drops a
// record whose start address is already taken, so records that overlap at
// different start addresses are all kept. The zero value is empty and
// ready to use.
type Store struct {
	segments map[int][]byte
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{segments: make(map[int][]byte)}
}

// Segments returns the segments in ascending address order.
func (s *Store) Segments() []Segment {
	addrs := make([]int, 0, len(s.segments))
	for addr := range s.segments {
		addrs = append(addrs, addr)
	}
	sort.Ints(addrs)

	out := make([]Segment, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, Segment{Addr: addr, Data: s.segments[addr]})
	}
	return out
}

// insert keys data by addr. A later insert at an occupied key is dropped,
// matching the tolerant duplicate policy of HEX loading.
func (s *Store) insert(addr int, data []byte) {
	if s.segments == nil {
		s.segments = make(map[int][]byte)
	}
	if _, ok := s.segments[addr]; ok {
		return
	}
	s.segments[addr] = data
}

// LoadRaw stores data as a new segment at addr. With swapBytes set, each
// byte pair is swapped on the way in, converting a device little-endian
// buffer to storage order. Unlike HEX loading, raw loads refuse any
// overlap with existing segments.
func (s *Store) LoadRaw(addr int, data []byte, swapBytes bool) error {
	if addr%2 != 0 {
		return ErrMisaligned
	}
	if len(data)%2 != 0 {
		return ErrOddLength
	}
	for _, seg := range s.Segments() {
		if addr < seg.Addr+len(seg.Data) && addr+len(data) > seg.Addr {
			return ErrRangeOverlap
		}
	}

	buf := make([]byte, len(data))
	if swapBytes {
		for i := 0; i < len(data); i += 2 {
			buf[i] = data[i+1]
			buf[i+1] = data[i]
		}
	} else {
		copy(buf, data)
	}
	s.insert(addr, buf)
	return nil
}

// LoadRawLE8 stores data as a new segment at addr, widening each byte to
// a 16-bit word with a zero high half. Used for the one-byte-per-word
// EEPROM layout of 12/14-bit cores.
func (s *Store) LoadRawLE8(addr int, data []byte) error {
	buf := make([]byte, 2*len(data))
	for i, b := range data {
		buf[2*i] = b
		buf[2*i+1] = 0x00
	}
	return s.LoadRaw(addr, buf, false)
}

// Range produces exactly 2*wordCount bytes starting at lower. Bytes
// covered by a segment are copied out, swapped pairwise when swapBytes is
// set; uncovered words are filled with blank (high byte first, never
// swapped). lower must be word aligned.
func (s *Store) Range(lower, wordCount int, blank uint16, swapBytes bool) []byte {
	if lower%2 != 0 {
		panic("hexfile: range lower bound must be word aligned")
	}

	data := make([]byte, 0, 2*wordCount)
	upper := lower + 2*wordCount
	addr := lower
	blankHi := byte(blank >> 8)
	blankLo := byte(blank)

	for _, seg := range s.Segments() {
		if seg.Addr+len(seg.Data) <= addr {
			continue
		}
		if seg.Addr >= upper {
			break
		}
		// fill the gap before this segment
		for addr < seg.Addr && addr < upper {
			data = append(data, blankHi, blankLo)
			addr += 2
		}
		shift := addr - seg.Addr
		for shift+1 < len(seg.Data) && addr < upper {
			hi, lo := seg.Data[shift], seg.Data[shift+1]
			if swapBytes {
				hi, lo = lo, hi
			}
			data = append(data, hi, lo)
			shift += 2
			addr += 2
		}
		if addr == upper {
			break
		}
	}

	for addr < upper {
		data = append(data, blankHi, blankLo)
		addr += 2
	}
	return data
}
