package hexfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Segment
		wantErr bool
	}{
		{
			name:  "single data record",
			input: ":10000000000102030405060708090A0B0C0D0E0F78\n:00000001FF\n",
			want: []Segment{
				{Addr: 0x0000, Data: []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F}},
			},
		},
		{
			name:  "extended linear address",
			input: ":0200000400F00A\n:020000000000FE\n:00000001FF\n",
			want: []Segment{
				{Addr: 0xF00000, Data: []byte{0x00, 0x00}},
			},
		},
		{
			name:  "extended segment address",
			input: ":020000021000EC\n:02000000AABB99\n:00000001FF\n",
			want: []Segment{
				{Addr: 0x10000, Data: []byte{0xAA, 0xBB}},
			},
		},
		{
			name:  "two records ordered by address",
			input: ":02001000AABB89\n:020000001122CB\n:00000001FF\n",
			want: []Segment{
				{Addr: 0x0000, Data: []byte{0x11, 0x22}},
				{Addr: 0x0010, Data: []byte{0xAA, 0xBB}},
			},
		},
		{
			name:  "duplicate record address keeps first",
			input: ":020000001122CB\n:02000000AABB99\n:00000001FF\n",
			want: []Segment{
				{Addr: 0x0000, Data: []byte{0x11, 0x22}},
			},
		},
		{
			name:  "leading spaces are skipped",
			input: "  :020000001122CB\n:00000001FF\n",
			want: []Segment{
				{Addr: 0x0000, Data: []byte{0x11, 0x22}},
			},
		},
		{
			name:    "missing prefix",
			input:   "020000001122CB\n:00000001FF\n",
			wantErr: true,
		},
		{
			name:    "bad checksum",
			input:   ":020000001122CC\n:00000001FF\n",
			wantErr: true,
		},
		{
			name:    "wrong record size",
			input:   ":030000001122CB\n:00000001FF\n",
			wantErr: true,
		},
		{
			name:    "no end-of-file record",
			input:   ":020000001122CB\n",
			wantErr: true,
		},
		{
			name:    "empty stream",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := ParseReader(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReader() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			got := store.Segments()
			if len(got) != len(tt.want) {
				t.Fatalf("got %d segments, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Addr != tt.want[i].Addr || !bytes.Equal(got[i].Data, tt.want[i].Data) {
					t.Errorf("segment %d = {%06X % X}, want {%06X % X}",
						i, got[i].Addr, got[i].Data, tt.want[i].Addr, tt.want[i].Data)
				}
			}
		})
	}
}

func TestParseReaderUnsupportedRecordType(t *testing.T) {
	_, err := ParseReader(strings.NewReader(":020000050000F9\n:00000001FF\n"))
	var ue *UnsupportedRecordTypeError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnsupportedRecordTypeError, got %v", err)
	}
	if ue.Type != 5 {
		t.Errorf("Type = %d, want 5", ue.Type)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 1 {
		t.Errorf("expected ParseError at line 1, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	input := ":10000000000102030405060708090A0B0C0D0E0F78\n" +
		":02000004F0000A\n" +
		":020000000000FE\n" +
		":00000001FF\n"

	store, err := ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader() error = %v", err)
	}

	var out bytes.Buffer
	if err := store.Write(&out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	again, err := ParseReader(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("reparse error = %v\noutput:\n%s", err, out.String())
	}

	a, b := store.Segments(), again.Segments()
	if len(a) != len(b) {
		t.Fatalf("segment count changed: %d -> %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Addr != b[i].Addr || !bytes.Equal(a[i].Data, b[i].Data) {
			t.Errorf("segment %d changed: {%06X % X} -> {%06X % X}",
				i, a[i].Addr, a[i].Data, b[i].Addr, b[i].Data)
		}
	}
}

func TestWriteEmitsExtensionRecord(t *testing.T) {
	store := NewStore()
	if err := store.LoadRaw(0xF00000, []byte{0x12, 0x34}, false); err != nil {
		t.Fatalf("LoadRaw() error = %v", err)
	}

	var out bytes.Buffer
	if err := store.Write(&out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := ":0200000400F00A\n:020000001234B8\n:00000001FF\n"
	if out.String() != want {
		t.Errorf("Write() =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestLoadRaw(t *testing.T) {
	store := NewStore()

	if err := store.LoadRaw(0x10, []byte{0xAA, 0xBB, 0xCC, 0xDD}, false); err != nil {
		t.Fatalf("LoadRaw() error = %v", err)
	}
	if err := store.LoadRaw(0x10, []byte{0x00, 0x00}, false); !errors.Is(err, ErrRangeOverlap) {
		t.Errorf("duplicate range error = %v, want ErrRangeOverlap", err)
	}
	if err := store.LoadRaw(0x12, []byte{0x00, 0x00}, false); !errors.Is(err, ErrRangeOverlap) {
		t.Errorf("inner overlap error = %v, want ErrRangeOverlap", err)
	}
	if err := store.LoadRaw(0x0E, []byte{0x00, 0x00, 0x00, 0x00}, false); !errors.Is(err, ErrRangeOverlap) {
		t.Errorf("leading overlap error = %v, want ErrRangeOverlap", err)
	}
	if err := store.LoadRaw(0x14, []byte{0x00, 0x00}, false); err != nil {
		t.Errorf("adjacent range error = %v, want nil", err)
	}
	if err := store.LoadRaw(0x20, []byte{0x00}, false); !errors.Is(err, ErrOddLength) {
		t.Errorf("odd length error = %v, want ErrOddLength", err)
	}
	if err := store.LoadRaw(0x21, []byte{0x00, 0x00}, false); !errors.Is(err, ErrMisaligned) {
		t.Errorf("odd address error = %v, want ErrMisaligned", err)
	}
}

func TestLoadRawSwap(t *testing.T) {
	store := NewStore()
	if err := store.LoadRaw(0x00, []byte{0x34, 0x12, 0x78, 0x56}, true); err != nil {
		t.Fatalf("LoadRaw() error = %v", err)
	}
	seg := store.Segments()[0]
	want := []byte{0x12, 0x34, 0x56, 0x78}
	if !bytes.Equal(seg.Data, want) {
		t.Errorf("stored data = % X, want % X", seg.Data, want)
	}
}

func TestRangeBlankFill(t *testing.T) {
	store := NewStore()
	if err := store.LoadRaw(0x10, []byte{0xAA, 0xBB}, false); err != nil {
		t.Fatalf("LoadRaw() error = %v", err)
	}

	got := store.Range(0x00, 12, 0x3FFF, false)
	if len(got) != 24 {
		t.Fatalf("Range() returned %d bytes, want 24", len(got))
	}
	for i := 0; i < 0x10; i += 2 {
		if got[i] != 0x3F || got[i+1] != 0xFF {
			t.Errorf("fill word at %#x = %02X %02X, want 3F FF", i, got[i], got[i+1])
		}
	}
	if got[0x10] != 0xAA || got[0x11] != 0xBB {
		t.Errorf("data word at 0x10 = %02X %02X, want AA BB", got[0x10], got[0x11])
	}
	for i := 0x12; i < 24; i += 2 {
		if got[i] != 0x3F || got[i+1] != 0xFF {
			t.Errorf("fill word at %#x = %02X %02X, want 3F FF", i, got[i], got[i+1])
		}
	}
}

func TestRangeLength(t *testing.T) {
	store := NewStore()
	if err := store.LoadRaw(0x04, []byte{1, 2, 3, 4}, false); err != nil {
		t.Fatalf("LoadRaw() error = %v", err)
	}
	for _, words := range []int{0, 1, 3, 100} {
		if got := store.Range(0x00, words, 0xFFFF, false); len(got) != 2*words {
			t.Errorf("Range(0, %d) returned %d bytes, want %d", words, len(got), 2*words)
		}
	}
}

func TestRangeSwapInvolution(t *testing.T) {
	raw := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	store := NewStore()
	if err := store.LoadRaw(0x100, raw, false); err != nil {
		t.Fatalf("LoadRaw() error = %v", err)
	}

	got := store.Range(0x100, len(raw)/2, 0x3FFF, true)
	want := []byte{0x22, 0x11, 0x44, 0x33, 0x66, 0x55}
	if !bytes.Equal(got, want) {
		t.Errorf("swapped range = % X, want % X", got, want)
	}
}

func TestRangeSwapDoesNotTouchFill(t *testing.T) {
	store := NewStore()
	got := store.Range(0x00, 2, 0x3FFF, true)
	want := []byte{0x3F, 0xFF, 0x3F, 0xFF}
	if !bytes.Equal(got, want) {
		t.Errorf("blank range with swap = % X, want % X", got, want)
	}
}

func TestRangePartialSegment(t *testing.T) {
	store := NewStore()
	if err := store.LoadRaw(0x00, []byte{1, 2, 3, 4, 5, 6, 7, 8}, false); err != nil {
		t.Fatalf("LoadRaw() error = %v", err)
	}

	got := store.Range(0x04, 2, 0xFFFF, false)
	want := []byte{5, 6, 7, 8}
	if !bytes.Equal(got, want) {
		t.Errorf("mid-segment range = % X, want % X", got, want)
	}
}

func TestLoadRawLE8(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	store := NewStore()
	if err := store.LoadRawLE8(0x4200, payload); err != nil {
		t.Fatalf("LoadRawLE8() error = %v", err)
	}

	got := store.Range(0x4200, len(payload), 0xFFFF, false)
	if len(got) != 2*len(payload) {
		t.Fatalf("range returned %d bytes, want %d", len(got), 2*len(payload))
	}
	for i, b := range payload {
		if got[2*i] != b || got[2*i+1] != 0x00 {
			t.Errorf("word %d = %02X %02X, want %02X 00", i, got[2*i], got[2*i+1], b)
		}
	}
}
