package object

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/openrip/openrip/internal/bundle"
)

// openStored builds and opens an uncompressed single-block bundle whose
// directory is given explicitly.
func openStored(t *testing.T, payload []byte, entries []bundle.DirectoryEntry) *bundle.Bundle {
	t.Helper()

	var region bytes.Buffer
	var scratch [8]byte

	binary.BigEndian.PutUint32(scratch[:4], 1)
	region.Write(scratch[:4])
	binary.BigEndian.PutUint32(scratch[:4], uint32(len(payload)))
	region.Write(scratch[:4])
	binary.BigEndian.PutUint32(scratch[:4], uint32(len(payload)))
	region.Write(scratch[:4])
	binary.BigEndian.PutUint16(scratch[:2], 0)
	region.Write(scratch[:2])

	binary.BigEndian.PutUint32(scratch[:4], uint32(len(entries)))
	region.Write(scratch[:4])
	for _, e := range entries {
		binary.BigEndian.PutUint64(scratch[:8], e.Offset)
		region.Write(scratch[:8])
		binary.BigEndian.PutUint64(scratch[:8], e.Size)
		region.Write(scratch[:8])
		binary.BigEndian.PutUint32(scratch[:4], e.Flags)
		region.Write(scratch[:4])
		region.WriteString(e.Name)
		region.WriteByte(0)
	}

	h := bundle.Header{
		Version:                    6,
		EngineVersion:              "2021.3.16f1",
		EngineRevision:             "4016570cf34f",
		CompressedBlockTableSize:   uint32(region.Len()),
		UncompressedBlockTableSize: uint32(region.Len()),
	}
	copy(h.Signature[:], "UnityFS\x00")
	h.Size = uint64(len(h.Encode()) + region.Len() + len(payload))

	raw := append(h.Encode(), region.Bytes()...)
	raw = append(raw, payload...)

	b, err := bundle.Open(context.Background(), raw, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return b
}

func TestKindFromFlags(t *testing.T) {
	cases := []struct {
		flags uint32
		want  Kind
	}{
		{2, KindMesh},
		{4, KindTexture},
		{8, KindMaterial},
		{16, KindAudio},
		{0, KindUnknown},
		{3, KindUnknown},
		{32, KindUnknown},
	}
	for _, tc := range cases {
		if got := KindFromFlags(tc.flags); got != tc.want {
			t.Errorf("KindFromFlags(%d) = %v, want %v", tc.flags, got, tc.want)
		}
	}
}

func TestResolveViews(t *testing.T) {
	payload := []byte("0123456789")
	b := openStored(t, payload, []bundle.DirectoryEntry{
		{Offset: 0, Size: 4, Flags: 4, Name: "tex"},
		{Offset: 4, Size: 6, Flags: 2, Name: "mesh"},
	})

	records, failures := Resolve(b)
	if len(failures) != 0 {
		t.Fatalf("failures = %+v", failures)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}

	if records[0].Kind != KindTexture || string(records[0].Data()) != "0123" {
		t.Errorf("record 0 = %v %q", records[0].Kind, records[0].Data())
	}
	if records[1].Kind != KindMesh || string(records[1].Data()) != "456789" {
		t.Errorf("record 1 = %v %q", records[1].Kind, records[1].Data())
	}

	// Records are views into the bundle's buffer, not copies.
	if &records[0].Data()[0] != &b.Data()[0] {
		t.Error("record data is a copy, want a view into the shared buffer")
	}
}

func TestResolveOutOfBoundsIsIsolated(t *testing.T) {
	payload := []byte("0123456789")
	b := openStored(t, payload, []bundle.DirectoryEntry{
		{Offset: 0, Size: 4, Flags: 4, Name: "ok-before"},
		{Offset: 8, Size: 100, Flags: 4, Name: "overrun"},
		{Offset: 4, Size: 4, Flags: 2, Name: "ok-after"},
	})

	records, failures := Resolve(b)
	if len(records) != 2 {
		t.Fatalf("records = %d, want the two valid entries", len(records))
	}
	if records[0].Entry.Name != "ok-before" || records[1].Entry.Name != "ok-after" {
		t.Errorf("directory order not preserved: %q, %q", records[0].Entry.Name, records[1].Entry.Name)
	}

	if len(failures) != 1 {
		t.Fatalf("failures = %+v", failures)
	}
	if failures[0].Entry.Name != "overrun" || !errors.Is(failures[0].Err, bundle.ErrOutOfBounds) {
		t.Errorf("failure = %+v", failures[0])
	}
}

func TestResolveOffsetOverflow(t *testing.T) {
	payload := []byte("0123456789")
	b := openStored(t, payload, []bundle.DirectoryEntry{
		{Offset: ^uint64(0) - 1, Size: 8, Flags: 4, Name: "wrap"},
	})

	records, failures := Resolve(b)
	if len(records) != 0 || len(failures) != 1 {
		t.Fatalf("records = %d, failures = %d", len(records), len(failures))
	}
	if !errors.Is(failures[0].Err, bundle.ErrOutOfBounds) {
		t.Errorf("err = %v, want ErrOutOfBounds", failures[0].Err)
	}
}

func TestResolveZeroSizeEntry(t *testing.T) {
	payload := []byte("0123")
	b := openStored(t, payload, []bundle.DirectoryEntry{
		{Offset: 4, Size: 0, Flags: 16, Name: "empty"},
	})

	records, failures := Resolve(b)
	if len(failures) != 0 || len(records) != 1 {
		t.Fatalf("records = %d, failures = %+v", len(records), failures)
	}
	if len(records[0].Data()) != 0 {
		t.Errorf("zero-size entry has %d data bytes", len(records[0].Data()))
	}
}
