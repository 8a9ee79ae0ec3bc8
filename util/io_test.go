package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBufferRoundTrip(t *testing.T) {
	writer := NewBufferWriter()
	Write(writer, int32(42))
	Write(writer, uint32(0xDEADBEEF))
	WriteArray(writer, Array[int32]{1, 2, 3})

	reader := NewBufferReader(writer.Bytes())
	if v := Read[int32](reader); v != 42 {
		t.Errorf("Read[int32] = %v; want 42", v)
	}
	if v := Read[uint32](reader); v != 0xDEADBEEF {
		t.Errorf("Read[uint32] = %v; want 0xDEADBEEF", v)
	}
	arr := ReadArray[int32](reader)
	if arr.Length() != 3 || arr[0] != 1 || arr[2] != 3 {
		t.Errorf("ReadArray = %v; want [1 2 3]", arr)
	}
}

func TestBufferLittleEndian(t *testing.T) {
	writer := NewBufferWriter()
	Write(writer, uint32(1))
	data := writer.Bytes()
	if data[0] != 1 || data[1] != 0 || data[2] != 0 || data[3] != 0 {
		t.Errorf("expected little-endian layout, got %v", data)
	}
}

type confRow struct {
	XYFile string `csv:"xyfile"`
	Method string `csv:"method"`
	Key    int    `csv:"methodkey"`
}

func TestReadCSV(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.conf")
	content := "xyfile,method,methodkey\nmelb.xy,div,9000\nsyd.xy,mod,100\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadCSV[confRow](file, ',')
	if err != nil {
		t.Fatal(err)
	}
	if rows.Length() != 2 {
		t.Fatalf("rows = %v; want 2", rows.Length())
	}
	if rows[0].XYFile != "melb.xy" || rows[0].Method != "div" || rows[0].Key != 9000 {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1].XYFile != "syd.xy" || rows[1].Method != "mod" || rows[1].Key != 100 {
		t.Errorf("row 1 = %v", rows[1])
	}
}
