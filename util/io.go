package util

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"reflect"
	"strconv"
)

//*******************************************
// binary buffers
//*******************************************

func NewBufferReader(data []byte) BufferReader {
	reader := bytes.NewReader(data)
	return BufferReader{
		reader: reader,
	}
}

type BufferReader struct {
	reader *bytes.Reader
}

func Read[T any](reader BufferReader) T {
	var value T
	binary.Read(reader.reader, binary.LittleEndian, &value)
	return value
}

func ReadArray[T any](reader BufferReader) Array[T] {
	var size int32
	binary.Read(reader.reader, binary.LittleEndian, &size)
	value := NewArray[T](int(size))
	binary.Read(reader.reader, binary.LittleEndian, &value)
	return value
}

func NewBufferWriter() BufferWriter {
	buffer := bytes.Buffer{}
	return BufferWriter{
		buffer: &buffer,
	}
}

type BufferWriter struct {
	buffer *bytes.Buffer
}

func (self *BufferWriter) Bytes() []byte {
	return self.buffer.Bytes()
}

func Write[T any](writer BufferWriter, value T) {
	binary.Write(writer.buffer, binary.LittleEndian, value)
}

func WriteArray[T any](writer BufferWriter, value Array[T]) {
	binary.Write(writer.buffer, binary.LittleEndian, int32(value.Length()))
	binary.Write(writer.buffer, binary.LittleEndian, value)
}

//*******************************************
// file helpers
//*******************************************

func WriteBufferToFile(writer BufferWriter, file string) error {
	return os.WriteFile(file, writer.Bytes(), 0644)
}

func ReadBufferFromFile(file string) (BufferReader, error) {
	_, err := os.Stat(file)
	if errors.Is(err, os.ErrNotExist) {
		return BufferReader{}, errors.New("file not found: " + file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return BufferReader{}, err
	}
	return NewBufferReader(data), nil
}

//*******************************************
// csv
//*******************************************

// ReadCSV parses a csv file with a header row into a list of structs,
// matching columns to fields by the "csv" tag.
func ReadCSV[T any](filename string, delimiter rune) (List[T], error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = delimiter
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	name_mapping := NewDict[string, int](10)
	for i, name := range header {
		name_mapping[name] = i
	}

	var val T
	typ := reflect.TypeOf(val)
	num_field := typ.NumField()
	fields := NewList[Triple[int, int, reflect.Kind]](num_field)
	for i := 0; i < num_field; i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("csv")
		if tag == "" || !name_mapping.ContainsKey(tag) {
			continue
		}
		col := name_mapping[tag]
		switch field.Type.Kind() {
		case reflect.Bool:
			fields.Add(MakeTriple(i, col, reflect.Bool))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fields.Add(MakeTriple(i, col, reflect.Int))
		case reflect.Float32, reflect.Float64:
			fields.Add(MakeTriple(i, col, reflect.Float64))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			fields.Add(MakeTriple(i, col, reflect.Uint))
		case reflect.String:
			fields.Add(MakeTriple(i, col, reflect.String))
		}
	}

	rows := NewList[T](10)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			continue
		}
		t := reflect.New(typ).Elem()
		for _, field := range fields {
			index := field.A
			col := field.B
			kind := field.C
			value := record[col]
			if value == "" {
				continue
			}
			f := t.Field(index)
			switch kind {
			case reflect.Bool:
				num, _ := strconv.ParseBool(value)
				f.SetBool(num)
			case reflect.Int:
				num, _ := strconv.ParseInt(value, 10, 64)
				f.SetInt(num)
			case reflect.Uint:
				num, _ := strconv.ParseUint(value, 10, 64)
				f.SetUint(num)
			case reflect.Float64:
				num, _ := strconv.ParseFloat(value, 64)
				f.SetFloat(num)
			case reflect.String:
				f.SetString(value)
			}
		}
		rows.Add(t.Interface().(T))
	}
	return rows, nil
}
