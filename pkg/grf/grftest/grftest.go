// Package grftest builds in-memory GRF 0x200 archives for tests.
package grftest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
)

// File is one archive entry. Name is written as raw bytes, so EUC-KR names
// can be given directly. Stored files are written uncompressed.
type File struct {
	Name   string
	Data   []byte
	Stored bool
	Flags  uint8 // 0 means a plain file entry
}

// Build returns the bytes of an archive holding files, in order.
func Build(files []File) []byte {
	var body, table bytes.Buffer
	for _, f := range files {
		payload := f.Data
		if !f.Stored {
			var compressed bytes.Buffer
			w := zlib.NewWriter(&compressed)
			w.Write(f.Data)
			w.Close()
			payload = compressed.Bytes()
		}

		aligned := len(payload)
		if aligned%8 != 0 {
			aligned += 8 - aligned%8
		}
		offset := uint32(body.Len())
		body.Write(payload)
		body.Write(make([]byte, aligned-len(payload)))

		flags := f.Flags
		if flags == 0 {
			flags = 0x01
		}
		name := bytes.ReplaceAll([]byte(f.Name), []byte("/"), []byte("\\"))
		table.Write(name)
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, uint32(len(payload)))
		binary.Write(&table, binary.LittleEndian, uint32(aligned))
		binary.Write(&table, binary.LittleEndian, uint32(len(f.Data)))
		table.WriteByte(flags)
		binary.Write(&table, binary.LittleEndian, offset)
	}

	var compressedTable bytes.Buffer
	tw := zlib.NewWriter(&compressedTable)
	tw.Write(table.Bytes())
	tw.Close()

	var out bytes.Buffer
	header := make([]byte, 46)
	copy(header[0:15], "Master of Magic")
	binary.LittleEndian.PutUint32(header[30:], uint32(body.Len()))  // table offset
	binary.LittleEndian.PutUint32(header[34:], 0)                   // seed
	binary.LittleEndian.PutUint32(header[38:], uint32(len(files))+7) // file count
	binary.LittleEndian.PutUint32(header[42:], 0x200)
	out.Write(header)
	out.Write(body.Bytes())
	binary.Write(&out, binary.LittleEndian, uint32(compressedTable.Len()))
	binary.Write(&out, binary.LittleEndian, uint32(table.Len()))
	out.Write(compressedTable.Bytes())
	return out.Bytes()
}

// WriteFile builds an archive and writes it to path.
func WriteFile(path string, files []File) error {
	return os.WriteFile(path, Build(files), 0o644)
}
