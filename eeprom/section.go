package eeprom

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/naomi/crc16"
)

// Section is one checksummed region of an Image. It implements io.ReaderAt
// and io.WriterAt over the region contents; reads come from whichever copy
// still checksums cleanly while writes update both copies and their
// checksums.
type Section struct {
	img    *Image
	crc1   int
	crc2   int
	data1  int
	data2  int
	length int
}

// Len returns the length of the section in bytes.
func (s *Section) Len() int { return s.length }

// Valid returns true if at least one copy of the section matches its
// checksum.
func (s *Section) Valid() bool {
	return s.img.checksumAt(s.crc1, s.data1, s.length) || s.img.checksumAt(s.crc2, s.data2, s.length)
}

func (s *Section) preferred() int {
	if !s.img.checksumAt(s.crc1, s.data1, s.length) && s.img.checksumAt(s.crc2, s.data2, s.length) {
		return s.data2
	}
	return s.data1
}

// Bytes returns a copy of the section contents, preferring a copy with a
// clean checksum.
func (s *Section) Bytes() []byte {
	data := make([]byte, s.length)
	copy(data, s.img.data[s.preferred():])
	return data
}

func (s *Section) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("eeprom: negative offset %d", off)
	}
	if off >= int64(s.length) {
		return 0, io.EOF
	}
	base := s.preferred()
	n := copy(p, s.img.data[base+int(off):base+s.length])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *Section) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(s.length) {
		return 0, fmt.Errorf("eeprom: write of %d bytes at offset %d exceeds %d byte section", len(p), off, s.length)
	}
	copy(s.img.data[s.data1+int(off):], p)
	copy(s.img.data[s.data2+int(off):], p)
	s.refresh()
	return len(p), nil
}

func (s *Section) refresh() {
	binary.LittleEndian.PutUint16(s.img.data[s.crc1:], crc16.Checksum(s.img.data[s.data1:s.data1+s.length]))
	binary.LittleEndian.PutUint16(s.img.data[s.crc2:], crc16.Checksum(s.img.data[s.data2:s.data2+s.length]))
}
