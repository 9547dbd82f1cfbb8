/*
Package eeprom implements a decoder and encoder for the 128 byte
battery-backed settings image used by Sega Naomi hardware.

The image holds two checksummed regions, each stored twice so the BIOS can
recover from a corrupted write. The 16 byte system region occupies bytes
2-17 with its checksum at bytes 0-1, mirrored at bytes 20-35 with its
checksum at bytes 18-19. The four byte game serial sits inside the system
region at bytes 3-6. Two four byte game headers follow at bytes 36-39 and
40-43, each holding a checksum and the game region length stored twice. The
game region itself starts at byte 44, immediately followed by its mirror,
leaving room for up to 42 bytes per copy. Checksums are the BIOS variant
implemented by the crc16 package and are stored little-endian.
*/
package eeprom

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bodgit/naomi/crc16"
)

const (
	// Size is the exact size in bytes of a settings image
	Size = 128

	// SerialSize is the exact size in bytes of a game serial
	SerialSize = 4

	// MaxGameLength is the largest game region that fits twice in the
	// space after the headers
	MaxGameLength = 42

	systemLength      = 16
	systemCRC1Offset  = 0
	system1Offset     = 2
	systemCRC2Offset  = 18
	system2Offset     = 20
	serialOffset      = 3
	gameHeader1Offset = 36
	gameHeader2Offset = 40
	gameOffset        = 44
)

var (
	errImageSize  = errors.New("eeprom: image is not 128 bytes")
	errSerialSize = errors.New("eeprom: serial is not 4 bytes")
)

// Image is an in-memory settings image. Region writes go through the
// sections returned by System and Game which keep both copies and their
// checksums in step, so Bytes always serializes a consistent image.
type Image struct {
	data [Size]byte
}

// New returns an Image decoded from data, which must be exactly Size bytes.
func New(data []byte) (*Image, error) {
	if len(data) != Size {
		return nil, errImageSize
	}
	i := new(Image)
	copy(i.data[:], data)
	return i, nil
}

// Default returns a fresh Image for the given serial carrying the stock
// system region. A nil gameDefaults leaves the game region blank and
// invalid; a non-nil slice, even an empty one, becomes the initial game
// region contents.
func Default(serial, gameDefaults []byte) (*Image, error) {
	if len(serial) != SerialSize {
		return nil, errSerialSize
	}
	if len(gameDefaults) > MaxGameLength {
		return nil, fmt.Errorf("eeprom: %d byte game region exceeds %d bytes", len(gameDefaults), MaxGameLength)
	}

	i := new(Image)
	for j := range i.data {
		i.data[j] = 0xff
	}

	system := make([]byte, 0, systemLength)
	system = append(system, 0x10)
	system = append(system, serial...)
	system = append(system, 0x09, 0x10, 0x00, 0x01, 0x01, 0x01, 0x00, 0x11, 0x11, 0x11, 0x11)

	copy(i.data[system1Offset:], system)
	copy(i.data[system2Offset:], system)
	i.System().refresh()

	if gameDefaults != nil {
		length := len(gameDefaults)
		i.data[gameHeader1Offset+2] = byte(length)
		i.data[gameHeader1Offset+3] = byte(length)
		i.data[gameHeader2Offset+2] = byte(length)
		i.data[gameHeader2Offset+3] = byte(length)
		copy(i.data[gameOffset:], gameDefaults)
		copy(i.data[gameOffset+length:], gameDefaults)
		i.Game().refresh()
	}

	return i, nil
}

// Serial returns a copy of the four byte game serial, read from whichever
// system copy still checksums cleanly.
func (i *Image) Serial() []byte {
	return i.System().Bytes()[serialOffset-system1Offset : serialOffset-system1Offset+SerialSize]
}

// System returns the system region section.
func (i *Image) System() *Section {
	return &Section{
		img:    i,
		crc1:   systemCRC1Offset,
		crc2:   systemCRC2Offset,
		data1:  system1Offset,
		data2:  system2Offset,
		length: systemLength,
	}
}

// Game returns the game region section sized by the current length header.
// Call SetGameLength first when building an image from scratch.
func (i *Image) Game() *Section {
	length := i.GameLength()
	return &Section{
		img:    i,
		crc1:   gameHeader1Offset,
		crc2:   gameHeader2Offset,
		data1:  gameOffset,
		data2:  gameOffset + length,
		length: length,
	}
}

// GameLength returns the game region length declared by the headers. A
// header only counts if both of its length bytes agree and fit the image;
// blank 0xff headers therefore read as zero.
func (i *Image) GameLength() int {
	for _, offset := range []int{gameHeader1Offset, gameHeader2Offset} {
		length := int(i.data[offset+2])
		if length == int(i.data[offset+3]) && length <= MaxGameLength {
			return length
		}
	}
	return 0
}

// SetGameLength rewrites both game headers to declare a region of length
// bytes and refreshes their checksums over the current contents, making
// the region valid for subsequent writes.
func (i *Image) SetGameLength(length int) error {
	if length < 0 || length > MaxGameLength {
		return fmt.Errorf("eeprom: %d byte game region exceeds %d bytes", length, MaxGameLength)
	}
	i.data[gameHeader1Offset+2] = byte(length)
	i.data[gameHeader1Offset+3] = byte(length)
	i.data[gameHeader2Offset+2] = byte(length)
	i.data[gameHeader2Offset+3] = byte(length)
	i.Game().refresh()
	return nil
}

// Bytes returns a copy of the serialized image.
func (i *Image) Bytes() []byte {
	data := make([]byte, Size)
	copy(data, i.data[:])
	return data
}

func (i *Image) checksumAt(crcOffset, dataOffset, length int) bool {
	return binary.LittleEndian.Uint16(i.data[crcOffset:]) == crc16.Checksum(i.data[dataOffset:dataOffset+length])
}
