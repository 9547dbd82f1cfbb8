/*
Package crc16 implements the 16-bit checksum used by the Sega Naomi BIOS to
protect regions of the battery-backed settings image.

The algorithm resembles CRC-16/CCITT but works the data through the middle
of a 32-bit register and finishes by feeding two zero bytes through it,
matching the BIOS routine bit for bit.
*/
package crc16

import "hash"

// Size of the checksum in bytes.
const Size = 2

// Init is the value a running sum starts from.
const Init uint32 = 0xdebdeb00

const polynomial = 0x11021000

// Hash16 is the common interface implemented by all 16-bit hash functions.
type Hash16 interface {
	hash.Hash
	Sum16() uint16
}

type digest struct {
	crc uint32
}

// New creates a new Hash16 computing the BIOS checksum. Its Sum method
// will lay the value out in big-endian byte order.
func New() Hash16 {
	return &digest{Init}
}

func (d *digest) Size() int { return Size }

func (d *digest) BlockSize() int { return 1 }

func (d *digest) Reset() { d.crc = Init }

func update(crc uint32, p []byte) uint32 {
	for i := range p {
		crc ^= uint32(p[i]) << 16
		for j := 0; j < 8; j++ {
			crc <<= 1
			if crc&0x1000000 != 0 {
				crc ^= polynomial
			}
		}
	}
	return crc
}

// Update returns the result of adding the bytes in p to the running sum
// crc. The running sum is wider than the checksum itself; use Finish to
// collapse it once all data has been added.
func Update(crc uint32, p []byte) uint32 {
	return update(crc, p)
}

// Finish feeds the two trailing zero bytes through the running sum crc and
// collapses it into the final checksum.
func Finish(crc uint32) uint16 {
	return uint16(update(crc, []byte{0, 0}) >> 16)
}

func (d *digest) Write(p []byte) (n int, err error) {
	d.crc = update(d.crc, p)
	return len(p), nil
}

func (d *digest) Sum16() uint16 { return Finish(d.crc) }

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum16()
	return append(in, byte(s>>8), byte(s))
}

// Checksum returns the checksum of data.
func Checksum(data []byte) uint16 { return Finish(Update(Init, data)) }
