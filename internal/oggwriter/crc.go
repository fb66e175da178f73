package oggwriter

// Ogg pages carry a CRC-32 using the polynomial 0x04c11db7, computed
// "unreflected" (MSB-first, no input/output bit reversal) — distinct from
// the reflected CRC-32 used by zlib/encoding/hash/crc32, so the standard
// library's implementation can't be reused here. Table generation and the
// accumulation loop are grounded on the libogg-derived implementation in
// jvatic-audible-downloader's ogg page reader.
const oggCRCPolynomial = 0x04c11db7

var oggCRCTable = buildOggCRCTable()

func buildOggCRCTable() [256]uint32 {
	var table [256]uint32
	for i := range table {
		crc := uint32(i) << 24
		for bit := 0; bit < 8; bit++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ oggCRCPolynomial
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

// oggCRC32 computes the Ogg page checksum over p.
func oggCRC32(p []byte) uint32 {
	var c uint32
	for _, n := range p {
		c = oggCRCTable[byte(c>>24)^n] ^ (c << 8)
	}
	return c
}
