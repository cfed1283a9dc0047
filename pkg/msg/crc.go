package msg

// CRCPoly is the CRC-16/CCITT generator polynomial.
const CRCPoly uint16 = 0x1021

var crcTable = func() (tbl [256]uint16) {
	for n := range tbl {
		crc := uint16(n) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ CRCPoly
			} else {
				crc <<= 1
			}
		}
		tbl[n] = crc
	}
	return
}()

// CRC16 computes CRC-16/CCITT (MSB first) of data seeded with init.
// Messages use init 0.
func CRC16(data []byte, init uint16) uint16 {
	crc := init
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>8)^b]
	}
	return crc
}
