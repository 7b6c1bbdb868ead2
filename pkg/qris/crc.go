package qris

import "fmt"

// Checksum computes the CRC-16/CCITT-FALSE checksum used by EMVCo QR
// payloads and returns it as a 4-character uppercase hex string.
func Checksum(payload string) string {
	crc := 0xFFFF
	for i := 0; i < len(payload); i++ {
		crc ^= int(payload[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc&0xFFFF)
}
