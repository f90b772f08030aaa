// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, a CRC8 calculation
package common

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. CRC bytes are used in sensors from TI and Sensirion.
// The polynomial is 0x31 with an initial value of 0xff, most significant bit
// first, and no final xor.
func CRC8(bytes []byte) byte {
	var crc byte = 0xff
	for _, val := range bytes {
		crc ^= val
		for i := 0; i < 8; i++ {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (byte)((crc << 1) ^ 0x31)
			}
		}
	}
	return crc
}

// CheckCRC8 returns true if crc matches the computed CRC8 of bytes. Drivers
// for sensors that append a CRC byte to each data word should use this to
// verify every word received.
func CheckCRC8(bytes []byte, crc byte) bool {
	return CRC8(bytes) == crc
}
