// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sgp30

import "fmt"

// ChecksumError reports a reply word whose trailing CRC byte does not match
// the recomputed checksum, meaning the data was corrupted on the wire.
type ChecksumError struct {
	// Cmd is the command word whose reply failed verification.
	Cmd uint16
	// Word is the zero-based index of the corrupted word in the reply.
	Word int
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("sgp30: cmd 0x%04x: invalid crc on word %d", e.Cmd, e.Word)
}

// SelfTestError reports that the on-chip self test returned something other
// than the expected test pattern.
type SelfTestError struct {
	// Got is the word the device returned instead of 0xd400.
	Got uint16
}

func (e *SelfTestError) Error() string {
	return fmt.Sprintf("sgp30: self test failed: got 0x%04x want 0xd400", e.Got)
}
