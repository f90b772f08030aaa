// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sgp30 controls a Sensirion SGP30 indoor air quality sensor over
// I²C. The sensor reports a CO₂ equivalent concentration in ppm and a total
// volatile organic compound (TVOC) concentration in ppb.
//
// The chip samples at 1Hz and the driver enforces that spacing between
// measurement commands. For the first 15 seconds after initialization the
// chip is still warming up and returns the uncalibrated defaults of 400ppm
// and 0ppb; those readings are passed through unmodified.
//
// Every word the sensor returns carries a CRC byte which the driver
// verifies, returning a ChecksumError on corruption.
//
// # Datasheet
//
// https://sensirion.com/media/documents/984E0DD5/61644B8B/Sensirion_Gas_Sensors_Datasheet_SGP30.pdf
package sgp30
