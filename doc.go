// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package devices is a container for device drivers. The drivers live in
// subpackages; see sgp30 for the Sensirion SGP30 air quality sensor and
// common for helpers shared between drivers.
package devices
