// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sgp30

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"
)

// Operating temperature range of the sensor.
const (
	minTempC = -40.0
	maxTempC = 85.0
)

// SetHumidity sets the absolute humidity used by the on-chip humidity
// compensation, computed from the ambient temperature and relative humidity.
// A relative humidity of 0 encodes to the word 0x0000, which the chip
// defines as disabling humidity compensation.
func (d *Dev) SetHumidity(temp physic.Temperature, humidity physic.RelativeHumidity) error {
	word, err := absoluteHumidityWord(temp.Celsius(), float64(humidity)/float64(physic.PercentRH))
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err = d.sendCommand(setHumidity, []uint16{word})
	return err
}

// absoluteHumidityWord converts air temperature in °C and relative humidity
// in percent to the absolute humidity in g/m³ encoded as the sensor's 8.8
// fixed point word. The saturation vapor pressure uses the Magnus form.
func absoluteHumidityWord(tempC, rh float64) (uint16, error) {
	if rh < 0 || rh > 100 {
		return 0, fmt.Errorf("sgp30: relative humidity %.1f%% out of range 0-100", rh)
	}
	if tempC < minTempC || tempC > maxTempC {
		return 0, fmt.Errorf("sgp30: temperature %.1f°C out of range %g-%g", tempC, minTempC, maxTempC)
	}
	gm3 := 216.7 * ((rh / 100 * 6.112 * math.Exp(17.62*tempC/(243.12+tempC))) / (273.15 + tempC))
	fixed := gm3 * 256
	// Hot saturated air exceeds the 255.996 g/m³ the encoding can carry.
	if fixed > math.MaxUint16 {
		fixed = math.MaxUint16
	}
	return uint16(fixed), nil
}
