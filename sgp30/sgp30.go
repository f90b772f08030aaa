// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sgp30

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/common"
)

const (
	iaqInit                  uint16 = 0x2003
	measureAirQuality        uint16 = 0x2008
	getIAQBaseline           uint16 = 0x2015
	setIAQBaseline           uint16 = 0x201e
	setHumidity              uint16 = 0x2061
	measureTest              uint16 = 0x2032
	getFeatureSetVersion     uint16 = 0x202f
	measureRawSignals        uint16 = 0x2050
	getTVOCInceptiveBaseline uint16 = 0x20b3
	setTVOCBaseline          uint16 = 0x2077
	getSerialID              uint16 = 0x3682

	i2CAddress uint16 = 0x58

	// Soft reset is an I²C general call, not a 16-bit command word.
	generalCallAddress uint16 = 0x00
	softResetCommand   byte   = 0x06

	// The word returned by a passing measureTest.
	selfTestOK uint16 = 0xd400

	// The chip samples at 1Hz. Measurement commands issued faster than this
	// are answered with stale data or NACKs.
	samplePeriod = time.Second

	// Settle time after iaqInit before the first measurement command.
	initSettle = 50 * time.Millisecond

	maker = "Sensirion"
)

// commandDuration maps the defined maximum measurement duration from the sensor
var commandDuration = map[uint16]time.Duration{
	iaqInit:                  time.Millisecond * 10,
	measureAirQuality:        time.Millisecond * 12,
	getIAQBaseline:           time.Millisecond * 10,
	setIAQBaseline:           time.Millisecond * 10,
	setHumidity:              time.Millisecond * 10,
	measureTest:              time.Millisecond * 220,
	getFeatureSetVersion:     time.Millisecond * 10,
	measureRawSignals:        time.Millisecond * 25,
	getTVOCInceptiveBaseline: time.Millisecond * 10,
	setTVOCBaseline:          time.Millisecond * 10,
	getSerialID:              time.Millisecond * 10,
}

// commandResponseLength maps the defined response length including the CRC
var commandResponseLength = map[uint16]int{
	measureAirQuality:        6,
	getIAQBaseline:           6,
	measureTest:              3,
	getFeatureSetVersion:     3,
	measureRawSignals:        6,
	getTVOCInceptiveBaseline: 3,
	getSerialID:              9,
}

// CO2 represents the current carbon dioxide equivalent value in ppm
type CO2 uint16

func (c CO2) String() string {
	return strconv.Itoa(int(c)) + "ppm"
}

// TVOC represents the current total volatile organic compounds value in ppb
type TVOC uint16

func (t TVOC) String() string {
	return strconv.Itoa(int(t)) + "ppb"
}

// Env represents measurements from an environmental sensor.
type Env struct {
	CO2  CO2
	TVOC TVOC
}

func (e *Env) String() string {
	return fmt.Sprintf("CO2: %s TVOC: %s", e.CO2, e.TVOC)
}

// Measurement is a single named reading with its unit. Callers that want a
// map shaped representation can range over Measurements() instead of
// depending on the Env field layout.
type Measurement struct {
	Name  string
	Unit  string
	Value uint16
}

func (m Measurement) String() string {
	return m.Name + ": " + strconv.Itoa(int(m.Value)) + m.Unit
}

// Measurements returns the two readings of an IAQ measurement as named
// records.
func (e *Env) Measurements() []Measurement {
	return []Measurement{
		{Name: "co2", Unit: "ppm", Value: uint16(e.CO2)},
		{Name: "tvoc", Unit: "ppb", Value: uint16(e.TVOC)},
	}
}

// RawSignals represents the uncompensated H2 and ethanol signals used by the
// IAQ algorithm.
type RawSignals struct {
	H2      uint16
	Ethanol uint16
}

// SensorInfo identifies the device.
type SensorInfo struct {
	// Maker is always "Sensirion".
	Maker string
	// Model is "SGP30" for a recognized product type and empty for an
	// unrecognized chip variant.
	Model string
	// Serial is the unique 48 bit id as 12 uppercase hex digits.
	Serial string
	// Version is the feature set version as "major.minor".
	Version string
}

// Opts holds the configuration options for the device.
type Opts struct {
	// MeasureSettle is how long to wait between issuing a measurement
	// command and reading its reply. The datasheet specifies a maximum
	// measurement duration of 12ms; raise this if your bus needs more
	// margin. Leave 0 to use the default.
	MeasureSettle time.Duration
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	MeasureSettle: 12 * time.Millisecond,
}

// Dev is a handle to an initialized SGP30 device.
//
// Dev is not safe for concurrent use; exactly one logical owner should issue
// commands.
type Dev struct {
	d    *i2c.Dev
	gc   *i2c.Dev
	opts Opts
	mu   sync.Mutex
	stop chan struct{}
	// last is when the previous measurement command was issued. The zero
	// value means no measurement command has been issued yet.
	last time.Time
}

// NewI2C returns an object that communicates over I²C to an SGP30
// environmental sensor. The device address is fixed at 0x58. The Opts can be
// nil.
//
// The device is probed and the IAQ algorithm initialized; a sensor that does
// not respond fails construction.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{
		d:    &i2c.Dev{Bus: b, Addr: i2CAddress},
		gc:   &i2c.Dev{Bus: b, Addr: generalCallAddress},
		opts: *opts,
	}
	if d.opts.MeasureSettle <= 0 {
		d.opts.MeasureSettle = DefaultOpts.MeasureSettle
	}

	// Probe with a plain read so a missing or unresponsive sensor fails
	// here instead of on the first measurement.
	var probe [1]byte
	if err := d.d.Tx(nil, probe[:]); err != nil {
		return nil, fmt.Errorf("sgp30: no device present: %w", err)
	}
	if err := d.writeCommand(iaqInit, nil); err != nil {
		return nil, err
	}
	time.Sleep(initSettle)
	return d, nil
}

// writeCommand sends a 16-bit command word followed by the payload words,
// each encoded big-endian with its CRC byte appended.
func (d *Dev) writeCommand(cmd uint16, words []uint16) error {
	w := make([]byte, 2, 2+3*len(words))
	w[0] = byte(cmd >> 8)
	w[1] = byte(cmd & 0xff)
	for _, word := range words {
		hi := byte(word >> 8)
		lo := byte(word & 0xff)
		w = append(w, hi, lo, common.CRC8([]byte{hi, lo}))
	}
	if err := d.d.Tx(w, nil); err != nil {
		return fmt.Errorf("sgp30: cmd 0x%04x: %w", cmd, err)
	}
	return nil
}

// readResponse reads the reply for cmd and decodes it into words, verifying
// the CRC byte trailing every word.
func (d *Dev) readResponse(cmd uint16) ([]uint16, error) {
	r := make([]byte, commandResponseLength[cmd])
	if err := d.d.Tx(nil, r); err != nil {
		return nil, fmt.Errorf("sgp30: cmd 0x%04x: %w", cmd, err)
	}
	words := make([]uint16, len(r)/3)
	for ix := range words {
		if !common.CheckCRC8(r[ix*3:ix*3+2], r[ix*3+2]) {
			return nil, &ChecksumError{Cmd: cmd, Word: ix}
		}
		words[ix] = uint16(r[ix*3])<<8 | uint16(r[ix*3+1])
	}
	return words, nil
}

// sendCommand writes cmd with the payload words, waits the defined command
// duration and reads the reply if the command has one.
func (d *Dev) sendCommand(cmd uint16, words []uint16) ([]uint16, error) {
	if err := d.writeCommand(cmd, words); err != nil {
		return nil, err
	}
	time.Sleep(commandDuration[cmd])
	if commandResponseLength[cmd] == 0 {
		return nil, nil
	}
	return d.readResponse(cmd)
}

// measure issues a single measurement command. If less than a second has
// passed since the previous measurement command, the call first sleeps for
// the remainder to honor the chip's 1Hz sampling contract.
func (d *Dev) measure(cmd uint16) ([]uint16, error) {
	if !d.last.IsZero() {
		if wait := samplePeriod - time.Since(d.last); wait > 0 {
			time.Sleep(wait)
		}
	}
	if err := d.writeCommand(cmd, nil); err != nil {
		return nil, err
	}
	d.last = time.Now()
	settle := commandDuration[cmd]
	if cmd == measureAirQuality {
		settle = d.opts.MeasureSettle
	}
	time.Sleep(settle)
	return d.readResponse(cmd)
}

// Sense reads the current CO₂ equivalent and TVOC values. At most one
// measurement command is issued per call; back-to-back calls block until a
// full second has passed since the previous one.
func (d *Dev) Sense(e *Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.measure(measureAirQuality)
	if err != nil {
		return err
	}
	e.CO2 = CO2(words[0])
	e.TVOC = TVOC(words[1])
	return nil
}

// SenseRaw reads the raw H2 and ethanol signals. The same 1Hz spacing as
// Sense applies.
func (d *Dev) SenseRaw(rs *RawSignals) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.measure(measureRawSignals)
	if err != nil {
		return err
	}
	rs.H2 = words[0]
	rs.Ethanol = words[1]
	return nil
}

// SenseContinuous continuously reads from the device on the given interval
// and sends the readings to the returned channel. The interval must be at
// least one second, the chip's sampling period. To terminate, call Halt().
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan Env, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errors.New("sgp30: SenseContinuous() running already")
	}
	if interval < samplePeriod {
		return nil, errors.New("sgp30: sample interval is < device sample rate")
	}
	d.stop = make(chan struct{})
	stop := d.stop
	ch := make(chan Env, 16)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e := Env{}
				if err := d.Sense(&e); err == nil && len(ch) < cap(ch) {
					ch <- e
				}
			}
		}
	}()
	return ch, nil
}

// SensorInfo returns the device identification: maker, model, serial number
// and feature set version. These are not measurement commands and do not
// interact with the 1Hz sampling contract.
func (d *Dev) SensorInfo() (SensorInfo, error) {
	info := SensorInfo{Maker: maker}
	d.mu.Lock()
	defer d.mu.Unlock()

	words, err := d.sendCommand(getSerialID, nil)
	if err != nil {
		return info, err
	}
	serial := uint64(words[0])<<32 | uint64(words[1])<<16 | uint64(words[2])
	info.Serial = fmt.Sprintf("%012X", serial)

	words, err = d.sendCommand(getFeatureSetVersion, nil)
	if err != nil {
		return info, err
	}
	if productType(words[0]) == 0 {
		info.Model = "SGP30"
	}
	info.Version = versionString(words[0])
	return info, nil
}

// SerialNumber returns the unique 48 bit id of the device.
func (d *Dev) SerialNumber() (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.sendCommand(getSerialID, nil)
	if err != nil {
		return 0, err
	}
	return uint64(words[0])<<32 | uint64(words[1])<<16 | uint64(words[2]), nil
}

// The feature set reply carries the product type in the high nibble of the
// first byte and the version in the second byte, major in the top 3 bits and
// minor in the low 5.
func productType(word uint16) byte {
	return byte(word>>12) & 0x0f
}

func versionString(word uint16) string {
	return strconv.Itoa(int(word>>5)&0x07) + "." + strconv.Itoa(int(word)&0x1f)
}

// Baseline returns the raw 6 byte IAQ baseline used by the dynamic baseline
// compensation algorithm: two big-endian words, each followed by its CRC
// byte. Every CRC byte is verified before the blob is returned. The blob is
// opaque; hand it back to SetBaseline to restore the compensation state, for
// example after a reset.
func (d *Dev) Baseline() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeCommand(getIAQBaseline, nil); err != nil {
		return nil, err
	}
	time.Sleep(commandDuration[getIAQBaseline])
	r := make([]byte, commandResponseLength[getIAQBaseline])
	if err := d.d.Tx(nil, r); err != nil {
		return nil, fmt.Errorf("sgp30: cmd 0x%04x: %w", getIAQBaseline, err)
	}
	for ix := 0; ix*3 < len(r); ix++ {
		if !common.CheckCRC8(r[ix*3:ix*3+2], r[ix*3+2]) {
			return nil, &ChecksumError{Cmd: getIAQBaseline, Word: ix}
		}
	}
	return r, nil
}

// SetBaseline restores an IAQ baseline previously read with Baseline.
func (d *Dev) SetBaseline(baseline []byte) error {
	if len(baseline) != commandResponseLength[getIAQBaseline] {
		return fmt.Errorf("sgp30: invalid baseline length %d", len(baseline))
	}
	words := make([]uint16, 2)
	for ix := range words {
		if !common.CheckCRC8(baseline[ix*3:ix*3+2], baseline[ix*3+2]) {
			return &ChecksumError{Cmd: setIAQBaseline, Word: ix}
		}
		words[ix] = uint16(baseline[ix*3])<<8 | uint16(baseline[ix*3+1])
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.sendCommand(setIAQBaseline, words)
	return err
}

// TVOCInceptiveBaseline returns the inceptive TVOC baseline word. Feature
// set versions 0x21 and later provide it.
func (d *Dev) TVOCInceptiveBaseline() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.sendCommand(getTVOCInceptiveBaseline, nil)
	if err != nil {
		return 0, err
	}
	return words[0], nil
}

// SetTVOCBaseline sets the TVOC baseline word.
func (d *Dev) SetTVOCBaseline(baseline uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.sendCommand(setTVOCBaseline, []uint16{baseline})
	return err
}

// SelfTest runs the on-chip measurement test and returns a SelfTestError if
// the device reports anything but the expected pattern. Running the self
// test interrupts the IAQ algorithm.
func (d *Dev) SelfTest() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.sendCommand(measureTest, nil)
	if err != nil {
		return err
	}
	if words[0] != selfTestOK {
		return &SelfTestError{Got: words[0]}
	}
	return nil
}

// SoftReset resets the device with an I²C general call. The IAQ algorithm
// restarts from scratch afterwards; create a new Dev to keep using the
// sensor.
//
// Other devices on the same bus that implement the general call may reset
// too.
func (d *Dev) SoftReset() error {
	if err := d.gc.Tx([]byte{softResetCommand}, nil); err != nil {
		return fmt.Errorf("sgp30: soft reset: %w", err)
	}
	return nil
}

// Halt terminates a SenseContinuous if one is running and soft resets the
// sensor. Implements conn.Resource. Closing the bus remains the bus owner's
// responsibility.
func (d *Dev) Halt() error {
	d.mu.Lock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
	d.mu.Unlock()
	return d.SoftReset()
}

func (d *Dev) String() string {
	return fmt.Sprintf("sgp30: %s", d.d.String())
}

var _ conn.Resource = &Dev{}
