//go:build examples
// +build examples

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sgp30_test

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/sgp30"
	"periph.io/x/host/v3"
)

// basic example program for the SGP30 sensor using this library.
//
// To execute this as a stand-alone program:
//
// Copy the file example_test.go to a new directory.
// rename the file to main.go
// rename the Example() function to main, and the package to main
//
// execute:
//
//	go mod init mydomain.com/sgp30
//	go mod tidy
//	go build -o main main.go
//	./main
func Example() {
	fmt.Println("sgp30 example program")
	if _, err := host.Init(); err != nil {
		fmt.Println(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()
	dev, err := sgp30.NewI2C(bus, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()

	info, err := dev.SensorInfo()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s %s serial=%s feature set=%s\n", info.Maker, info.Model, info.Serial, info.Version)

	// Use the ambient conditions from another sensor if one is available.
	temp := physic.ZeroCelsius + 22*physic.Celsius
	if err := dev.SetHumidity(temp, 45*physic.PercentRH); err != nil {
		log.Fatal(err)
	}

	env := sgp30.Env{}
	for range 10 {
		if err := dev.Sense(&env); err != nil {
			log.Fatal(err)
		}
		fmt.Println(time.Now().Format(time.TimeOnly), env.String())
	}

	// The baseline can be persisted and restored after a restart to skip
	// the 12 hour calibration run-in.
	baseline, err := dev.Baseline()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("baseline=%x\n", baseline)
	// Output:
}
