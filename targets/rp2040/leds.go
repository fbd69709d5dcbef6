//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"cyclotron/core"
	"cyclotron/targets/ht16k33"
	"cyclotron/targets/pio"
)

// Board wiring. Device IDs are the ones used in profiles and config
// commands.
const (
	deviceRing     core.DeviceID = 0 // PIO driven strip on GPIO2
	deviceBargraph core.DeviceID = 1 // HT16K33 on I2C0
	deviceAux      core.DeviceID = 2 // bit-banged strip on GPIO3

	ringPin = machine.GPIO2
	auxPin  = machine.GPIO3

	bargraphBrightness = 8
	i2cFrequency       = 400 * machine.KHz
)

// InitLEDs builds the LED router for this board. Outputs that fail to
// start are left unattached; their regions are still animated.
func InitLEDs() *core.LEDRouter {
	router := core.NewLEDRouter()

	if strip, err := pio.NewWS2812(ringPin); err != nil {
		core.DebugPrintln("[led] PIO strip: " + err.Error())
	} else {
		router.AttachStrip(deviceRing, strip)
	}

	auxPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	aux := ws2812.New(auxPin)
	router.AttachStrip(deviceAux, &aux)

	err := machine.I2C0.Configure(machine.I2CConfig{
		Frequency: i2cFrequency,
		SDA:       machine.GPIO4,
		SCL:       machine.GPIO5,
	})
	if err != nil {
		core.DebugPrintln("[led] I2C0: " + err.Error())
		return router
	}
	bar := ht16k33.New(machine.I2C0, ht16k33.DefaultAddress)
	if err := bar.Configure(bargraphBrightness); err != nil {
		core.DebugPrintln("[led] bargraph: " + err.Error())
		return router
	}
	router.AttachBargraph(deviceBargraph, bar)
	return router
}
