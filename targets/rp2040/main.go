//go:build rp2040

package main

import (
	_ "embed"
	"machine"
	"time"

	"cyclotron/core"
	"cyclotron/profile"
	"cyclotron/protocol"
)

//go:embed profile.json
var defaultProfile []byte

// Pools are sized for the largest setup a host may configure, not just the
// boot profile.
const (
	maxPixels   = 256
	maxElements = 64
)

var (
	// Buffers for communication
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	// Debug counters
	messagesReceived uint32
	messagesSent     uint32
	msgerrors        uint32

	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	// Disable a watchdog left running by a previous reset.
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitUSB()
	InitDebugUART()
	InitClock()
	core.TimerInit()

	core.InitCoreCommands()
	core.InitLEDCommands()
	core.RegisterConstant("MAX_PIXELS", uint32(maxPixels))
	core.RegisterConstant("MAX_ELEMENTS", uint32(maxElements))

	router := InitLEDs()
	core.SetLEDDriver(router)
	d := core.NewDispatcher(maxPixels, maxElements, core.MustLEDDriver())
	core.SetDispatcher(d)
	applyBootProfile(d)

	// Build and cache the dictionary after all commands are registered.
	core.GetGlobalDictionary().BuildDictionary()

	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()

	transport = protocol.NewTransport(outputBuffer, core.HandleCommand)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
		core.ResetFirmwareState()
	})
	// ACKs must go out before the next frame is read.
	transport.SetFlushCallback(writeUSB)
	transport.SetErrorCallback(func(err error) {
		msgerrors++
		core.DebugPrintln("[proto] " + err.Error())
	})
	core.SetGlobalTransport(transport)

	core.SetResetHandler(func() {
		// A 1ms watchdog is the reliable way to reset and re-enumerate USB.
		if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1}); err != nil {
			return
		}
		if err := machine.Watchdog.Start(); err != nil {
			return
		}
		for {
			time.Sleep(time.Millisecond)
		}
	})

	go usbReaderLoop()

	for {
		loopOnce()
		// Yield to the USB reader
		time.Sleep(10 * time.Microsecond)
	}
}

// applyBootProfile configures the embedded profile so the board animates
// without a host.
func applyBootProfile(d *core.Dispatcher) {
	p, err := profile.LoadBytes(defaultProfile)
	if err != nil {
		core.DebugPrintln("[boot] profile: " + err.Error())
		p = profile.Default()
	}
	if err := p.Apply(d); err != nil {
		core.DebugPrintln("[boot] apply: " + err.Error())
	}
}

// loopOnce runs one main loop iteration. A panic is logged and the
// communication buffers are dropped; the animation keeps its state.
func loopOnce() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			core.DebugPrintln("[main] recovered panic")
			inputBuffer.Reset()
			outputBuffer.Reset()
		}
	}()

	UpdateSystemTime()

	if inputBuffer.Available() > 0 {
		transport.Receive(inputBuffer)
		messagesReceived++
	}

	if len(outputBuffer.Result()) > 0 {
		writeUSB()
		messagesSent++
	}

	// After the ACK for a reset command has gone out.
	core.CheckPendingReset()

	core.ProcessTimers()
	core.LEDTask()

	// Revolution reports produced by the tick.
	if len(outputBuffer.Result()) > 0 {
		writeUSB()
	}
}

// usbReaderLoop moves bytes from USB into the input FIFO.
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			b, err := USBRead()
			if err != nil {
				msgerrors++
				time.Sleep(time.Millisecond)
				continue
			}

			// A host reconnecting after a dropped link starts fresh.
			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				outputBuffer.Reset()
				transport.Reset()
				core.ResetFirmwareState()
				consecutiveWriteFailures = 0
			}

			if inputBuffer.Write([]byte{b}) == 0 {
				msgerrors++
				time.Sleep(10 * time.Millisecond)
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB sends everything in the output buffer. Repeated failures mean
// the host is gone: pending output is dropped and the link is marked
// disconnected.
func writeUSB() {
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				inputBuffer.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
