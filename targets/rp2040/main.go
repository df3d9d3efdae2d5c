//go:build rp2040

package main

import (
	"machine"
	"time"

	"softuart/core"
	"softuart/protocol"
	softpio "softuart/targets/pio"

	"tinygo.org/x/drivers/adxl345"
)

// Board wiring
const (
	txPin       = core.GPIOPin(16) // GP16 -> adapter RX
	activityPin = core.GPIOPin(25) // onboard LED
	baudRate    = 9600

	// The PIO ticker counts system clock cycles; the alarm ticker counts
	// 1MHz timer ticks
	usePIOTicker = true
	pioSM        = 0

	samplePeriod = 100 * time.Millisecond

	// Record frame start/stop/end events and dump them after the hello frame
	debugTiming = true
)

var (
	frameBuf  = protocol.NewScratchOutput()
	frameSeq  uint8
	sampleSeq uint32
)

func main() {
	core.SetDebugWriter(func(s string) { println(s) })
	core.SetDebugEnabled(true)
	core.SetTimingEnabled(debugTiming)
	UpdateSystemTime()
	core.TimerInit()

	core.SetGPIODriver(NewRPGPIODriver())

	clock := uint32(core.ClockFreqRP2040)
	if usePIOTicker {
		core.SetTickSource(softpio.NewPIOTicker(pioSM))
		clock = machine.CPUFrequency()
	} else {
		core.SetTickSource(NewAlarmTicker())
	}

	err := core.SoftUARTInit(core.SoftUARTConfig{
		TxPin:       txPin,
		Baud:        baudRate,
		ClockFreq:   clock,
		ActivityPin: activityPin,
		UseActivity: true,
	})
	if err != nil {
		core.DebugPrintln("[SOFTUART] init failed: " + err.Error())
		for {
			time.Sleep(time.Second)
		}
	}
	tx := core.MustSoftUART()
	core.DebugPrintln("[SOFTUART] period=" + core.Utoa(tx.Period()) + " baud=" + core.Utoa(core.ActualBaud(clock, tx.Period())))

	sendFrame(func(out protocol.OutputBuffer) {
		protocol.EncodeHello(out, protocol.Hello{Version: protocol.Version, Baud: baudRate})
	})
	if debugTiming {
		tx.Flush()
		UpdateSystemTime()
		core.DebugPrintln("[SOFTUART] hello sent, uptime=" + core.Utoa(uint32(core.GetUptime())) + "us")
		core.DumpTimingRing()
	}

	sensor, err := initAccel()
	if err != nil {
		core.DebugPrintln("[ACCEL] " + err.Error())
		sendText("accel: " + err.Error())
		for {
			time.Sleep(time.Second)
		}
	}

	for {
		x, y, z, err := sensor.ReadAcceleration()
		if err != nil {
			sendText("accel: " + err.Error())
		} else {
			sample := protocol.AccelSample{Seq: sampleSeq, X: x, Y: y, Z: z}
			sendFrame(func(out protocol.OutputBuffer) {
				protocol.EncodeAccelSample(out, sample)
			})
			sampleSeq++
		}
		time.Sleep(samplePeriod)
	}
}

// initAccel brings up the ADXL345 on I2C0 (SDA=GP4, SCL=GP5)
func initAccel() (*adxl345.Device, error) {
	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA:       machine.GP4,
		SCL:       machine.GP5,
		Frequency: 400 * machine.KHz,
	})
	if err != nil {
		return nil, err
	}

	sensor := adxl345.New(machine.I2C0)
	sensor.Configure()
	sensor.SetRate(adxl345.RATE_100HZ)
	sensor.SetRange(adxl345.RANGE_4G)
	return &sensor, nil
}

func sendText(text string) {
	sendFrame(func(out protocol.OutputBuffer) {
		protocol.EncodeText(out, text)
	})
}

// sendFrame wraps one message in a message block and clocks it out
func sendFrame(body func(out protocol.OutputBuffer)) {
	frameBuf.Reset()
	if err := protocol.EncodeFrame(frameBuf, frameSeq, body); err != nil {
		core.DebugPrintln("[FRAME] " + err.Error())
		return
	}
	frameSeq = (frameSeq + 1) & protocol.MessageSeqMask
	core.MustSoftUART().Write(frameBuf.Result())
}
