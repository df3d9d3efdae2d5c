//go:build rp2040

package pio

// PIO tick source using tinygo-org/pio.
// A state machine counts system clock cycles and raises its IRQ flag once
// per period, giving cycle-exact bit timing at any baud rate the system
// clock divides into (125MHz / 115200 = 1085 cycles, +0.003%).

import (
	"device/rp"
	"errors"
	"runtime/interrupt"

	"softuart/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Tick program:
//
//	    pull block          ; period-3 from the TX FIFO
//	    out y, 32
//	.wrap_target
//	    mov x, y
//	dly:
//	    jmp x--, dly
//	    irq nowait 0 rel    ; raises IRQ flag <sm>
//	.wrap
//
// One loop is X+3 cycles: mov, X+1 jumps, irq.
const (
	instrMovXY    = 0xA022 // mov x, y
	instrIRQRel0  = 0xC010 // irq nowait 0 rel
	loopOverhead  = 3
	tickerOrigin  = 0 // jmp targets below are absolute
	tickerWrapLen = 3

	irqInteSM0 = 8 // IRQ_INT[0].E bit of SM0's IRQ flag
)

var ErrPeriodTooShort = errors.New("PIO tick period shorter than loop overhead")

func buildTickerProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.Pull(false, true).Encode(),           // 0: pull block
		asm.Out(rp2pio.OutDestY, 32).Encode(),    // 1: out y, 32
		instrMovXY,                               // 2: mov x, y
		asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(), // 3: jmp x--, 3
		instrIRQRel0,                             // 4: irq nowait 0 rel
	}
}

// PIOTicker implements core.TickSource on one PIO state machine
type PIOTicker struct {
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	smNum   uint8
	offset  uint8
	period  uint32
	handler core.TickHandler
	running bool
}

// Only PIO0 IRQ0 is wired, so one ticker per firmware image
var pioTicker PIOTicker

// NewPIOTicker claims state machine smNum of PIO0 for the tick source
func NewPIOTicker(smNum uint8) *PIOTicker {
	pioTicker = PIOTicker{
		pio:   rp2pio.PIO0,
		sm:    rp2pio.PIO0.StateMachine(smNum),
		smNum: smNum,
	}
	return &pioTicker
}

// Configure loads the program, sets the period in system clock cycles and
// leaves the state machine disabled
func (p *PIOTicker) Configure(period uint32, handler core.TickHandler) error {
	if period <= loopOverhead {
		return ErrPeriodTooShort
	}
	p.Stop()
	p.period = period
	p.handler = handler

	p.sm.TryClaim()

	program := buildTickerProgram()
	offset, err := p.pio.AddProgram(program, tickerOrigin)
	if err != nil {
		return err
	}
	p.offset = offset

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-tickerWrapLen, offset+uint8(len(program))-1) // wrapTarget, wrap
	cfg.SetClkDivIntFrac(1, 0)
	p.sm.Init(offset, cfg)

	hw := p.pio.HW()
	hw.IRQ_INT[0].E.SetBits(1 << (irqInteSM0 + uint32(p.smNum)))

	intr := interrupt.New(rp.IRQ_PIO0_IRQ_0, pioIRQ)
	intr.SetPriority(0x00)
	intr.Enable()
	return nil
}

// Start restarts the program from the top and hands it the period, so the
// first IRQ comes one full period later
func (p *PIOTicker) Start() {
	if p.running {
		return
	}
	p.running = true
	p.sm.SetEnabled(false)
	p.sm.ClearFIFOs()
	p.sm.Restart()
	p.sm.ClkDivRestart()
	p.sm.Exec(rp2pio.AssemblerV0{}.Jmp(p.offset, rp2pio.JmpAlways).Encode())
	p.sm.TxPut(p.period - loopOverhead)
	p.sm.SetEnabled(true)
}

// Stop halts the state machine and drops a pending flag. Idempotent.
func (p *PIOTicker) Stop() {
	p.running = false
	p.sm.SetEnabled(false)
	if p.pio != nil {
		p.pio.HW().IRQ.Set(1 << uint32(p.smNum))
	}
}

// Running reports whether the state machine is counting
func (p *PIOTicker) Running() bool {
	return p.running
}

func pioIRQ(interrupt.Interrupt) {
	p := &pioTicker
	p.pio.HW().IRQ.Set(1 << uint32(p.smNum)) // write-one-to-clear
	core.SetTime(rp.TIMER.TIMERAWL.Get())
	if p.running && p.handler != nil {
		p.handler()
	}
}
