package sharpmem

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// errorHandler is a wrapper for error management. Once a step fails the
// following ones are skipped, except for releasing chip select.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) msb(b byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.bus.WriteMSBFirst(b)
}

func (eh *errorHandler) lsb(b byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.bus.WriteLSBFirst(b)
}

// selectChip raises SCS and waits tsSCS before the first clock.
func (eh *errorHandler) selectChip() {
	if eh.err != nil {
		return
	}
	if err := eh.d.scs.Out(gpio.High); err != nil {
		eh.err = fmt.Errorf("sharpmem: failed to pull SCS high: %w", err)
		return
	}
	eh.d.delay(tsSCS)
}

// deselectChip waits thSCS, drops SCS and holds it low for twSCSL.
func (eh *errorHandler) deselectChip() {
	eh.d.delay(thSCS)
	if err := eh.d.scs.Out(gpio.Low); err != nil && eh.err == nil {
		eh.err = fmt.Errorf("sharpmem: failed to pull SCS low: %w", err)
	}
	eh.d.delay(twSCSL)
}
