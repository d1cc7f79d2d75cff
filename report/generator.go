// Package report turns resolved key presses into HID keyboard and mouse
// reports, applying layer selection, sticky modifiers and mouse acceleration.
package report

import (
	"context"
	"time"

	"github.com/quillmk/quill/hid"
	"github.com/quillmk/quill/keycode"
	"github.com/quillmk/quill/keymap"
	"github.com/quillmk/quill/keystate"
)

// stickMode is the sticky-modifier latch state.
type stickMode uint8

const (
	stickNone stickMode = iota
	// stickPressed: a combined key resolved alongside a letter; the latch is
	// disarmed until everything is released.
	stickPressed
	// stickLatched: a combined key's modifier was pressed alone and released;
	// it is applied to the next letter press.
	stickLatched
)

// Generator builds HID reports from one scan tick's resolved keys. A report
// pointer is returned only when the state changed since the last one sent, so
// callers transmit exactly the reports a host needs to see.
type Generator struct {
	keyReport   hid.KeyboardReport
	mouseReport hid.MouseReport
	mouseDelta  *mouseDelta
	scrollDelta *mouseDelta

	currentLayer int
	resetLayer   int

	stick    stickMode
	stickMod uint8

	sensors keystate.Sensors
	now     func() time.Time

	scratch []keycode.ReportCode
}

// NewGenerator returns a Generator reading switch samples from sensors.
func NewGenerator(sensors keystate.Sensors) *Generator {
	return newGenerator(sensors, time.Now)
}

func newGenerator(sensors keystate.Sensors, now func() time.Time) *Generator {
	return &Generator{
		mouseDelta:  newMouseDelta(now),
		scrollDelta: newMouseDelta(now),
		sensors:     sensors,
		now:         now,
	}
}

// CurrentLayer returns the layer the next tick will resolve on.
func (g *Generator) CurrentLayer() int { return g.currentLayer }

// Generate runs one scan tick: refresh switch positions, resolve pressed keys
// on the current layer, fold the report codes into keyboard and mouse state.
// The returned pointers are nil when the respective report is unchanged and
// need not be sent; they alias Generator state and are valid until the next
// call.
func (g *Generator) Generate(ctx context.Context, keys *keymap.Keys) (*hid.KeyboardReport, *hid.MouseReport, error) {
	if err := keys.UpdatePositions(ctx, g.sensors); err != nil {
		return nil, nil, err
	}

	g.scratch = g.scratch[:0]
	keys.GetKeys(g.currentLayer, &g.scratch)

	var newKey hid.KeyboardReport
	var newMouse hid.MouseReport
	newLayer := -1
	var pressed, stick, toggle bool

	for _, code := range g.scratch {
		switch code.Kind {
		case keycode.KindModifier:
			newKey.Modifiers |= 1 << (code.Code % 8)
		case keycode.KindLetter:
			newKey.SetKey(code.Code)
			pressed = true
		case keycode.KindMouseButton:
			newMouse.Buttons |= 1 << (code.Code % 8)
		case keycode.KindMouseX:
			if g.mouseDelta.check() {
				newMouse.DX += code.Delta
			}
		case keycode.KindMouseY:
			if g.mouseDelta.check() {
				newMouse.DY += code.Delta
			}
		case keycode.KindMouseScroll:
			if g.scrollDelta.check() {
				newMouse.Wheel += code.Delta
			}
		case keycode.KindLayerToggle:
			newLayer = int(code.Code)
			toggle = true
		case keycode.KindLayer:
			if newLayer < 0 {
				newLayer = int(code.Code)
			}
		case keycode.KindSticky:
			stick = true
		}
	}

	g.mouseDelta.reset()
	g.scrollDelta.reset()

	g.updateStick(stick, pressed, &newKey)

	if newLayer >= 0 {
		if toggle {
			g.resetLayer = newLayer
		}
		g.currentLayer = newLayer
	} else {
		g.currentLayer = g.resetLayer
	}

	var keyOut *hid.KeyboardReport
	var mouseOut *hid.MouseReport
	if g.keyReport != newKey {
		g.keyReport = newKey
		keyOut = &g.keyReport
	}
	if g.mouseReport.Buttons != newMouse.Buttons ||
		newMouse.DX != 0 || newMouse.DY != 0 || newMouse.Wheel != 0 {
		g.mouseReport = newMouse
		mouseOut = &g.mouseReport
	}
	return keyOut, mouseOut, nil
}

// updateStick advances the sticky-modifier latch. While a combined key is
// down with a letter the latch is held disarmed; a combined modifier pressed
// alone latches its modifier bits and replays them on the next plain letter
// press.
func (g *Generator) updateStick(stick, pressed bool, newKey *hid.KeyboardReport) {
	if stick {
		if pressed {
			g.stick = stickPressed
			return
		}
		switch g.stick {
		case stickLatched, stickNone:
			if newKey.Modifiers != 0 {
				g.stick = stickLatched
				g.stickMod = newKey.Modifiers
			}
		case stickPressed:
		}
		return
	}
	switch g.stick {
	case stickLatched:
		if pressed {
			newKey.Modifiers = g.stickMod
			g.stick = stickNone
		}
	case stickPressed:
		g.stick = stickNone
	case stickNone:
	}
}
