// Package uinput injects decoded touch events into the host input
// subsystem as a virtual evdev device.
package uinput

import (
	"fmt"

	"github.com/holoplot/go-evdev"

	"github.com/Rettrjo/gtx8/internal/pkg/board"
	"github.com/Rettrjo/gtx8/internal/pkg/proto"
)

type Device struct {
	dev  *evdev.InputDevice
	swap bool

	touchDown bool
	penDown   bool
}

func New(name string, cfg board.BoardConfig) (*Device, error) {
	keys := []evdev.EvCode{
		evdev.BTN_TOUCH,
		evdev.BTN_TOOL_PEN,
		evdev.BTN_TOOL_RUBBER,
		evdev.BTN_STYLUS,
		evdev.BTN_STYLUS2,
	}
	for _, code := range cfg.KeyMap {
		keys = append(keys, evdev.EvCode(code))
	}

	capabilities := map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: keys,
		evdev.EV_ABS: {
			evdev.ABS_X,
			evdev.ABS_Y,
			evdev.ABS_PRESSURE,
			evdev.ABS_TILT_X,
			evdev.ABS_TILT_Y,
		},
	}

	dev, err := evdev.CreateDevice(name, evdev.InputID{BusType: 0x18 /* BUS_I2C */}, capabilities)
	if err != nil {
		return nil, fmt.Errorf("cannot create uinput device: %w", err)
	}
	return &Device{dev: dev, swap: cfg.SwapAxis}, nil
}

func (d *Device) Close() error {
	return d.dev.Close()
}

func (d *Device) emit(t evdev.EvType, code evdev.EvCode, value int32) {
	// a full uinput queue is not actionable here, drop and move on
	_ = d.dev.WriteOne(&evdev.InputEvent{Type: t, Code: code, Value: value})
}

func (d *Device) emitKey(code evdev.EvCode, down bool) {
	if down {
		d.emit(evdev.EV_KEY, code, 1)
	} else {
		d.emit(evdev.EV_KEY, code, 0)
	}
}

func (d *Device) Dispatch(ev proto.TouchEvent) {
	if ev.Type.Has(proto.EventTouch) {
		d.dispatchTouch(ev)
	}
	if ev.Type.Has(proto.EventPen) {
		d.dispatchPen(ev.Pen)
	}
	d.emit(evdev.EV_SYN, evdev.SYN_REPORT, 0)
}

func (d *Device) dispatchTouch(ev proto.TouchEvent) {
	var active *proto.Point
	for i := 0; i < ev.TouchNum; i++ {
		if ev.Points[i].Status == proto.PointTouch {
			active = &ev.Points[i]
			break
		}
	}

	if active != nil {
		x, y := int32(active.X), int32(active.Y)
		if d.swap {
			x, y = y, x
		}
		d.emit(evdev.EV_ABS, evdev.ABS_X, x)
		d.emit(evdev.EV_ABS, evdev.ABS_Y, y)
		d.emit(evdev.EV_ABS, evdev.ABS_PRESSURE, int32(active.P))
		if !d.touchDown {
			d.emitKey(evdev.BTN_TOUCH, true)
			d.touchDown = true
		}
	} else if d.touchDown {
		d.emitKey(evdev.BTN_TOUCH, false)
		d.emit(evdev.EV_ABS, evdev.ABS_PRESSURE, 0)
		d.touchDown = false
	}

	for _, key := range ev.Keys {
		if key.Code == 0 {
			continue
		}
		d.emitKey(evdev.EvCode(key.Code), key.Status == proto.PointTouch)
	}
}

func (d *Device) dispatchPen(pen proto.Pen) {
	var tool evdev.EvCode = evdev.BTN_TOOL_PEN
	if pen.Tool == proto.ToolRubber {
		tool = evdev.BTN_TOOL_RUBBER
	}

	switch pen.Status {
	case proto.PointTouch:
		x, y := int32(pen.X), int32(pen.Y)
		if d.swap {
			x, y = y, x
		}
		d.emit(evdev.EV_ABS, evdev.ABS_X, x)
		d.emit(evdev.EV_ABS, evdev.ABS_Y, y)
		d.emit(evdev.EV_ABS, evdev.ABS_PRESSURE, int32(pen.P))
		d.emit(evdev.EV_ABS, evdev.ABS_TILT_X, int32(pen.TiltX))
		d.emit(evdev.EV_ABS, evdev.ABS_TILT_Y, int32(pen.TiltY))
		if !d.penDown {
			d.emitKey(tool, true)
			d.penDown = true
		}
	default:
		if d.penDown {
			d.emitKey(tool, false)
			d.emit(evdev.EV_ABS, evdev.ABS_PRESSURE, 0)
			d.penDown = false
		}
	}

	d.emitKey(evdev.BTN_STYLUS, pen.Keys[0].Status == proto.PointTouch)
	d.emitKey(evdev.BTN_STYLUS2, pen.Keys[1].Status == proto.PointTouch)
}
