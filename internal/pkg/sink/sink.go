// Package sink defines where decoded touch events go. The core calls
// Dispatch once per decoded frame and does not care what is on the other
// side: a uinput device, a channel, a test recorder.
package sink

import "github.com/Rettrjo/gtx8/internal/pkg/proto"

type Sink interface {
	Dispatch(ev proto.TouchEvent)
}

// Chan adapts a plain channel into a Sink.
type Chan chan<- proto.TouchEvent

func (c Chan) Dispatch(ev proto.TouchEvent) {
	c <- ev
}
