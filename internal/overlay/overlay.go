// Package overlay shapes a finished adaptation result into the payload the
// browser overlay consumes. It is a rendering sink: no return channel, no
// presentation logic beyond the state flag.
package overlay

import "github.com/browseable/pageadapt/internal/adapt"

// Payload states.
const (
	StateAdapted  = "adapted"
	StateNoText   = "no_content"
	StateFallback = "fallback"
)

// NoContentMessage is shown when no simplified content is available.
const NoContentMessage = "no simplified content available"

// Payload is the wire shape delivered to the overlay renderer.
type Payload struct {
	State   string       `json:"state"`
	Message string       `json:"message,omitempty"`
	Result  adapt.Result `json:"result"`
}

// Build wraps a result for delivery. A result without element-text
// replacements renders an explicit no-content state; fallback marks a
// result produced without the model.
func Build(result adapt.Result, fallback bool) Payload {
	p := Payload{Result: result}
	switch {
	case fallback:
		p.State = StateFallback
		p.Message = NoContentMessage
	case len(result.ElementChanges) == 0:
		p.State = StateNoText
		p.Message = NoContentMessage
	default:
		p.State = StateAdapted
	}
	return p
}
