package ir

import (
	"encoding/json"
	"fmt"
)

// Command names a chat command that compiles into a Request.
type Command string

const (
	CmdCreate Command = "create"
	CmdGet    Command = "get"
	CmdUpdate Command = "update"
	CmdDelete Command = "delete"
)

// ValidCommands lists the commands that produce event store requests.
var ValidCommands = map[Command]bool{
	CmdCreate: true,
	CmdGet:    true,
	CmdUpdate: true,
	CmdDelete: true,
}

// IsCreate reports whether the command uses create-shaped options.
func (c Command) IsCreate() bool {
	return c == CmdCreate
}

// Request is the compiled form of one command text.
//
// Create requests carry Event; the other commands carry Target, which already
// has any explicit filter merged in. Filter records the captured filter on its
// own so clients can log or display it.
type Request struct {
	Command Command `json:"command"`
	Event   Map     `json:"event,omitempty"`
	Target  Map     `json:"target,omitempty"`
	Updates Map     `json:"updates,omitempty"`
	Filter  Map     `json:"filter,omitempty"`
	Options Options `json:"options"`
}

// requestWire mirrors Request with raw options so UnmarshalJSON can pick the
// options shape from the command.
type requestWire struct {
	Command Command         `json:"command"`
	Event   Map             `json:"event,omitempty"`
	Target  Map             `json:"target,omitempty"`
	Updates Map             `json:"updates,omitempty"`
	Filter  Map             `json:"filter,omitempty"`
	Options json.RawMessage `json:"options"`
}

// UnmarshalJSON decodes options as CreateOptions for create requests and
// QueryOptions otherwise.
func (r *Request) UnmarshalJSON(data []byte) error {
	var w requestWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !ValidCommands[w.Command] {
		return fmt.Errorf("unknown command %q", w.Command)
	}

	*r = Request{
		Command: w.Command,
		Event:   w.Event,
		Target:  w.Target,
		Updates: w.Updates,
		Filter:  w.Filter,
	}

	if len(w.Options) == 0 || string(w.Options) == "null" {
		return nil
	}
	if w.Command.IsCreate() {
		var opts CreateOptions
		if err := json.Unmarshal(w.Options, &opts); err != nil {
			return fmt.Errorf("options: %w", err)
		}
		r.Options = opts
		return nil
	}
	var opts QueryOptions
	if err := json.Unmarshal(w.Options, &opts); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	r.Options = opts
	return nil
}

// Selection returns the map that selects events: Event for create,
// Target for everything else.
func (r *Request) Selection() Map {
	if r.Command.IsCreate() {
		return r.Event
	}
	return r.Target
}
