// Package home controls devices on the Monolith hub.
package home

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"

	"voxrouter/internal/tools"
	"voxrouter/pkg/protocol"
)

type Transceiver interface {
	TransmitReceive(ctx context.Context, v any) (*protocol.Message, error)
}

// Device is the hub address of something that can be switched.
type Device struct {
	Target string
	Noun   string
}

// Devices maps spoken device names to hub addresses.
var Devices = map[string]Device{
	"lamp":   {Target: "VERTEX", Noun: "LAMP"},
	"light":  {Target: "VERTEX", Noun: "LAMP"},
	"lights": {Target: "VERTEX", Noun: "LAMP"},
}

var verbs = map[string]string{
	"on":  "ON",
	"off": "OFF",
}

type Controller struct {
	hub     Transceiver
	devices map[string]Device
}

func New(hub Transceiver) *Controller {
	return &Controller{hub: hub, devices: Devices}
}

func (c *Controller) Tools() []tools.Tool {
	return []tools.Tool{
		tools.New("control_device", "Switch a smart home device on or off",
			tools.Object(map[string]tools.Property{
				"device": {Type: "string"},
				"state":  {Type: "string", Enum: []string{"on", "off"}},
			}, "device", "state"),
			c.control),
	}
}

// lookup resolves "the living room lights" to the device named by its last word.
func (c *Controller) lookup(name string) (Device, bool) {
	words := strings.Fields(strings.ToLower(name))
	for i := len(words) - 1; i >= 0; i-- {
		if d, ok := c.devices[words[i]]; ok {
			return d, true
		}
	}
	return Device{}, false
}

func (c *Controller) control(ctx context.Context, params map[string]any) (tools.Result, error) {
	name := tools.ParamString(params, "device")
	state := strings.ToLower(tools.ParamString(params, "state"))

	dev, ok := c.lookup(name)
	if !ok {
		return tools.Result{"success": false, "error": "Unknown device", "message": fmt.Sprintf("I don't know a device called %s.", orThat(name))}, nil
	}
	verb, ok := verbs[state]
	if !ok {
		return tools.Result{"success": false, "error": "Unknown state", "message": fmt.Sprintf("I can only turn the %s on or off.", name)}, nil
	}

	reply, err := c.hub.TransmitReceive(ctx, []string{dev.Target, verb, dev.Noun})
	if err != nil {
		return nil, err
	}

	log.Info("Hub replied", "msg", reply.String())
	if !reply.IsOk() {
		return tools.Result{
			"success": false,
			"error":   reply.Noun,
			"message": fmt.Sprintf("The %s reported %s.", name, strings.ToLower(reply.Noun)),
		}, nil
	}

	return tools.Result{
		"success": true,
		"device":  name,
		"state":   state,
		"message": fmt.Sprintf("The %s is now %s.", name, state),
	}, nil
}

func orThat(s string) string {
	if s == "" {
		return "that"
	}
	return s
}
