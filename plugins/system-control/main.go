// Package main provides the system-control plugin.
// It sets output volume and display brightness using the host's native tools.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/plugin"
)

// actionHandler applies one level request.
type actionHandler func(ctx context.Context, c actuator.Controller, percent int) error

// actionHandlers maps action names to their handler functions.
var actionHandlers = map[string]actionHandler{
	actuator.ActionVolumeSet: func(ctx context.Context, c actuator.Controller, p int) error {
		return c.SetVolumePercent(ctx, p)
	},
	actuator.ActionBrightnessSet: func(ctx context.Context, c actuator.Controller, p int) error {
		return c.SetBrightnessPercent(ctx, p)
	},
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	writeResponse(handle(ctx, os.Stdin, actuator.NewNative(nil)))
}

// handle decodes one request from r and applies it to c.
func handle(ctx context.Context, r io.Reader, c actuator.Controller) plugin.Response {
	var req plugin.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return errorResponse(fmt.Sprintf("failed to decode request: %v", err))
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		return errorResponse(fmt.Sprintf("unknown action: %s", req.Action))
	}

	var params actuator.LevelParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(fmt.Sprintf("invalid params: %v", err))
	}

	if err := handler(ctx, c, params.Percent); err != nil {
		return errorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
	}

	return plugin.Response{Success: true}
}

func errorResponse(msg string) plugin.Response {
	return plugin.Response{Success: false, Error: msg}
}

// writeResponse writes the response to stdout.
func writeResponse(resp plugin.Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
