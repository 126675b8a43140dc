package actuator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayusman/mudra/internal/plugin"
)

// Plugin actions understood by the plugin backend.
const (
	ActionVolumeSet     = "volume-set"
	ActionBrightnessSet = "brightness-set"
)

// LevelParams is the params payload of a level request.
type LevelParams struct {
	Percent int `json:"percent"`
}

// PluginController forwards levels to an external plugin.
type PluginController struct {
	executor *plugin.Executor
	plugin   *plugin.Plugin
}

// NewPlugin looks up name in mgr and checks it declares both level actions.
func NewPlugin(mgr *plugin.Manager, executor *plugin.Executor, name string) (*PluginController, error) {
	p, err := mgr.Require(name, ActionVolumeSet, ActionBrightnessSet)
	if err != nil {
		return nil, err
	}
	return &PluginController{executor: executor, plugin: p}, nil
}

func (c *PluginController) SetVolumePercent(ctx context.Context, percent int) error {
	return c.send(ctx, ActionVolumeSet, percent)
}

func (c *PluginController) SetBrightnessPercent(ctx context.Context, percent int) error {
	return c.send(ctx, ActionBrightnessSet, percent)
}

func (c *PluginController) send(ctx context.Context, action string, percent int) error {
	params, err := json.Marshal(LevelParams{Percent: Clamp(percent)})
	if err != nil {
		return err
	}

	resp, err := c.executor.Execute(ctx, c.plugin, &plugin.Request{
		Action: action,
		Source: "pinch",
		Params: params,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}
