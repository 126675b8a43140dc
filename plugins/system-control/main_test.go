package main

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeController struct {
	volume, brightness int
	err                error
}

func (f *fakeController) SetVolumePercent(ctx context.Context, p int) error {
	f.volume = p
	return f.err
}

func (f *fakeController) SetBrightnessPercent(ctx context.Context, p int) error {
	f.brightness = p
	return f.err
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		failWith    error
		wantSuccess bool
		wantErr     string
		check       func(t *testing.T, f *fakeController)
	}{
		{
			name:        "volume",
			input:       `{"action":"volume-set","params":{"percent":35}}`,
			wantSuccess: true,
			check: func(t *testing.T, f *fakeController) {
				if f.volume != 35 {
					t.Errorf("volume = %d, want 35", f.volume)
				}
			},
		},
		{
			name:        "brightness",
			input:       `{"action":"brightness-set","params":{"percent":80}}`,
			wantSuccess: true,
			check: func(t *testing.T, f *fakeController) {
				if f.brightness != 80 {
					t.Errorf("brightness = %d, want 80", f.brightness)
				}
			},
		},
		{name: "unknown action", input: `{"action":"volume-up"}`, wantErr: "unknown action"},
		{name: "bad request", input: `not json`, wantErr: "failed to decode"},
		{name: "missing params", input: `{"action":"volume-set"}`, wantErr: "invalid params"},
		{
			name:     "controller failure",
			input:    `{"action":"volume-set","params":{"percent":10}}`,
			failWith: errors.New("pactl: not found"),
			wantErr:  "pactl: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeController{err: tt.failWith}
			resp := handle(context.Background(), strings.NewReader(tt.input), f)

			if resp.Success != tt.wantSuccess {
				t.Fatalf("Success = %v, want %v (error %q)", resp.Success, tt.wantSuccess, resp.Error)
			}
			if tt.wantErr != "" && !strings.Contains(resp.Error, tt.wantErr) {
				t.Errorf("Error = %q, want it to contain %q", resp.Error, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, f)
			}
		})
	}
}
