package tts

import (
	"errors"
	"fmt"
	"slices"
)

// Synthesis defaults.
const (
	DefaultExaggeration = 0.5
	DefaultCFGWeight    = 0.5
	DefaultSpeed        = 1.0
	DefaultDevice       = "cpu"
)

// Parameter limits.
const (
	MinExaggeration = 0.0
	MaxExaggeration = 2.0
	MinCFGWeight    = 0.0
	MaxCFGWeight    = 2.0
	MinSpeed        = 0.5
	MaxSpeed        = 2.0
)

const (
	errFmtExaggerationRange = "%w: exaggeration must be between %.1f and %.1f, got %.2f"
	errFmtCFGWeightRange    = "%w: cfg weight must be between %.1f and %.1f, got %.2f"
	errFmtSpeedRange        = "%w: speed must be between %.1f and %.1f, got %.2f"
	errFmtUnknownDevice     = "%w: device must be one of %v, got %q"
)

// ErrInvalidOptions is wrapped by every Options validation failure.
var ErrInvalidOptions = errors.New("invalid synthesis options")

// Devices lists the compute devices the service accepts.
var Devices = []string{"cpu", "cuda", "mps"}

// Options are the per-request synthesis settings.
type Options struct {
	Exaggeration float64
	CFGWeight    float64
	Speed        float64
	Device       string
	PromptPath   string
}

// DefaultOptions returns the default synthesis settings.
func DefaultOptions() Options {
	return Options{
		Exaggeration: DefaultExaggeration,
		CFGWeight:    DefaultCFGWeight,
		Speed:        DefaultSpeed,
		Device:       DefaultDevice,
	}
}

// Validate checks every setting against its allowed range.
func (o Options) Validate() error {
	if o.Exaggeration < MinExaggeration || o.Exaggeration > MaxExaggeration {
		return fmt.Errorf(errFmtExaggerationRange, ErrInvalidOptions, MinExaggeration, MaxExaggeration, o.Exaggeration)
	}

	if o.CFGWeight < MinCFGWeight || o.CFGWeight > MaxCFGWeight {
		return fmt.Errorf(errFmtCFGWeightRange, ErrInvalidOptions, MinCFGWeight, MaxCFGWeight, o.CFGWeight)
	}

	if o.Speed < MinSpeed || o.Speed > MaxSpeed {
		return fmt.Errorf(errFmtSpeedRange, ErrInvalidOptions, MinSpeed, MaxSpeed, o.Speed)
	}

	if !slices.Contains(Devices, o.Device) {
		return fmt.Errorf(errFmtUnknownDevice, ErrInvalidOptions, Devices, o.Device)
	}

	return nil
}

func (o Options) request(text string) SpeechRequest {
	return SpeechRequest{
		Text:            text,
		AudioPromptPath: o.PromptPath,
		Exaggeration:    o.Exaggeration,
		CFGWeight:       o.CFGWeight,
		Speed:           o.Speed,
		Device:          o.Device,
	}
}
