package warden

import "github.com/crimson-sun/warden/internal/config"

type options struct {
	cfg    config.Config
	cfgErr error
}

// Option configures a Warden instance.
type Option func(*options)

// WithModelPath points at a trained ONNX classifier. Without it, a
// deterministic rule-derived scorer is used.
func WithModelPath(path string) Option {
	return func(o *options) {
		o.cfg.Scorer = config.ScorerConfig{Kind: config.ScorerONNX, ModelPath: path}
	}
}

// WithConfigFile loads a full YAML configuration (schema, patterns, severity
// constants) over the defaults. Load errors surface from New.
func WithConfigFile(path string) Option {
	return func(o *options) {
		cfg, err := config.Load(path)
		if err != nil {
			o.cfgErr = err
			return
		}
		o.cfg = cfg
	}
}

// WithDecodeLimits overrides the decode iteration cap and per-field size cap.
func WithDecodeLimits(maxLayers, sizeCap int) Option {
	return func(o *options) {
		o.cfg.Decode.MaxLayers = maxLayers
		o.cfg.Decode.SizeCap = sizeCap
	}
}

func defaultOptions() options {
	return options{cfg: config.Default()}
}
