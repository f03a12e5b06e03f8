package assets

import "errors"

// ErrAssetsUnavailable is returned when neither a bundle nor a diagnostic was recorded
var ErrAssetsUnavailable = errors.New("policy assets unavailable")

// State is the startup outcome of asset loading. In degraded mode the server
// runs without a bundle and every generation request reports the missing list.
type State struct {
	bundle *Bundle
	err    *ConfigurationError
}

// Ready wraps a loaded bundle
func Ready(bundle *Bundle) *State {
	return &State{bundle: bundle}
}

// Degraded records a configuration failure
func Degraded(err *ConfigurationError) *State {
	return &State{err: err}
}

// Bundle returns the loaded bundle, or the configuration error that prevented loading
func (s *State) Bundle() (*Bundle, error) {
	if s == nil {
		return nil, ErrAssetsUnavailable
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.bundle == nil {
		return nil, ErrAssetsUnavailable
	}
	return s.bundle, nil
}

// Missing returns the missing asset paths, if any
func (s *State) Missing() []string {
	if s == nil || s.err == nil {
		return nil
	}
	return append([]string(nil), s.err.Missing...)
}
