package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// ErrReadBytesNotSupported is returned by ReadBytes on a map provider.
var ErrReadBytesNotSupported = errors.New("confloader: map provider does not support ReadBytes")

// mapProvider feeds dotted-key overrides to koanf as a nested map.
type mapProvider map[string]any

func newMapProvider(overrides map[string]any) mapProvider {
	m := make(mapProvider, len(overrides))
	for key, value := range overrides {
		if value != nil {
			m[key] = value
		}
	}
	return m
}

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	return maps.Unflatten(m, "."), nil
}
