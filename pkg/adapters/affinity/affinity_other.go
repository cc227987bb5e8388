//go:build !linux

package affinity

import "errors"

const supported = false

// ErrUnsupported is returned by Pin on platforms without thread affinity.
var ErrUnsupported = errors.New("affinity: thread pinning is not supported on this platform")

// Pin always fails outside Linux; stages log it and keep running unpinned.
func Pin(core int) error {
	return ErrUnsupported
}

func allowedCores() []int {
	return nil
}
