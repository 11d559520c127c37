//go:build !linux

package guest

func allocate(size int) ([]byte, func([]byte) error, error) {
	return make([]byte, size), nil, nil
}
