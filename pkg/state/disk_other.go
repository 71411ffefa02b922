//go:build !(linux || darwin)

package state

func FreeBytes(path string) (uint64, error) {
	return 0, ErrFreeBytesUnsupported
}
