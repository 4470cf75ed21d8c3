package gbi

import "errors"

// ErrStop may be returned from a WalkFunc to end a walk early without
// reporting an error.
var ErrStop = errors.New("stop walking")

// WalkFunc is called for every command in a display list.
type WalkFunc func(offset uint32, cmd Command) error

// Walk calls fn for each command starting at entry, up to and including the
// first gsSPEndDisplayList.
func Walk(buf []byte, entry uint32, fn WalkFunc) error {
	for offset := entry; ; offset += CommandSize {
		cmd, err := Read(buf, offset)
		if err != nil {
			return err
		}

		err = fn(offset, cmd)
		if errors.Is(err, ErrStop) {
			return nil
		}
		if err != nil {
			return err
		}

		if cmd.Op() == OpEndDisplayList {
			return nil
		}
	}
}
