/*
Package format holds the error kinds and decoding policy shared by the
palette, subtile, tile and level decoders.
*/
package format

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFormat indicates a buffer length or structural mismatch against
	// the format contract.
	ErrFormat = errors.New("format error")
	// ErrIndex indicates a tile, subtile or column index outside the
	// declared bounds.
	ErrIndex = errors.New("index out of range")
	// ErrCorruptOffset indicates an offset that is neither empty nor points
	// at a complete block.
	ErrCorruptOffset = errors.New("corrupt offset")
)

// Policy controls how recoverable corruption is treated.
type Policy int

const (
	// Lenient normalises corrupt offsets to empty.
	Lenient Policy = iota
	// Strict fails on corrupt offsets.
	Strict
)

func (p Policy) String() string {
	switch p {
	case Lenient:
		return "lenient"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// BatchError collects the failures of independent items so one bad asset
// doesn't stop the rest of a batch.
type BatchError struct {
	Errs []error
}

// Add records err if it is non-nil.
func (b *BatchError) Add(err error) {
	if err != nil {
		b.Errs = append(b.Errs, err)
	}
}

// ErrOrNil returns b if any failures were recorded, otherwise nil.
func (b *BatchError) ErrOrNil() error {
	if b == nil || len(b.Errs) == 0 {
		return nil
	}
	return b
}

func (b *BatchError) Error() string {
	switch len(b.Errs) {
	case 0:
		return "no errors"
	case 1:
		return b.Errs[0].Error()
	}
	msgs := make([]string, 0, len(b.Errs))
	for _, err := range b.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d errors: %s", len(b.Errs), strings.Join(msgs, "; "))
}

// Is reports whether any recorded failure matches target.
func (b *BatchError) Is(target error) bool {
	for _, err := range b.Errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
