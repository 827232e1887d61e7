package guest

import (
	"context"
	"fmt"

	"github.com/sorcio/wotto/hostfuncs"
	"github.com/sorcio/wotto/utf8seq"
)

// Reverse reads up to hostfuncs.DefaultCapacity bytes of input, reverses
// them at UTF-8 sequence granularity and writes the result once.
//
// Input that fills the read buffer may have been cut short, so a sequence
// severed at the end is dropped before reversing. Malformed input aborts
// the invocation with a *utf8seq.SequenceError.
func Reverse(_ context.Context, abi ABI) error {
	var buf [hostfuncs.DefaultCapacity]byte
	declared := abi.Read(buf[:])

	data := buf[:min(declared, len(buf))]
	if declared >= len(buf) {
		data = data[:len(data)-utf8seq.IncompleteTail(data)]
	}

	if err := utf8seq.Reverse(data); err != nil {
		return fmt.Errorf("rev: %w", err)
	}
	abi.Write(data)
	return nil
}
