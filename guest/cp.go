package guest

import (
	"context"
	"errors"
	"strconv"

	"github.com/sorcio/wotto/hostfuncs"
	"github.com/sorcio/wotto/utf8seq"
)

var separator = []byte{' '}

// Codepoints writes the decimal value of every codepoint in the input,
// separated by single spaces. Each number and each separator is its own
// write, so a full output buffer drops the tail without failing.
//
// A continuation byte in lead position decodes as U+FFFD and skips one
// byte. A sequence cut short by the end of input decodes as U+FFFD and ends
// the scan. Empty input writes nothing.
func Codepoints(_ context.Context, abi ABI) error {
	var buf [hostfuncs.DefaultCapacity]byte
	n := min(abi.Read(buf[:]), len(buf))

	cur := utf8seq.NewCursor(buf[:n])
	var num [10]byte
	for !cur.Done() {
		cp, err := cur.Next()
		if err != nil {
			cp = utf8seq.ReplacementCodepoint
			if errors.Is(err, utf8seq.ErrTruncatedSequence) {
				cur.Skip(n - cur.Pos())
			} else {
				cur.Skip(1)
			}
		}
		abi.Write(strconv.AppendUint(num[:0], uint64(cp), 10))
		if !cur.Done() {
			abi.Write(separator)
		}
	}
	return nil
}
