package wazero

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero/api"
	"golang.org/x/text/encoding/unicode"
)

// AssemblyScript managed objects are preceded by a 20 byte header:
// mmInfo, gcInfo, gcInfo2, rtId, rtSize. Strings have rtId 2 and hold
// UTF-16LE code units.
const (
	asHeaderSize    = 20
	asClassIDString = 2
)

// ReadASString decodes the AssemblyScript string object at ptr.
// Unpaired surrogates decode as U+FFFD.
func ReadASString(mem api.Memory, ptr uint32) (string, error) {
	if mem == nil {
		return "", fmt.Errorf("no guest memory")
	}
	if ptr < asHeaderSize {
		return "", fmt.Errorf("invalid string pointer %d", ptr)
	}
	if ptr%4 != 0 {
		return "", fmt.Errorf("misaligned string pointer %d", ptr)
	}
	rtID, ok := mem.ReadUint32Le(ptr - 8)
	if !ok {
		return "", fmt.Errorf("invalid string pointer %d", ptr)
	}
	if rtID != asClassIDString {
		return "", fmt.Errorf("object at %d has class id %d, not a string", ptr, rtID)
	}
	size, ok := mem.ReadUint32Le(ptr - 4)
	if !ok {
		return "", fmt.Errorf("invalid string pointer %d", ptr)
	}
	payload, ok := mem.Read(ptr, size)
	if !ok {
		return "", fmt.Errorf("string at %d with %d bytes outside guest memory", ptr, size)
	}

	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(payload)
	if err != nil {
		return "", fmt.Errorf("decode string at %d: %w", ptr, err)
	}
	return string(decoded), nil
}

// asPrint implements print(ptr) for AssemblyScript guests.
func asPrint(ctx context.Context, mod api.Module, stack []uint64, logger *slog.Logger) {
	ptr := api.DecodeU32(stack[0])
	text, err := ReadASString(mod.Memory(), ptr)
	if err != nil {
		panic(&MemoryAccessError{Func: "print", Ptr: ptr, Memory: memSize(mod)})
	}
	logger.InfoContext(ctx, "guest print", "module", GetModuleName(ctx, mod), "text", text)
}

// asAbort implements env.abort(message, file, line, column). It always
// traps the invocation.
func asAbort(_ context.Context, mod api.Module, stack []uint64) {
	mem := mod.Memory()
	message, err := ReadASString(mem, api.DecodeU32(stack[0]))
	if err != nil {
		message = "<" + err.Error() + ">"
	}
	file, err := ReadASString(mem, api.DecodeU32(stack[1]))
	if err != nil {
		file = "<unknown>"
	}
	panic(&AbortError{
		Message: message,
		File:    file,
		Line:    api.DecodeU32(stack[2]),
		Column:  api.DecodeU32(stack[3]),
	})
}

func memSize(mod api.Module) uint32 {
	if mem := mod.Memory(); mem != nil {
		return mem.Size()
	}
	return 0
}
