// Package faultinject holds entry points that fail on purpose. They check
// that the host contains a guest fault to the invocation that raised it.
//
// Nothing here is registered by default. Hosts opt in explicitly, see
// entities.Config.AllowFaultInjection.
package faultinject

import (
	"context"

	"github.com/sorcio/wotto/guest"
	"github.com/sorcio/wotto/internal/wasmgen"
)

// ModuleName is the canonical name of the wasm fault-injection module.
const ModuleName = "faultinject"

// maxAddress bounds the illegal read loop in both variants.
const maxAddress = 0x10000000

// Crash reads past the end of a host buffer in a bounded loop. The first
// out-of-range read panics; TrapRecoveryMiddleware turns that into a trap.
func Crash(_ context.Context, abi guest.ABI) error {
	scratch := make([]byte, 16)
	var acc byte
	for i := 0; i < maxAddress; i++ {
		acc += scratch[i]
	}
	abi.Write([]byte{acc})
	return nil
}

// Spin blocks until the invocation context is done.
func Spin(ctx context.Context, _ guest.ABI) error {
	<-ctx.Done()
	return ctx.Err()
}

// Bundle returns the native fault-injection entry points: crash and spin.
func Bundle() guest.Bundle {
	return guest.StaticBundle{
		"crash": Crash,
		"spin":  Spin,
	}
}

// Module returns a wasm module with one page of memory and two exports:
// crash, which loads every byte from address 0 up to 0x10000000 and traps
// when it leaves linear memory, and spin, which never returns.
func Module() []byte {
	const (
		ptr = 0
		acc = 1
	)
	crash := new(wasmgen.Code).
		Loop().
		LocalGet(ptr).I32Load8U(0).
		LocalGet(acc).I32Add().LocalSet(acc).
		LocalGet(ptr).I32Const(1).I32Add().LocalTee(ptr).
		I32Const(maxAddress).I32LtU().BrIf(0).
		End().
		LocalGet(acc).Drop().
		Bytes()

	spin := new(wasmgen.Code).
		Loop().Br(0).End().
		Bytes()

	m := &wasmgen.Module{
		Types: []wasmgen.FuncType{{}},
		Funcs: []wasmgen.Func{
			{Type: 0, Export: "crash", Locals: []wasmgen.ValType{wasmgen.I32, wasmgen.I32}, Body: crash},
			{Type: 0, Export: "spin", Body: spin},
		},
		MemoryPages:  1,
		MemoryExport: "memory",
	}
	return m.Encode()
}
