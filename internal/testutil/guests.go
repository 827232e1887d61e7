package testutil

import (
	"encoding/binary"

	"github.com/sorcio/wotto/internal/wasmgen"
)

// Function indices of the ABI imports in every module built here.
const (
	importInput  = 0
	importOutput = 1
)

// Type indices shared by the modules built here.
const (
	typeInput  = 0 // (i32, i32) -> i32
	typeOutput = 1 // (i32, i32) -> ()
	typeEntry  = 2 // () -> ()
	typeAbort  = 3 // (i32, i32, i32, i32) -> ()
	typeUnary  = 4 // (i32) -> ()
)

var types = []wasmgen.FuncType{
	typeInput:  {Params: []wasmgen.ValType{wasmgen.I32, wasmgen.I32}, Results: []wasmgen.ValType{wasmgen.I32}},
	typeOutput: {Params: []wasmgen.ValType{wasmgen.I32, wasmgen.I32}},
	typeEntry:  {},
	typeAbort:  {Params: []wasmgen.ValType{wasmgen.I32, wasmgen.I32, wasmgen.I32, wasmgen.I32}},
	typeUnary:  {Params: []wasmgen.ValType{wasmgen.I32}},
}

func abiImports(hostModule string) []wasmgen.Import {
	return []wasmgen.Import{
		{Module: hostModule, Name: "input", Type: typeInput},
		{Module: hostModule, Name: "output", Type: typeOutput},
	}
}

// readInput reads up to limit bytes to address 0 and leaves
// min(declared, limit) in local 0.
func readInput(c *wasmgen.Code, limit int32) *wasmgen.Code {
	return c.
		I32Const(0).I32Const(limit).Call(importInput).LocalSet(0).
		LocalGet(0).I32Const(limit).LocalGet(0).I32Const(limit).I32LtU().Select().LocalSet(0)
}

// GuestModule is a wasm guest using the exchange ABI. It exports one page
// of memory and these () -> () functions:
//
//	echo     copies up to limit input bytes to the output
//	twice    writes the input twice
//	silent   reads nothing and writes nothing
//	badptr   writes from an address far outside memory
//	unreach  executes unreachable
//
// and add(i32) -> () which has the wrong signature for an entry point.
func GuestModule(hostModule string, limit int32) []byte {
	echo := readInput(new(wasmgen.Code), limit).
		I32Const(0).LocalGet(0).Call(importOutput).
		Bytes()

	twice := readInput(new(wasmgen.Code), limit).
		I32Const(0).LocalGet(0).Call(importOutput).
		I32Const(0).LocalGet(0).Call(importOutput).
		Bytes()

	badptr := new(wasmgen.Code).
		I32Const(0x7fff0000).I32Const(16).Call(importOutput).
		Bytes()

	m := &wasmgen.Module{
		Types:   types,
		Imports: abiImports(hostModule),
		Funcs: []wasmgen.Func{
			{Type: typeEntry, Export: "echo", Locals: []wasmgen.ValType{wasmgen.I32}, Body: echo},
			{Type: typeEntry, Export: "twice", Locals: []wasmgen.ValType{wasmgen.I32}, Body: twice},
			{Type: typeEntry, Export: "silent"},
			{Type: typeEntry, Export: "badptr", Body: badptr},
			{Type: typeEntry, Export: "unreach", Body: new(wasmgen.Code).Unreachable().Bytes()},
			{Type: typeUnary, Export: "add"},
		},
		MemoryPages:  1,
		MemoryExport: "memory",
	}
	return m.Encode()
}

// ASStringPtr is where ASModule places its string object, "hi".
const ASStringPtr = 32

// ASModule is an AssemblyScript-style guest. It exports:
//
//	hello  calls print with the string "hi"
//	fail   calls env.abort("hi", "hi", 7, 3)
func ASModule(hostModule string) []byte {
	const (
		importPrint = 0
		importAbort = 1
	)

	hello := new(wasmgen.Code).I32Const(ASStringPtr).Call(importPrint).Bytes()
	fail := new(wasmgen.Code).
		I32Const(ASStringPtr).I32Const(ASStringPtr).I32Const(7).I32Const(3).Call(importAbort).
		Bytes()

	m := &wasmgen.Module{
		Types: types,
		Imports: []wasmgen.Import{
			{Module: hostModule, Name: "print", Type: typeUnary},
			{Module: "env", Name: "abort", Type: typeAbort},
		},
		Funcs: []wasmgen.Func{
			{Type: typeEntry, Export: "hello", Body: hello},
			{Type: typeEntry, Export: "fail", Body: fail},
		},
		Data:         []wasmgen.Data{{Offset: ASStringPtr - 20, Bytes: asString("hi")}},
		MemoryPages:  1,
		MemoryExport: "memory",
	}
	return m.Encode()
}

// asString returns an AssemblyScript object header followed by s encoded
// as UTF-16LE. s must be ASCII.
func asString(s string) []byte {
	obj := make([]byte, 20, 20+2*len(s))
	binary.LittleEndian.PutUint32(obj[12:], 2)
	binary.LittleEndian.PutUint32(obj[16:], uint32(2*len(s))) //nolint:gosec // G115: test strings are short
	for i := 0; i < len(s); i++ {
		obj = append(obj, s[i], 0)
	}
	return obj
}
