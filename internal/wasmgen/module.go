package wasmgen

import "encoding/binary"

// Binary format constants.
const (
	Magic   uint32 = 0x6d736100 // "\0asm"
	Version uint32 = 1

	sectionType     byte = 1
	sectionImport   byte = 2
	sectionFunction byte = 3
	sectionMemory   byte = 5
	sectionExport   byte = 7
	sectionCode     byte = 10
	sectionData     byte = 11

	funcTypeByte byte = 0x60

	kindFunc   byte = 0x00
	kindMemory byte = 0x02
)

// ValType is a value type.
type ValType byte

// Value types.
const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
)

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Import is a function import.
type Import struct {
	Module string
	Name   string
	Type   uint32
}

// Func is a function defined by the module. Body must not include the
// final end opcode; Encode appends it.
type Func struct {
	Type   uint32
	Locals []ValType
	Body   []byte
	Export string
}

// Data is an active data segment for memory 0.
type Data struct {
	Offset int32
	Bytes  []byte
}

// Module describes a module to encode.
type Module struct {
	Types   []FuncType
	Imports []Import
	Funcs   []Func
	Data    []Data

	// MemoryPages is the initial size of memory 0. Zero means no memory.
	MemoryPages uint32

	// MemoryExport exports memory 0 under this name when non-empty.
	MemoryExport string
}

// FuncIndex returns the function index of m.Funcs[i], which comes after
// every imported function.
func (m *Module) FuncIndex(i int) uint32 {
	return uint32(len(m.Imports) + i)
}

// Encode encodes the module to WebAssembly binary format.
func (m *Module) Encode() []byte {
	out := binary.LittleEndian.AppendUint32(nil, Magic)
	out = binary.LittleEndian.AppendUint32(out, Version)

	if len(m.Types) > 0 {
		sec := AppendU32(nil, uint32(len(m.Types)))
		for _, ft := range m.Types {
			sec = append(sec, funcTypeByte)
			sec = appendValTypes(sec, ft.Params)
			sec = appendValTypes(sec, ft.Results)
		}
		out = appendSection(out, sectionType, sec)
	}

	if len(m.Imports) > 0 {
		sec := AppendU32(nil, uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			sec = AppendName(sec, imp.Module)
			sec = AppendName(sec, imp.Name)
			sec = append(sec, kindFunc)
			sec = AppendU32(sec, imp.Type)
		}
		out = appendSection(out, sectionImport, sec)
	}

	if len(m.Funcs) > 0 {
		sec := AppendU32(nil, uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			sec = AppendU32(sec, f.Type)
		}
		out = appendSection(out, sectionFunction, sec)
	}

	if m.MemoryPages > 0 {
		sec := AppendU32(nil, 1)
		sec = append(sec, 0x00) // limits: min only
		sec = AppendU32(sec, m.MemoryPages)
		out = appendSection(out, sectionMemory, sec)
	}

	var exports []byte
	var nexports uint32
	for i, f := range m.Funcs {
		if f.Export == "" {
			continue
		}
		exports = AppendName(exports, f.Export)
		exports = append(exports, kindFunc)
		exports = AppendU32(exports, m.FuncIndex(i))
		nexports++
	}
	if m.MemoryPages > 0 && m.MemoryExport != "" {
		exports = AppendName(exports, m.MemoryExport)
		exports = append(exports, kindMemory)
		exports = AppendU32(exports, 0)
		nexports++
	}
	if nexports > 0 {
		sec := AppendU32(nil, nexports)
		out = appendSection(out, sectionExport, append(sec, exports...))
	}

	if len(m.Funcs) > 0 {
		sec := AppendU32(nil, uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			body := AppendU32(nil, uint32(len(f.Locals)))
			for _, l := range f.Locals {
				body = AppendU32(body, 1)
				body = append(body, byte(l))
			}
			body = append(body, f.Body...)
			body = append(body, opEnd)
			sec = AppendU32(sec, uint32(len(body)))
			sec = append(sec, body...)
		}
		out = appendSection(out, sectionCode, sec)
	}

	if len(m.Data) > 0 {
		sec := AppendU32(nil, uint32(len(m.Data)))
		for _, d := range m.Data {
			sec = append(sec, 0x00) // active, memory 0
			sec = append(sec, opI32Const)
			sec = AppendS32(sec, d.Offset)
			sec = append(sec, opEnd)
			sec = AppendU32(sec, uint32(len(d.Bytes)))
			sec = append(sec, d.Bytes...)
		}
		out = appendSection(out, sectionData, sec)
	}

	return out
}

func appendSection(b []byte, id byte, data []byte) []byte {
	b = append(b, id)
	b = AppendU32(b, uint32(len(data)))
	return append(b, data...)
}

func appendValTypes(b []byte, types []ValType) []byte {
	b = AppendU32(b, uint32(len(types)))
	for _, t := range types {
		b = append(b, byte(t))
	}
	return b
}
