package wasmgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestAppendU32(t *testing.T) {
	tests := []struct {
		in   uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
		{0xffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AppendU32(nil, tt.in), "value %d", tt.in)
	}
}

func TestAppendS32(t *testing.T) {
	tests := []struct {
		in   int32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{64, []byte{0xc0, 0x00}},
		{-64, []byte{0x40}},
		{-65, []byte{0xbf, 0x7f}},
		{-123456, []byte{0xc0, 0xbb, 0x78}},
		{0x10000000, []byte{0x80, 0x80, 0x80, 0x80, 0x01}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AppendS32(nil, tt.in), "value %d", tt.in)
	}
}

func TestModule_EncodeMinimal(t *testing.T) {
	m := &Module{
		Types: []FuncType{{}},
		Funcs: []Func{{Type: 0, Export: "f"}},
	}

	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type
		0x03, 0x02, 0x01, 0x00, // function
		0x07, 0x05, 0x01, 0x01, 'f', 0x00, 0x00, // export
		0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b, // code
	}
	assert.Equal(t, want, m.Encode())
}

func TestModule_EncodeEmpty(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}, (&Module{}).Encode())
}

func TestModule_FuncIndex(t *testing.T) {
	m := &Module{Imports: []Import{{Module: "env", Name: "a"}, {Module: "env", Name: "b"}}}
	assert.Equal(t, uint32(2), m.FuncIndex(0))
	assert.Equal(t, uint32(5), m.FuncIndex(3))
}

func TestModule_RunsInWazero(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	// sum(n) stores the byte n at address 0 and returns mem[0] + data[1].
	m := &Module{
		Types: []FuncType{{Params: []ValType{I32}, Results: []ValType{I32}}},
		Funcs: []Func{{
			Type:   0,
			Export: "sum",
			Body: new(Code).
				I32Const(0).LocalGet(0).I32Store8(0).
				I32Const(0).I32Load8U(0).
				I32Const(0).I32Load8U(1).
				I32Add().
				Bytes(),
		}},
		Data:         []Data{{Offset: 1, Bytes: []byte{40}}},
		MemoryPages:  1,
		MemoryExport: "memory",
	}

	compiled, err := r.CompileModule(ctx, m.Encode())
	require.NoError(t, err)

	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	require.NoError(t, err)

	require.NotNil(t, mod.ExportedMemory("memory"))
	res, err := mod.ExportedFunction("sum").Call(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), api.DecodeU32(res[0]))
}

func TestModule_LoopAndBranch(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	// count(n) counts down from n to zero and returns the number of steps.
	m := &Module{
		Types: []FuncType{{Params: []ValType{I32}, Results: []ValType{I32}}},
		Funcs: []Func{{
			Type:   0,
			Export: "count",
			Locals: []ValType{I32},
			Body: new(Code).
				Block().
				LocalGet(0).I32Eqz().BrIf(0).
				Loop().
				LocalGet(1).I32Const(1).I32Add().LocalSet(1).
				LocalGet(0).I32Const(1).I32Sub().LocalTee(0).
				I32Eqz().I32Eqz().BrIf(0).
				End().
				End().
				LocalGet(1).
				Bytes(),
		}},
	}

	compiled, err := r.CompileModule(ctx, m.Encode())
	require.NoError(t, err)
	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	require.NoError(t, err)

	for _, n := range []uint64{0, 1, 7} {
		res, err := mod.ExportedFunction("count").Call(ctx, n)
		require.NoError(t, err)
		assert.Equal(t, n, res[0])
	}
}
