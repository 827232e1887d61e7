package wasmgen

const (
	opUnreachable byte = 0x00
	opBlock       byte = 0x02
	opLoop        byte = 0x03
	opEnd         byte = 0x0b
	opBr          byte = 0x0c
	opBrIf        byte = 0x0d
	opReturn      byte = 0x0f
	opCall        byte = 0x10
	opDrop        byte = 0x1a
	opSelect      byte = 0x1b
	opLocalGet    byte = 0x20
	opLocalSet    byte = 0x21
	opLocalTee    byte = 0x22
	opI32Load8U   byte = 0x2d
	opI32Store8   byte = 0x3a
	opI32Const    byte = 0x41
	opI32Eqz      byte = 0x45
	opI32LtU      byte = 0x49
	opI32Add      byte = 0x6a
	opI32Sub      byte = 0x6b

	blockEmpty byte = 0x40
)

// Code builds a function body one instruction at a time.
//
//	body := new(wasmgen.Code).I32Const(0).I32Const(16).Call(0).Drop().Bytes()
type Code struct {
	buf []byte
}

// Bytes returns the encoded instructions.
func (c *Code) Bytes() []byte { return c.buf }

func (c *Code) op(b byte) *Code {
	c.buf = append(c.buf, b)
	return c
}

func (c *Code) opU32(b byte, v uint32) *Code {
	c.buf = AppendU32(append(c.buf, b), v)
	return c
}

// memarg appends the alignment exponent and offset of a memory access.
func (c *Code) memarg(op byte, align, offset uint32) *Code {
	c.buf = append(c.buf, op)
	c.buf = AppendU32(c.buf, align)
	c.buf = AppendU32(c.buf, offset)
	return c
}

func (c *Code) Unreachable() *Code       { return c.op(opUnreachable) }
func (c *Code) Block() *Code             { return c.op(opBlock).op(blockEmpty) }
func (c *Code) Loop() *Code              { return c.op(opLoop).op(blockEmpty) }
func (c *Code) End() *Code               { return c.op(opEnd) }
func (c *Code) Br(depth uint32) *Code    { return c.opU32(opBr, depth) }
func (c *Code) BrIf(depth uint32) *Code  { return c.opU32(opBrIf, depth) }
func (c *Code) Return() *Code            { return c.op(opReturn) }
func (c *Code) Call(fn uint32) *Code     { return c.opU32(opCall, fn) }
func (c *Code) Drop() *Code              { return c.op(opDrop) }
func (c *Code) Select() *Code            { return c.op(opSelect) }
func (c *Code) LocalGet(i uint32) *Code  { return c.opU32(opLocalGet, i) }
func (c *Code) LocalSet(i uint32) *Code  { return c.opU32(opLocalSet, i) }
func (c *Code) LocalTee(i uint32) *Code  { return c.opU32(opLocalTee, i) }
func (c *Code) I32Eqz() *Code            { return c.op(opI32Eqz) }
func (c *Code) I32LtU() *Code            { return c.op(opI32LtU) }
func (c *Code) I32Add() *Code            { return c.op(opI32Add) }
func (c *Code) I32Sub() *Code            { return c.op(opI32Sub) }

// I32Load8U loads one byte from the address on the stack plus off.
func (c *Code) I32Load8U(off uint32) *Code { return c.memarg(opI32Load8U, 0, off) }

// I32Store8 stores one byte at the address on the stack plus off.
func (c *Code) I32Store8(off uint32) *Code { return c.memarg(opI32Store8, 0, off) }

// I32Const pushes a signed 32-bit constant.
func (c *Code) I32Const(v int32) *Code {
	c.buf = AppendS32(append(c.buf, opI32Const), v)
	return c
}
