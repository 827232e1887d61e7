// Package utf8seq decodes and reverses UTF-8 text directly on raw byte buffers.
//
// It works at sequence granularity: a leading byte is classified into a
// sequence length (1 to 4) by threshold, and that many bytes are consumed as
// one codepoint. The package deliberately does not rely on Go's string or rune
// machinery so the behavior at buffer boundaries is fully defined: a cursor
// positioned on a continuation byte yields ErrMalformedSequence, and a
// sequence running past the end of the buffer yields ErrTruncatedSequence.
//
// Beyond those two checks, input is assumed to be well-formed. Continuation
// bytes are not inspected, and overlong encodings are decoded as-is.
//
// Reversal preserves each sequence's internal byte order and reverses the
// order of sequences. It does not understand grapheme clusters: combining
// marks and regional-indicator pairs (flag emoji) come out in the wrong order.
package utf8seq
