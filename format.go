package displays

import "iter"

// DataFormat is the tagged union of payload representations understood by
// the bus adapters. Callers pick the variant matching their buffer's natural
// shape (owned vs. streamed, word width, endianness) to avoid copies.
//
// The union is sealed but adapters classify variants with a type switch and
// return ErrFormatNotSupported for anything they do not recognize, so new
// variants can be added without breaking existing adapters.
type DataFormat interface {
	dataFormat()
}

// U8 is an owned sequence of 8-bit words.
type U8 []byte

// U8Iter is a lazily produced, finite sequence of 8-bit words. It is
// one-shot: a single send consumes it and it must not be reused afterwards.
type U8Iter iter.Seq[byte]

// U16BE is an owned sequence of 16-bit words transmitted big-endian.
type U16BE []uint16

// U16LE is an owned sequence of 16-bit words transmitted little-endian.
type U16LE []uint16

// U16BEIter is a lazily produced, one-shot sequence of 16-bit words
// transmitted big-endian.
type U16BEIter iter.Seq[uint16]

// U16LEIter is a lazily produced, one-shot sequence of 16-bit words
// transmitted little-endian.
type U16LEIter iter.Seq[uint16]

func (U8) dataFormat()        {}
func (U8Iter) dataFormat()    {}
func (U16BE) dataFormat()     {}
func (U16LE) dataFormat()     {}
func (U16BEIter) dataFormat() {}
func (U16LEIter) dataFormat() {}
