// Package decode turns raw instruction bytes into typed DEX events for
// the protocols the stream understands. Each protocol is one table
// entry: a platform label, a program ID, and a mapping function. There
// are no per-protocol handler types.
package decode

import (
	"encoding/binary"
	"math/big"

	"github.com/mr-tron/base58"

	"solana-dex-stream/internal/domain"
)

// Decoded is the protocol-independent result of decoding one instruction.
type Decoded struct {
	Type    domain.EventType
	Details map[string]interface{}
}

// MapFunc maps one instruction's raw data to an event. Returns false for
// instructions that do not produce events (unknown or uninteresting tags,
// malformed data).
type MapFunc func(data []byte) (Decoded, bool)

// Handler couples a protocol's program ID with its platform label and
// mapping function.
type Handler struct {
	Platform  string
	ProgramID string
	Map       MapFunc
}

// Handlers returns the registered protocol table.
func Handlers() []Handler {
	return []Handler{
		{Platform: "Raydium AMM V4", ProgramID: RaydiumAmmV4ProgramID, Map: RaydiumAmmV4},
		{Platform: "Raydium CLMM", ProgramID: RaydiumClmmProgramID, Map: RaydiumClmm},
		{Platform: "Raydium CPMM", ProgramID: RaydiumCpmmProgramID, Map: RaydiumCpmm},
		{Platform: "Orca Whirlpool", ProgramID: OrcaWhirlpoolProgramID, Map: OrcaWhirlpool},
		{Platform: "Pumpfun", ProgramID: PumpfunProgramID, Map: Pumpfun},
	}
}

// Data decodes the base58 instruction payload delivered by the json
// block encoding.
func Data(encoded string) ([]byte, error) {
	return base58.Decode(encoded)
}

// byteReader walks little-endian instruction data without panicking on
// short input.
type byteReader struct {
	buf []byte
	pos int
	bad bool
}

func newByteReader(buf []byte) *byteReader {
	return &byteReader{buf: buf}
}

func (r *byteReader) u8() uint8 {
	if r.bad || r.pos+1 > len(r.buf) {
		r.bad = true
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *byteReader) u16() uint16 {
	if r.bad || r.pos+2 > len(r.buf) {
		r.bad = true
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *byteReader) u64() uint64 {
	if r.bad || r.pos+8 > len(r.buf) {
		r.bad = true
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

// u128 reads a little-endian unsigned 128-bit integer. Liquidity and
// sqrt-price fields exceed uint64, so they surface as big integers and
// serialize as plain JSON numbers.
func (r *byteReader) u128() *big.Int {
	if r.bad || r.pos+16 > len(r.buf) {
		r.bad = true
		return new(big.Int)
	}
	lo := binary.LittleEndian.Uint64(r.buf[r.pos:])
	hi := binary.LittleEndian.Uint64(r.buf[r.pos+8:])
	r.pos += 16
	v := new(big.Int).SetUint64(hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(lo))
}

// str reads a borsh-encoded string (u32 length prefix).
func (r *byteReader) str() string {
	if r.bad || r.pos+4 > len(r.buf) {
		r.bad = true
		return ""
	}
	n := int(binary.LittleEndian.Uint32(r.buf[r.pos:]))
	r.pos += 4
	if n < 0 || r.pos+n > len(r.buf) {
		r.bad = true
		return ""
	}
	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n
	return s
}

func (r *byteReader) ok() bool {
	return !r.bad
}
