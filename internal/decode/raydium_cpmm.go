package decode

import (
	"bytes"

	"solana-dex-stream/internal/domain"
)

// RaydiumCpmmProgramID is the Raydium constant-product pool program.
const RaydiumCpmmProgramID = "CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"

// Anchor instruction discriminators (first 8 bytes of the data).
var (
	cpmmDiscSwapBaseInput  = []byte{143, 190, 90, 218, 196, 30, 51, 222}
	cpmmDiscSwapBaseOutput = []byte{55, 217, 98, 86, 163, 74, 180, 173}
)

// RaydiumCpmm decodes Raydium CPMM instructions. Layout is an 8-byte
// anchor discriminator followed by little-endian u64 arguments.
func RaydiumCpmm(data []byte) (Decoded, bool) {
	if len(data) < 8 {
		return Decoded{}, false
	}

	disc, args := data[:8], data[8:]
	r := newByteReader(args)

	switch {
	case bytes.Equal(disc, cpmmDiscSwapBaseInput):
		amountIn := r.u64()
		minimumAmountOut := r.u64()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventSwap,
			Details: map[string]interface{}{
				"type":               "SwapBaseInput",
				"amount_in":          amountIn,
				"minimum_amount_out": minimumAmountOut,
			},
		}, true

	case bytes.Equal(disc, cpmmDiscSwapBaseOutput):
		maxAmountIn := r.u64()
		amountOut := r.u64()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventSwap,
			Details: map[string]interface{}{
				"type":          "SwapBaseOutput",
				"max_amount_in": maxAmountIn,
				"amount_out":    amountOut,
			},
		}, true
	}

	return Decoded{}, false
}
