package decode

import (
	"bytes"

	"solana-dex-stream/internal/domain"
)

// PumpfunProgramID is the Pump.fun bonding-curve program.
const PumpfunProgramID = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

// Anchor instruction discriminators (first 8 bytes of the data).
var (
	pumpfunDiscBuy    = []byte{102, 6, 61, 18, 1, 218, 235, 234}
	pumpfunDiscSell   = []byte{51, 230, 133, 164, 1, 127, 131, 173}
	pumpfunDiscCreate = []byte{24, 30, 200, 40, 5, 28, 7, 119}
)

// Pumpfun decodes Pump.fun instructions. Layout is an 8-byte anchor
// discriminator followed by borsh-encoded arguments.
func Pumpfun(data []byte) (Decoded, bool) {
	if len(data) < 8 {
		return Decoded{}, false
	}

	disc, args := data[:8], data[8:]
	r := newByteReader(args)

	switch {
	case bytes.Equal(disc, pumpfunDiscBuy):
		amount := r.u64()
		maxSolCost := r.u64()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventSwap,
			Details: map[string]interface{}{
				"type":         "Buy",
				"amount":       amount,
				"max_sol_cost": maxSolCost,
			},
		}, true

	case bytes.Equal(disc, pumpfunDiscSell):
		amount := r.u64()
		minSolOutput := r.u64()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventSwap,
			Details: map[string]interface{}{
				"type":           "Sell",
				"amount":         amount,
				"min_sol_output": minSolOutput,
			},
		}, true

	case bytes.Equal(disc, pumpfunDiscCreate):
		name := r.str()
		symbol := r.str()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventNewPair,
			Details: map[string]interface{}{
				"type":   "Create",
				"name":   name,
				"symbol": symbol,
			},
		}, true
	}

	return Decoded{}, false
}
