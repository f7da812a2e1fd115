package decode

import (
	"bytes"

	"solana-dex-stream/internal/domain"
)

// OrcaWhirlpoolProgramID is the Orca Whirlpool concentrated liquidity
// program.
const OrcaWhirlpoolProgramID = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"

// Anchor instruction discriminators (first 8 bytes of the data).
var (
	whirlpoolDiscSwap              = []byte{248, 198, 158, 145, 225, 117, 135, 200}
	whirlpoolDiscIncreaseLiquidity = []byte{46, 156, 243, 118, 13, 205, 251, 178}
	whirlpoolDiscDecreaseLiquidity = []byte{160, 38, 208, 111, 104, 91, 44, 1}
	whirlpoolDiscInitializePool    = []byte{95, 180, 10, 172, 84, 174, 232, 40}
)

// OrcaWhirlpool decodes Orca Whirlpool instructions. Layout is an 8-byte
// anchor discriminator followed by little-endian arguments; liquidity and
// sqrt-price fields are u128. InitializePool leads with a one-byte bump
// seed before its arguments.
func OrcaWhirlpool(data []byte) (Decoded, bool) {
	if len(data) < 8 {
		return Decoded{}, false
	}

	disc, args := data[:8], data[8:]
	r := newByteReader(args)

	switch {
	case bytes.Equal(disc, whirlpoolDiscSwap):
		amount := r.u64()
		otherAmountThreshold := r.u64()
		sqrtPriceLimit := r.u128()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventSwap,
			Details: map[string]interface{}{
				"type":                   "Swap",
				"amount":                 amount,
				"other_amount_threshold": otherAmountThreshold,
				"sqrt_price_limit":       sqrtPriceLimit,
			},
		}, true

	case bytes.Equal(disc, whirlpoolDiscIncreaseLiquidity):
		liquidityAmount := r.u128()
		tokenMaxA := r.u64()
		tokenMaxB := r.u64()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventAddLiquidity,
			Details: map[string]interface{}{
				"type":             "add",
				"action":           "IncreaseLiquidity",
				"liquidity_amount": liquidityAmount,
				"token_max_a":      tokenMaxA,
				"token_max_b":      tokenMaxB,
			},
		}, true

	case bytes.Equal(disc, whirlpoolDiscDecreaseLiquidity):
		liquidityAmount := r.u128()
		tokenMinA := r.u64()
		tokenMinB := r.u64()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventRemoveLiquidity,
			Details: map[string]interface{}{
				"type":             "remove",
				"action":           "DecreaseLiquidity",
				"liquidity_amount": liquidityAmount,
				"token_min_a":      tokenMinA,
				"token_min_b":      tokenMinB,
			},
		}, true

	case bytes.Equal(disc, whirlpoolDiscInitializePool):
		r.u8() // whirlpool bump seed
		tickSpacing := r.u16()
		initialSqrtPrice := r.u128()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventAddPair,
			Details: map[string]interface{}{
				"type":               "InitializePool",
				"tick_spacing":       tickSpacing,
				"initial_sqrt_price": initialSqrtPrice,
			},
		}, true
	}

	return Decoded{}, false
}
