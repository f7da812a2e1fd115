package decode

import "solana-dex-stream/internal/domain"

// RaydiumAmmV4ProgramID is the Raydium AMM V4 program.
const RaydiumAmmV4ProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

// Raydium AMM V4 instruction tags (single leading byte).
const (
	raydiumTagInitialize2 = 1
	raydiumTagDeposit     = 3
	raydiumTagWithdraw    = 4
	raydiumTagSwapBaseIn  = 9
	raydiumTagSwapBaseOut = 11
)

// RaydiumAmmV4 decodes Raydium AMM V4 instructions. Layout is one tag
// byte followed by little-endian u64 arguments.
func RaydiumAmmV4(data []byte) (Decoded, bool) {
	if len(data) == 0 {
		return Decoded{}, false
	}

	r := newByteReader(data)
	switch r.u8() {
	case raydiumTagSwapBaseIn:
		amountIn := r.u64()
		minimumAmountOut := r.u64()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventSwap,
			Details: map[string]interface{}{
				"type":               "SwapBaseIn",
				"amount_in":          amountIn,
				"minimum_amount_out": minimumAmountOut,
			},
		}, true

	case raydiumTagSwapBaseOut:
		maxAmountIn := r.u64()
		amountOut := r.u64()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventSwap,
			Details: map[string]interface{}{
				"type":          "SwapBaseOut",
				"max_amount_in": maxAmountIn,
				"amount_out":    amountOut,
			},
		}, true

	case raydiumTagDeposit:
		maxCoinAmount := r.u64()
		maxPcAmount := r.u64()
		baseSide := r.u64()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventAddLiquidity,
			Details: map[string]interface{}{
				"type":            "Deposit",
				"max_coin_amount": maxCoinAmount,
				"max_pc_amount":   maxPcAmount,
				"base_side":       baseSide,
			},
		}, true

	case raydiumTagWithdraw:
		amount := r.u64()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventRemoveLiquidity,
			Details: map[string]interface{}{
				"type":   "Withdraw",
				"amount": amount,
			},
		}, true

	case raydiumTagInitialize2:
		nonce := r.u8()
		openTime := r.u64()
		if !r.ok() {
			return Decoded{}, false
		}
		return Decoded{
			Type: domain.EventNewPair,
			Details: map[string]interface{}{
				"type":      "Initialize2",
				"nonce":     nonce,
				"open_time": openTime,
			},
		}, true
	}

	return Decoded{}, false
}
