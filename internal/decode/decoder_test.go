package decode

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/mr-tron/base58"

	"solana-dex-stream/internal/domain"
)

func u64le(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func u128le(hi, lo uint64) []byte {
	return append(u64le(lo), u64le(hi)...)
}

func borshStr(s string) []byte {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	return append(n[:], s...)
}

func TestHandlers_Registry(t *testing.T) {
	handlers := Handlers()
	if len(handlers) != 5 {
		t.Fatalf("expected 5 handlers, got %d", len(handlers))
	}

	seen := make(map[string]string)
	for _, h := range handlers {
		if h.Map == nil {
			t.Errorf("%s: nil map func", h.Platform)
		}
		seen[h.ProgramID] = h.Platform
	}
	if seen[RaydiumAmmV4ProgramID] != "Raydium AMM V4" {
		t.Errorf("unexpected raydium platform %q", seen[RaydiumAmmV4ProgramID])
	}
	if seen[RaydiumClmmProgramID] != "Raydium CLMM" {
		t.Errorf("unexpected clmm platform %q", seen[RaydiumClmmProgramID])
	}
	if seen[RaydiumCpmmProgramID] != "Raydium CPMM" {
		t.Errorf("unexpected cpmm platform %q", seen[RaydiumCpmmProgramID])
	}
	if seen[OrcaWhirlpoolProgramID] != "Orca Whirlpool" {
		t.Errorf("unexpected whirlpool platform %q", seen[OrcaWhirlpoolProgramID])
	}
	if seen[PumpfunProgramID] != "Pumpfun" {
		t.Errorf("unexpected pumpfun platform %q", seen[PumpfunProgramID])
	}
}

func TestData_Base58(t *testing.T) {
	raw := []byte{9, 1, 2, 3}
	decoded, err := Data(base58.Encode(raw))
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if len(decoded) != 4 || decoded[0] != 9 {
		t.Errorf("unexpected decode result %v", decoded)
	}

	if _, err := Data("0OIl"); err == nil {
		t.Error("expected error for invalid base58")
	}
}

func TestRaydiumAmmV4_SwapBaseIn(t *testing.T) {
	data := append([]byte{raydiumTagSwapBaseIn}, u64le(1000)...)
	data = append(data, u64le(900)...)

	decoded, ok := RaydiumAmmV4(data)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Type != domain.EventSwap {
		t.Errorf("expected swap, got %s", decoded.Type)
	}
	if decoded.Details["amount_in"] != uint64(1000) {
		t.Errorf("expected amount_in 1000, got %v", decoded.Details["amount_in"])
	}
	if decoded.Details["minimum_amount_out"] != uint64(900) {
		t.Errorf("expected minimum_amount_out 900, got %v", decoded.Details["minimum_amount_out"])
	}
}

func TestRaydiumAmmV4_SwapBaseOut(t *testing.T) {
	data := append([]byte{raydiumTagSwapBaseOut}, u64le(1100)...)
	data = append(data, u64le(1000)...)

	decoded, ok := RaydiumAmmV4(data)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Type != domain.EventSwap {
		t.Errorf("expected swap, got %s", decoded.Type)
	}
	if decoded.Details["max_amount_in"] != uint64(1100) {
		t.Errorf("expected max_amount_in 1100, got %v", decoded.Details["max_amount_in"])
	}
}

func TestRaydiumAmmV4_Liquidity(t *testing.T) {
	deposit := append([]byte{raydiumTagDeposit}, u64le(10)...)
	deposit = append(deposit, u64le(20)...)
	deposit = append(deposit, u64le(0)...)

	decoded, ok := RaydiumAmmV4(deposit)
	if !ok {
		t.Fatal("expected deposit decode success")
	}
	if decoded.Type != domain.EventAddLiquidity {
		t.Errorf("expected add_liquidity, got %s", decoded.Type)
	}

	withdraw := append([]byte{raydiumTagWithdraw}, u64le(30)...)
	decoded, ok = RaydiumAmmV4(withdraw)
	if !ok {
		t.Fatal("expected withdraw decode success")
	}
	if decoded.Type != domain.EventRemoveLiquidity {
		t.Errorf("expected remove_liquidity, got %s", decoded.Type)
	}
	if decoded.Details["amount"] != uint64(30) {
		t.Errorf("expected amount 30, got %v", decoded.Details["amount"])
	}
}

func TestRaydiumAmmV4_Initialize2(t *testing.T) {
	data := append([]byte{raydiumTagInitialize2}, 255)
	data = append(data, u64le(1700000000)...)

	decoded, ok := RaydiumAmmV4(data)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Type != domain.EventNewPair {
		t.Errorf("expected new_pair, got %s", decoded.Type)
	}
	if decoded.Details["nonce"] != uint8(255) {
		t.Errorf("expected nonce 255, got %v", decoded.Details["nonce"])
	}
	if decoded.Details["open_time"] != uint64(1700000000) {
		t.Errorf("expected open_time 1700000000, got %v", decoded.Details["open_time"])
	}
}

func TestRaydiumAmmV4_Rejects(t *testing.T) {
	if _, ok := RaydiumAmmV4(nil); ok {
		t.Error("expected empty data rejected")
	}
	if _, ok := RaydiumAmmV4([]byte{200}); ok {
		t.Error("expected unknown tag rejected")
	}
	// Truncated argument block
	if _, ok := RaydiumAmmV4(append([]byte{raydiumTagSwapBaseIn}, 1, 2, 3)); ok {
		t.Error("expected truncated data rejected")
	}
}

func TestRaydiumClmm_Swap(t *testing.T) {
	// amount, other_amount_threshold, sqrt_price_limit_x64 (u128),
	// trailing is_base_input flag.
	data := append(append([]byte{}, clmmDiscSwap...), u64le(1000)...)
	data = append(data, u64le(900)...)
	data = append(data, u128le(1, 2)...)
	data = append(data, 1)

	decoded, ok := RaydiumClmm(data)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Type != domain.EventSwap {
		t.Errorf("expected swap, got %s", decoded.Type)
	}
	if decoded.Details["type"] != "Swap" {
		t.Errorf("expected Swap, got %v", decoded.Details["type"])
	}
	if decoded.Details["amount"] != uint64(1000) {
		t.Errorf("expected amount 1000, got %v", decoded.Details["amount"])
	}
	limit, ok := decoded.Details["sqrt_price_limit_x64"].(*big.Int)
	if !ok {
		t.Fatalf("expected big.Int limit, got %T", decoded.Details["sqrt_price_limit_x64"])
	}
	// (1 << 64) + 2
	if limit.String() != "18446744073709551618" {
		t.Errorf("unexpected sqrt_price_limit_x64 %s", limit)
	}
}

func TestRaydiumClmm_SwapV2(t *testing.T) {
	data := append(append([]byte{}, clmmDiscSwapV2...), u64le(50)...)
	data = append(data, u64le(40)...)
	data = append(data, u128le(0, 0)...)

	decoded, ok := RaydiumClmm(data)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Details["type"] != "SwapV2" {
		t.Errorf("expected SwapV2, got %v", decoded.Details["type"])
	}
}

func TestRaydiumClmm_Liquidity(t *testing.T) {
	increase := append(append([]byte{}, clmmDiscIncreaseLiquidity...), u128le(0, 77)...)
	increase = append(increase, u64le(10)...)
	increase = append(increase, u64le(20)...)

	decoded, ok := RaydiumClmm(increase)
	if !ok {
		t.Fatal("expected increase decode success")
	}
	if decoded.Type != domain.EventAddLiquidity {
		t.Errorf("expected add_liquidity, got %s", decoded.Type)
	}
	if decoded.Details["action"] != "IncreaseLiquidity" {
		t.Errorf("expected IncreaseLiquidity, got %v", decoded.Details["action"])
	}
	if decoded.Details["amount_0_max"] != uint64(10) {
		t.Errorf("expected amount_0_max 10, got %v", decoded.Details["amount_0_max"])
	}

	decrease := append(append([]byte{}, clmmDiscDecreaseLiquidityV2...), u128le(0, 88)...)
	decrease = append(decrease, u64le(5)...)
	decrease = append(decrease, u64le(6)...)

	decoded, ok = RaydiumClmm(decrease)
	if !ok {
		t.Fatal("expected decrease decode success")
	}
	if decoded.Type != domain.EventRemoveLiquidity {
		t.Errorf("expected remove_liquidity, got %s", decoded.Type)
	}
	if decoded.Details["action"] != "DecreaseLiquidityV2" {
		t.Errorf("expected DecreaseLiquidityV2, got %v", decoded.Details["action"])
	}
}

func TestRaydiumClmm_Rejects(t *testing.T) {
	if _, ok := RaydiumClmm([]byte{1, 2, 3}); ok {
		t.Error("expected short data rejected")
	}
	unknown := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	if _, ok := RaydiumClmm(append(unknown, u64le(1)...)); ok {
		t.Error("expected unknown discriminator rejected")
	}
	// Swap with truncated u128
	bad := append(append([]byte{}, clmmDiscSwap...), u64le(1)...)
	bad = append(bad, u64le(2)...)
	bad = append(bad, 1, 2, 3)
	if _, ok := RaydiumClmm(bad); ok {
		t.Error("expected truncated data rejected")
	}
}

func TestRaydiumCpmm_Swaps(t *testing.T) {
	input := append(append([]byte{}, cpmmDiscSwapBaseInput...), u64le(1000)...)
	input = append(input, u64le(950)...)

	decoded, ok := RaydiumCpmm(input)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Type != domain.EventSwap {
		t.Errorf("expected swap, got %s", decoded.Type)
	}
	if decoded.Details["type"] != "SwapBaseInput" {
		t.Errorf("expected SwapBaseInput, got %v", decoded.Details["type"])
	}
	if decoded.Details["amount_in"] != uint64(1000) {
		t.Errorf("expected amount_in 1000, got %v", decoded.Details["amount_in"])
	}

	output := append(append([]byte{}, cpmmDiscSwapBaseOutput...), u64le(1100)...)
	output = append(output, u64le(1000)...)

	decoded, ok = RaydiumCpmm(output)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Details["type"] != "SwapBaseOutput" {
		t.Errorf("expected SwapBaseOutput, got %v", decoded.Details["type"])
	}
	if decoded.Details["amount_out"] != uint64(1000) {
		t.Errorf("expected amount_out 1000, got %v", decoded.Details["amount_out"])
	}
}

func TestRaydiumCpmm_Rejects(t *testing.T) {
	if _, ok := RaydiumCpmm(nil); ok {
		t.Error("expected empty data rejected")
	}
	unknown := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	if _, ok := RaydiumCpmm(append(unknown, u64le(1)...)); ok {
		t.Error("expected unknown discriminator rejected")
	}
	if _, ok := RaydiumCpmm(append(append([]byte{}, cpmmDiscSwapBaseInput...), 1, 2)); ok {
		t.Error("expected truncated data rejected")
	}
}

func TestOrcaWhirlpool_Swap(t *testing.T) {
	// amount, other_amount_threshold, sqrt_price_limit (u128), trailing
	// amount_specified_is_input and a_to_b flags.
	data := append(append([]byte{}, whirlpoolDiscSwap...), u64le(300)...)
	data = append(data, u64le(290)...)
	data = append(data, u128le(0, 12345)...)
	data = append(data, 1, 0)

	decoded, ok := OrcaWhirlpool(data)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Type != domain.EventSwap {
		t.Errorf("expected swap, got %s", decoded.Type)
	}
	limit, ok := decoded.Details["sqrt_price_limit"].(*big.Int)
	if !ok {
		t.Fatalf("expected big.Int limit, got %T", decoded.Details["sqrt_price_limit"])
	}
	if limit.Uint64() != 12345 {
		t.Errorf("expected sqrt_price_limit 12345, got %s", limit)
	}
}

func TestOrcaWhirlpool_Liquidity(t *testing.T) {
	increase := append(append([]byte{}, whirlpoolDiscIncreaseLiquidity...), u128le(0, 500)...)
	increase = append(increase, u64le(10)...)
	increase = append(increase, u64le(20)...)

	decoded, ok := OrcaWhirlpool(increase)
	if !ok {
		t.Fatal("expected increase decode success")
	}
	if decoded.Type != domain.EventAddLiquidity {
		t.Errorf("expected add_liquidity, got %s", decoded.Type)
	}
	if decoded.Details["token_max_b"] != uint64(20) {
		t.Errorf("expected token_max_b 20, got %v", decoded.Details["token_max_b"])
	}

	decrease := append(append([]byte{}, whirlpoolDiscDecreaseLiquidity...), u128le(0, 500)...)
	decrease = append(decrease, u64le(1)...)
	decrease = append(decrease, u64le(2)...)

	decoded, ok = OrcaWhirlpool(decrease)
	if !ok {
		t.Fatal("expected decrease decode success")
	}
	if decoded.Type != domain.EventRemoveLiquidity {
		t.Errorf("expected remove_liquidity, got %s", decoded.Type)
	}
}

func TestOrcaWhirlpool_InitializePool(t *testing.T) {
	data := append([]byte{}, whirlpoolDiscInitializePool...)
	data = append(data, 254) // bump seed
	data = append(data, 64, 0)
	data = append(data, u128le(0, 79226673515401279)...)

	decoded, ok := OrcaWhirlpool(data)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Type != domain.EventAddPair {
		t.Errorf("expected add_pair, got %s", decoded.Type)
	}
	if decoded.Details["tick_spacing"] != uint16(64) {
		t.Errorf("expected tick_spacing 64, got %v", decoded.Details["tick_spacing"])
	}
}

func TestOrcaWhirlpool_Rejects(t *testing.T) {
	if _, ok := OrcaWhirlpool(nil); ok {
		t.Error("expected empty data rejected")
	}
	unknown := []byte{7, 7, 7, 7, 7, 7, 7, 7}
	if _, ok := OrcaWhirlpool(append(unknown, u64le(1)...)); ok {
		t.Error("expected unknown discriminator rejected")
	}
	if _, ok := OrcaWhirlpool(append(append([]byte{}, whirlpoolDiscInitializePool...), 1)); ok {
		t.Error("expected truncated data rejected")
	}
}

func TestPumpfun_Buy(t *testing.T) {
	data := append(append([]byte{}, pumpfunDiscBuy...), u64le(500)...)
	data = append(data, u64le(600)...)

	decoded, ok := Pumpfun(data)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Type != domain.EventSwap {
		t.Errorf("expected swap, got %s", decoded.Type)
	}
	if decoded.Details["type"] != "Buy" {
		t.Errorf("expected Buy, got %v", decoded.Details["type"])
	}
	if decoded.Details["amount"] != uint64(500) {
		t.Errorf("expected amount 500, got %v", decoded.Details["amount"])
	}
	if decoded.Details["max_sol_cost"] != uint64(600) {
		t.Errorf("expected max_sol_cost 600, got %v", decoded.Details["max_sol_cost"])
	}
}

func TestPumpfun_Sell(t *testing.T) {
	data := append(append([]byte{}, pumpfunDiscSell...), u64le(700)...)
	data = append(data, u64le(650)...)

	decoded, ok := Pumpfun(data)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Details["type"] != "Sell" {
		t.Errorf("expected Sell, got %v", decoded.Details["type"])
	}
	if decoded.Details["min_sol_output"] != uint64(650) {
		t.Errorf("expected min_sol_output 650, got %v", decoded.Details["min_sol_output"])
	}
}

func TestPumpfun_Create(t *testing.T) {
	data := append([]byte{}, pumpfunDiscCreate...)
	data = append(data, borshStr("My Token")...)
	data = append(data, borshStr("MTK")...)

	decoded, ok := Pumpfun(data)
	if !ok {
		t.Fatal("expected decode success")
	}
	if decoded.Type != domain.EventNewPair {
		t.Errorf("expected new_pair, got %s", decoded.Type)
	}
	if decoded.Details["name"] != "My Token" {
		t.Errorf("expected name My Token, got %v", decoded.Details["name"])
	}
	if decoded.Details["symbol"] != "MTK" {
		t.Errorf("expected symbol MTK, got %v", decoded.Details["symbol"])
	}
}

func TestPumpfun_Rejects(t *testing.T) {
	if _, ok := Pumpfun([]byte{1, 2, 3}); ok {
		t.Error("expected short data rejected")
	}
	unknown := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	if _, ok := Pumpfun(append(unknown, u64le(1)...)); ok {
		t.Error("expected unknown discriminator rejected")
	}
	// Buy with truncated arguments
	if _, ok := Pumpfun(append(append([]byte{}, pumpfunDiscBuy...), 1, 2)); ok {
		t.Error("expected truncated data rejected")
	}
	// Create with a length prefix pointing past the buffer
	bad := append(append([]byte{}, pumpfunDiscCreate...), 255, 0, 0, 0)
	if _, ok := Pumpfun(bad); ok {
		t.Error("expected bad string length rejected")
	}
}
