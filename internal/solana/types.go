package solana

// VoteProgramID is the native vote program. Transactions that invoke it
// are consensus votes, not user activity.
const VoteProgramID = "Vote111111111111111111111111111111111111111"

// Commitment levels accepted by RPC and subscription calls.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// Block represents a Solana block as returned by getBlock.
type Block struct {
	Slot         uint64
	Blockhash    string
	ParentSlot   uint64
	BlockTime    *int64 // Unix timestamp (seconds), nil if unavailable
	Transactions []Transaction
}

// Transaction represents one transaction envelope within a block.
type Transaction struct {
	Signature string
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction execution metadata.
type TransactionMeta struct {
	Err         interface{} // nil means the transaction succeeded
	Fee         uint64
	LogMessages []string
}

// TransactionMessage contains the parsed transaction message.
type TransactionMessage struct {
	AccountKeys  []string
	Instructions []Instruction
}

// Instruction is one top-level instruction in a transaction message.
// Data is base58-encoded as delivered by the json block encoding.
type Instruction struct {
	ProgramIDIndex int
	Accounts       []int
	Data           string
}

// Failed reports whether the transaction's execution status indicates failure.
func (t *Transaction) Failed() bool {
	return t.Meta != nil && t.Meta.Err != nil
}

// IsVote reports whether the transaction invokes the vote program.
func (t *Transaction) IsVote() bool {
	if t.Message == nil {
		return false
	}
	for _, key := range t.Message.AccountKeys {
		if key == VoteProgramID {
			return true
		}
	}
	return false
}

// Program resolves the program ID of an instruction against the message
// account keys. Returns "" if the index is out of range.
func (m *TransactionMessage) Program(ix Instruction) string {
	if ix.ProgramIDIndex < 0 || ix.ProgramIDIndex >= len(m.AccountKeys) {
		return ""
	}
	return m.AccountKeys[ix.ProgramIDIndex]
}
