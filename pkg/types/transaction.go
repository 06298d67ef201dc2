package types

// Instruction is a single top-level or inner instruction of a fetched
// transaction. Data is base58 as returned by the RPC node.
type Instruction struct {
	ProgramID string
	Accounts  []string
	Data      string
}

// TokenBalance is one entry of pre/post token balances.
// Amount is in base units (no decimal scaling applied).
type TokenBalance struct {
	AccountIndex int
	Account      string
	Mint         string
	Owner        string
	Amount       uint64
	Decimals     uint8
}

// TransactionDetail is the decoded view of a getTransaction response.
// Read-only after the fetcher returns it.
type TransactionDetail struct {
	Signature         string
	Slot              uint64
	Commitment        Commitment
	Failed            bool // on-chain execution error
	AccountKeys       []string
	Instructions      []Instruction
	InnerInstructions []Instruction
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	LogMessages       []string
}

// BalanceDelta returns post-pre for the token account at the given
// account address, or zero if the account is absent from either side.
func (t *TransactionDetail) BalanceDelta(account string) int64 {
	var pre, post uint64
	var havePre, havePost bool
	for _, b := range t.PreTokenBalances {
		if b.Account == account {
			pre, havePre = b.Amount, true
			break
		}
	}
	for _, b := range t.PostTokenBalances {
		if b.Account == account {
			post, havePost = b.Amount, true
			break
		}
	}
	if !havePre || !havePost {
		return 0
	}
	return int64(post) - int64(pre)
}
