package game

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	StartingBalance    = int64(5000)
	RigCost            = int64(3000)
	MiningIncomePerRig = int64(35)
	MaxRigs            = int64(5)
	ReferralBonus      = int64(500)
	FloorPrice         = int64(50)
)

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrAlreadyOnboarded    = errors.New("player already onboarded")
	ErrUnknownCompany      = errors.New("unknown company")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrInvalidReferral     = errors.New("invalid referral")
	ErrRigCapacityExceeded = errors.New("rig capacity exceeded")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientShares  = errors.New("insufficient shares")
	ErrQuestIncomplete     = errors.New("current quest not complete")
)

// Company identifies one of the tradable companies. The set is closed:
// the catalog entries below are the only valid values.
type Company string

const (
	Tesla       Company = "Tesla"
	AMD         Company = "AMD"
	NVIDIA      Company = "NVIDIA"
	BitcoinInc  Company = "Bitcoin Mining Inc"
	BlockDAG    Company = "BlockDAG Network"
	SolanaFound Company = "Solana Foundation"
)

// Companies lists every tradable company in display order.
func Companies() []Company {
	return []Company{Tesla, AMD, NVIDIA, BitcoinInc, BlockDAG, SolanaFound}
}

// BasePrices returns the listing price of every company on day one.
func BasePrices() map[Company]int64 {
	return map[Company]int64{
		Tesla:       250,
		AMD:         150,
		NVIDIA:      300,
		BitcoinInc:  500,
		BlockDAG:    100,
		SolanaFound: 400,
	}
}

// ResolveCompany matches free-form adapter input against the catalog,
// case-insensitively.
func ResolveCompany(name string) (Company, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, c := range Companies() {
		if strings.ToLower(string(c)) == want {
			return c, nil
		}
	}
	return "", ErrUnknownCompany
}

// NewReferralCode returns a fresh 8-character invite token.
func NewReferralCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
