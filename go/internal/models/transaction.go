package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionType discriminates transaction log entries.
type TransactionType string

const (
	TransactionTypeTrade         TransactionType = "trade"
	TransactionTypeFA            TransactionType = "fa"
	TransactionTypeDraftSelect   TransactionType = "draft-select"
	TransactionTypeAuctionWin    TransactionType = "auction-win"
	TransactionTypeContract      TransactionType = "contract"
	TransactionTypeRFAConversion TransactionType = "rfa-rights-conversion"
	TransactionTypeRFALapsed     TransactionType = "rfa-rights-lapsed"
	TransactionTypeExpiry        TransactionType = "contract-expiry"
)

// Source records who or what produced a transaction.
type Source string

const (
	SourceManual       Source = "manual"
	SourceCommissioner Source = "commissioner"
	SourceSystem       Source = "system"
	SourceSleeper      Source = "sleeper"
)

// IsOverride reports whether the source bypasses phase restrictions.
func (s Source) IsOverride() bool {
	return s != SourceManual && s != ""
}

// Entry is the type-specific payload of a transaction.
type Entry interface {
	Type() TransactionType
	FranchiseIDs() []uuid.UUID
	PlayerIDs() []uuid.UUID
}

// Transaction is one immutable log entry.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	Type         TransactionType `json:"type"`
	Timestamp    time.Time       `json:"timestamp"`
	Source       Source          `json:"source"`
	Season       int             `json:"season"`
	FranchiseIDs []uuid.UUID     `json:"franchise_ids"`
	PlayerIDs    []uuid.UUID     `json:"player_ids"`
	Entry        Entry           `json:"entry"`
}

// NewTransaction wraps an entry with the shared header.
func NewTransaction(entry Entry, season int, timestamp time.Time, source Source) *Transaction {
	return &Transaction{
		ID:           uuid.New(),
		Type:         entry.Type(),
		Timestamp:    timestamp,
		Source:       source,
		Season:       season,
		FranchiseIDs: entry.FranchiseIDs(),
		PlayerIDs:    entry.PlayerIDs(),
		Entry:        entry,
	}
}

// DecodeEntry rebuilds a typed entry from its stored JSON payload.
func DecodeEntry(t TransactionType, payload []byte) (Entry, error) {
	var entry Entry
	switch t {
	case TransactionTypeTrade:
		entry = &TradeEntry{}
	case TransactionTypeFA:
		entry = &FAEntry{}
	case TransactionTypeDraftSelect:
		entry = &DraftSelectEntry{}
	case TransactionTypeAuctionWin, TransactionTypeContract:
		entry = &SigningEntry{}
	case TransactionTypeRFAConversion, TransactionTypeRFALapsed, TransactionTypeExpiry:
		entry = &ContractResolutionEntry{}
	default:
		return nil, fmt.Errorf("unknown transaction type %q", t)
	}
	if err := json.Unmarshal(payload, entry); err != nil {
		return nil, fmt.Errorf("failed to decode %s entry: %w", t, err)
	}
	return entry, nil
}

// UnmarshalJSON decodes the header and then the entry by type.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type header Transaction
	var raw struct {
		header
		Entry json.RawMessage `json:"entry"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Transaction(raw.header)
	if len(raw.Entry) == 0 || string(raw.Entry) == "null" {
		return nil
	}
	entry, err := DecodeEntry(t.Type, raw.Entry)
	if err != nil {
		return err
	}
	t.Entry = entry
	return nil
}

// TradedPlayer is a player moving in a trade, at the terms the sending franchise held the contract.
type TradedPlayer struct {
	PlayerID        uuid.UUID     `json:"player_id"`
	PlayerName      string        `json:"player_name"`
	FromFranchiseID uuid.UUID     `json:"from_franchise_id"`
	Terms           ContractTerms `json:"terms"`
}

// TradedPick is a pick moving in a trade.
type TradedPick struct {
	PickID              uuid.UUID `json:"pick_id"`
	Season              int       `json:"season"`
	Round               int       `json:"round"`
	OriginalFranchiseID uuid.UUID `json:"original_franchise_id"`
	FromFranchiseID     uuid.UUID `json:"from_franchise_id"`
}

// CashTransfer is cap cash moving between franchises for one season.
type CashTransfer struct {
	Amount          int       `json:"amount"`
	Season          int       `json:"season"`
	FromFranchiseID uuid.UUID `json:"from_franchise_id"`
}

// TradeReceipt is everything one franchise receives in a trade.
type TradeReceipt struct {
	FranchiseID uuid.UUID      `json:"franchise_id"`
	Players     []TradedPlayer `json:"players,omitempty"`
	Picks       []TradedPick   `json:"picks,omitempty"`
	Cash        []CashTransfer `json:"cash,omitempty"`
	RFARights   []TradedPlayer `json:"rfa_rights,omitempty"`
}

// TradeEntry records a completed multi-party trade.
type TradeEntry struct {
	TradeNumber int            `json:"trade_number"`
	Parties     []TradeReceipt `json:"parties"`
}

func (e *TradeEntry) Type() TransactionType { return TransactionTypeTrade }

func (e *TradeEntry) FranchiseIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(e.Parties))
	for _, p := range e.Parties {
		ids = append(ids, p.FranchiseID)
	}
	return ids
}

func (e *TradeEntry) PlayerIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range e.Parties {
		for _, pl := range p.Players {
			ids = append(ids, pl.PlayerID)
		}
		for _, pl := range p.RFARights {
			ids = append(ids, pl.PlayerID)
		}
	}
	return ids
}

// BuyOut is the cap charge left behind for one season after a cut.
type BuyOut struct {
	Season int `json:"season"`
	Amount int `json:"amount"`
}

// FAEntry records a free-agent add or drop. Cuts are drops carrying their buy-outs.
type FAEntry struct {
	FranchiseID uuid.UUID `json:"franchise_id"`
	Add         *FAMove   `json:"add,omitempty"`
	Drop        *FAMove   `json:"drop,omitempty"`
}

// FAMove is one side of an FA transaction.
type FAMove struct {
	PlayerID   uuid.UUID     `json:"player_id"`
	PlayerName string        `json:"player_name"`
	Terms      ContractTerms `json:"terms"`
	BuyOuts    []BuyOut      `json:"buy_outs,omitempty"`
}

func (e *FAEntry) Type() TransactionType { return TransactionTypeFA }

func (e *FAEntry) FranchiseIDs() []uuid.UUID { return []uuid.UUID{e.FranchiseID} }

func (e *FAEntry) PlayerIDs() []uuid.UUID {
	var ids []uuid.UUID
	if e.Add != nil {
		ids = append(ids, e.Add.PlayerID)
	}
	if e.Drop != nil {
		ids = append(ids, e.Drop.PlayerID)
	}
	return ids
}

// DraftSelectEntry records a rookie draft selection.
type DraftSelectEntry struct {
	FranchiseID uuid.UUID     `json:"franchise_id"`
	PlayerID    uuid.UUID     `json:"player_id"`
	PlayerName  string        `json:"player_name"`
	PickID      uuid.UUID     `json:"pick_id"`
	Season      int           `json:"season"`
	Round       int           `json:"round"`
	PickNumber  *int          `json:"pick_number,omitempty"`
	Terms       ContractTerms `json:"terms"`
}

func (e *DraftSelectEntry) Type() TransactionType { return TransactionTypeDraftSelect }

func (e *DraftSelectEntry) FranchiseIDs() []uuid.UUID { return []uuid.UUID{e.FranchiseID} }

func (e *DraftSelectEntry) PlayerIDs() []uuid.UUID { return []uuid.UUID{e.PlayerID} }

// SigningEntry records an auction win or a contract signing such as an RFA re-sign.
type SigningEntry struct {
	Kind        TransactionType `json:"kind"`
	FranchiseID uuid.UUID       `json:"franchise_id"`
	PlayerID    uuid.UUID       `json:"player_id"`
	PlayerName  string          `json:"player_name"`
	Terms       ContractTerms   `json:"terms"`
}

func (e *SigningEntry) Type() TransactionType { return e.Kind }

func (e *SigningEntry) FranchiseIDs() []uuid.UUID { return []uuid.UUID{e.FranchiseID} }

func (e *SigningEntry) PlayerIDs() []uuid.UUID { return []uuid.UUID{e.PlayerID} }

// ContractResolutionEntry records what happened to a contract at season rollover.
type ContractResolutionEntry struct {
	Kind        TransactionType `json:"kind"`
	FranchiseID uuid.UUID       `json:"franchise_id"`
	PlayerID    uuid.UUID       `json:"player_id"`
	PlayerName  string          `json:"player_name"`
	Terms       ContractTerms   `json:"terms"`
}

func (e *ContractResolutionEntry) Type() TransactionType { return e.Kind }

func (e *ContractResolutionEntry) FranchiseIDs() []uuid.UUID { return []uuid.UUID{e.FranchiseID} }

func (e *ContractResolutionEntry) PlayerIDs() []uuid.UUID { return []uuid.UUID{e.PlayerID} }
