package blockchain

import (
	"fmt"
	"strconv"

	"github.com/mosaicnetworks/stakechain/src/ledger"
)

// Kind is the type of a Transaction. Only KindTransfer and KindExchange are
// valid; decoding any other name fails.
type Kind uint8

const (
	// KindTransfer moves funds from the sender to the receiver.
	KindTransfer Kind = iota + 1
	// KindExchange credits the receiver with newly issued funds.
	KindExchange
)

var kindNames = map[Kind]string{
	KindTransfer: "TRANSFER",
	KindExchange: "EXCHANGE",
}

// ParseKind returns the Kind with the given name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, name)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Operation is the effect of a transaction on the ledger. It is either a
// Transfer or an Exchange.
type Operation interface {
	// Entries returns the balance adjustments of the operation.
	Entries() []ledger.Entry
	isOperation()
}

// Transfer debits From and credits To.
type Transfer struct {
	From   string
	To     string
	Amount int64
}

// Entries implements Operation.
func (t Transfer) Entries() []ledger.Entry {
	return []ledger.Entry{
		{Account: t.From, Delta: -t.Amount},
		{Account: t.To, Delta: t.Amount},
	}
}

func (Transfer) isOperation() {}

// Exchange credits To with funds issued by Issuer. The issuer is not debited.
type Exchange struct {
	Issuer string
	To     string
	Amount int64
}

// Entries implements Operation.
func (e Exchange) Entries() []ledger.Entry {
	return []ledger.Entry{
		{Account: e.To, Delta: e.Amount},
	}
}

func (Exchange) isOperation() {}
