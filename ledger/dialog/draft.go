package dialog

import (
	"github.com/m3rciful/ledgerbot/core/telegram/state"
	"github.com/m3rciful/ledgerbot/ledger/domain"
)

const (
	keyTransactionType = "transaction_type"
	keyPrice           = "price"
)

// Draft is the part of a transaction collected so far.
type Draft interface {
	isDraft()
}

// NoDraft means no transaction is being entered.
type NoDraft struct{}

// PendingPrice waits for the amount.
type PendingPrice struct {
	Type domain.TransactionType
}

// PendingDescription waits for the description.
type PendingDescription struct {
	Type  domain.TransactionType
	Price int64
}

func (NoDraft) isDraft()            {}
func (PendingPrice) isDraft()       {}
func (PendingDescription) isDraft() {}

// DraftFrom reads the draft kept in a session bag. Only the fields the
// session's state needs are considered.
func DraftFrom(sess state.Session) Draft {
	typ, ok := domain.ParseTransactionType(state.SessionTemp(sess, keyTransactionType, ""))
	if !ok {
		return NoDraft{}
	}
	switch sess.State {
	case AwaitingPrice:
		return PendingPrice{Type: typ}
	case AwaitingDescription:
		price := state.SessionInt64(sess, keyPrice, -1)
		if price < 0 {
			return NoDraft{}
		}
		return PendingDescription{Type: typ, Price: price}
	}
	return NoDraft{}
}

// writeDraft replaces the draft keys of bag with d.
func writeDraft(bag map[string]any, d Draft) {
	delete(bag, keyTransactionType)
	delete(bag, keyPrice)
	switch v := d.(type) {
	case PendingPrice:
		bag[keyTransactionType] = v.Type.String()
	case PendingDescription:
		bag[keyTransactionType] = v.Type.String()
		bag[keyPrice] = v.Price
	}
}
