package dialog

import (
	"github.com/m3rciful/ledgerbot/ledger/domain"
)

// EventKind separates free text from button presses.
type EventKind int

const (
	EventText EventKind = iota + 1
	EventButton
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventButton:
		return "button"
	}
	return "unknown"
}

// Sender describes who produced an event.
type Sender struct {
	ID        int64
	UserName  string
	FirstName string
	LastName  string
}

// Event is one inbound update for a chat.
type Event struct {
	Kind EventKind
	// Text is the message body for text events.
	Text string
	// Data is the button payload, "name" or "name:argument".
	Data string
	// MessageID is the message the text arrived in, or the message carrying the pressed button.
	MessageID  int
	CallbackID string
	From       Sender
}

// TextEvent builds a text event.
func TextEvent(text string, messageID int) Event {
	return Event{Kind: EventText, Text: text, MessageID: messageID}
}

// ButtonEvent builds a button event.
func ButtonEvent(data string, messageID int, callbackID string) Event {
	return Event{Kind: EventButton, Data: data, MessageID: messageID, CallbackID: callbackID}
}

// Effect is a side effect declared by a transition.
type Effect interface {
	effectName() string
}

// AcknowledgeButton answers the button press so the client stops its spinner.
type AcknowledgeButton struct {
	CallbackID string
	Text       string
}

// SendPrompt sends a message and remembers its id in Slot.
type SendPrompt struct {
	Slot     Slot
	Text     string
	Keyboard Keyboard
}

// EditPrompt rewrites an existing message; MessageID 0 means the id stored in Slot.
type EditPrompt struct {
	Slot      Slot
	MessageID int
	Text      string
	Keyboard  Keyboard
}

// DeletePrompt removes the message stored in Slot, or MessageID when set.
type DeletePrompt struct {
	Slot      Slot
	MessageID int
}

// Reply sends a message nobody needs to find again.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

// CommitTransaction stores the finished draft.
type CommitTransaction struct {
	Type        domain.TransactionType
	Price       int64
	Description string
	From        Sender
}

// QueryBalance replies with the chat's balance.
type QueryBalance struct{}

// QueryTransactions replies with the chat's transactions.
type QueryTransactions struct {
	Filter domain.Filter
}

// ShowTransaction replies with one transaction.
type ShowTransaction struct {
	ID string
}

// DeleteTransaction removes one transaction and replies with the refreshed list.
type DeleteTransaction struct {
	ID string
}

// EnsureUser registers the sender on first contact and greets them.
type EnsureUser struct {
	From Sender
}

func (AcknowledgeButton) effectName() string { return "ack" }
func (SendPrompt) effectName() string        { return "send_prompt" }
func (EditPrompt) effectName() string        { return "edit_prompt" }
func (DeletePrompt) effectName() string      { return "delete_prompt" }
func (Reply) effectName() string             { return "reply" }
func (CommitTransaction) effectName() string { return "commit" }
func (QueryBalance) effectName() string      { return "balance" }
func (QueryTransactions) effectName() string { return "list" }
func (ShowTransaction) effectName() string   { return "show" }
func (DeleteTransaction) effectName() string { return "delete" }
func (EnsureUser) effectName() string        { return "ensure_user" }

// Command is one executed effect. Effects that produce follow-up messages
// appear in the log together with those messages.
type Command struct {
	Effect Effect
	// MessageID is the message sent, edited or deleted, when there is one.
	MessageID int
	Failed    bool
}

// EffectName returns a short name for logs.
func EffectName(e Effect) string {
	if e == nil {
		return ""
	}
	return e.effectName()
}
