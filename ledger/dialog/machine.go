package dialog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/looplab/fsm"

	"github.com/m3rciful/ledgerbot/core/telegram/helpers"
	"github.com/m3rciful/ledgerbot/core/telegram/state"
	"github.com/m3rciful/ledgerbot/ledger/domain"
)

// Dialog states of the add-transaction flow.
const (
	Idle                    = state.StateIdle
	AwaitingTransactionKind = state.State("awaiting_transaction_kind")
	AwaitingPrice           = state.State("awaiting_price")
	AwaitingDescription     = state.State("awaiting_description")
)

// Flow events of the state graph.
const (
	eventStart  = "start_entry"
	eventKind   = "choose_kind"
	eventPrice  = "enter_price"
	eventCommit = "commit"
	eventCancel = "cancel"
)

var flowEvents = fsm.Events{
	{Name: eventStart, Src: []string{string(Idle)}, Dst: string(AwaitingTransactionKind)},
	{Name: eventKind, Src: []string{string(AwaitingTransactionKind)}, Dst: string(AwaitingPrice)},
	{Name: eventPrice, Src: []string{string(AwaitingPrice)}, Dst: string(AwaitingDescription)},
	{Name: eventCommit, Src: []string{string(AwaitingDescription)}, Dst: string(Idle)},
	{Name: eventCancel, Src: []string{string(AwaitingTransactionKind), string(AwaitingPrice), string(AwaitingDescription)}, Dst: string(Idle)},
}

// Result is the outcome of one transition.
type Result struct {
	Next    state.State
	Draft   Draft
	Effects []Effect
	// Reset clears the whole session once the effects ran.
	Reset bool
}

// Machine computes transitions. It holds no per-chat data and is safe for concurrent use.
type Machine struct {
	events fsm.Events
	// loc resolves dates typed by the user.
	loc *time.Location
}

// NewMachine returns the add-transaction state machine. nil loc means time.Local.
func NewMachine(loc *time.Location) *Machine {
	if loc == nil {
		loc = time.Local
	}
	return &Machine{events: flowEvents, loc: loc}
}

// graph positions the flow graph at st.
func (m *Machine) graph(st state.State) *fsm.FSM {
	return fsm.NewFSM(string(st), m.events, nil)
}

// Input rejections raised by transition guards.
var (
	errDraftMismatch    = errors.New("draft does not match state")
	errInvalidAmount    = errors.New("invalid amount")
	errEmptyDescription = errors.New("empty description")
)

// fire runs event on the graph positioned at st and returns the state the
// graph lands in. guard runs before the move and cancels it with its error.
func (m *Machine) fire(st state.State, event string, guard func() error) (state.State, error) {
	var cbs fsm.Callbacks
	if guard != nil {
		cbs = fsm.Callbacks{"before_" + event: func(_ context.Context, e *fsm.Event) {
			if err := guard(); err != nil {
				e.Cancel(err)
			}
		}}
	}
	f := fsm.NewFSM(string(st), m.events, cbs)
	if err := f.Event(context.Background(), event); err != nil {
		var canceled fsm.CanceledError
		if errors.As(err, &canceled) && canceled.Err != nil {
			return st, canceled.Err
		}
		return st, err
	}
	return state.State(f.Current()), nil
}

// rejected answers an event that did not move the graph.
func (m *Machine) rejected(st state.State, d Draft, event string, err error) Result {
	switch {
	case errors.Is(err, errDraftMismatch):
		return lost()
	case errors.Is(err, errInvalidAmount):
		return stay(st, d, Reply{Text: textInvalidAmount, Keyboard: CancelKeyboard()})
	case errors.Is(err, errEmptyDescription):
		return stay(st, d, Reply{Text: textDescRequired, Keyboard: CancelKeyboard()})
	}
	switch event {
	case eventStart:
		if st != AwaitingTransactionKind {
			return stay(st, d, Reply{Text: textFinishCurrent, Keyboard: CancelKeyboard()})
		}
	case eventKind:
		if st == Idle {
			return stay(st, d, Reply{Text: textPressAddFirst, Keyboard: MenuKeyboard()})
		}
	case eventCancel:
		if st == Idle {
			return stay(st, d, Reply{Text: textNothingToCancel, Keyboard: MenuKeyboard()})
		}
	}
	return reprompt(st, d)
}

func normalize(st state.State) state.State {
	switch st {
	case AwaitingTransactionKind, AwaitingPrice, AwaitingDescription:
		return st
	}
	return Idle
}

// Transition maps the current state, an event and the draft to the next state
// and the effects to run. Every event yields either a state change or a reply.
func (m *Machine) Transition(st state.State, ev Event, d Draft) Result {
	st = normalize(st)
	if d == nil {
		d = NoDraft{}
	}
	var res Result
	switch ev.Kind {
	case EventButton:
		res = m.onButton(st, ev, d)
		ack := AcknowledgeButton{CallbackID: ev.CallbackID}
		res.Effects = append([]Effect{ack}, res.Effects...)
	case EventText:
		res = m.onText(st, ev, d)
	default:
		res = stay(st, d, Reply{Text: textUnknownButton})
	}
	return res
}

func stay(st state.State, d Draft, effects ...Effect) Result {
	return Result{Next: st, Draft: d, Effects: effects}
}

func (m *Machine) cancel(st state.State, d Draft) Result {
	next, err := m.fire(st, eventCancel, nil)
	if err != nil {
		return m.rejected(st, d, eventCancel, err)
	}
	effects := append(deleteAll(), Reply{Text: textCancelled, Keyboard: MenuKeyboard()})
	return Result{Next: next, Draft: NoDraft{}, Effects: effects, Reset: true}
}

// lost recovers a chat whose state and draft disagree, e.g. after a partial write.
func lost() Result {
	effects := append(deleteAll(), Reply{Text: textFlowLost, Keyboard: MenuKeyboard()})
	return Result{Next: Idle, Draft: NoDraft{}, Effects: effects, Reset: true}
}

// reprompt answers an out-of-place event with guidance for the current step.
func reprompt(st state.State, d Draft) Result {
	switch st {
	case AwaitingTransactionKind:
		return stay(st, d, Reply{Text: textChooseKindFirst, Keyboard: KindKeyboard()})
	case AwaitingPrice:
		return stay(st, d, Reply{Text: textAwaitPrice, Keyboard: CancelKeyboard()})
	case AwaitingDescription:
		return stay(st, d, Reply{Text: textAwaitDesc, Keyboard: CancelKeyboard()})
	}
	return stay(st, d, Reply{Text: textMenuHint, Keyboard: MenuKeyboard()})
}

func (m *Machine) onButton(st state.State, ev Event, d Draft) Result {
	name, arg, _ := strings.Cut(strings.TrimSpace(ev.Data), ":")
	switch name {
	case ButtonAddTransaction, ButtonAddTransactions:
		next, err := m.fire(st, eventStart, nil)
		if err != nil {
			return m.rejected(st, d, eventStart, err)
		}
		return Result{
			Next:  next,
			Draft: NoDraft{},
			Effects: []Effect{EditPrompt{
				Slot:      SlotMenu,
				MessageID: ev.MessageID,
				Text:      textChooseKind,
				Keyboard:  KindKeyboard(),
			}},
		}
	case ButtonIncrease, ButtonDecrease:
		next, err := m.fire(st, eventKind, nil)
		if err != nil {
			return m.rejected(st, d, eventKind, err)
		}
		typ, _ := domain.ParseTransactionType(name)
		return Result{
			Next:  next,
			Draft: PendingPrice{Type: typ},
			Effects: []Effect{EditPrompt{
				Slot:      SlotPrice,
				MessageID: ev.MessageID,
				Text:      enterPriceText(typ),
				Keyboard:  CancelKeyboard(),
			}},
		}
	case ButtonCancel:
		return m.cancel(st, d)
	case ButtonViewBalance:
		return stay(st, d, QueryBalance{})
	case ButtonViewTransactions:
		return stay(st, d, QueryTransactions{})
	case ButtonBackToMenu:
		return stay(st, d, Reply{Text: textMenu, Keyboard: MenuKeyboard()})
	case ButtonShowTransaction:
		if arg != "" {
			return stay(st, d, ShowTransaction{ID: arg})
		}
	case ButtonDeleteTx:
		if arg != "" {
			return stay(st, d, DeleteTransaction{ID: arg})
		}
	}
	return stay(st, d, Reply{Text: textUnknownButton})
}

func (m *Machine) onText(st state.State, ev Event, d Draft) Result {
	if name, args, ok := parseCommand(ev.Text); ok {
		if res, handled := m.onCommand(st, name, args, ev, d); handled {
			return res
		}
	}

	g := m.graph(st)
	switch {
	case g.Can(eventPrice):
		return m.enterPrice(st, ev, d)
	case g.Can(eventCommit):
		return m.enterDescription(st, ev, d)
	}
	return reprompt(st, d)
}

func (m *Machine) enterPrice(st state.State, ev Event, d Draft) Result {
	var (
		pd    PendingPrice
		price int64
	)
	next, err := m.fire(st, eventPrice, func() error {
		var ok bool
		if pd, ok = d.(PendingPrice); !ok {
			return errDraftMismatch
		}
		p, err := ParsePrice(ev.Text)
		if err != nil {
			return errors.Join(errInvalidAmount, err)
		}
		price = p
		return nil
	})
	if err != nil {
		return m.rejected(st, d, eventPrice, err)
	}
	return Result{
		Next:  next,
		Draft: PendingDescription{Type: pd.Type, Price: price},
		Effects: []Effect{
			DeletePrompt{Slot: SlotPrice},
			SendPrompt{Slot: SlotDescription, Text: enterDescriptionText(price), Keyboard: CancelKeyboard()},
		},
	}
}

func (m *Machine) enterDescription(st state.State, ev Event, d Draft) Result {
	var pd PendingDescription
	desc := strings.TrimSpace(ev.Text)
	next, err := m.fire(st, eventCommit, func() error {
		var ok bool
		if pd, ok = d.(PendingDescription); !ok {
			return errDraftMismatch
		}
		if desc == "" {
			return errEmptyDescription
		}
		return nil
	})
	if err != nil {
		return m.rejected(st, d, eventCommit, err)
	}
	return Result{
		Next:  next,
		Draft: NoDraft{},
		Effects: []Effect{
			CommitTransaction{Type: pd.Type, Price: pd.Price, Description: desc, From: ev.From},
			DeletePrompt{Slot: SlotDescription},
		},
		Reset: true,
	}
}

func (m *Machine) onCommand(st state.State, name, args string, ev Event, d Draft) (Result, bool) {
	switch name {
	case "start":
		return stay(st, d, EnsureUser{From: ev.From}), true
	case "cancel":
		return m.cancel(st, d), true
	case "menu":
		return stay(st, d, Reply{Text: textMenu, Keyboard: MenuKeyboard()}), true
	case "balance":
		return stay(st, d, QueryBalance{}), true
	case "list":
		if args == "" {
			return stay(st, d, QueryTransactions{}), true
		}
		day, ok := helpers.ParseDay(args, m.loc)
		if !ok {
			return stay(st, d, Reply{Text: textBadDate}), true
		}
		return stay(st, d, QueryTransactions{Filter: domain.Day(day)}), true
	}
	return Result{}, false
}
