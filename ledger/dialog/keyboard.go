package dialog

import (
	"fmt"

	"github.com/m3rciful/ledgerbot/ledger/domain"
)

// Button payload names.
const (
	ButtonAddTransaction   = "add_transaction"
	ButtonAddTransactions  = "add_transactions"
	ButtonIncrease         = "Increase"
	ButtonDecrease         = "Decrease"
	ButtonViewTransactions = "view_transactions"
	ButtonViewBalance      = "view_balance"
	ButtonBackToMenu       = "back_to_menu"
	ButtonCancel           = "cancel"
	ButtonShowTransaction  = "tx"
	ButtonDeleteTx         = "tx_del"
)

// ButtonNames lists every button name the machine understands.
func ButtonNames() []string {
	return []string{
		ButtonAddTransaction, ButtonAddTransactions, ButtonIncrease, ButtonDecrease,
		ButtonViewTransactions, ButtonViewBalance, ButtonBackToMenu, ButtonCancel,
		ButtonShowTransaction, ButtonDeleteTx,
	}
}

// Button is an inline button; Data is "name" or "name:argument".
type Button struct {
	Text string
	Data string
}

// Keyboard is a grid of inline buttons. A nil keyboard sends plain text.
type Keyboard [][]Button

// MenuKeyboard is the main menu.
func MenuKeyboard() Keyboard {
	return Keyboard{
		{{Text: "➕ Add transaction", Data: ButtonAddTransaction}},
		{
			{Text: "📋 Transactions", Data: ButtonViewTransactions},
			{Text: "💰 Balance", Data: ButtonViewBalance},
		},
	}
}

// KindKeyboard asks for the transaction type.
func KindKeyboard() Keyboard {
	return Keyboard{
		{
			{Text: "⬆️ Income", Data: ButtonIncrease},
			{Text: "⬇️ Expense", Data: ButtonDecrease},
		},
		{cancelButton()},
	}
}

// CancelKeyboard offers a way out of the current step.
func CancelKeyboard() Keyboard {
	return Keyboard{{cancelButton()}}
}

func cancelButton() Button {
	return Button{Text: "❌ Cancel", Data: ButtonCancel}
}

func backButton() Button {
	return Button{Text: "⬅️ Menu", Data: ButtonBackToMenu}
}

// ListKeyboard links every listed transaction to its detail view.
func ListKeyboard(txs []domain.Transaction, currency string) Keyboard {
	kb := make(Keyboard, 0, len(txs)+1)
	for _, tx := range txs {
		label := fmt.Sprintf("%s %s", signedAmount(tx, currency), truncate(tx.Description, 24))
		kb = append(kb, []Button{{Text: label, Data: ButtonShowTransaction + ":" + tx.ID}})
	}
	return append(kb, []Button{backButton()})
}

// TransactionKeyboard holds the actions for one transaction.
func TransactionKeyboard(id string) Keyboard {
	return Keyboard{
		{{Text: "🗑 Delete", Data: ButtonDeleteTx + ":" + id}},
		{{Text: "📋 Back to list", Data: ButtonViewTransactions}, backButton()},
	}
}

// BackKeyboard returns to the menu.
func BackKeyboard() Keyboard {
	return Keyboard{{backButton()}}
}
