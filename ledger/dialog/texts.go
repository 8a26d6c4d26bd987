package dialog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/ledgerbot/ledger/domain"
)

const (
	textMenu            = "What would you like to do?"
	textMenuHint        = "Use the menu below to add a transaction or check your balance."
	textChooseKind      = "Choose the transaction type:"
	textChooseKindFirst = "Please choose a transaction type with the buttons first."
	textPressAddFirst   = "Press \"Add transaction\" first."
	textFinishCurrent   = "You are already adding a transaction. Finish it or press Cancel."
	textEnterPrice      = "Enter the amount for this %s as a whole number:"
	textInvalidAmount   = "Invalid amount, enter a number (digits only, no sign)."
	textEnterDesc       = "Amount: %s\nNow enter a description:"
	textDescRequired    = "A description is required. Enter a short description:"
	textAwaitPrice      = "Enter the amount as a whole number, or press Cancel."
	textAwaitDesc       = "Enter a description, or press Cancel."
	textCancelled       = "Cancelled. Nothing was saved."
	textNothingToCancel = "There is nothing to cancel."
	textUnknownButton   = "Unknown button."
	textFailure         = "Something went wrong, please try again."
	textCommitFailed    = "Could not save the transaction. Send the description again to retry."
	textFlowLost        = "That entry expired, please start again."
	textBadDate         = "Could not read the date. Use YYYY-MM-DD or DD.MM.YYYY."
	textNoTransactions  = "No transactions yet."
	textTxNotFound      = "Transaction not found."
	textTxDeleted       = "Transaction deleted."
)

func kindLabel(t domain.TransactionType) string {
	if t == domain.Decrease {
		return "expense"
	}
	return "income"
}

func enterPriceText(t domain.TransactionType) string {
	return fmt.Sprintf(textEnterPrice, kindLabel(t))
}

func enterDescriptionText(price int64) string {
	return fmt.Sprintf(textEnterDesc, groupDigits(price))
}

// groupDigits formats n with thousands separators.
func groupDigits(n int64) string {
	neg := n < 0
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}
	s := strconv.FormatUint(u, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func formatAmount(n int64, currency string) string {
	if currency == "" {
		return groupDigits(n)
	}
	return groupDigits(n) + " " + currency
}

func signedAmount(tx domain.Transaction, currency string) string {
	sign := "+"
	if tx.Type == domain.Decrease {
		sign = "-"
	}
	return sign + formatAmount(tx.Price, currency)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func savedText(tx domain.Transaction, currency string) string {
	return fmt.Sprintf("✅ Saved %s %s: %s", kindLabel(tx.Type), signedAmount(tx, currency), tx.Description)
}

func balanceText(balance int64, currency string) string {
	return "💰 Balance: " + formatAmount(balance, currency)
}

func listText(txs []domain.Transaction, f domain.Filter, loc *time.Location) string {
	if len(txs) == 0 {
		return textNoTransactions
	}
	if !f.From.IsZero() {
		return fmt.Sprintf("Transactions on %s:", f.From.In(loc).Format("2006-01-02"))
	}
	return fmt.Sprintf("Last %d transactions:", len(txs))
}

func transactionText(tx domain.Transaction, currency string, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", strings.ToUpper(kindLabel(tx.Type)[:1])+kindLabel(tx.Type)[1:], signedAmount(tx, currency))
	fmt.Fprintf(&b, "📝 %s\n", tx.Description)
	fmt.Fprintf(&b, "📅 %s\n", tx.CreatedAt.In(loc).Format("2006/01/02 15:04"))
	fmt.Fprintf(&b, "Status: %s", tx.Status)
	return b.String()
}

func greetingText(from Sender) string {
	name := strings.TrimSpace(from.FirstName)
	if name == "" {
		name = from.UserName
	}
	if name == "" {
		return "Hi! " + textMenu
	}
	return fmt.Sprintf("Hi %s! %s", name, textMenu)
}
