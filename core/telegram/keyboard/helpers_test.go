package keyboard

import "testing"

func TestInlineButtonsRows(t *testing.T) {
	markup := InlineButtonsRows(
		[]InlineBtn{{Text: "Add", Unique: "add_transaction"}},
		nil,
		[]InlineBtn{{Text: "Open", Unique: "tx", Data: "ab12"}, {Text: "Back", Unique: "back_to_menu"}},
	)
	if markup == nil || len(markup.InlineKeyboard) != 2 {
		t.Fatalf("unexpected markup: %#v", markup)
	}
	if b := markup.InlineKeyboard[0][0]; b.Unique != "add_transaction" || b.Data != "" || b.Text != "Add" {
		t.Fatalf("first button = %+v", b)
	}
	if b := markup.InlineKeyboard[1][0]; b.Unique != "tx" || b.Data != "ab12" {
		t.Fatalf("payload button = %+v", b)
	}
	if InlineButtonsRows() != nil || InlineButtonsRows(nil) != nil {
		t.Fatalf("empty keyboard should be nil")
	}
}
