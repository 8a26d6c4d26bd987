package telegram

import (
	"errors"
	"reflect"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	for name, cmd := range map[string]commands.Command{
		"/start":   {Handler: noop, Description: "Start"},
		"/balance": {Handler: noop, Description: "Balance", Aliases: []string{"bal"}},
		"/stats":   {Handler: noop, Description: "Stats", AdminOnly: true},
	} {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	rejected := []struct {
		name string
		cmd  commands.Command
		want error
	}{
		{"list", commands.Command{Handler: noop, Description: "no slash"}, ErrInvalidRegistration},
		{"/List", commands.Command{Handler: noop, Description: "upper case"}, ErrInvalidRegistration},
		{"/menu", commands.Command{Handler: noop}, ErrInvalidRegistration},
		{"/start", commands.Command{Handler: noop, Description: "dup"}, ErrDuplicateRegistration},
	}
	for _, tc := range rejected {
		if err := reg.RegisterCommand(tc.name, tc.cmd); !errors.Is(err, tc.want) {
			t.Fatalf("register %q: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	if got := len(reg.Commands()); got != 3 {
		t.Fatalf("registered %d commands, want 3", got)
	}
	var visible []string
	for _, c := range reg.ListCommands(true) {
		visible = append(visible, c.Text)
	}
	if want := []string{"balance", "start"}; !reflect.DeepEqual(visible, want) {
		t.Fatalf("visible = %v, want %v", visible, want)
	}
	if all := reg.ListCommands(false); len(all) != 3 {
		t.Fatalf("all commands = %v", all)
	}

	if key, _, ok := reg.LookupCommand("/bal"); !ok || key != "/balance" {
		t.Fatalf("alias lookup = %q, %v", key, ok)
	}
	if key, cmd, ok := reg.LookupCommand("start"); !ok || key != "/start" || cmd.Description != "Start" {
		t.Fatalf("lookup without slash = %q, %+v, %v", key, cmd, ok)
	}
	for _, text := range []string{"/balance@ledgerbot", "/bal today", "  /start   now"} {
		if _, _, ok := reg.LookupCommand(text); !ok {
			t.Fatalf("lookup %q failed", text)
		}
	}
	for _, text := range []string{"", "   ", "/unknown"} {
		if _, _, ok := reg.LookupCommand(text); ok {
			t.Fatalf("lookup %q should fail", text)
		}
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("tx", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("tx", noop); !errors.Is(err, ErrDuplicateRegistration) {
		t.Fatalf("duplicate: err = %v", err)
	}
	if err := reg.RegisterCallback("", noop); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("empty key: err = %v", err)
	}
	if err := reg.RegisterCallbacks([]string{"cancel"}, noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := reg.RegisterCallbacks([]string{"back", "tx", ""}, noop)
	if !errors.Is(err, ErrDuplicateRegistration) || !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("batch err = %v, want both failures", err)
	}
	if got := reg.ListCallbacks(); !reflect.DeepEqual(got, []string{"back", "cancel", "tx"}) {
		t.Fatalf("callbacks = %v", got)
	}
	if _, ok := reg.GetCallback("missing"); ok {
		t.Fatalf("missing callback found")
	}
	if reg.CallbackNotFound() == nil {
		t.Fatalf("default not-found handler missing")
	}
}
