// Package dialog drives the per-chat conversation of the ledger bot.
//
// Machine is a pure transition function over (state, event, draft). Controller
// serializes events per chat, executes the effects a transition declares
// against a Transport and a Ledger, and writes the session back last.
package dialog
