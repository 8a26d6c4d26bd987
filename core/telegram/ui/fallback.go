// Package ui holds user-facing contracts shared by routers and bots.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider answers updates that no command, button or active
// dialog claimed.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}

// Pick returns h when set, otherwise the handler from p chosen by get.
// Either may be nil; the result is nil only when both are missing.
func Pick(h tele.HandlerFunc, p FallbackProvider, get func(FallbackProvider) tele.HandlerFunc) tele.HandlerFunc {
	if h != nil || p == nil {
		return h
	}
	return get(p)
}

// Text, Document and Callback select one handler of a provider for Pick.
func Text(p FallbackProvider) tele.HandlerFunc     { return p.UnknownText() }
func Document(p FallbackProvider) tele.HandlerFunc { return p.UnknownDocument() }
func Callback(p FallbackProvider) tele.HandlerFunc { return p.UnknownCallback() }
