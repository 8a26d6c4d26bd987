package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const countersKey = "counters"

// Counters tallies what one update made the bot do in its chat.
type Counters struct {
	Sent     int
	Edited   int
	Deleted  int
	Keyboard bool
}

// Messages is the number of messages written or rewritten.
func (n Counters) Messages() int { return n.Sent + n.Edited }

func counters(c tele.Context) *Counters {
	if n, ok := c.Get(countersKey).(*Counters); ok {
		return n
	}
	n := &Counters{}
	c.Set(countersKey, n)
	return n
}

// CountSent records an outgoing message. Handlers that bypass the context's
// Send helpers call it themselves.
func CountSent(c tele.Context, hasKB bool) {
	n := counters(c)
	n.Sent++
	n.Keyboard = n.Keyboard || hasKB
}

// CountEdited records an edited message.
func CountEdited(c tele.Context, hasKB bool) {
	n := counters(c)
	n.Edited++
	n.Keyboard = n.Keyboard || hasKB
}

// CountDeleted records a deleted message.
func CountDeleted(c tele.Context) {
	counters(c).Deleted++
}

// CountersFrom returns a snapshot of the update's counters.
func CountersFrom(c tele.Context) Counters {
	if n, ok := c.Get(countersKey).(*Counters); ok {
		return *n
	}
	return Counters{}
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// countingContext counts successful writes made through tele.Context.
type countingContext struct{ tele.Context }

func (m countingContext) Send(what interface{}, opts ...interface{}) error {
	return m.sent(m.Context.Send(what, opts...), opts)
}

func (m countingContext) Reply(what interface{}, opts ...interface{}) error {
	return m.sent(m.Context.Reply(what, opts...), opts)
}

func (m countingContext) Edit(what interface{}, opts ...interface{}) error {
	err := m.Context.Edit(what, opts...)
	if err == nil {
		CountEdited(m.Context, hasKeyboard(opts))
	}
	return err
}

// EditOrSend and EditOrReply are counted as sends; telebot does not say which path ran.
func (m countingContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return m.sent(m.Context.EditOrSend(what, opts...), opts)
}

func (m countingContext) EditOrReply(what interface{}, opts ...interface{}) error {
	return m.sent(m.Context.EditOrReply(what, opts...), opts)
}

func (m countingContext) Delete() error {
	err := m.Context.Delete()
	if err == nil {
		CountDeleted(m.Context)
	}
	return err
}

func (m countingContext) sent(err error, opts []interface{}) error {
	if err == nil {
		CountSent(m.Context, hasKeyboard(opts))
	}
	return err
}

// MessageMetricsMiddleware resets the update's counters and wraps the context to maintain them.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(countersKey, &Counters{})
		return next(countingContext{Context: c})
	}
}
