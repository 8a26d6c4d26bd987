package dialog

// Slot names a prompt message remembered in the session bag.
type Slot string

const (
	// SlotMenu holds the menu message turned into the type chooser.
	SlotMenu Slot = "menu_message_id"
	// SlotPrice holds the "enter amount" prompt.
	SlotPrice Slot = "price_prompt_id"
	// SlotDescription holds the "enter description" prompt.
	SlotDescription Slot = "description_prompt_id"
)

var promptSlots = []Slot{SlotMenu, SlotPrice, SlotDescription}

// prompts tracks prompt message ids inside a session bag.
// A message occupies at most one slot.
type prompts map[string]any

func (p prompts) get(s Slot) int {
	switch id := p[string(s)].(type) {
	case int:
		return id
	case int64:
		return int(id)
	}
	return 0
}

func (p prompts) record(s Slot, messageID int) {
	if s == "" || messageID == 0 {
		return
	}
	for _, other := range promptSlots {
		if other != s && p.get(other) == messageID {
			delete(p, string(other))
		}
	}
	p[string(s)] = messageID
}

func (p prompts) forget(s Slot) {
	delete(p, string(s))
}

// deleteAll declares deletion of every prompt slot, superseded ones first.
func deleteAll() []Effect {
	out := make([]Effect, 0, len(promptSlots))
	for _, s := range promptSlots {
		out = append(out, DeletePrompt{Slot: s})
	}
	return out
}
