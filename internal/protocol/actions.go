package protocol

// Action types emitted to the editor client
const (
	ActionInsert                 = "insert"
	ActionDeleteBackward         = "delete_backward"
	ActionDeleteBackwardWord     = "delete_backward_word"
	ActionDeleteBackwardSentence = "delete_backward_sentence"
	ActionSystemUndo             = "system_undo"
	ActionSystemRedo             = "system_redo"
	ActionClear                  = "clear"
	ActionSetComposition         = "set_composition"
)

// Emission kinds for stream_push results
const (
	KindNone    = "none"
	KindPartial = "partial"
	KindFinal   = "final"
)

// Action is one structured editor action
type Action struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Count int    `json:"count,omitempty"`
}

// Insert builds an insert-text action
func Insert(text string) Action {
	return Action{Type: ActionInsert, Text: text}
}

// SetComposition builds a composition-preview action
func SetComposition(text string) Action {
	return Action{Type: ActionSetComposition, Text: text}
}

// DeleteBackward builds a delete-characters action
func DeleteBackward(count int) Action {
	return Action{Type: ActionDeleteBackward, Count: count}
}

// DeleteBackwardWord builds a delete-words action
func DeleteBackwardWord(count int) Action {
	return Action{Type: ActionDeleteBackwardWord, Count: count}
}

// DeleteBackwardSentence builds a delete-sentences action
func DeleteBackwardSentence(count int) Action {
	return Action{Type: ActionDeleteBackwardSentence, Count: count}
}

// ComposeActions applies the two-stage IME contract: a partial emission is
// always a single composition preview; final actions pass through unchanged.
func ComposeActions(kind, text string, actions []Action) []Action {
	if kind == KindPartial {
		return []Action{SetComposition(text)}
	}
	return actions
}
