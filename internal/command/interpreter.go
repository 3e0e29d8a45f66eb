package command

import (
	"regexp"
	"strings"

	"github.com/aiist007/JSpeak/internal/protocol"
)

var (
	edgePunct   = "\r\n\t ,.!?;:，。！？；："
	reStripJunk = regexp.MustCompile(`[\s,.!?;:\x{ff0c}\x{3002}\x{ff01}\x{ff1f}\x{ff1b}\x{ff1a}]`)
)

// Key normalizes a spoken phrase for table lookup: trim surrounding
// whitespace/punctuation, lower-case, then drop all internal whitespace and
// punctuation so minor recognition jitter still matches.
func Key(text string) string {
	t := strings.ToLower(strings.Trim(text, edgePunct))
	return reStripJunk.ReplaceAllString(t, "")
}

// Interpreter matches normalized utterances against a fixed command table
type Interpreter struct {
	exact      map[string][]protocol.Action
	suppressed map[string]struct{}
}

// Variants of the default system prompt the model occasionally echoes back.
// Recognized as commands that produce nothing so they never reach the editor.
var defaultSuppressedPhrases = []string{
	"请优先使用简体中文标点与表达，保留英文单词",
	"请使用简体中文标点与表达，保留英文单词",
	"请优先使用简体中文标点与表达，保留英文单词/缩写原样",
}

// NewInterpreter builds an interpreter with the built-in bilingual table
func NewInterpreter() *Interpreter {
	in := &Interpreter{
		exact:      make(map[string][]protocol.Action),
		suppressed: make(map[string]struct{}),
	}

	for _, p := range defaultSuppressedPhrases {
		in.suppressed[Key(p)] = struct{}{}
	}

	add := func(action protocol.Action, phrases ...string) {
		for _, p := range phrases {
			in.exact[Key(p)] = []protocol.Action{action}
		}
	}

	add(protocol.Insert("\n"), "换行", "回车", "下一行", "new line", "newline", "enter")
	add(protocol.Insert(" "), "空格", "space")
	add(protocol.DeleteBackward(1), "删除", "退格", "backspace", "delete")
	add(protocol.DeleteBackwardWord(1), "删除一个词", "删除上一个词", "delete word", "delete last word")
	add(protocol.DeleteBackwardSentence(1), "删除一句", "删除上一句", "delete sentence", "delete last sentence")
	add(protocol.Action{Type: protocol.ActionSystemUndo}, "撤销", "undo")
	add(protocol.Action{Type: protocol.ActionSystemRedo}, "重做", "redo")
	add(protocol.Action{Type: protocol.ActionClear}, "清空", "清除", "clear")

	punct := map[string]string{
		"逗号":               "，",
		"句号":               "。",
		"问号":               "？",
		"感叹号":              "！",
		"冒号":               "：",
		"分号":               "；",
		"comma":            ",",
		"period":           ".",
		"question mark":    "?",
		"exclamation mark": "!",
		"colon":            ":",
		"semicolon":        ";",
	}
	for phrase, ch := range punct {
		add(protocol.Insert(ch), phrase)
	}

	return in
}

// Interpret matches text against the table. The bool reports whether text is
// a command at all; a suppressed phrase is a command with an empty (non-nil)
// action list, distinct from "not a command".
func (in *Interpreter) Interpret(text string) ([]protocol.Action, bool) {
	key := Key(text)
	if key == "" {
		return nil, false
	}

	if _, ok := in.suppressed[key]; ok {
		return []protocol.Action{}, true
	}
	if actions, ok := in.exact[key]; ok {
		out := make([]protocol.Action, len(actions))
		copy(out, actions)
		return out, true
	}
	return nil, false
}
