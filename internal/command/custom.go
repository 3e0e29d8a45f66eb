package command

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aiist007/JSpeak/internal/protocol"
)

// customFile is the YAML schema for user-defined spoken commands
type customFile struct {
	Commands []customCommand `yaml:"commands"`
	Suppress []string        `yaml:"suppress"`
}

type customCommand struct {
	Phrases []string `yaml:"phrases"`
	Action  string   `yaml:"action"`
	Text    string   `yaml:"text"`
	Count   int      `yaml:"count"`
}

// LoadCustomFile merges user-defined phrases from a YAML file over the
// built-in table. User phrases win on collision.
func (in *Interpreter) LoadCustomFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read commands file: %w", err)
	}

	var file customFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse commands file: %w", err)
	}

	for i, cmd := range file.Commands {
		action, err := buildAction(cmd)
		if err != nil {
			return fmt.Errorf("commands[%d]: %w", i, err)
		}
		for _, phrase := range cmd.Phrases {
			key := Key(phrase)
			if key == "" {
				continue
			}
			in.exact[key] = []protocol.Action{action}
		}
	}

	for _, phrase := range file.Suppress {
		if key := Key(phrase); key != "" {
			in.suppressed[key] = struct{}{}
		}
	}
	return nil
}

func buildAction(cmd customCommand) (protocol.Action, error) {
	count := cmd.Count
	if count <= 0 {
		count = 1
	}
	switch cmd.Action {
	case protocol.ActionInsert:
		if cmd.Text == "" {
			return protocol.Action{}, fmt.Errorf("insert command requires text")
		}
		return protocol.Insert(cmd.Text), nil
	case protocol.ActionDeleteBackward:
		return protocol.DeleteBackward(count), nil
	case protocol.ActionDeleteBackwardWord:
		return protocol.DeleteBackwardWord(count), nil
	case protocol.ActionDeleteBackwardSentence:
		return protocol.DeleteBackwardSentence(count), nil
	case protocol.ActionSystemUndo, protocol.ActionSystemRedo, protocol.ActionClear:
		return protocol.Action{Type: cmd.Action}, nil
	default:
		return protocol.Action{}, fmt.Errorf("unknown action type %q", cmd.Action)
	}
}
