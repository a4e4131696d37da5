package domain

import (
	"encoding/json"
	"fmt"
)

// QuestionType is the input widget a question node renders.
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiChoice  QuestionType = "multi_choice"
	QuestionText         QuestionType = "text"
	QuestionNumber       QuestionType = "number"
)

// Option is one selectable answer of a choice question.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// NodeConfig is the node payload. The engine only reads QuestionType and
// Options; everything else is kept in Extra for the editor.
type NodeConfig struct {
	QuestionType QuestionType
	Options      []Option
	Required     bool
	Extra        map[string]json.RawMessage
}

// AcceptsAnswer reports whether value is a legal answer for a node with this
// config. Free-form question types accept anything.
func (c NodeConfig) AcceptsAnswer(value any) bool {
	if value == nil {
		return !c.Required
	}
	if len(c.Options) == 0 {
		return true
	}
	switch c.QuestionType {
	case QuestionSingleChoice:
		return c.hasOption(value)
	case QuestionMultiChoice:
		list, ok := AsList(value)
		if !ok {
			return false
		}
		for _, v := range list {
			if !c.hasOption(v) {
				return false
			}
		}
		return true
	}
	return true
}

func (c NodeConfig) hasOption(value any) bool {
	for _, opt := range c.Options {
		if ValuesEqual(opt.Value, value) {
			return true
		}
	}
	return false
}

// IsZero reports whether the config carries nothing.
func (c NodeConfig) IsZero() bool {
	return c.QuestionType == "" && len(c.Options) == 0 && !c.Required && len(c.Extra) == 0
}

func (c NodeConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.QuestionType != "" {
		out["questionType"] = c.QuestionType
	}
	if len(c.Options) > 0 {
		out["options"] = c.Options
	}
	if c.Required {
		out["required"] = true
	}
	return json.Marshal(out)
}

func (c *NodeConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("node config: %w", err)
	}
	*c = NodeConfig{}
	if v, ok := raw["questionType"]; ok {
		if err := json.Unmarshal(v, &c.QuestionType); err != nil {
			return fmt.Errorf("node config questionType: %w", err)
		}
		delete(raw, "questionType")
	}
	if v, ok := raw["options"]; ok {
		if err := json.Unmarshal(v, &c.Options); err != nil {
			return fmt.Errorf("node config options: %w", err)
		}
		delete(raw, "options")
	}
	if v, ok := raw["required"]; ok {
		if err := json.Unmarshal(v, &c.Required); err != nil {
			return fmt.Errorf("node config required: %w", err)
		}
		delete(raw, "required")
	}
	if len(raw) > 0 {
		c.Extra = raw
	}
	return nil
}
