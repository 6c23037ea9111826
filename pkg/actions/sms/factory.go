package sms

import (
	"github.com/loomline/loomline/pkg/models"
	"github.com/loomline/loomline/pkg/protocol"
)

type Factory struct {
	sender protocol.NotificationSender
}

func NewFactory(sender protocol.NotificationSender) *Factory {
	return &Factory{sender: sender}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config, f.sender)
}

func (f *Factory) ID() models.ActionType { return models.ActionTypeSMS }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"to", "message"},
		"properties": map[string]any{
			"to":      map[string]any{"type": "string"},
			"message": map[string]any{"type": "string"},
		},
	}
}
