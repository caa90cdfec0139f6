// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishConfigConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  PublishConfig
		want bool
	}{
		{"both set", PublishConfig{BotToken: "1:abc", ChannelID: "@news"}, true},
		{"no token", PublishConfig{ChannelID: "@news"}, false},
		{"no channel", PublishConfig{BotToken: "1:abc"}, false},
		{"empty", PublishConfig{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Configured())
		})
	}
}
