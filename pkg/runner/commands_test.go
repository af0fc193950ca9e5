package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"next", command{name: "next"}},
		{"  N  ", command{name: "next"}},
		{"a my answer  with  spaces ", command{name: "answer", arg: "my answer  with  spaces"}},
		{"goto 3", command{name: "goto", arg: "3"}},
		{"exit", command{name: "quit"}},
		{"", command{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCommand(tt.line), tt.line)
	}
}

func TestCommandOrdinal(t *testing.T) {
	idx, ok := command{arg: "1"}.ordinal()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = command{arg: "one"}.ordinal()
	assert.False(t, ok)
}
