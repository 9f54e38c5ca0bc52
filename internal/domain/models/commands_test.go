package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		typ  CommandType
		args []string
	}{
		{"/low", CommandLow, nil},
		{"LOW", CommandLow, nil},
		{"/stock Tempered Glass", CommandStock, []string{"Tempered", "Glass"}},
		{"  /find   hinge ", CommandFind, []string{"hinge"}},
		{"/help", CommandHelp, nil},
		{"hello there", CommandUnknown, []string{"there"}},
		{"", CommandUnknown, nil},
	}

	for _, tc := range cases {
		cmd := ParseCommand(tc.in)
		assert.Equal(t, tc.typ, cmd.Type, "input %q", tc.in)
		assert.Equal(t, tc.args, cmd.Args, "input %q", tc.in)
		assert.Equal(t, tc.in, cmd.Raw)
	}

	assert.Equal(t, "Tempered Glass", ParseCommand("/stock Tempered  Glass").Argument())
}
