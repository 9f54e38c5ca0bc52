package models

import "strings"

// CommandType enumerates supported bot commands.
type CommandType string

const (
	CommandLow     CommandType = "low"
	CommandStock   CommandType = "stock"
	CommandFind    CommandType = "find"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// Argument joins the command arguments back into a single phrase.
func (c Command) Argument() string {
	return strings.Join(c.Args, " ")
}

// ParseCommand derives a Command instance from free-form text messages.
// Arguments keep their original casing so category names can be matched as typed.
func ParseCommand(message string) Command {
	tokens := strings.Fields(message)
	cmd := Command{Raw: message, Type: CommandUnknown}

	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch head {
	case string(CommandLow):
		cmd.Type = CommandLow
	case string(CommandStock):
		cmd.Type = CommandStock
	case string(CommandFind):
		cmd.Type = CommandFind
	case string(CommandHelp):
		cmd.Type = CommandHelp
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
