package core

import "regexp"

// CommandKeyword is the literal that marks a direct message as a bot command.
const CommandKeyword = "bot"

var commandPattern = regexp.MustCompile(`^#?` + CommandKeyword + `\s(.+)\s(https:\S+)$`)

// Command is the result of parsing a direct message. Comment and Link are
// empty unless Matched is set.
type Command struct {
	Matched bool
	Comment string
	Link    string
}

// ParseCommand parses messages of the form "#bot <comment> <https link>".
// Anything else yields an unmatched Command.
func ParseCommand(text string) Command {
	m := commandPattern.FindStringSubmatch(text)
	if m == nil {
		return Command{}
	}
	return Command{
		Matched: true,
		Comment: m[1],
		Link:    m[2],
	}
}
