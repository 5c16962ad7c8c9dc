package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Command
	}{
		{
			name:  "tag comment and link",
			input: "#bot bodyshaming https://t.co/0815",
			want:  Command{Matched: true, Comment: "bodyshaming", Link: "https://t.co/0815"},
		},
		{
			name:  "comment with spaces",
			input: "#bot great catch https://x.test/alice/status/42",
			want:  Command{Matched: true, Comment: "great catch", Link: "https://x.test/alice/status/42"},
		},
		{
			name:  "tag marker is optional",
			input: "bot note https://t.co/1",
			want:  Command{Matched: true, Comment: "note", Link: "https://t.co/1"},
		},
		{name: "wrong key sign", input: "!bot bodyshaming https://t.co/0815"},
		{name: "no keyword", input: "bodyshaming https://t.co/0815"},
		{name: "only comment", input: "bodyshaming"},
		{name: "only url", input: "https://t.co/0815"},
		{name: "only command", input: "#bot"},
		{name: "command and comment without url", input: "#bot hallo"},
		{name: "command and url without comment", input: "#bot https://t.co/0815"},
		{name: "blank", input: " "},
		{name: "empty", input: ""},
		{name: "keyword is case sensitive", input: "#Bot note https://t.co/1"},
		{name: "http is not accepted", input: "#bot note http://t.co/1"},
		{name: "trailing content after link", input: "#bot note https://t.co/1 thanks"},
		{name: "leading content before tag", input: "hey #bot note https://t.co/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.input))
		})
	}
}

func TestParseCommand_GreedyComment(t *testing.T) {
	got := ParseCommand("#bot compare https://t.co/a https://t.co/b")
	assert.True(t, got.Matched)
	assert.Equal(t, "compare https://t.co/a", got.Comment)
	assert.Equal(t, "https://t.co/b", got.Link)
}
