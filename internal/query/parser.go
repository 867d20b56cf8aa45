package query

import (
	"strings"

	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

// ParsedLine is the result of splitting one client input line into its
// command token, bracketed modifiers, and body (spec §4.8: "command token,
// bracketed modifier map {name -> value}, body").
type ParsedLine struct {
	Command   string
	SubOp     string // e.g. "addfile" for "@update[...] addfile path"
	Modifiers Modifiers
	Body      string
}

// ParseLine parses one command line of the form:
//
//	@cmd[mod1=val1,mod2] body text
//	@cmd subop body text
//
// The leading '@' is required; lines without it are rejected with a
// SyntaxError, matching the wire protocol's "@cmd[mods] body" framing
// (spec §6).
func ParseLine(line string) (*ParsedLine, error) {
	if len(line) > MaxQueryLen {
		return nil, werrors.NewQueryError(nil, werrors.ErrorCodeQueryTooLong, "query too long")
	}

	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "@") {
		return nil, werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "command must start with '@'")
	}
	rest := trimmed[1:]

	cmdEnd := 0
	for cmdEnd < len(rest) && rest[cmdEnd] != '[' && rest[cmdEnd] != ' ' && rest[cmdEnd] != '\t' {
		cmdEnd++
	}
	if cmdEnd == 0 {
		return nil, werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "missing command token").WithCommand(rest)
	}
	cmd := rest[:cmdEnd]
	rest = rest[cmdEnd:]

	mods := newModifiers(nil)
	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "unterminated modifier list").WithCommand(cmd)
		}
		mods = newModifiers(parseModifierList(rest[1:end]))
		rest = rest[end+1:]
	}

	body := strings.TrimSpace(rest)

	subOp := ""
	if isUpdateCommand(cmd) {
		parts := strings.SplitN(body, " ", 2)
		subOp = strings.ToLower(parts[0])
		if len(parts) > 1 {
			body = strings.TrimSpace(parts[1])
		} else {
			body = ""
		}
	}

	return &ParsedLine{
		Command:   strings.ToLower(cmd),
		SubOp:     subOp,
		Modifiers: mods,
		Body:      body,
	}, nil
}

func isUpdateCommand(cmd string) bool {
	return strings.EqualFold(cmd, "update")
}

// parseModifierList splits a comma-separated "name=value,name" list into a
// map. Bare names (no '=') map to the empty string, which Modifiers.Bool
// treats as true.
func parseModifierList(s string) map[string]string {
	out := map[string]string{}
	if s == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		if !found {
			out[strings.TrimSpace(name)] = ""
			continue
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return out
}
