package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/lucasb-eyer/go-colorful"

	"cyclotron/host/link"
)

var errEmptyLine = errors.New("empty line")

// splitCommands splits "-e" input on semicolons.
func splitCommands(s string) []string {
	var cmds []string
	for _, c := range strings.Split(s, ";") {
		if c = strings.TrimSpace(c); c != "" {
			cmds = append(cmds, c)
		}
	}
	return cmds
}

// parseLine turns `ring_set_color oid=0 color=#ff8000 brightness=128` into
// a command name and its arguments. Symbolic values are resolved through
// the dictionary enumerations; color=#rrggbb expands to red, green and
// blue.
func parseLine(line string, dict *link.Dictionary) (string, link.Args, error) {
	words, err := shlex.Split(line)
	if err != nil {
		return "", nil, err
	}
	if len(words) == 0 {
		return "", nil, errEmptyLine
	}

	name := words[0]
	msg, ok := dict.Command(name)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", link.ErrUnknownMessage, name)
	}

	args := link.Args{}
	for _, w := range words[1:] {
		key, value, ok := strings.Cut(w, "=")
		if !ok {
			return "", nil, fmt.Errorf("argument %q is not key=value", w)
		}
		if key == "color" {
			c, err := colorful.Hex(value)
			if err != nil {
				return "", nil, fmt.Errorf("color %q: %w", value, err)
			}
			r, g, b := c.RGB255()
			args["red"], args["green"], args["blue"] = r, g, b
			continue
		}
		if isBytesParam(msg, key) {
			args[key] = value
			continue
		}
		n, err := parseValue(dict, key, value)
		if err != nil {
			return "", nil, err
		}
		args[key] = n
	}
	return name, args, nil
}

func isBytesParam(msg *link.Message, key string) bool {
	for _, p := range msg.Params {
		if p.Name == key {
			return p.IsBytes()
		}
	}
	return false
}

func parseValue(dict *link.Dictionary, key, value string) (int64, error) {
	switch strings.ToLower(value) {
	case "true", "on", "yes":
		return 1, nil
	case "false", "off", "no":
		return 0, nil
	}
	if n, err := strconv.ParseInt(value, 0, 64); err == nil {
		return n, nil
	}
	if n, ok := dict.Enum(key, value); ok {
		return int64(n), nil
	}
	return 0, fmt.Errorf("%s=%s: %w", key, value, link.ErrBadValue)
}

// formatResponse prints a response with enumeration values by name.
func formatResponse(r *link.Response, dict *link.Dictionary) string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	for _, v := range r.Values {
		sb.WriteByte(' ')
		sb.WriteString(v.Name)
		sb.WriteByte('=')
		if v.Bytes != nil {
			sb.WriteString(strconv.Quote(string(v.Bytes)))
			continue
		}
		if name, ok := dict.EnumName(v.Name, v.Int); ok {
			sb.WriteString(name)
			continue
		}
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	}
	return sb.String()
}
