package compiler

import (
	"fmt"
	"strings"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/scan"
	"github.com/Enfiniq/loomcal-sub000/internal/vocab"
)

// SplitCommand separates a leading /name (or /name@bot) from the body.
// ok is false when text does not start with a command token.
func SplitCommand(text string) (name, body string, ok bool) {
	name, _, body, ok = SplitAddressed(text)
	return name, body, ok
}

// SplitAddressed is SplitCommand that also returns the bot a /name@bot
// command is addressed to, or "" when none is named.
func SplitAddressed(text string) (name, bot, body string, ok bool) {
	text = strings.TrimLeft(text, " \t\r\n")
	if len(text) < 2 || text[0] != '/' {
		return "", "", "", false
	}

	i := 1
	for i < len(text) && scan.IsWord(text[i]) {
		i++
	}
	if i == 1 {
		return "", "", "", false
	}
	name = strings.ToLower(text[1:i])

	if i < len(text) && text[i] == '@' {
		i++
		start := i
		for i < len(text) && scan.IsWord(text[i]) {
			i++
		}
		bot = text[start:i]
	}
	if i < len(text) && !isSpaceByte(text[i]) {
		return "", "", "", false
	}
	return name, bot, strings.TrimSpace(text[i:]), true
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// CompileText compiles a full chat message such as `/get -type gym`.
func (c *Compiler) CompileText(text string) (*ir.Request, error) {
	name, body, ok := SplitCommand(text)
	if !ok {
		return nil, newStructuralError(ErrCodeUnknownCommand,
			"message does not start with a command", nil)
	}
	cmd := ir.Command(name)
	if !ir.ValidCommands[cmd] {
		return nil, newStructuralError(ErrCodeUnknownCommand,
			fmt.Sprintf("unknown command /%s", name),
			map[string]string{"command": name})
	}
	return c.Compile(cmd, body)
}

// CompileConfig reads the -api, -base, -timeout and -retries flags of a
// /config body and validates the result. Fields that are not given stay
// zero so the caller can merge over stored configuration.
func (c *Compiler) CompileConfig(body string) (ir.UserConfig, error) {
	var cfg ir.UserConfig
	if len(body) > c.tables.MaxInputBytes {
		return cfg, newStructuralError(ErrCodeInputTooLong, "command is too long", nil)
	}

	for _, seg := range scan.Split(body) {
		if seg.Kind != scan.FlagSegment || seg.Text == "" {
			continue
		}
		flag, ok := c.tables.Flag(seg.Flag)
		if !ok || flag.Kind != vocab.KindConfig {
			continue
		}

		v := Coerce(seg.Text)
		switch flag.Field {
		case "api", "base":
			s, ok := literalString(v)
			if !ok {
				return cfg, invalidConfig(flag.Field, "must be text")
			}
			if flag.Field == "api" {
				cfg.API = s
			} else {
				cfg.Base = strings.TrimRight(s, "/")
			}
		case "timeout", "retries":
			n, ok := v.(ir.Number)
			if !ok || !n.IsInt() {
				return cfg, invalidConfig(flag.Field, "must be a whole number")
			}
			if flag.Field == "timeout" {
				cfg.Timeout = n.Int()
			} else {
				cfg.Retries = n.Int()
			}
		}
	}

	if err := c.tables.ValidateUserConfig(cfg); err != nil {
		return cfg, newStructuralError(ErrCodeInvalidConfig, err.Error(), nil)
	}
	return cfg, nil
}

func invalidConfig(field, reason string) *StructuralError {
	return newStructuralError(ErrCodeInvalidConfig,
		fmt.Sprintf("%s %s", field, reason),
		map[string]string{"field": field})
}
