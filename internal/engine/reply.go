package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Enfiniq/loomcal-sub000/internal/client"
	"github.com/Enfiniq/loomcal-sub000/internal/compiler"
	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/store"
)

// maxListed caps the rows a /get reply prints.
const maxListed = 10

const helpText = `Commands:
/create Gym -rt 10 70 -type gym        add an event
/get -type gym                          find events
/update -t Standup -to -color blue      change matching events
/delete -type $in("gym","yoga")         remove matching events
/config -base https://host -api KEY     use your own event store
/help                                   show this message

Times after -rt are minutes from now. Values may be quoted, and fields
accept operators such as $gt(5), $in("a","b") and $regex("^Yo").`

const (
	notACommandText = "Commands start with /. Send /help to see them."
	unavailableText = "The event store is unavailable right now. Please try again later."
)

func structuralText(err error) string {
	var se *compiler.StructuralError
	if errors.As(err, &se) {
		return "Could not read that command: " + se.Message + "."
	}
	return "Could not read that command."
}

func unknownCommandText(name string, suggestions []string) string {
	text := fmt.Sprintf("Unknown command /%s.", name)
	if len(suggestions) == 0 {
		return text + " Send /help to see the commands."
	}
	for i, s := range suggestions {
		suggestions[i] = "/" + s
	}
	return text + " Did you mean " + strings.Join(suggestions, " or ") + "?"
}

func executionText(err error) string {
	var se *client.StatusError
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return "A matching event already exists."
	case errors.Is(err, store.ErrUnknownUser):
		return "You are not registered with this event store."
	case errors.Is(err, store.ErrNoUser):
		return "Signed requests need a sender."
	case errors.As(err, &se):
		return fmt.Sprintf("The event store refused the request (HTTP %d).", se.Code)
	default:
		return "The request failed. Please try again later."
	}
}

func resultText(cmd ir.Command, res ir.Result) string {
	switch cmd {
	case ir.CmdCreate:
		return createdText(res)
	case ir.CmdGet:
		return foundText(res)
	case ir.CmdUpdate:
		return fmt.Sprintf("Updated %s.", plural(res.Affected, "event"))
	case ir.CmdDelete:
		return fmt.Sprintf("Deleted %s.", plural(res.Affected, "event"))
	default:
		return res.Message
	}
}

func createdText(res ir.Result) string {
	if len(res.IDs) == 0 {
		return "Created."
	}
	id := res.IDs[0]
	switch res.Message {
	case "duplicate ignored":
		return fmt.Sprintf("Already saved as %s.", id)
	case "duplicate updated":
		return fmt.Sprintf("Updated existing event %s.", id)
	default:
		return fmt.Sprintf("Created %s.", id)
	}
}

func foundText(res ir.Result) string {
	if len(res.Rows) == 0 {
		if len(res.IDs) > 0 {
			return fmt.Sprintf("Found %s.", plural(int64(len(res.IDs)), "event"))
		}
		return "No events found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %s:", plural(int64(len(res.Rows)), "event"))
	for i, row := range res.Rows {
		if i == maxListed {
			fmt.Fprintf(&b, "\n...and %d more", len(res.Rows)-maxListed)
			break
		}
		b.WriteString("\n- ")
		b.WriteString(rowLine(row))
	}
	return b.String()
}

// rowLine renders an event as "id title (startTime)", leaving out what
// the event does not have.
func rowLine(row ir.Map) string {
	parts := make([]string, 0, 3)
	for _, key := range []string{"id", "title"} {
		if s, ok := row[key].(ir.Str); ok && s != "" {
			parts = append(parts, string(s))
		}
	}
	if s, ok := row["startTime"].(ir.Str); ok && s != "" {
		parts = append(parts, "("+string(s)+")")
	}
	if len(parts) == 0 {
		return "(event)"
	}
	return strings.Join(parts, " ")
}

func configText(heading string, cfg ir.UserConfig) string {
	if cfg == (ir.UserConfig{}) {
		return heading + ": the built-in event store."
	}

	var b strings.Builder
	b.WriteString(heading + ":")
	if cfg.Base != "" {
		b.WriteString("\nbase: " + cfg.Base)
	}
	if cfg.API != "" {
		b.WriteString("\napi: " + maskKey(cfg.API))
	}
	if cfg.Timeout != 0 {
		fmt.Fprintf(&b, "\ntimeout: %ds", cfg.Timeout)
	}
	if cfg.Retries != 0 {
		fmt.Fprintf(&b, "\nretries: %d", cfg.Retries)
	}
	return b.String()
}

// maskKey keeps the last four characters of an API key.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func plural(n int64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
