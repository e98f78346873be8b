package vocab

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// ValidateUserConfig checks cfg against the #UserConfig definition.
// Zero fields are treated as absent.
func (t *Tables) ValidateUserConfig(cfg ir.UserConfig) error {
	fields := map[string]any{}
	if cfg.API != "" {
		fields["api"] = cfg.API
	}
	if cfg.Base != "" {
		fields["base"] = cfg.Base
	}
	if cfg.Timeout != 0 {
		fields["timeout"] = cfg.Timeout
	}
	if cfg.Retries != 0 {
		fields["retries"] = cfg.Retries
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	val := t.ctx.Encode(fields)
	if err := val.Err(); err != nil {
		return formatCUEError(err)
	}
	if err := t.userConfig.Unify(val).Validate(cue.Concrete(true)); err != nil {
		se := formatCUEError(err)
		if s, ok := se.(*SchemaError); ok {
			// Positions point into the embedded file, which means nothing
			// to the user supplying the value.
			s.Pos = token.NoPos
		}
		return se
	}
	return nil
}
