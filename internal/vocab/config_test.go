package vocab

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

func TestValidateUserConfig(t *testing.T) {
	tables := Must()

	tests := []struct {
		name    string
		cfg     ir.UserConfig
		wantErr string
	}{
		{"empty", ir.UserConfig{}, ""},
		{"full", ir.UserConfig{API: "key", Base: "https://events.example.com/v1", Timeout: 30, Retries: 3}, ""},
		{"http base", ir.UserConfig{Base: "http://localhost:8080"}, ""},
		{"bad scheme", ir.UserConfig{Base: "ftp://x"}, "base"},
		{"not a url", ir.UserConfig{Base: "events"}, "base"},
		{"negative timeout", ir.UserConfig{Timeout: -1}, "timeout"},
		{"huge timeout", ir.UserConfig{Timeout: 301}, "timeout"},
		{"negative retries", ir.UserConfig{Retries: -2}, "retries"},
		{"too many retries", ir.UserConfig{Retries: 11}, "retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tables.ValidateUserConfig(tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.False(t, se.Pos.IsValid())
		})
	}
}

func TestValidateUserConfigConcurrent(t *testing.T) {
	tables := Must()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg := ir.UserConfig{Timeout: int64(i + 1)}
			assert.NoError(t, tables.ValidateUserConfig(cfg))
		}(i)
	}
	wg.Wait()
}
