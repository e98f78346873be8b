package compiler

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// To regenerate the golden files, run:
//
//	go test ./internal/compiler -run TestCompileGolden -update
func TestCompileGolden(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"create_workout", `/create "Workout" "At Nepal Gym" 0 45 "gym" "daily" "#0000ff"`},
		{"get_nin", `/get -type $nin("workout","gym")`},
		{"update_meeting", `/update -t "Meeting" -to -color "red"`},
		{"get_time_range", `/get -rt $gt(0) $lt(60) -o {"limit":10,"sortOrder":"desc"}`},
		{"delete_filter", `/delete -type gym -f {"color":"red"}`},
	}

	c := newTestCompiler()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := c.CompileText(tc.text)
			require.NoError(t, err)

			data, err := json.MarshalIndent(req, "", "  ")
			require.NoError(t, err)
			g.Assert(t, tc.name, append(data, '\n'))
		})
	}
}
