package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

func TestResolveTime_Relative(t *testing.T) {
	assert.Equal(t, iso(45), ResolveTime(ir.Number(45), RelativeTime, fixedNow))
	assert.Equal(t, iso(-30), ResolveTime(ir.Number(-30), RelativeTime, fixedNow))
	assert.Equal(t, ir.Str("2025-01-15T10:01:30.000Z"), ResolveTime(ir.Number(1.5), RelativeTime, fixedNow))
}

func TestResolveTime_Absolute(t *testing.T) {
	assert.Equal(t, ir.Str("1970-01-01T00:00:00.000Z"), ResolveTime(ir.Number(0), AbsoluteTime, fixedNow))
	assert.Equal(t, ir.Str("2023-11-14T22:13:20.000Z"), ResolveTime(ir.Number(1700000000), AbsoluteTime, fixedNow))

	// fractional epoch seconds are not a timestamp
	assert.Equal(t, ir.Number(1.5), ResolveTime(ir.Number(1.5), AbsoluteTime, fixedNow))
}

func TestResolveTime_PassThrough(t *testing.T) {
	stamp := ir.Str("2025-02-01T09:00:00.000Z")
	assert.Equal(t, stamp, ResolveTime(stamp, RelativeTime, fixedNow))
	assert.Equal(t, stamp, ResolveTime(stamp, AbsoluteTime, fixedNow))
	assert.Equal(t, ir.Str("tomorrow"), ResolveTime(ir.Str("tomorrow"), RelativeTime, fixedNow))
	assert.Equal(t, ir.Number(10), ResolveTime(ir.Number(10), NoTime, fixedNow))
	assert.Equal(t, ir.Null{}, ResolveTime(ir.Null{}, RelativeTime, fixedNow))
}

func TestResolveTime_List(t *testing.T) {
	got := ResolveTime(ir.List{ir.Number(0), ir.Number(60), ir.Str("x")}, RelativeTime, fixedNow)
	assert.Equal(t, ir.List{iso(0), iso(60), ir.Str("x")}, got)
}

func TestFormatISO_ConvertsToUTC(t *testing.T) {
	zone := time.FixedZone("NPT", 5*3600+45*60)
	local := time.Date(2025, 1, 15, 15, 45, 0, 123456789, zone)
	assert.Equal(t, "2025-01-15T10:00:00.123Z", FormatISO(local))
}
