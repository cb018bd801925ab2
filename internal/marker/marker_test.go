package marker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNameTable(t *testing.T) {
	table, err := ParseNameTable("0:dresser, 2:reachy,3:table ,4:shelf,7:monitor", "")
	require.NoError(t, err)

	assert.Equal(t, 5, table.Len())
	assert.Equal(t, Name{ID: 2, Text: "reachy", Known: true}, table.Name(2))
	assert.Equal(t, Name{ID: 99, Text: DefaultPlaceholder, Known: false}, table.Name(99))
	assert.Equal(t, "0:dresser,2:reachy,3:table,4:shelf,7:monitor", table.String())
}

func TestParseNameTable_Invalid(t *testing.T) {
	invalid := []string{
		"dresser",
		"x:dresser",
		"-1:dresser",
		"1:",
		"1:a,1:b",
	}
	for _, raw := range invalid {
		_, err := ParseNameTable(raw, "unknown")
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestNameTable_CopiesInput(t *testing.T) {
	names := map[int]string{1: "door"}
	table := NewNameTable(names, "n/a")
	names[1] = "window"

	assert.Equal(t, "door", table.Name(1).Text)
	assert.Equal(t, "n/a", table.Name(5).Text)
}

func TestLabel_String(t *testing.T) {
	tests := []struct {
		name  string
		label Label
		want  string
	}{
		{"absent", Absent(), ""},
		{"present", Present(Name{ID: 3, Text: "table", Known: true}), "table"},
		{"present unknown", Present(Name{ID: 99, Text: "unknown"}), "unknown"},
		{"empty set", Set(nil), "{}"},
		{"set", Set([]Name{{ID: 2, Text: "reachy", Known: true}, {ID: 4, Text: "shelf", Known: true}}), "{'reachy', 'shelf'}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.label.String())
		})
	}
}

func TestLabel_AbsentIsNotUnknown(t *testing.T) {
	_, ok := Absent().Single()
	assert.False(t, ok)

	name, ok := Present(Name{ID: 99, Text: "unknown"}).Single()
	assert.True(t, ok)
	assert.False(t, name.Known)
}

func TestFrameSample_ElapsedSeconds(t *testing.T) {
	tests := []struct {
		ms   int64
		want int64
	}{
		{0, 0}, {999, 0}, {1000, 1}, {1999, 1}, {61000, 61}, {-5, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FrameSample{ElapsedMillis: tt.ms}.ElapsedSeconds(), "ms=%d", tt.ms)
	}
}

func TestFrameSample_CenterDistance(t *testing.T) {
	s := FrameSample{FrameHeight: 720}
	assert.InDelta(t, 10.0, s.CenterDistance(Detection{Position: &Point{Y: 370}}), 1e-9)
	assert.InDelta(t, 10.0, s.CenterDistance(Detection{Position: &Point{Y: 350}}), 1e-9)
	assert.True(t, math.IsInf(s.CenterDistance(Detection{}), 1))
}

func TestValidDictionary(t *testing.T) {
	assert.True(t, ValidDictionary("5x5_100"))
	assert.True(t, ValidDictionary(" 4X4_50 "))
	assert.True(t, ValidDictionary("original"))
	assert.False(t, ValidDictionary("5x5"))
	assert.False(t, ValidDictionary(""))
}
