package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want Column
	}{
		{"long", "Long:measurement_1", Column{Name: "measurement_1", Kind: KindLong}},
		{"string default size", "String:resource", Column{Name: "resource", Kind: KindString, Size: 100}},
		{"string with size", "String:personal_id:size=12", Column{Name: "personal_id", Kind: KindString, Size: 12}},
		{"description", "Long:age:description=years", Column{Name: "age", Kind: KindLong, Description: "years"}},
		{"description without value", "Long:age:description", Column{Name: "age", Kind: KindLong}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDescriptor(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDescriptor_Errors(t *testing.T) {
	for _, in := range []string{
		"",
		"String",
		"String:",
		"Double:x",
		"string:x",
		"Long:x:size=3",
		"String:x:size=0",
		"String:x:size=abc",
		"String:x:color=red",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDescriptor(in)
			assert.Error(t, err)
		})
	}
}

func TestFormatDescriptor_RoundTrip(t *testing.T) {
	for _, in := range []string{"String:a:size=12", "Long:b", "String:c:size=100:description=note"} {
		col, err := ParseDescriptor(in)
		require.NoError(t, err)
		assert.Equal(t, in, FormatDescriptor(col))
	}
}
