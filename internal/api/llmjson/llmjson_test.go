package llmjson

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Events []struct {
		Name string `json:"name"`
	} `json:"events"`
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", "Here you go!\n{\"a\":{\"b\":2}}\nEnjoy your trip.", `{"a":{"b":2}}`},
		{"greedy span", `x {"a":1} y {"b":2} z`, `{"a":1} y {"b":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Extract("no braces here")
	assert.ErrorIs(t, err, ErrNoObject)
	_, err = Extract("} backwards {")
	assert.ErrorIs(t, err, ErrNoObject)
}

func TestParse(t *testing.T) {
	t.Run("valid with prose", func(t *testing.T) {
		res := Parse[sample]("Sure! {\"events\":[{\"name\":\"Fête de la Musique\"}]} Have fun.", []string{"events"}, nil)
		v, ok := res.Get()
		require.True(t, ok)
		assert.Equal(t, "Fête de la Musique", v.Events[0].Name)
	})

	t.Run("missing required key", func(t *testing.T) {
		res := Parse[sample](`{"other":[]}`, []string{"events"}, nil)
		_, ok := res.Get()
		assert.False(t, ok)
		assert.Contains(t, res.Reason(), "events")
	})

	t.Run("null required key", func(t *testing.T) {
		res := Parse[sample](`{"events":null}`, []string{"events"}, nil)
		assert.False(t, res.Valid())
	})

	t.Run("type mismatch", func(t *testing.T) {
		res := Parse[sample](`{"events":"none"}`, []string{"events"}, nil)
		assert.False(t, res.Valid())
	})

	t.Run("trailing commas tolerated", func(t *testing.T) {
		res := Parse[sample](`{"events":[{"name":"A"},],}`, []string{"events"}, nil)
		assert.True(t, res.Valid(), res.Reason())
	})

	t.Run("trailing comma repair leaves strings alone", func(t *testing.T) {
		in := `{"events":[{"name":"Jazz, ]Fest \", }"},],}`
		res := Parse[sample](in, []string{"events"}, nil)
		v, ok := res.Get()
		require.True(t, ok, res.Reason())
		assert.Equal(t, `Jazz, ]Fest ", }`, v.Events[0].Name)
	})

	t.Run("unknown keys ignored", func(t *testing.T) {
		res := Parse[sample](`{"events":[{"name":"A","venue":"Pier 4"}],"note":"x"}`, []string{"events"}, nil)
		assert.True(t, res.Valid(), res.Reason())
	})

	t.Run("validator rejects", func(t *testing.T) {
		res := Parse[sample](`{"events":[]}`, []string{"events"}, func(s sample) error {
			if len(s.Events) == 0 {
				return errors.New("no events")
			}
			return nil
		})
		assert.False(t, res.Valid())
		assert.Equal(t, "no events", res.Reason())
	})

	t.Run("no object", func(t *testing.T) {
		res := Parse[sample]("I cannot help with that.", []string{"events"}, nil)
		assert.False(t, res.Valid())
	})
}

func TestDropTrailingCommas(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"a":[1,2,],}`, `{"a":[1,2]}`},
		{"{\"a\":1 ,\n }", "{\"a\":1 \n }"},
		{`{"a":"x, }"}`, `{"a":"x, }"}`},
		{`{"a":"q\\",}`, `{"a":"q\\"}`},
		{`{"a":"say \"hi, ]\"",}`, `{"a":"say \"hi, ]\""}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, dropTrailingCommas(tt.in), tt.in)
	}
}
