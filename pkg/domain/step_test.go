package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep_UnmarshalWireFormat(t *testing.T) {
	payload := `{"steps":[
		{"action":"expand","rule":["s",["np","vp"]],"stack":["s"],"input_index":0},
		{"action":"shift","rule":null,"stack":[],"input_index":1},
		{"action":"accept","stack":["s"],"input_index":2}
	]}`

	var resp struct {
		Steps []Step `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))
	require.Len(t, resp.Steps, 3)

	assert.Equal(t, ActionExpand, resp.Steps[0].Action)
	require.NotNil(t, resp.Steps[0].Rule)
	assert.Equal(t, "s", resp.Steps[0].Rule.LHS)
	assert.Equal(t, []string{"np", "vp"}, resp.Steps[0].Rule.RHS)

	assert.Nil(t, resp.Steps[1].Rule)
	assert.Equal(t, 1, resp.Steps[1].InputIndex)

	assert.Equal(t, ActionAccept, resp.Steps[2].Action)
	assert.Nil(t, resp.Steps[2].Rule)
}

func TestRule_UnmarshalRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Not An Array", `"s"`},
		{"Single Element", `["s"]`},
		{"Three Elements", `["s", ["a"], "x"]`},
		{"RHS Not A List", `["s", "a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Rule
			assert.Error(t, json.Unmarshal([]byte(tt.input), &r))
		})
	}
}

func TestRule_MarshalKeepsPairForm(t *testing.T) {
	data, err := json.Marshal(NewRule("np", "det", "n"))
	require.NoError(t, err)
	assert.JSONEq(t, `["np",["det","n"]]`, string(data))

	data, err = json.Marshal(Rule{LHS: "s"})
	require.NoError(t, err)
	assert.JSONEq(t, `["s",[]]`, string(data))
}

func TestRule_String(t *testing.T) {
	assert.Equal(t, "np --> det,n", NewRule("np", "det", "n").String())
	var nilRule *Rule
	assert.Equal(t, "", nilRule.String())
}

func TestStep_DisplayStackDoesNotMutate(t *testing.T) {
	step := Step{Stack: []string{"a", "b", "c"}}

	assert.Equal(t, []string{"c", "b", "a"}, step.DisplayStack())
	assert.Equal(t, []string{"c", "b", "a"}, step.DisplayStack(), "repeated calls must be stable")
	assert.Equal(t, []string{"a", "b", "c"}, step.Stack)
}
