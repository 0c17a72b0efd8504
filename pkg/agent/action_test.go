package agent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/agent"
)

func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reply   string
		want    agent.Action
		wantErr bool
	}{
		{
			name:  "plain json",
			reply: `{"action":"click","selector":"#next"}`,
			want:  agent.Action{Action: agent.ActionClick, Selector: "#next"},
		},
		{
			name:  "fenced and upper case",
			reply: "```json\n{\"action\":\"GOTO\",\"value\":\"https://mail.example.com\"}\n```",
			want:  agent.Action{Action: agent.ActionGoto, Value: "https://mail.example.com"},
		},
		{name: "done without fields", reply: `{"action":"done"}`, want: agent.Action{Action: agent.ActionDone}},
		{name: "not json", reply: "click the button", wantErr: true},
		{name: "unknown action", reply: `{"action":"scroll"}`, wantErr: true},
		{name: "click without selector", reply: `{"action":"click"}`, wantErr: true},
		{name: "fill without value", reply: `{"action":"fill","selector":"#a"}`, wantErr: true},
		{name: "type without value", reply: `{"action":"type"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := agent.ParseAction(tt.reply)
			if tt.wantErr {
				require.ErrorIs(t, err, agent.ErrInvalidAction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstitute(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"user": "alice", "password": "pw"}

	got, err := agent.Substitute("{{user}} / {{ password }}", vars)
	require.NoError(t, err)
	assert.Equal(t, "alice / pw", got)

	got, err = agent.Substitute("no placeholders", vars)
	require.NoError(t, err)
	assert.Equal(t, "no placeholders", got)

	_, err = agent.Substitute("{{otp}}", vars)
	require.ErrorIs(t, err, agent.ErrUnknownVariable)
	assert.Contains(t, err.Error(), "otp")
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	raw := `<html><head><title>Mail</title><script>var x=1</script></head>
<body>
  <div class="wrapper" style="color:red">
    <input id="email" name="email" value="secret@example.com" placeholder="Email">
    <input type="hidden" name="csrf" value="tok">
    <span aria-hidden="true">icon</span>
    <button data-testid="next" onclick="go()">Next</button>
  </div>
</body></html>`

	out, err := agent.Snapshot(raw, 0)
	require.NoError(t, err)

	assert.Contains(t, out, `<input id="email" name="email" placeholder="Email">`)
	assert.Contains(t, out, `<button data-testid="next">Next</button>`)
	assert.NotContains(t, out, "secret@example.com")
	assert.NotContains(t, out, "csrf")
	assert.NotContains(t, out, "icon")
	assert.NotContains(t, out, "var x")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "class=")
	assert.NotContains(t, out, "Mail")
}

func TestSnapshot_Truncates(t *testing.T) {
	t.Parallel()

	raw := "<body>"
	for range 200 {
		raw += "<p>lorem ipsum dolor sit amet</p>"
	}
	raw += "</body>"

	out, err := agent.Snapshot(raw, 500)
	require.NoError(t, err)
	assert.Contains(t, out, "[snapshot truncated]")
	assert.LessOrEqual(t, len(out), 500+len("\n[snapshot truncated]"))
}
