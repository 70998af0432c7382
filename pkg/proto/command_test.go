package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{
			name: "ctrl",
			line: "CTRL,0.5,0.3",
			want: Command{Kind: SetTarget, Steering: 0.5, Throttle: 0.3},
		},
		{
			name: "ctrl negative steering",
			line: "CTRL,-1.0,0.0",
			want: Command{Kind: SetTarget, Steering: -1.0, Throttle: 0.0},
		},
		{
			name: "ctrl clamps out of range values",
			line: "CTRL,2.5,-0.7",
			want: Command{Kind: SetTarget, Steering: 1.0, Throttle: 0.0},
		},
		{
			name: "ctrl with surrounding whitespace",
			line: "  CTRL,0.1,0.2\r",
			want: Command{Kind: SetTarget, Steering: 0.1, Throttle: 0.2},
		},
		{
			name: "mode auto",
			line: "MODE,AUTO",
			want: Command{Kind: SetMode, Mode: ModeAuto},
		},
		{
			name: "mode manual",
			line: "MODE,MANUAL",
			want: Command{Kind: SetMode, Mode: ModeManual},
		},
		{
			name: "status",
			line: "STATUS",
			want: Command{Kind: StatusRequest},
		},
		{name: "empty", line: "", want: Command{Kind: Malformed}},
		{name: "garbage", line: "DANGER,1,2", want: Command{Kind: Malformed}},
		{name: "ctrl missing throttle", line: "CTRL,0.5", want: Command{Kind: Malformed}},
		{name: "ctrl non numeric", line: "CTRL,abc,0.3", want: Command{Kind: Malformed}},
		{name: "ctrl trailing comma", line: "CTRL,0.5,", want: Command{Kind: Malformed}},
		{name: "ctrl nan", line: "CTRL,NaN,NaN", want: Command{Kind: Malformed}},
		{name: "ctrl nan throttle", line: "CTRL,0.5,nan", want: Command{Kind: Malformed}},
		{name: "ctrl infinite", line: "CTRL,+Inf,0.3", want: Command{Kind: Malformed}},
		{name: "ctrl negative infinity", line: "CTRL,-Infinity,0.3", want: Command{Kind: Malformed}},
		{name: "mode unknown", line: "MODE,TURBO", want: Command{Kind: Malformed}},
		{name: "status with args", line: "STATUS,NOW", want: Command{Kind: Malformed}},
		{name: "partial line", line: "CTR", want: Command{Kind: Malformed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCommand(tt.line)
			assert.Equal(t, tt.want.Kind, got.Kind)
			if tt.want.Kind == SetTarget {
				assert.InDelta(t, tt.want.Steering, got.Steering, 1e-6)
				assert.InDelta(t, tt.want.Throttle, got.Throttle, 1e-6)
			}
			if tt.want.Kind == SetMode {
				assert.Equal(t, tt.want.Mode, got.Mode)
			}
		})
	}
}

func TestAcks(t *testing.T) {
	assert.Equal(t, "CTRL_ACK,0.5000,0.3000", AckTarget(0.5, 0.3))
	assert.Equal(t, "CTRL_ACK,-1.0000,0.0000", AckTarget(-1, 0))
	assert.Equal(t, "MODE_ACK,AUTO", AckMode(ModeAuto))
	assert.Equal(t, "MODE_ACK,MANUAL", AckMode(ModeManual))
	assert.Equal(t, "STATUS,MANUAL,0.0000,0.0000", StatusReply(ModeManual, 0, 0))
	assert.Equal(t, "STATUS,AUTO,0.2500,0.7500", StatusReply(ModeAuto, 0.25, 0.75))
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Reply
		ok   bool
	}{
		{
			name: "target ack",
			line: "CTRL_ACK,0.5000,0.3000",
			want: Reply{Kind: TargetAck, Steering: 0.5, Throttle: 0.3},
			ok:   true,
		},
		{
			name: "mode ack auto",
			line: "MODE_ACK,AUTO",
			want: Reply{Kind: ModeAck, Mode: ModeAuto},
			ok:   true,
		},
		{
			name: "mode ack manual",
			line: "MODE_ACK,MANUAL",
			want: Reply{Kind: ModeAck, Mode: ModeManual},
			ok:   true,
		},
		{
			name: "status report",
			line: "STATUS,AUTO,0.2500,0.7500",
			want: Reply{Kind: StatusReport, Mode: ModeAuto, Steering: 0.25, Throttle: 0.75},
			ok:   true,
		},
		{
			name: "status report with trailing cr",
			line: "STATUS,MANUAL,0.0000,0.0000\r",
			want: Reply{Kind: StatusReport, Mode: ModeManual},
			ok:   true,
		},
		{name: "data line is not a reply", line: "DATA,1,0.0000,0.0000,0,0,0,0"},
		{name: "mode ack unknown word", line: "MODE_ACK,TURBO"},
		{name: "status missing fields", line: "STATUS,AUTO"},
		{name: "target ack non numeric", line: "CTRL_ACK,a,b"},
		{name: "empty", line: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseReply(tt.line)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.Equal(t, tt.want.Mode, got.Mode)
			assert.InDelta(t, tt.want.Steering, got.Steering, 1e-6)
			assert.InDelta(t, tt.want.Throttle, got.Throttle, 1e-6)
		})
	}
}

func TestReplyRoundTrip(t *testing.T) {
	reply, ok := ParseReply(AckTarget(-0.25, 1))
	assert.True(t, ok)
	assert.Equal(t, TargetAck, reply.Kind)
	assert.InDelta(t, -0.25, reply.Steering, 1e-6)
	assert.InDelta(t, 1.0, reply.Throttle, 1e-6)

	reply, ok = ParseReply(StatusReply(ModeAuto, 0.5, 0.5))
	assert.True(t, ok)
	assert.Equal(t, StatusReport, reply.Kind)
	assert.Equal(t, ModeAuto, reply.Mode)
}

func TestLineReader(t *testing.T) {
	r := NewLineReader(16)

	feed := func(s string) []string {
		var lines []string
		for i := 0; i < len(s); i++ {
			if line, ok := r.Feed(s[i]); ok {
				lines = append(lines, line)
			}
		}
		return lines
	}

	t.Run("simple lines", func(t *testing.T) {
		assert.Equal(t, []string{"STATUS", "MODE,AUTO"}, feed("STATUS\nMODE,AUTO\n"))
	})

	t.Run("crlf produces no empty line", func(t *testing.T) {
		assert.Equal(t, []string{"STATUS"}, feed("STATUS\r\n"))
	})

	t.Run("blank lines skipped", func(t *testing.T) {
		assert.Empty(t, feed("\n\n\r\n"))
	})

	t.Run("overlong line discarded and resynced", func(t *testing.T) {
		lines := feed("CTRL,0.123456789,0.123456789\nSTATUS\n")
		assert.Equal(t, []string{"STATUS"}, lines)
	})

	t.Run("split across feeds", func(t *testing.T) {
		assert.Empty(t, feed("STA"))
		assert.Equal(t, []string{"STATUS"}, feed("TUS\n"))
	})
}
