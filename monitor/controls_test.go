package main

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"

	"github.com/maxboels/quantum-tracer-il/pkg/proto"
)

func TestHandleReply_ModeTracking(t *testing.T) {
	test.NewApp()

	state := &appState{
		modeLabel: widget.NewLabel("mode: MANUAL"),
		modeBtn:   widget.NewButton("Autonomous", nil),
	}

	handleReply(state, "MODE_ACK,AUTO")
	assert.Equal(t, proto.ModeAuto, state.deviceMode)
	assert.Equal(t, "mode: AUTO", state.modeLabel.Text)
	assert.Equal(t, "Manual", state.modeBtn.Text)

	handleReply(state, "STATUS,MANUAL,0.0000,0.0000")
	assert.Equal(t, proto.ModeManual, state.deviceMode)
	assert.Equal(t, "mode: MANUAL", state.modeLabel.Text)
	assert.Equal(t, "Autonomous", state.modeBtn.Text)

	// Garbage and target acks leave the mode untouched.
	handleReply(state, "???")
	handleReply(state, "CTRL_ACK,0.5000,0.3000")
	assert.Equal(t, proto.ModeManual, state.deviceMode)
}
