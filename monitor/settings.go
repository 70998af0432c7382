package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/maxboels/quantum-tracer-il/pkg/car"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	// Create tabs
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createCalibrationTab(state),
		createOutputTab(state),
		createSafetyTab(state),
		createMockTab(state),
	)

	// Create dialog with tabs as content
	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	// Get available serial ports
	ports, err := car.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
		currentDisplay = currentPort
	}

	portSelect := widget.NewSelect(portOptions, func(selected string) {
		// Selection handler - will be called on submit
	})
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
		},
		OnSubmit: func() {
			if portSelect.Selected == "" {
				return
			}
			selectedPort := portMap[portSelect.Selected]
			if selectedPort == "" {
				selectedPort = portSelect.Selected // Fallback to selected text
			}

			// Check if port changed and device is connected
			portChanged := state.cfg.Serial.Port != selectedPort
			wasConnected := state.device != nil && state.device.IsConnected()

			state.cfg.Serial.Port = selectedPort
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
				return
			}

			// If port changed and device was connected, restart the telemetry chain
			if portChanged && wasConnected {
				closeTelemetryChain(state.chain)
				state.chain = nil
				state.device = nil

				// Reconnect with new port
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createCalibrationTab creates the input channel calibration tab.
func createCalibrationTab(state *appState) *container.TabItem {
	steeringNeutralEntry := widget.NewEntry()
	steeringNeutralEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Steering.NeutralDuty))

	steeringRangeEntry := widget.NewEntry()
	steeringRangeEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Steering.HalfRangeDuty))

	throttleMaxEntry := widget.NewEntry()
	throttleMaxEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Throttle.MaxDuty))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Steering Neutral Duty (%)", Widget: steeringNeutralEntry},
			{Text: "Steering Half Range Duty (%)", Widget: steeringRangeEntry},
			{Text: "Throttle Max Duty (%)", Widget: throttleMaxEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(steeringNeutralEntry.Text, 32); err == nil {
				state.cfg.Steering.NeutralDuty = float32(v)
			}
			if v, err := strconv.ParseFloat(steeringRangeEntry.Text, 32); err == nil {
				state.cfg.Steering.HalfRangeDuty = float32(v)
			}
			if v, err := strconv.ParseFloat(throttleMaxEntry.Text, 32); err == nil {
				state.cfg.Throttle.MaxDuty = float32(v)
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Calibration", form)
}

// createOutputTab creates the actuator pulse range tab.
func createOutputTab(state *appState) *container.TabItem {
	minEntry := widget.NewEntry()
	minEntry.SetText(fmt.Sprintf("%d", state.cfg.Output.MinPulseUs))

	neutralEntry := widget.NewEntry()
	neutralEntry.SetText(fmt.Sprintf("%d", state.cfg.Output.NeutralPulseUs))

	maxEntry := widget.NewEntry()
	maxEntry.SetText(fmt.Sprintf("%d", state.cfg.Output.MaxPulseUs))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Min Pulse (µs)", Widget: minEntry},
			{Text: "Neutral Pulse (µs)", Widget: neutralEntry},
			{Text: "Max Pulse (µs)", Widget: maxEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseUint(minEntry.Text, 10, 32); err == nil {
				state.cfg.Output.MinPulseUs = uint32(v)
			}
			if v, err := strconv.ParseUint(neutralEntry.Text, 10, 32); err == nil {
				state.cfg.Output.NeutralPulseUs = uint32(v)
			}
			if v, err := strconv.ParseUint(maxEntry.Text, 10, 32); err == nil {
				state.cfg.Output.MaxPulseUs = uint32(v)
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Output", form)
}

// createSafetyTab creates the failsafe and display configuration tab.
func createSafetyTab(state *appState) *container.TabItem {
	failsafeEntry := widget.NewEntry()
	failsafeEntry.SetText(state.cfg.Failsafe.Timeout.String())

	windowEntry := widget.NewEntry()
	windowEntry.SetText(fmt.Sprintf("%d", state.cfg.Display.WindowSeconds))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Failsafe Timeout", Widget: failsafeEntry},
			{Text: "Trace Window (seconds)", Widget: windowEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(failsafeEntry.Text); err == nil {
				state.cfg.Failsafe.Timeout = d
			}
			if v, err := strconv.Atoi(windowEntry.Text); err == nil && v > 0 {
				state.cfg.Display.WindowSeconds = v
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Safety", form)
}

// createMockTab creates the Mock device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	steeringEntry := widget.NewEntry()
	steeringEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.Steering))

	throttleEntry := widget.NewEntry()
	throttleEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.Throttle))

	sweepCheck := widget.NewCheck("", nil)
	sweepCheck.SetChecked(state.cfg.Mock.Sweep)

	sweepPeriodEntry := widget.NewEntry()
	sweepPeriodEntry.SetText(state.cfg.Mock.SweepPeriod.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Steering Stick", Widget: steeringEntry},
			{Text: "Throttle Stick", Widget: throttleEntry},
			{Text: "Sweep Sticks", Widget: sweepCheck},
			{Text: "Sweep Period", Widget: sweepPeriodEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(steeringEntry.Text, 32); err == nil {
				state.cfg.Mock.Steering = float32(v)
			}
			if v, err := strconv.ParseFloat(throttleEntry.Text, 32); err == nil {
				state.cfg.Mock.Throttle = float32(v)
			}
			state.cfg.Mock.Sweep = sweepCheck.Checked
			if d, err := time.ParseDuration(sweepPeriodEntry.Text); err == nil {
				state.cfg.Mock.SweepPeriod = d
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}
