package notify_test

import (
	"testing"
	"time"

	"go-skud/internal/device"
	"go-skud/internal/event"
	"go-skud/internal/notify"

	"github.com/stretchr/testify/assert"
)

func sampleEvent() event.NormalizedEvent {
	return event.NormalizedEvent{
		Kind:         event.KindAttendance,
		EmployeeID:   42,
		EmployeeName: "Rustam Karimov",
		DeviceName:   "Gate A",
		SourceAddr:   "192.168.1.190",
		Timestamp:    time.Date(2024, 3, 1, 8, 2, 5, 0, time.FixedZone("TJT", 5*3600)),
		Direction:    device.DirectionEntry,
		Site:         "Makon",
		Door:         "Main door",
	}
}

func TestMessages(t *testing.T) {
	ev := sampleEvent()

	t.Run("entry", func(t *testing.T) {
		msg := notify.EntryMessage(ev)
		assert.Equal(t, notify.KindEntry, msg.Kind)
		assert.Equal(t, notify.AudienceAttendance, msg.Audience)
		assert.Equal(t, int64(42), msg.EmployeeID)
		assert.Contains(t, msg.Text, "Вход")
		assert.Contains(t, msg.Text, "Rustam Karimov")
		assert.Contains(t, msg.Text, "Gate A")
		assert.Contains(t, msg.Text, "08:02:05")
	})

	t.Run("exit falls back to a generic device name", func(t *testing.T) {
		noName := ev
		noName.DeviceName = ""
		msg := notify.ExitMessage(noName)
		assert.Equal(t, notify.KindExit, msg.Kind)
		assert.Contains(t, msg.Text, "Выход")
		assert.Contains(t, msg.Text, "Терминал")
	})

	t.Run("markdown in names is escaped", func(t *testing.T) {
		odd := ev
		odd.EmployeeName = "ID_42*"
		msg := notify.EntryMessage(odd)
		assert.Contains(t, msg.Text, `ID\_42\*`)
	})

	t.Run("warnings go to operators", func(t *testing.T) {
		for _, msg := range []notify.Message{
			notify.UnknownEmployeeMessage(ev),
			notify.UnknownTerminalMessage(ev),
			notify.RemoteUnlockMessage(ev),
			notify.StartupMessage("go-skud", time.Now()),
		} {
			assert.Equal(t, notify.AudienceOperators, msg.Audience, string(msg.Kind))
		}
		assert.Contains(t, notify.UnknownEmployeeMessage(ev).Text, "42")
		assert.Contains(t, notify.UnknownTerminalMessage(ev).Text, `192.168.1.190`)
		assert.Contains(t, notify.RemoteUnlockMessage(ev).Text, "Main door")
	})
}
