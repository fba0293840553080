package notify

import (
	"fmt"
	"time"

	"go-skud/internal/event"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	defaultDeviceName = "Терминал"
	clockLayout       = "15:04:05"
)

func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func deviceName(ev event.NormalizedEvent) string {
	if ev.DeviceName != "" {
		return ev.DeviceName
	}
	return defaultDeviceName
}

func fromEvent(kind Kind, audience Audience, ev event.NormalizedEvent, text string) Message {
	return Message{
		Kind:       kind,
		Audience:   audience,
		Text:       text,
		EmployeeID: ev.EmployeeID,
		SourceAddr: ev.SourceAddr,
		At:         ev.Timestamp,
	}
}

func EntryMessage(ev event.NormalizedEvent) Message {
	text := fmt.Sprintf("✅ *Вход*\n\n👤 *Сотрудник:* %s\n📍 *Устройство:* %s\n⏰ *Время:* %s",
		md(ev.EmployeeName), md(deviceName(ev)), ev.Timestamp.Format(clockLayout))
	return fromEvent(KindEntry, AudienceAttendance, ev, text)
}

func ExitMessage(ev event.NormalizedEvent) Message {
	text := fmt.Sprintf("🔴 *Выход*\n\n👤 *Сотрудник:* %s\n📍 *Устройство:* %s\n⏰ *Время:* %s",
		md(ev.EmployeeName), md(deviceName(ev)), ev.Timestamp.Format(clockLayout))
	return fromEvent(KindExit, AudienceAttendance, ev, text)
}

// UnknownEmployeeMessage warns operators that a terminal holds an ID the
// HR directory does not know.
func UnknownEmployeeMessage(ev event.NormalizedEvent) Message {
	text := fmt.Sprintf("⚠️ *Неизвестный сотрудник*\n\n🆔 *ID:* %d\n📍 *Устройство:* %s (%s)\n⏰ *Время:* %s",
		ev.EmployeeID, md(deviceName(ev)), md(ev.SourceAddr), ev.Timestamp.Format(clockLayout))
	return fromEvent(KindUnknownEmployee, AudienceOperators, ev, text)
}

func UnknownTerminalMessage(ev event.NormalizedEvent) Message {
	text := fmt.Sprintf("⚠️ *Неизвестный терминал*\n\n🌐 *Адрес:* %s\n📍 *Устройство:* %s\n🆔 *ID:* %d\n⏰ *Время:* %s",
		md(ev.SourceAddr), md(deviceName(ev)), ev.EmployeeID, ev.Timestamp.Format(clockLayout))
	return fromEvent(KindUnknownTerminal, AudienceOperators, ev, text)
}

func RemoteUnlockMessage(ev event.NormalizedEvent) Message {
	door := ev.Door
	if door == "" {
		door = ev.SourceAddr
	}
	text := fmt.Sprintf("🔓 *Удалённое открытие двери*\n\n📍 *Устройство:* %s\n🚪 *Дверь:* %s\n⏰ *Время:* %s",
		md(deviceName(ev)), md(door), ev.Timestamp.Format(clockLayout))
	return fromEvent(KindRemoteUnlock, AudienceOperators, ev, text)
}

func StartupMessage(service string, at time.Time) Message {
	return Message{
		Kind:     KindStartup,
		Audience: AudienceOperators,
		Text:     fmt.Sprintf("🚀 *%s* запущен", md(service)),
		At:       at,
	}
}
