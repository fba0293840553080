package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-skud/internal/device"
	"go-skud/internal/employee"
	employeeerrors "go-skud/internal/employee/errors"
	eventerrors "go-skud/internal/event/errors"
)

var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000",
}

//go:generate mockgen -source=event_normalizer.go -destination=mock/event_normalizer_mock.go -package=mock
type Normalizer interface {
	Normalize(ctx context.Context, raw RawEvent) (NormalizedEvent, error)
}

type normalizer struct {
	locator      device.Locator
	directory    employee.Directory
	processStart time.Time
	loc          *time.Location
}

// NewNormalizer builds a normalizer that drops every event stamped before
// processStart. Terminals replay their buffer on reconnect and those events
// must not reopen days that were already reconciled.
func NewNormalizer(locator device.Locator, directory employee.Directory, processStart time.Time, loc *time.Location) Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &normalizer{
		locator:      locator,
		directory:    directory,
		processStart: processStart,
		loc:          loc,
	}
}

func (n *normalizer) Normalize(ctx context.Context, raw RawEvent) (NormalizedEvent, error) {
	ev := NormalizedEvent{SourceAddr: device.NormalizeAddress(raw.SourceAddr)}

	body, ok := ExtractJSONObject(raw.Body)
	if !ok {
		return ev, eventerrors.ErrNoPayload
	}

	var payload accessPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ev, fmt.Errorf("%w: %v", eventerrors.ErrNoPayload, err)
	}

	if payload.IPAddress != "" {
		ev.SourceAddr = device.NormalizeAddress(payload.IPAddress)
	}

	ts, err := n.parseTimestamp(payload.DateTime)
	if err != nil {
		return ev, fmt.Errorf("%w: %q", eventerrors.ErrInvalidTimestamp, payload.DateTime)
	}
	ev.Timestamp = ts

	if ts.Before(n.processStart) {
		return ev, eventerrors.ErrStaleEvent
	}

	access := payload.AccessControllerEvent
	if access == nil {
		return ev, eventerrors.ErrNotAccessEvent
	}
	ev.DeviceName = strings.TrimSpace(access.DeviceName)

	if location, found := n.locator.Locate(ev.SourceAddr); found {
		ev.Direction = location.Direction
		ev.Site = location.Site
		ev.Door = location.Door
	}

	if access.isRemoteUnlock() {
		ev.Kind = KindRemoteUnlock
		return ev, nil
	}
	ev.Kind = KindAttendance

	rawID := access.rawEmployeeID()
	if rawID == "" {
		return ev, eventerrors.ErrNoEmployee
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return ev, fmt.Errorf("%w: %q", eventerrors.ErrInvalidEmployeeID, rawID)
	}
	ev.EmployeeID = id

	if ev.Direction == "" {
		return ev, fmt.Errorf("%w: %s", eventerrors.ErrUnknownTerminal, ev.SourceAddr)
	}

	entry, err := n.directory.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, employeeerrors.ErrEmployeeNotFound) {
			return ev, fmt.Errorf("%w: %d", eventerrors.ErrUnknownEmployee, id)
		}
		return ev, fmt.Errorf("employee lookup %d: %w", id, err)
	}
	ev.EmployeeName = entry.DisplayName()

	return ev, nil
}

func (n *normalizer) parseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return ts.In(n.loc), nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.ParseInLocation(layout, v, n.loc)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ExtractJSONObject returns the first well-formed JSON object embedded in s.
// Multipart boundaries, XML envelopes and other text may surround it.
func ExtractJSONObject(s string) (string, bool) {
	for i := strings.IndexByte(s, '{'); i >= 0; {
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var obj json.RawMessage
		if err := dec.Decode(&obj); err == nil && len(obj) > 0 && obj[0] == '{' {
			return string(obj), true
		}
		next := strings.IndexByte(s[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return "", false
}
