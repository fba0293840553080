package event

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go-skud/internal/device"
)

// RawEvent is one payload as received from a terminal or the ISUP bridge.
type RawEvent struct {
	SourceAddr string
	Body       string
	ReceivedAt time.Time
}

type Kind string

const (
	KindAttendance   Kind = "attendance"
	KindRemoteUnlock Kind = "remote-unlock"
)

// NormalizedEvent is a validated terminal signal ready for reconciliation.
// When Normalize rejects a payload the event it returns is filled as far as
// parsing got, so callers can still describe the rejected signal.
type NormalizedEvent struct {
	Kind         Kind
	EmployeeID   int64
	EmployeeName string
	DeviceName   string
	SourceAddr   string
	Timestamp    time.Time
	Direction    device.Direction
	Site         string
	Door         string
}

// Date is the calendar day of the event in the timestamp's location.
func (e NormalizedEvent) Date() time.Time {
	y, m, d := e.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.Timestamp.Location())
}

// Hikvision access-control operation codes.
const (
	majorOperation      = 0x3
	minorRemoteOpenDoor = 0x400
)

type accessPayload struct {
	DateTime              string                 `json:"dateTime"`
	IPAddress             string                 `json:"ipAddress"`
	AccessControllerEvent *accessControllerEvent `json:"AccessControllerEvent"`
}

type accessControllerEvent struct {
	EmployeeNo       json.RawMessage `json:"employeeNo"`
	EmployeeNoString json.RawMessage `json:"employeeNoString"`
	DeviceName       string          `json:"deviceName"`
	MajorEventType   flexInt         `json:"majorEventType"`
	SubEventType     flexInt         `json:"subEventType"`
}

func (e *accessControllerEvent) isRemoteUnlock() bool {
	return e.MajorEventType == majorOperation && e.SubEventType == minorRemoteOpenDoor
}

// rawEmployeeID mirrors the terminal firmware: employeeNo wins unless it is
// empty or zero, then employeeNoString is used.
func (e *accessControllerEvent) rawEmployeeID() string {
	if v := rawScalar(e.EmployeeNo); v != "" && v != "0" {
		return v
	}
	return rawScalar(e.EmployeeNoString)
}

// rawScalar renders a JSON number or string as trimmed text. Objects, arrays,
// booleans and null come back as themselves or "" and fail numeric parsing later.
func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return strings.TrimSpace(s)
	}
	return string(raw)
}

// flexInt accepts 38, "38" and "0x26".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := rawScalar(b)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		// unknown codes are not worth rejecting the whole event over
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}
