package ingest

import (
	"go-skud/internal/attendance"
	"go-skud/internal/event"
	eventerrors "go-skud/internal/event/errors"
)

// Status lines returned to terminals. Terminals only check the HTTP code;
// the text shows up in their logs and in ours.
const (
	StatusHandled          = "OK (Access Event Handled)"
	StatusDuplicateEntry   = "OK (Duplicate Entry Ignored)"
	StatusRemoteUnlock     = "OK (Remote Unlock)"
	StatusNoPayload        = "OK (Ignored, no JSON)"
	StatusInvalidTimestamp = "OK (Ignored, invalid timestamp)"
	StatusStale            = "OK (Ignored, old event)"
	StatusNotAccess        = "OK (Ignored, not an access event)"
	StatusNoEmployee       = "OK (System Event, no employeeId)"
	StatusInvalidEmployee  = "OK (Error, invalid employeeId)"
	StatusUnknownTerminal  = "OK (Ignored, unknown terminal)"
	StatusUnknownEmployee  = "OK (Ignored, unknown employee)"
	StatusError            = "OK (Error Ignored)"
	StatusRateLimited      = "OK (Ignored, rate limited)"
)

// Result is what the pipeline did with one raw event.
type Result struct {
	Status  string
	Kind    event.Kind
	Outcome attendance.Outcome
	// Reason is the rejection slug, empty when the event was accepted.
	Reason string
}

var rejectionStatus = map[string]string{
	eventerrors.Reason(eventerrors.ErrNoPayload):         StatusNoPayload,
	eventerrors.Reason(eventerrors.ErrInvalidTimestamp):  StatusInvalidTimestamp,
	eventerrors.Reason(eventerrors.ErrStaleEvent):        StatusStale,
	eventerrors.Reason(eventerrors.ErrNotAccessEvent):    StatusNotAccess,
	eventerrors.Reason(eventerrors.ErrNoEmployee):        StatusNoEmployee,
	eventerrors.Reason(eventerrors.ErrInvalidEmployeeID): StatusInvalidEmployee,
	eventerrors.Reason(eventerrors.ErrUnknownTerminal):   StatusUnknownTerminal,
	eventerrors.Reason(eventerrors.ErrUnknownEmployee):   StatusUnknownEmployee,
}
