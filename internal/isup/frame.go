package isup

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Wire layout of an ISUP frame header. Integers are little-endian.
const (
	headerLen    = 40
	SessionIDLen = 16

	offCommand = 12
	offSession = 16
	offPayload = headerLen

	// ackLengthField is what terminals expect in the length field of an ack:
	// the header size without the length field itself.
	ackLengthField = headerLen - 4
)

const (
	CommandRegisterAck  uint32 = 0x02
	CommandHeartbeat    uint32 = 0x14
	CommandHeartbeatAck uint32 = 0x15
)

var (
	frameMagic   = []byte{0x48, 0x49, 0x4b, 0x49} // HIKI
	frameVersion = []byte{0x01, 0x00}
	frameFlags   = []byte{0x00, 0x00}

	registerMarker = []byte("<Register>")
	xmlMarker      = "<?xml"

	ErrInvalidSessionID = errors.New("isup: session id must be 16 bytes")
)

type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameRegistration
	FrameHeartbeat
)

func (k FrameKind) String() string {
	switch k {
	case FrameRegistration:
		return "registration"
	case FrameHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Frame is one decoded read from a terminal. Payload is only set for
// unknown frames and holds the embedded XML or JSON document, if any.
type Frame struct {
	Kind      FrameKind
	SessionID []byte
	Command   uint32
	Payload   string
}

// DecodeFrame classifies a chunk. It never fails: anything it cannot
// recognize comes back as FrameUnknown with an empty Payload.
func DecodeFrame(b []byte) Frame {
	var f Frame
	if len(b) >= offCommand+4 {
		f.Command = binary.LittleEndian.Uint32(b[offCommand : offCommand+4])
	}

	if len(b) > offPayload && bytes.Contains(b[offPayload:], registerMarker) {
		f.Kind = FrameRegistration
		f.SessionID = bytes.Clone(b[offSession : offSession+SessionIDLen])
		return f
	}

	if len(b) >= offCommand+4 && f.Command == CommandHeartbeat {
		f.Kind = FrameHeartbeat
		return f
	}

	f.Payload = ExtractPayload(payloadText(b))
	return f
}

// payloadText drops the binary header when the chunk carries one. Chunks
// without the magic are continuation data and are scanned whole.
func payloadText(b []byte) string {
	if bytes.HasPrefix(b, frameMagic) {
		if len(b) <= offPayload {
			return ""
		}
		return string(b[offPayload:])
	}
	return string(b)
}

// ExtractPayload returns text from the first XML declaration, or failing
// that from the first '{', with trailing NUL padding removed.
func ExtractPayload(text string) string {
	idx := strings.Index(text, xmlMarker)
	if idx < 0 {
		idx = strings.IndexByte(text, '{')
	}
	if idx < 0 {
		return ""
	}
	return strings.TrimRight(text[idx:], "\x00")
}

// EncodeAck builds the 40-byte reply to a registration or heartbeat. A nil
// sessionID gets a random one, which is what terminals accept before they
// have registered.
func EncodeAck(command uint32, sessionID []byte) ([]byte, error) {
	if sessionID == nil {
		sessionID = make([]byte, SessionIDLen)
		if _, err := rand.Read(sessionID); err != nil {
			return nil, fmt.Errorf("isup: generate session id: %w", err)
		}
	}
	if len(sessionID) != SessionIDLen {
		return nil, ErrInvalidSessionID
	}

	buf := make([]byte, 0, headerLen)
	buf = append(buf, frameMagic...)
	buf = append(buf, frameVersion...)
	buf = append(buf, frameFlags...)
	buf = binary.LittleEndian.AppendUint32(buf, ackLengthField)
	buf = binary.LittleEndian.AppendUint32(buf, command)
	buf = append(buf, sessionID...)
	buf = append(buf, make([]byte, headerLen-len(buf))...)
	return buf, nil
}
