package remote

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bitfsorg/hoard-go/codec"
	"github.com/bitfsorg/hoard-go/store"
)

// DefaultPort is the port a server listens on when no address is given.
const DefaultPort = 52000

const (
	RequestIDSize  = 8
	CommandSize    = 1
	StatusSize     = 1
	PayloadLenSize = 4
	MaxFrameSize   = 16 * 1024 * 1024
)

// Command codes.
const (
	CmdGetItem uint8 = iota + 1
	CmdSetItem
	CmdDelItem
	CmdContains
	CmdListKeys
	CmdCheckExists
)

// Status codes.
const (
	StatusOK    uint8 = 0
	StatusError uint8 = 1
)

// Error codes carried in an error response.
const (
	CodeOther uint8 = iota
	CodeNotFound
	CodeReadOnly
	CodeStorageFault
	CodeUnknownStore
	CodeInvalidKey
	CodeAlreadyExists
)

var commandNames = map[uint8]string{
	CmdGetItem:     "getItem",
	CmdSetItem:     "setItem",
	CmdDelItem:     "delItem",
	CmdContains:    "contains",
	CmdListKeys:    "listKeys",
	CmdCheckExists: "checkExists",
}

// CommandName returns the wire name of a command code.
func CommandName(cmd uint8) string {
	if name, ok := commandNames[cmd]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", cmd)
}

// RequestFrame is a single RPC request.
type RequestFrame struct {
	RequestID uint64
	Command   uint8
	Payload   []byte
}

// ResponseFrame is a single RPC response.
type ResponseFrame struct {
	RequestID uint64
	Status    uint8
	Payload   []byte
}

// Request is the payload of every command. Value is only set for setItem.
type Request struct {
	Store string
	Key   string
	Value []byte
}

// Response is the payload of every reply.
type Response struct {
	Value   []byte
	Found   bool
	Keys    []string
	Codec   string
	Code    uint8
	Message string
}

// payloads are always gob; stored values travel inside them as opaque bytes.
var wire = codec.MustGet("native")

func encodePayload(v any) ([]byte, error) { return wire.Encode(v) }

func decodePayload(data []byte, v any) error { return wire.Decode(data, v) }

// header is the fixed prefix shared by request and response frames. Kind
// holds the command of a request or the status of a response.
type header struct {
	RequestID uint64
	Kind      uint8
}

// HeaderSize is the length of a frame before its payload.
const HeaderSize = RequestIDSize + CommandSize + PayloadLenSize

func (h header) encode(payload []byte) ([]byte, error) {
	if HeaderSize+len(payload) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, HeaderSize, HeaderSize+len(payload))
	binary.LittleEndian.PutUint64(buf, h.RequestID)
	buf[RequestIDSize] = h.Kind
	binary.LittleEndian.PutUint32(buf[RequestIDSize+CommandSize:], uint32(len(payload)))
	return append(buf, payload...), nil
}

// decodeHeader splits a frame into its header and a copy of its payload.
// The declared payload length must account for every remaining byte.
func decodeHeader(data []byte) (header, []byte, error) {
	if len(data) < HeaderSize {
		return header{}, nil, ErrInvalidFrame
	}
	h := header{
		RequestID: binary.LittleEndian.Uint64(data),
		Kind:      data[RequestIDSize],
	}
	n := binary.LittleEndian.Uint32(data[RequestIDSize+CommandSize:])
	if uint64(n) != uint64(len(data)-HeaderSize) {
		return header{}, nil, ErrInvalidFrame
	}
	var payload []byte
	if n > 0 {
		payload = bytes.Clone(data[HeaderSize:])
	}
	return h, payload, nil
}

// EncodeRequest encodes a request for sending.
func EncodeRequest(req *RequestFrame) ([]byte, error) {
	return header{RequestID: req.RequestID, Kind: req.Command}.encode(req.Payload)
}

// DecodeRequest decodes a request from bytes.
func DecodeRequest(data []byte) (*RequestFrame, error) {
	h, payload, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	return &RequestFrame{RequestID: h.RequestID, Command: h.Kind, Payload: payload}, nil
}

// EncodeResponse encodes a response for sending.
func EncodeResponse(resp *ResponseFrame) ([]byte, error) {
	return header{RequestID: resp.RequestID, Kind: resp.Status}.encode(resp.Payload)
}

// DecodeResponse decodes a response from bytes.
func DecodeResponse(data []byte) (*ResponseFrame, error) {
	h, payload, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	return &ResponseFrame{RequestID: h.RequestID, Status: h.Kind, Payload: payload}, nil
}

func readLengthPrefixed(r io.Reader) ([]byte, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(lenBuf)
	if length > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func writeLengthPrefixed(w io.Writer, data []byte) error {
	buf := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[4:], data)
	_, err := w.Write(buf)
	return err
}

// errorCode classifies err for the wire.
func errorCode(err error) uint8 {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, store.ErrReadOnly):
		return CodeReadOnly
	case errors.Is(err, store.ErrStorageFault):
		return CodeStorageFault
	case errors.Is(err, store.ErrUnknownStore), errors.Is(err, ErrRemoteStoreNotFound):
		return CodeUnknownStore
	case errors.Is(err, store.ErrInvalidKey):
		return CodeInvalidKey
	case errors.Is(err, store.ErrAlreadyExists):
		return CodeAlreadyExists
	default:
		return CodeOther
	}
}

// codeError rebuilds a local error from a wire code, so errors.Is keeps
// working on the client side.
func codeError(code uint8, msg string) error {
	var sentinel error
	switch code {
	case CodeNotFound:
		sentinel = store.ErrNotFound
	case CodeReadOnly:
		sentinel = store.ErrReadOnly
	case CodeStorageFault:
		sentinel = store.ErrStorageFault
	case CodeUnknownStore:
		sentinel = ErrRemoteStoreNotFound
	case CodeInvalidKey:
		sentinel = store.ErrInvalidKey
	case CodeAlreadyExists:
		sentinel = store.ErrAlreadyExists
	default:
		sentinel = ErrRemote
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
