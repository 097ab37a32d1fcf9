package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Reply types on the wire.
const (
	ReplySelection = "selection"
	ReplyAck       = "ack"
)

// Selection stages.
const (
	StageGroup  = "group"
	StageLetter = "letter"
)

// Reply is the answer to one request. Selection fields are only encoded for
// selection replies.
type Reply struct {
	Type           string
	Sector         int
	Letter         int
	Stage          string
	ClearSelection bool
}

// Ack returns a plain acknowledgement.
func Ack() Reply {
	return Reply{Type: ReplyAck}
}

type wireSelection struct {
	Ack            bool   `json:"ack"`
	Type           string `json:"type"`
	Sector         int    `json:"sector"`
	Letter         int    `json:"letter"`
	Stage          string `json:"stage"`
	ClearSelection bool   `json:"clearSelection"`
}

type wireAck struct {
	Ack  bool   `json:"ack"`
	Type string `json:"type"`
}

type wireError struct {
	Error string `json:"error"`
}

// MarshalJSON implements json.Marshaler.
func (r Reply) MarshalJSON() ([]byte, error) {
	if r.Type == ReplySelection {
		return json.Marshal(wireSelection{
			Ack:            true,
			Type:           ReplySelection,
			Sector:         r.Sector,
			Letter:         r.Letter,
			Stage:          r.Stage,
			ClearSelection: r.ClearSelection,
		})
	}
	return json.Marshal(wireAck{Ack: true, Type: ReplyAck})
}

// EncodeReply renders a reply line without the trailing newline.
func EncodeReply(r Reply) []byte {
	b, err := json.Marshal(r)
	if err != nil {
		// Reply only holds plain values.
		panic(err)
	}
	return b
}

// EncodeError renders the error reply for a failed request.
func EncodeError(err error) []byte {
	code := "internal"
	if errors.Is(err, ErrInvalidJSON) {
		code = ErrInvalidJSON.Error()
	}
	b, _ := json.Marshal(wireError{Error: code})
	return b
}

// DecodeReply parses a reply line, as a client would.
func DecodeReply(line []byte) (Reply, error) {
	var raw struct {
		Ack            bool   `json:"ack"`
		Type           string `json:"type"`
		Sector         *int   `json:"sector"`
		Letter         *int   `json:"letter"`
		Stage          string `json:"stage"`
		ClearSelection bool   `json:"clearSelection"`
		Error          string `json:"error"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	if raw.Error != "" {
		return Reply{}, fmt.Errorf("daemon error: %s", raw.Error)
	}
	r := Reply{Type: raw.Type, Stage: raw.Stage, ClearSelection: raw.ClearSelection, Sector: -1, Letter: -1}
	if raw.Sector != nil {
		r.Sector = *raw.Sector
	}
	if raw.Letter != nil {
		r.Letter = *raw.Letter
	}
	return r, nil
}
