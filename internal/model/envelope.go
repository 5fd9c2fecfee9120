package model

type (
	// Envelope is the wire-level payload exchanged between endpoints: the
	// conversation name and the message text, each sealed independently with
	// the recipient contact's symmetric key. It carries no sender identity
	// and is never persisted. The []byte fields marshal as base64 per
	// encoding/json, matching the POST /txt body shape.
	Envelope struct {
		ConvoEncrypt []byte `json:"convoEncrypt"`
		MsgEncrypt   []byte `json:"msgEncrypt"`
	}
)
