package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// KeySize is the length of a contact's symmetric key.
const KeySize = 32

// PrimaryUserID is the fixed identifier of the singleton local identity.
const PrimaryUserID = "primary"

type (
	// Contact is a known peer: a name, the pre-shared symmetric key used for
	// trial decryption, and the last-known onion address. The name is the
	// identity key and never changes; the address is refreshed on discovery.
	Contact struct {
		ID      primitive.ObjectID `json:"-" bson:"_id,omitempty"`
		Name    string             `json:"name" bson:"name"`
		Key     []byte             `json:"key" bson:"key"`
		Address string             `json:"address" bson:"address"`
	}

	// PrimaryUser is the local identity. Exactly one exists per store; the
	// address is the onion address the transport published and may be
	// refreshed when the transport re-publishes.
	PrimaryUser struct {
		ID      string `json:"id" bson:"_id"`
		Name    string `json:"name" bson:"name"`
		Address string `json:"address" bson:"address"`
	}
)
