package model

type (
	// Conversation binds a conversation name to the contact it is held with.
	// Under the single-user model a conversation name resolves to exactly one
	// contact.
	Conversation struct {
		ID               int64  `json:"id" bson:"_id"`
		ContactName      string `json:"contactName" bson:"contactName"`
		ConversationName string `json:"conversationName" bson:"conversationName"`
	}

	// Message is one entry of the append-only conversation log. ContactName
	// is the sender label: a contact's name for inbound messages, the primary
	// user's name for outbound ones. Timestamp is unix milliseconds; Seq is
	// assigned by the log and breaks timestamp ties in insertion order.
	Message struct {
		ID               int64  `json:"id" bson:"_id"`
		ContactName      string `json:"contactName" bson:"contactName"`
		ConversationName string `json:"conversationName" bson:"conversationName"`
		Text             string `json:"text" bson:"text"`
		Timestamp        int64  `json:"timestamp" bson:"timestamp"`
		Seq              int64  `json:"seq" bson:"seq"`
	}
)
