package wire

// Channel is the closed set of chat channels a client may address inbound.
// Only Global and Group are valid on IncomingChatMessage; anything else
// decodes fine (it is just a varint) but is a ProtocolError once a handler
// inspects it.
type Channel uint32

const (
	ChannelGlobal Channel = iota
	ChannelGroup
)

// Vector2 is a 2D world-space position, x/y as 32-bit floats.
type Vector2 struct {
	X float32
	Y float32
}

// Message is the closed tagged union of wire variants. Table order below is
// normative: it is also the varint discriminant order on the wire.
type Message interface {
	messageTag() uint64
}

type HandshakeRequest struct {
	AuthSessionTicket   []byte
	MatchmakingPassword *string
	LevelName           string
	Position            Vector2
	Version             uint32
}

type HandshakeResponse struct {
	Success      bool
	ErrorMessage *string
}

type PositionUpdate struct {
	Position Vector2
}

type SetMatchmakingPassword struct {
	Password *string
}

type InformNearbyClients struct {
	ClientIDs []uint64
}

type IncomingChatMessage struct {
	Channel Channel
	Message string
}

type OutgoingChatMessage struct {
	Channel    Channel
	SenderID   *uint64
	SenderName *string
	Message    string
}

type ServerStatusUpdate struct {
	TotalPlayers uint32
	GroupPlayers uint32
}

func (HandshakeRequest) messageTag() uint64       { return 0 }
func (HandshakeResponse) messageTag() uint64      { return 1 }
func (PositionUpdate) messageTag() uint64         { return 2 }
func (SetMatchmakingPassword) messageTag() uint64 { return 3 }
func (InformNearbyClients) messageTag() uint64    { return 4 }
func (IncomingChatMessage) messageTag() uint64    { return 5 }
func (OutgoingChatMessage) messageTag() uint64    { return 6 }
func (ServerStatusUpdate) messageTag() uint64     { return 7 }
