package messaging

// Messenger delivers chat messages to paired devices. Transport and pairing
// live in the wallet collaborator; sending is fire-and-forget from the bot's
// point of view.
type Messenger interface {
	SendText(deviceAddress string, text string)
}
