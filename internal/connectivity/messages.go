package connectivity

import (
	"strconv"

	"github.com/rook-computer/statuslcd/internal/app/screens"
)

func StartingMessage(networkName string) screens.Message {
	return screens.Message{Line1: "network:", Line2: "starting...", Line3: networkName}
}

func DisconnectedMessage(reason int) screens.Message {
	return screens.Message{Line1: "network:", Line2: "disconnected", Line3: "retry (" + strconv.Itoa(reason) + ")"}
}

func ConnectedMessage(address string) screens.Message {
	return screens.Message{Line1: "network: connected", Line2: "address:", Line3: address}
}
