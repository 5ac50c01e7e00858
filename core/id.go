package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"pkt.systems/atelier/schema"
)

// Generated ids embed a creation timestamp plus a random suffix so that
// ids, once issued, are never reused.

func newPanelID(key schema.PanelTypeKey) schema.PanelID {
	return schema.PanelID(fmt.Sprintf("%s-%d-%s", key, time.Now().UnixNano(), idSuffix()))
}

func newWorkspaceID() schema.WorkspaceID {
	return schema.WorkspaceID(fmt.Sprintf("ws-%d-%s", time.Now().UnixNano(), idSuffix()))
}

func idSuffix() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "0000"
	}
	return hex.EncodeToString(buf[:])
}
