// Package assets embeds static files shipped with the service binary.
package assets

import (
	_ "embed"
	"encoding/base64"
)

//go:embed default-avatar.png
var defaultAvatar []byte

// DefaultAvatarDataURI returns the placeholder avatar as a base64 PNG data URI
func DefaultAvatarDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(defaultAvatar)
}
