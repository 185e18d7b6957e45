package models

import "strings"

// Session is the per-operator state carried across requests. It is resolved
// once per request and passed explicitly to the operations that need it.
type Session struct {
	ID       string
	Nickname string
}

func (s Session) HasNickname() bool {
	return strings.TrimSpace(s.Nickname) != ""
}
