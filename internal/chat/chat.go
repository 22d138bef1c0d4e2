// Package chat models the invocation context a template is rendered in: who
// sent the message, in which channel, and with which roles.
package chat

import (
	"sort"

	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

// Role is a named permission group. Higher Position ranks higher.
type Role struct {
	ID       uint64
	Name     string
	Colour   commandlang.Colour
	Position int
	// Admin roles pass every permission check.
	Admin bool
}

func (r *Role) Field(f commandlang.Field) (interface{}, bool) {
	if r == nil {
		return nil, false
	}
	switch f {
	case commandlang.FieldName:
		return r.Name, true
	case commandlang.FieldID:
		return r.ID, true
	case commandlang.FieldColour:
		return r.Colour, true
	}
	return nil, false
}

func (r *Role) String() string {
	if r == nil {
		return ""
	}
	return r.Name
}

// User is a member of the server.
type User struct {
	ID            uint64
	Name          string
	Discriminator string
	Nick          string
	Roles         []*Role
}

// TopRole returns the highest positioned role, or nil for a user without
// roles.
func (u *User) TopRole() *Role {
	if u == nil || len(u.Roles) == 0 {
		return nil
	}
	roles := append([]*Role(nil), u.Roles...)
	sort.SliceStable(roles, func(i, j int) bool { return roles[i].Position > roles[j].Position })
	return roles[0]
}

// DisplayName is the nickname when one is set, the user name otherwise.
func (u *User) DisplayName() string {
	if u.Nick != "" {
		return u.Nick
	}
	return u.Name
}

// HasRole reports whether the user holds a role with the given name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether any of the user's roles is an admin role.
func (u *User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r.Admin {
			return true
		}
	}
	return false
}

func (u *User) Field(f commandlang.Field) (interface{}, bool) {
	if u == nil {
		return nil, false
	}
	switch f {
	case commandlang.FieldName:
		return u.Name, true
	case commandlang.FieldDiscriminator:
		return u.Discriminator, true
	case commandlang.FieldID:
		return u.ID, true
	case commandlang.FieldNick:
		return u.Nick, true
	case commandlang.FieldDisplayName:
		return u.DisplayName(), true
	case commandlang.FieldColour:
		// A user shows in the colour of their top role.
		if top := u.TopRole(); top != nil {
			return top.Colour, true
		}
		return commandlang.Colour(0), true
	}
	return nil, false
}

func (u *User) String() string {
	if u == nil {
		return ""
	}
	return u.Name + "#" + u.Discriminator
}

// Category groups channels.
type Category struct {
	ID   uint64
	Name string
}

func (c *Category) Field(f commandlang.Field) (interface{}, bool) {
	if c == nil {
		return nil, false
	}
	switch f {
	case commandlang.FieldName:
		return c.Name, true
	case commandlang.FieldID:
		return c.ID, true
	}
	return nil, false
}

func (c *Category) String() string {
	if c == nil {
		return ""
	}
	return c.Name
}

// Channel is a text channel, optionally inside a category.
type Channel struct {
	ID       uint64
	Name     string
	Category *Category
}

func (c *Channel) Field(f commandlang.Field) (interface{}, bool) {
	if c == nil {
		return nil, false
	}
	switch f {
	case commandlang.FieldName:
		return c.Name, true
	case commandlang.FieldID:
		return c.ID, true
	case commandlang.FieldCategory:
		if c.Category == nil {
			return nil, true
		}
		return c.Category, true
	}
	return nil, false
}

func (c *Channel) String() string {
	if c == nil {
		return ""
	}
	return c.Name
}

// Message is a received chat message and the invocation every template
// rendered on its behalf sees.
type Message struct {
	Author  *User
	Channel *Channel
	Content string

	depth int
}

// Depth counts how many command dispatches led to this invocation. A message
// typed by a user has depth 0.
func (m *Message) Depth() int { return m.depth }

// Nested returns a copy of m for a command dispatched while handling m.
func (m *Message) Nested() *Message {
	cp := *m
	cp.depth++
	return &cp
}

// Field exposes the root fields: author, role (the author's top role),
// channel and category (the channel's category). Missing values are
// reported as present but nil, so templates see an empty value rather than
// an error.
func (m *Message) Field(f commandlang.Field) (interface{}, bool) {
	switch f {
	case commandlang.FieldAuthor:
		if m.Author == nil {
			return nil, true
		}
		return m.Author, true
	case commandlang.FieldRole:
		if top := m.Author.TopRole(); top != nil {
			return top, true
		}
		return nil, true
	case commandlang.FieldChannel:
		if m.Channel == nil {
			return nil, true
		}
		return m.Channel, true
	case commandlang.FieldCategory:
		if m.Channel == nil || m.Channel.Category == nil {
			return nil, true
		}
		return m.Channel.Category, true
	}
	return nil, false
}

var _ commandlang.Invocation = (*Message)(nil)
