package chat

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

// Fixture is the YAML description of a server and one message in it, used
// by the CLI and by tests to build an invocation without a live chat
// connection.
//
//	roles:
//	  - {id: 1, name: Admin, colour: "#1abc9c", position: 10, admin: true}
//	categories:
//	  - {id: 3, name: General}
//	channels:
//	  - {id: 2, name: chat, category: General}
//	users:
//	  - {id: 42, name: Ann, discriminator: "0001", roles: [Admin]}
//	message:
//	  author: Ann
//	  channel: chat
type Fixture struct {
	Roles      []roleSpec     `yaml:"roles"`
	Categories []categorySpec `yaml:"categories"`
	Channels   []channelSpec  `yaml:"channels"`
	Users      []userSpec     `yaml:"users"`
	Message    messageSpec    `yaml:"message"`
}

type roleSpec struct {
	ID       uint64     `yaml:"id"`
	Name     string     `yaml:"name"`
	Colour   colourSpec `yaml:"colour"`
	Position int        `yaml:"position"`
	Admin    bool       `yaml:"admin"`
}

type categorySpec struct {
	ID   uint64 `yaml:"id"`
	Name string `yaml:"name"`
}

type channelSpec struct {
	ID       uint64 `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

type userSpec struct {
	ID            uint64   `yaml:"id"`
	Name          string   `yaml:"name"`
	Discriminator string   `yaml:"discriminator"`
	Nick          string   `yaml:"nick"`
	Roles         []string `yaml:"roles"`
}

type messageSpec struct {
	Author  string `yaml:"author"`
	Channel string `yaml:"channel"`
	Content string `yaml:"content"`
}

// colourSpec accepts either an integer or a "#rrggbb" string.
type colourSpec commandlang.Colour

func (c *colourSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: colour must be a scalar", node.Line)
	}
	raw := strings.TrimPrefix(node.Value, "#")
	base := 10
	if raw != node.Value {
		base = 16
	} else if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw, base = raw[2:], 16
	}
	n, err := strconv.ParseUint(raw, base, 32)
	if err != nil || n > 0xffffff {
		return fmt.Errorf("line %d: invalid colour %q", node.Line, node.Value)
	}
	*c = colourSpec(n)
	return nil
}

// LoadFixture reads a fixture file and builds its message.
func LoadFixture(path string) (*Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read context: %w", err)
	}
	msg, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return msg, nil
}

// ParseFixture decodes YAML fixture data and links it into a Message.
func ParseFixture(data []byte) (*Message, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse context: %w", err)
	}
	return fx.Build()
}

// Build links roles, categories, channels and users by name and returns the
// fixture's message.
func (fx *Fixture) Build() (*Message, error) {
	roles := make(map[string]*Role, len(fx.Roles))
	for _, r := range fx.Roles {
		roles[r.Name] = &Role{
			ID:       r.ID,
			Name:     r.Name,
			Colour:   commandlang.Colour(r.Colour),
			Position: r.Position,
			Admin:    r.Admin,
		}
	}

	categories := make(map[string]*Category, len(fx.Categories))
	for _, c := range fx.Categories {
		categories[c.Name] = &Category{ID: c.ID, Name: c.Name}
	}

	channels := make(map[string]*Channel, len(fx.Channels))
	for _, c := range fx.Channels {
		ch := &Channel{ID: c.ID, Name: c.Name}
		if c.Category != "" {
			cat, ok := categories[c.Category]
			if !ok {
				return nil, fmt.Errorf("channel %q: unknown category %q", c.Name, c.Category)
			}
			ch.Category = cat
		}
		channels[c.Name] = ch
	}

	users := make(map[string]*User, len(fx.Users))
	for _, u := range fx.Users {
		user := &User{ID: u.ID, Name: u.Name, Discriminator: u.Discriminator, Nick: u.Nick}
		for _, name := range u.Roles {
			role, ok := roles[name]
			if !ok {
				return nil, fmt.Errorf("user %q: unknown role %q", u.Name, name)
			}
			user.Roles = append(user.Roles, role)
		}
		users[u.Name] = user
	}

	msg := &Message{Content: fx.Message.Content}
	if fx.Message.Author != "" {
		author, ok := users[fx.Message.Author]
		if !ok {
			return nil, fmt.Errorf("message: unknown author %q", fx.Message.Author)
		}
		msg.Author = author
	}
	if fx.Message.Channel != "" {
		ch, ok := channels[fx.Message.Channel]
		if !ok {
			return nil, fmt.Errorf("message: unknown channel %q", fx.Message.Channel)
		}
		msg.Channel = ch
	}
	return msg, nil
}

// DemoMessage is the invocation used when no context file is configured.
func DemoMessage() *Message {
	member := &Role{ID: 2, Name: "Member", Colour: 0x3498db, Position: 1}
	general := &Category{ID: 10, Name: "General"}
	return &Message{
		Author: &User{
			ID:            1,
			Name:          "user",
			Discriminator: "0000",
			Roles:         []*Role{member},
		},
		Channel: &Channel{ID: 11, Name: "general", Category: general},
	}
}
