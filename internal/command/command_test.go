package command_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/AlexanderGrooff/commandlang-go/internal/command"
	"github.com/AlexanderGrooff/commandlang-go/internal/dispatch"
	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

var _ = Describe("Custom commands", func() {
	var h *harness

	BeforeEach(func() {
		h = newHarness(3)
		DeferCleanup(h.dispatcher.Close)
	})

	It("renders the template against the invoking message", func() {
		Expect(h.manager.Add(&command.Definition{Name: "greet", Template: "Hello {a:n}!"})).To(Succeed())

		Expect(h.invoke(admin(), "greet")).To(Equal([]string{"Hello Ann!"}))
	})

	It("trims output and stays silent when nothing is left", func() {
		Expect(h.manager.Add(&command.Definition{Name: "quiet", Template: "  [if 0](never)  "})).To(Succeed())
		Expect(h.manager.Add(&command.Definition{Name: "padded", Template: "  [if 1](hi)  "})).To(Succeed())

		Expect(h.invoke(admin(), "quiet")).To(BeEmpty())
		Expect(h.invoke(admin(), "padded")).To(Equal([]string{"hi"}))
	})

	It("reports evaluation errors back to the channel", func() {
		Expect(h.manager.Add(&command.Definition{Name: "broken", Template: "[if 1 +](x)"})).To(Succeed())

		replies := h.invoke(admin(), "broken")
		Expect(replies).To(HaveLen(1))
		Expect(replies[0]).To(HavePrefix(command.MalformedPrefix))
		Expect(replies[0]).To(ContainSubstring("arity"))
	})

	It("rejects templates with unbalanced syntax when they are created", func() {
		err := h.manager.Add(&command.Definition{Name: "bad", Template: "{a} {b"})
		Expect(err).To(MatchError(commandlang.ErrSyntax))
		_, ok := h.registry.Get("bad")
		Expect(ok).To(BeFalse())
	})

	It("accepts plain text that only looks unbalanced", func() {
		Expect(h.manager.Add(&command.Definition{Name: "smile", Template: "hi :)"})).To(Succeed())
		Expect(h.invoke(admin(), "smile")).To(Equal([]string{"hi :)"}))
	})

	It("rejects invalid and duplicate names", func() {
		Expect(h.manager.Add(&command.Definition{Name: "two words", Template: "x"})).NotTo(Succeed())
		Expect(h.manager.Add(&command.Definition{Name: "", Template: "x"})).NotTo(Succeed())
		Expect(h.manager.Add(&command.Definition{Name: "echo", Template: "x"})).To(MatchError(dispatch.ErrDuplicateCommand))
	})

	It("lets one command dispatch another", func() {
		Expect(h.manager.AddAll([]*command.Definition{
			{Name: "outer", Template: "{inner}"},
			{Name: "inner", Template: "from inner, {a:n}"},
		})).To(Succeed())

		Expect(h.invoke(admin(), "outer")).To(Equal([]string{"from inner, Ann"}))
	})

	It("passes arguments to dispatched built-ins", func() {
		Expect(h.manager.Add(&command.Definition{Name: "shout", Template: `{"echo HEY YOU"}`})).To(Succeed())

		Expect(h.invoke(admin(), "shout")).To(Equal([]string{"HEY YOU"}))
	})

	It("stops self-dispatching commands at the nesting limit", func() {
		Expect(h.manager.Add(&command.Definition{Name: "loop", Template: "{loop}"})).To(Succeed())

		Expect(h.invoke(admin(), "loop")).To(BeEmpty())
		dropped, _ := h.dispatcher.Stats()
		Expect(dropped).To(Equal(int64(1)))
	})

	It("enforces role restrictions", func() {
		Expect(h.manager.Add(&command.Definition{Name: "members", Template: "welcome", Roles: []string{"Member"}})).To(Succeed())
		Expect(h.manager.Add(&command.Definition{Name: "staff", Template: "secret", AdminOnly: true})).To(Succeed())

		Expect(h.invoke(member(), "members")).To(Equal([]string{"welcome"}))
		Expect(h.invoke(member(), "staff")).To(Equal([]string{"welcome", dispatch.InsufficientPermissions}))
		Expect(h.invoke(admin(), "staff")).To(Equal([]string{"welcome", dispatch.InsufficientPermissions, "secret"}))
	})

	It("requires both a listed role and admin when a command asks for both", func() {
		Expect(h.manager.Add(&command.Definition{
			Name: "mods", Template: "mod tools", Roles: []string{"Member", "Admin"}, AdminOnly: true,
		})).To(Succeed())

		Expect(h.invoke(member(), "mods")).To(Equal([]string{dispatch.InsufficientPermissions}))
		Expect(h.invoke(admin(), "mods")).To(Equal([]string{dispatch.InsufficientPermissions, "mod tools"}))
	})

	It("lets any one of several roles through", func() {
		Expect(h.manager.Add(&command.Definition{Name: "crew", Template: "aboard", Roles: []string{"Admin", "Member"}})).To(Succeed())

		Expect(h.invoke(member(), "crew")).To(Equal([]string{"aboard"}))
	})

	It("removes custom commands but not built-ins", func() {
		Expect(h.manager.Add(&command.Definition{Name: "tmp", Template: "x"})).To(Succeed())

		Expect(h.manager.Remove("tmp")).To(Succeed())
		Expect(h.manager.Remove("tmp")).To(MatchError(command.ErrNotFound))
		Expect(h.manager.Remove("echo")).To(MatchError(command.ErrBuiltin))
	})

	It("ignores lines that do not name a command", func() {
		Expect(h.manager.Invoke(admin(), "nope")).To(BeFalse())
		Expect(h.manager.Invoke(admin(), "   ")).To(BeFalse())
	})
})

var _ = Describe("Built-in commands", func() {
	var h *harness

	BeforeEach(func() {
		h = newHarness(3)
		DeferCleanup(h.dispatcher.Close)
	})

	It("echoes its arguments", func() {
		Expect(h.invoke(admin(), "echo hi   there")).To(Equal([]string{"hi there"}))
	})

	It("lists commands with their descriptions", func() {
		Expect(h.manager.Add(&command.Definition{Name: "greet", Description: "Say hello", Template: "hi"})).To(Succeed())

		replies := h.invoke(admin(), "commands")
		Expect(replies).To(HaveLen(1))
		Expect(replies[0]).To(HavePrefix("addcommand: "))
		Expect(replies[0]).To(ContainSubstring("\ngreet: Say hello\n"))
	})

	It("lets admins add and remove commands from chat", func() {
		Expect(h.invoke(admin(), "addcommand hi Hi {a:n}!")).To(Equal([]string{"Command hi added"}))
		Expect(h.invoke(member(), "hi")).To(ContainElement("Hi Bob!"))

		Expect(h.invoke(admin(), "removecommand hi")).To(ContainElement("Command hi removed"))
		_, ok := h.registry.Get("hi")
		Expect(ok).To(BeFalse())
	})

	It("refuses chat edits from non-admins", func() {
		Expect(h.invoke(member(), "addcommand hi x")).To(Equal([]string{dispatch.InsufficientPermissions}))
		_, ok := h.registry.Get("hi")
		Expect(ok).To(BeFalse())
	})

	It("explains bad usage", func() {
		Expect(h.invoke(admin(), "addcommand lonely")).To(Equal([]string{"Usage: addcommand <name> <template>"}))
		Expect(h.invoke(admin(), "removecommand echo")).To(ContainElement(ContainSubstring("built-in commands cannot be removed")))
	})
})

var _ = Describe("Loading definitions", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "commandlang-commands-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
	})

	write := func(rel, content string) string {
		path := filepath.Join(dir, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	It("reads a YAML commands file", func() {
		path := write("commands.yaml", `
commands:
  welcome:
    description: Greet newcomers
    template: "Welcome {a:n}!"
  ban:
    template: "{a:n} swings the hammer"
    admin: true
    roles: [Mod]
`)
		defs, err := command.LoadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(defs).To(HaveLen(2))
		Expect(defs[0].Name).To(Equal("ban"))
		Expect(defs[0].AdminOnly).To(BeTrue())
		Expect(defs[0].Roles).To(Equal([]string{"Mod"}))
		Expect(defs[1].Name).To(Equal("welcome"))
		Expect(defs[1].Description).To(Equal("Greet newcomers"))
		Expect(defs[1].Source).To(Equal(command.SourceConfig))
	})

	It("reports unreadable and malformed files", func() {
		_, err := command.LoadFile(filepath.Join(dir, "missing.yaml"))
		Expect(err).To(MatchError(os.ErrNotExist))

		_, err = command.LoadFile(write("bad.yaml", "commands: [oops"))
		Expect(err).To(HaveOccurred())
	})

	It("reads markdown commands with frontmatter", func() {
		write("greet.md", "---\ndescription: Say hi\nroles: [Member]\n---\n\nHi {a:n}!\n")
		write("mod/warn.md", "{a:n} has been warned.")
		write("notes.txt", "ignored")

		defs, err := command.LoadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(defs).To(HaveLen(2))

		byName := map[string]*command.Definition{}
		for _, d := range defs {
			byName[d.Name] = d
		}
		Expect(byName).To(HaveKey("greet"))
		Expect(byName["greet"].Description).To(Equal("Say hi"))
		Expect(byName["greet"].Roles).To(Equal([]string{"Member"}))
		Expect(byName["greet"].Template).To(Equal("Hi {a:n}!"))
		Expect(byName).To(HaveKey("mod:warn"))
		Expect(byName["mod:warn"].Template).To(Equal("{a:n} has been warned."))
		Expect(byName["mod:warn"].Source).To(Equal(command.SourceFile))
	})

	It("rejects unterminated frontmatter", func() {
		write("broken.md", "---\ndescription: never closed\n")
		_, err := command.LoadDir(dir)
		Expect(err).To(MatchError(ContainSubstring("unterminated frontmatter")))
	})

	It("registers loaded commands", func() {
		write("hello.md", "Hello from a file, {a:n}")
		defs, err := command.LoadDir(dir)
		Expect(err).NotTo(HaveOccurred())

		h := newHarness(3)
		DeferCleanup(h.dispatcher.Close)
		Expect(h.manager.AddAll(defs)).To(Succeed())
		Expect(h.invoke(admin(), "hello")).To(Equal([]string{"Hello from a file, Ann"}))
	})
})
