package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/frantai/folio/cmd/folio/config"
)

// newCmd wraps the config command with the persistent flag the root
// command provides.
func newCmd(configDir string, out *bytes.Buffer, args ...string) *cobra.Command {
	root := &cobra.Command{Use: "folio"}
	root.PersistentFlags().String("config-dir", "", "")
	root.AddCommand(configcmder.NewConfigCmd())
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(append(args, "--config-dir", configDir))
	return root
}

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		dir string
		out *bytes.Buffer
	)

	BeforeEach(func() {
		dir = filepath.Join(GinkgoT().TempDir(), ".folio")
		out = &bytes.Buffer{}
	})

	Describe("set subcommand", func() {
		It("writes the value to config.toml", func() {
			Expect(newCmd(dir, out, "config", "set", "chat.subject", "Ada").Execute()).To(Succeed())

			data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`subject = "Ada"`))
			Expect(out.String()).To(ContainSubstring("Set"))
		})

		It("rejects unknown keys", func() {
			err := newCmd(dir, out, "config", "set", "proxy.provider", "x").Execute()
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("rejects an invalid duration", func() {
			err := newCmd(dir, out, "config", "set", "client.timeout", "soon").Execute()
			Expect(err).To(HaveOccurred())
		})

		It("requires exactly two arguments", func() {
			Expect(newCmd(dir, out, "config", "set", "chat.subject").Execute()).NotTo(Succeed())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(newCmd(dir, out, "config", "set", "client.api_target", "https://example.com").Execute()).To(Succeed())

			out.Reset()
			Expect(newCmd(dir, out, "config", "get", "client.api_target").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("https://example.com"))
		})

		It("shows the default for an unset key", func() {
			Expect(newCmd(dir, out, "config", "get", "client.api_prefix").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("/api/v1"))
		})

		It("marks keys without a default as not set", func() {
			Expect(newCmd(dir, out, "config", "get", "storage.postgres_dsn").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(newCmd(dir, out, "config", "get", "invalid_key").Execute()).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(newCmd(dir, out, "config", "set", "mcp.listen", ":9999").Execute()).To(Succeed())

			out.Reset()
			Expect(newCmd(dir, out, "config", "list").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring(`mcp.listen`))
			Expect(out.String()).To(ContainSubstring(`":9999"`))
			Expect(out.String()).To(ContainSubstring("storage.postgres_dsn"))
		})

		It("rejects any arguments", func() {
			Expect(newCmd(dir, out, "config", "list", "extra").Execute()).NotTo(Succeed())
		})
	})
})
