package foliocmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	foliocmder "github.com/frantai/folio/cmd/folio"
)

var _ = Describe("NewFolioCmd", func() {
	It("registers every subcommand", func() {
		cmd := foliocmder.NewFolioCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("chat", "profile", "session", "history", "serve", "config", "version"))
	})

	It("has the global flags", func() {
		cmd := foliocmder.NewFolioCmd()

		debug := cmd.PersistentFlags().Lookup("debug")
		Expect(debug).NotTo(BeNil())
		Expect(debug.Shorthand).To(Equal("d"))
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
