package brain_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/megumi-soft/slack-chatgpt/internal/brain"
)

var _ = Describe("StripSelfMention", func() {
	const bot = "UBOT123"

	DescribeTable("removes self-mention tokens",
		func(input, expected string) {
			Expect(brain.StripSelfMention(input, bot)).To(Equal(expected))
		},
		Entry("leading mention", "<@UBOT123> what is ruby?", "what is ruby?"),
		Entry("trailing mention", "thanks <@UBOT123>", "thanks"),
		Entry("middle mention", "hey <@UBOT123> can you help", "hey can you help"),
		Entry("labelled mention", "<@UBOT123|chatgpt> hi", "hi"),
		Entry("repeated mentions", "<@UBOT123> <@UBOT123> hi", "hi"),
		Entry("spliced mention", "<@<@UBOT123>UBOT123> hi", "hi"),
		Entry("only a mention", "<@UBOT123>", ""),
		Entry("keeps newlines after a mention", "<@UBOT123>\nline two", "line two"),
	)

	DescribeTable("leaves content without a self-mention unchanged",
		func(input string) {
			Expect(brain.StripSelfMention(input, bot)).To(Equal(input))
		},
		Entry("plain text", "  untouched  text "),
		Entry("other user mention", "<@UOTHER> hello"),
		Entry("bot id as a prefix of another id", "<@UBOT1234> hello"),
		Entry("link", "<https://example.com> please"),
		Entry("empty", ""),
	)

	It("is idempotent", func() {
		inputs := []string{
			"<@UBOT123> hi <https://example.com>",
			"  spaced  <@UBOT123|x>  out  ",
			"no mention at all",
			"<@<@UBOT123>UBOT123>",
		}
		for _, in := range inputs {
			once := brain.StripSelfMention(in, bot)
			Expect(brain.StripSelfMention(once, bot)).To(Equal(once), "input %q", in)
		}
	})

	It("does nothing without a bot id", func() {
		Expect(brain.StripSelfMention("<@UBOT123> hi", "")).To(Equal("<@UBOT123> hi"))
	})
})
