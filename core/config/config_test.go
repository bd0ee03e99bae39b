package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/megumi-soft/slack-chatgpt/core/config"
	"github.com/megumi-soft/slack-chatgpt/internal/domain"
)

var _ = Describe("Load", func() {
	setenv := func(kv map[string]string) {
		for k, v := range kv {
			GinkgoT().Setenv(k, v)
		}
	}

	BeforeEach(func() {
		setenv(map[string]string{
			"RELAY_ENV":            "test",
			"OPENAI_API_KEY":       "sk-test",
			"OPENAI_MODEL":         "gpt-4o",
			"OPENAI_BASE_URL":      "",
			"SLACK_BOT_TOKEN":      "xoxb-test",
			"SLACK_BOT_USER_ID":    "UBOT",
			"SLACK_SIGNING_SECRET": "",
			"DEDUP_BACKEND":        "redis",
			"REDIS_URL":            "redis://localhost:6379/0",
			"DATABASE_URL":         "",
			"DEDUP_TTL":            "168h",
			"PROCESS_ASYNC":        "false",
			"PIPELINE_TIMEOUT":     "2m",
			"FALLBACK_REPLY":       "",
		})
	})

	It("loads a complete environment", func() {
		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Env).To(Equal("test"))
		Expect(cfg.OpenAI.APIKey).To(Equal("sk-test"))
		Expect(cfg.OpenAI.Model).To(Equal("gpt-4o"))
		Expect(cfg.Slack.BotUserID).To(Equal("UBOT"))
		Expect(cfg.Slack.SignatureVerificationEnabled()).To(BeFalse())
		Expect(cfg.Dedup.Backend).To(Equal(config.DedupBackendRedis))
		Expect(cfg.Dedup.TTL).To(Equal(7 * 24 * time.Hour))
		Expect(cfg.Pipeline.Async).To(BeFalse())
		Expect(cfg.Pipeline.FallbackReply).To(BeEmpty())
	})

	It("parses typed values", func() {
		setenv(map[string]string{
			"PROCESS_ASYNC":        "true",
			"PIPELINE_TIMEOUT":     "45s",
			"WEBFETCH_MAX_CHARS":   "1500",
			"OPENAI_MAX_TOKENS":    "800",
			"SLACK_SIGNING_SECRET": "shh",
			"DEDUP_BACKEND":        "Postgres",
			"DATABASE_URL":         "postgres://localhost/slackgpt",
		})

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Pipeline.Async).To(BeTrue())
		Expect(cfg.Pipeline.Timeout).To(Equal(45 * time.Second))
		Expect(cfg.WebFetch.MaxChars).To(Equal(1500))
		Expect(cfg.OpenAI.MaxTokens).To(Equal(800))
		Expect(cfg.Slack.SignatureVerificationEnabled()).To(BeTrue())
		Expect(cfg.Dedup.Backend).To(Equal(config.DedupBackendPostgres))
	})

	It("falls back to defaults on unparsable values", func() {
		setenv(map[string]string{
			"PIPELINE_TIMEOUT": "soon",
			"PROCESS_ASYNC":    "maybe",
		})

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Pipeline.Timeout).To(Equal(2 * time.Minute))
		Expect(cfg.Pipeline.Async).To(BeFalse())
	})

	DescribeTable("rejects incomplete configuration",
		func(overrides map[string]string, want string) {
			setenv(overrides)

			_, err := config.Load()
			Expect(err).To(MatchError(domain.ErrConfiguration))
			Expect(err.Error()).To(ContainSubstring(want))
		},
		Entry("missing completion key", map[string]string{"OPENAI_API_KEY": ""}, "OPENAI_API_KEY"),
		Entry("missing bot token", map[string]string{"SLACK_BOT_TOKEN": ""}, "SLACK_BOT_TOKEN"),
		Entry("missing bot user id", map[string]string{"SLACK_BOT_USER_ID": ""}, "SLACK_BOT_USER_ID"),
		Entry("redis backend without url", map[string]string{"REDIS_URL": ""}, "REDIS_URL"),
		Entry("postgres backend without dsn", map[string]string{"DEDUP_BACKEND": "postgres"}, "DATABASE_URL"),
		Entry("memory backend in production", map[string]string{"DEDUP_BACKEND": "memory", "RELAY_ENV": "production"}, "memory"),
		Entry("unknown backend", map[string]string{"DEDUP_BACKEND": "dynamo"}, "dynamo"),
	)

	It("allows the memory backend outside production", func() {
		setenv(map[string]string{"DEDUP_BACKEND": "memory"})

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Dedup.Backend).To(Equal(config.DedupBackendMemory))
	})
})
