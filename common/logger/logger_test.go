package logger_test

import (
	"bytes"
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/megumi-soft/slack-chatgpt/common/logger"
	"github.com/megumi-soft/slack-chatgpt/core/config"
)

var _ = Describe("Logger", func() {
	Describe("TraceHandler", func() {
		var (
			buf *bytes.Buffer
			log *slog.Logger
		)

		BeforeEach(func() {
			buf = &bytes.Buffer{}
			log = slog.New(logger.NewTraceHandler(slog.NewJSONHandler(buf, nil)))
		})

		It("adds context log fields to every record", func() {
			ctx := logger.WithLogFields(context.Background(), logger.LogFields{
				DeliveryID: logger.Ptr(int64(42)),
				EventID:    logger.Ptr("Ev1"),
				Channel:    logger.Ptr("C1"),
				Component:  "slackgpt.test",
			})

			log.InfoContext(ctx, "hello")

			Expect(buf.String()).To(ContainSubstring(`"delivery_id":42`))
			Expect(buf.String()).To(ContainSubstring(`"event_id":"Ev1"`))
			Expect(buf.String()).To(ContainSubstring(`"channel":"C1"`))
			Expect(buf.String()).To(ContainSubstring(`"component":"slackgpt.test"`))
			Expect(buf.String()).NotTo(ContainSubstring("thread_ts"))
		})

		It("keeps fields through WithAttrs", func() {
			ctx := logger.WithLogFields(context.Background(), logger.LogFields{EventID: logger.Ptr("Ev2")})

			log.With("extra", "x").InfoContext(ctx, "hello")

			Expect(buf.String()).To(ContainSubstring(`"extra":"x"`))
			Expect(buf.String()).To(ContainSubstring(`"event_id":"Ev2"`))
		})

		It("omits span ids without an active span", func() {
			log.InfoContext(context.Background(), "hello")
			Expect(buf.String()).NotTo(ContainSubstring("trace_id"))
		})
	})

	Describe("WithLogFields", func() {
		It("merges newer non-empty values over older ones", func() {
			ctx := logger.WithLogFields(context.Background(), logger.LogFields{
				EventID:   logger.Ptr("Ev1"),
				Component: "http",
			})
			ctx = logger.WithLogFields(ctx, logger.LogFields{
				ThreadTS:  logger.Ptr("1.0"),
				Component: "brain",
			})

			fields := logger.GetLogFields(ctx)
			Expect(*fields.EventID).To(Equal("Ev1"))
			Expect(*fields.ThreadTS).To(Equal("1.0"))
			Expect(fields.Component).To(Equal("brain"))
		})

		It("returns empty fields for a bare context", func() {
			Expect(logger.GetLogFields(context.Background())).To(Equal(logger.LogFields{}))
		})
	})

	Describe("NewHandler", func() {
		It("writes text at debug level in development", func() {
			buf := &bytes.Buffer{}
			log := slog.New(logger.NewHandler(config.Config{Env: "development"}, buf))

			log.Debug("visible")

			Expect(buf.String()).To(ContainSubstring("level=DEBUG"))
			Expect(buf.String()).To(ContainSubstring("msg=visible"))
		})

		It("writes json at info level in production without an exporter", func() {
			buf := &bytes.Buffer{}
			log := slog.New(logger.NewHandler(config.Config{Env: "production"}, buf))

			log.Debug("hidden")
			log.Info("shown")

			Expect(buf.String()).NotTo(ContainSubstring("hidden"))
			Expect(buf.String()).To(ContainSubstring(`"msg":"shown"`))
		})
	})

	DescribeTable("Truncate",
		func(in string, max int, want string) {
			Expect(logger.Truncate(in, max)).To(Equal(want))
		},
		Entry("short", "abc", 5, "abc"),
		Entry("exact", "abcde", 5, "abcde"),
		Entry("long", "abcdefgh", 5, "abcde..."),
	)
})
