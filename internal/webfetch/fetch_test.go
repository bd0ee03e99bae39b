package webfetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/megumi-soft/slack-chatgpt/internal/webfetch"
)

var _ = Describe("Fetcher", func() {
	var (
		ctx     context.Context
		server  *httptest.Server
		fetcher *webfetch.Fetcher
		hits    int
	)

	serve := func(contentType string, status int, body []byte) {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			if contentType != "" {
				w.Header().Set("Content-Type", contentType)
			}
			w.WriteHeader(status)
			_, _ = w.Write(body)
		}))
		DeferCleanup(server.Close)
	}

	BeforeEach(func() {
		ctx = context.Background()
		hits = 0
		fetcher = webfetch.NewFetcher(webfetch.Options{MaxChars: 200})
	})

	It("extracts body text from HTML", func() {
		serve("text/html; charset=utf-8", http.StatusOK, []byte(`<html><head><title>T</title></head>
			<body><p>Hello   there</p><p>World</p></body></html>`))

		block := fetcher.Fetch(ctx, server.URL)
		Expect(block.Failed).To(BeFalse())
		Expect(block.SourceURL).To(Equal(server.URL))
		Expect(block.Summary).To(Equal("Hello there\nWorld"))
		Expect(block.Render()).To(Equal("Content of " + server.URL + "\n---\nHello there\nWorld"))
	})

	It("decodes legacy charsets to UTF-8", func() {
		// "日本" in Shift_JIS
		body := append([]byte("<html><body><p>"), 0x93, 0xfa, 0x96, 0x7b)
		body = append(body, []byte("</p></body></html>")...)
		serve("text/html; charset=shift_jis", http.StatusOK, body)

		block := fetcher.Fetch(ctx, server.URL)
		Expect(block.Summary).To(Equal("日本"))
	})

	It("replaces invalid byte sequences instead of failing", func() {
		body := append([]byte("<html><body><p>ok "), 0xff, 0xfe)
		body = append(body, []byte(" done</p></body></html>")...)
		serve("text/html; charset=utf-8", http.StatusOK, body)

		block := fetcher.Fetch(ctx, server.URL)
		Expect(block.Failed).To(BeFalse())
		Expect(block.Summary).To(HavePrefix("ok "))
		Expect(block.Summary).To(HaveSuffix(" done"))
		Expect(block.Summary).To(ContainSubstring("�"))
	})

	It("passes plain text through verbatim", func() {
		serve("text/plain; charset=utf-8", http.StatusOK, []byte("line one\n\n\n  line two  "))

		block := fetcher.Fetch(ctx, server.URL)
		Expect(block.Failed).To(BeFalse())
		Expect(block.Summary).To(Equal("line one\n\n\n  line two  "))
	})

	It("bounds the summary length", func() {
		serve("text/plain", http.StatusOK, []byte(strings.Repeat("x", 1000)))

		block := fetcher.Fetch(ctx, server.URL)
		Expect(block.Summary).To(Equal(strings.Repeat("x", 200) + "..."))
	})

	It("reports unreadable content types", func() {
		serve("application/pdf", http.StatusOK, []byte("%PDF-1.7"))

		block := fetcher.Fetch(ctx, server.URL)
		Expect(block.Failed).To(BeTrue())
		Expect(block.Summary).To(Equal("Unable to read content of type application/pdf."))
	})

	It("records the status of a failed response without raising", func() {
		serve("text/html", http.StatusInternalServerError, []byte("oops"))

		block := fetcher.Fetch(ctx, server.URL)
		Expect(block.Failed).To(BeTrue())
		Expect(block.Summary).To(ContainSubstring("500"))
		Expect(block.Summary).To(ContainSubstring("Internal Server Error"))
		Expect(block.Render()).To(HavePrefix("Content of " + server.URL + "\n---\n"))
	})

	It("records network failures", func() {
		serve("text/html", http.StatusOK, nil)
		url := server.URL
		server.Close()

		block := fetcher.Fetch(ctx, url)
		Expect(block.Failed).To(BeTrue())
		Expect(block.Summary).To(HavePrefix("Failed to fetch ("))
	})

	DescribeTable("rejects malformed URLs without a request",
		func(raw string) {
			block := fetcher.Fetch(ctx, raw)
			Expect(block.Failed).To(BeTrue())
			Expect(block.Summary).To(Equal("Invalid URL."))
			Expect(block.SourceURL).To(Equal(raw))
		},
		Entry("missing host", "http://"),
		Entry("unsupported scheme", "ftp://example.com/file"),
		Entry("bad escape", "http://example.com/%zz"),
		Entry("not a url", "::::"),
	)

	It("fetches every URL in order", func() {
		serve("text/plain", http.StatusOK, []byte("body"))

		blocks := fetcher.FetchAll(ctx, []string{server.URL + "/a", "ftp://nope", server.URL + "/b"})
		Expect(blocks).To(HaveLen(3))
		Expect(blocks[0].SourceURL).To(Equal(server.URL + "/a"))
		Expect(blocks[1].Summary).To(Equal("Invalid URL."))
		Expect(blocks[2].SourceURL).To(Equal(server.URL + "/b"))
		Expect(hits).To(Equal(2))
	})

	It("does nothing for no URLs", func() {
		Expect(fetcher.FetchAll(ctx, nil)).To(BeEmpty())
	})
})
