package capture

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
)

func TestDecodeRaw(t *testing.T) {
	t.Run("should decode a base64 dump", func(t *testing.T) {
		want := "GET /health HTTP/1.1\r\nHost: localhost\r\n\r\n"
		encoded := base64.StdEncoding.EncodeToString([]byte(want))

		got, err := DecodeRaw(encoded)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if string(got) != want {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", want, got)
		}
	})

	t.Run("should fail on malformed base64", func(t *testing.T) {
		_, err := DecodeRaw("not base64!!!")
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestSplitDump(t *testing.T) {
	t.Run("should split headers from body", func(t *testing.T) {
		raw := []byte("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n{\"ok\":true}")

		headers, body := SplitDump(raw)
		if !bytes.Contains(headers, []byte("Content-Type")) {
			t.Fatalf("\nwanted headers to contain Content-Type\ngot:\n%s", headers)
		}
		if string(body) != `{"ok":true}` {
			t.Fatalf("\nwanted:\n{\"ok\":true}\ngot:\n%s", body)
		}
	})

	t.Run("should handle dumps without a body", func(t *testing.T) {
		raw := []byte("GET / HTTP/1.1\r\nHost: localhost")

		headers, body := SplitDump(raw)
		if len(body) != 0 {
			t.Fatalf("\nwanted:\nempty body\ngot:\n%s", body)
		}
		if !bytes.Contains(headers, []byte("Host")) {
			t.Fatalf("\nwanted headers to contain Host\ngot:\n%s", headers)
		}
	})

	t.Run("should handle newline normalized dumps", func(t *testing.T) {
		raw := []byte("HTTP/1.1 200 OK\nContent-Type: text/plain\n\nhello")

		_, body := SplitDump(raw)
		if string(body) != "hello" {
			t.Fatalf("\nwanted:\nhello\ngot:\n%s", body)
		}
	})
}

func TestHeaderValue(t *testing.T) {
	headers := []byte("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Encoding: gzip")

	t.Run("should find a header case insensitively", func(t *testing.T) {
		got := HeaderValue(headers, "content-encoding")
		if got != "gzip" {
			t.Fatalf("\nwanted:\ngzip\ngot:\n%s", got)
		}
	})

	t.Run("should return empty for a missing header", func(t *testing.T) {
		got := HeaderValue(headers, "X-Missing")
		if got != "" {
			t.Fatalf("\nwanted:\nempty\ngot:\n%s", got)
		}
	})
}

func TestDecompressBody(t *testing.T) {
	t.Run("should decompress gzip bodies", func(t *testing.T) {
		var buf bytes.Buffer
		writer := gzip.NewWriter(&buf)
		if _, err := writer.Write([]byte("payload")); err != nil {
			t.Fatalf("writing gzip: %v", err)
		}
		writer.Close()

		got, err := DecompressBody(buf.Bytes(), "gzip")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if string(got) != "payload" {
			t.Fatalf("\nwanted:\npayload\ngot:\n%s", got)
		}
	})

	t.Run("should decompress brotli bodies", func(t *testing.T) {
		var buf bytes.Buffer
		writer := brotli.NewWriter(&buf)
		if _, err := writer.Write([]byte("payload")); err != nil {
			t.Fatalf("writing brotli: %v", err)
		}
		writer.Close()

		got, err := DecompressBody(buf.Bytes(), "br")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if string(got) != "payload" {
			t.Fatalf("\nwanted:\npayload\ngot:\n%s", got)
		}
	})

	t.Run("should pass through unknown encodings", func(t *testing.T) {
		got, err := DecompressBody([]byte("plain"), "")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if string(got) != "plain" {
			t.Fatalf("\nwanted:\nplain\ngot:\n%s", got)
		}
	})

	t.Run("should fail on a corrupt gzip body", func(t *testing.T) {
		_, err := DecompressBody([]byte("definitely not gzip"), "gzip")
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestPrettify(t *testing.T) {
	t.Run("should indent JSON", func(t *testing.T) {
		got, err := Prettify([]byte(`{"name":"alice","age":30}`))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if !strings.Contains(string(got), "\n  \"age\": 30") {
			t.Fatalf("\nwanted indented JSON\ngot:\n%s", got)
		}
	})

	t.Run("should indent XML", func(t *testing.T) {
		got, err := Prettify([]byte(`<users><user id="1"><name>alice</name></user></users>`))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if !strings.Contains(string(got), "<name>alice</name>") || !strings.Contains(string(got), "\n") {
			t.Fatalf("\nwanted indented XML\ngot:\n%s", got)
		}
	})

	t.Run("should format HTML", func(t *testing.T) {
		got, err := Prettify([]byte(`<html><body><h1>docs</h1></body></html>`))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) == 0 {
			t.Fatalf("\nwanted formatted HTML\ngot:\nempty")
		}
	})

	t.Run("should return empty for unformattable bodies", func(t *testing.T) {
		got, err := Prettify([]byte{0x00, 0x01, 0x02})
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 0 {
			t.Fatalf("\nwanted:\nempty\ngot:\n%s", got)
		}
	})

	t.Run("should return empty for an empty body", func(t *testing.T) {
		got, err := Prettify(nil)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 0 {
			t.Fatalf("\nwanted:\nempty\ngot:\n%s", got)
		}
	})
}

func TestPrettyBody(t *testing.T) {
	t.Run("should prettify a gzip compressed JSON body", func(t *testing.T) {
		var buf bytes.Buffer
		writer := gzip.NewWriter(&buf)
		if _, err := writer.Write([]byte(`{"ok":true}`)); err != nil {
			t.Fatalf("writing gzip: %v", err)
		}
		writer.Close()

		raw := append([]byte("HTTP/1.1 200 OK\r\nContent-Encoding: gzip\r\n\r\n"), buf.Bytes()...)

		got, err := PrettyBody(raw)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if !strings.Contains(got, "\"ok\": true") {
			t.Fatalf("\nwanted prettified JSON\ngot:\n%s", got)
		}
	})

	t.Run("should return empty for a bodyless dump", func(t *testing.T) {
		got, err := PrettyBody([]byte("GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"))
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got != "" {
			t.Fatalf("\nwanted:\nempty\ngot:\n%s", got)
		}
	})
}
