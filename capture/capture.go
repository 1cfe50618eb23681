// Package capture decodes HTTP exchanges reported by the tunnel agent's local
// inspection endpoint. The agent hands back complete raw request and response
// dumps (base64 encoded over its JSON API, bodies possibly compressed); this
// package turns those into storable blobs and, where possible, prettified
// bodies for display.
package capture

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/beevik/etree"
	"github.com/gabriel-vasile/mimetype"
	"github.com/yosssi/gohtml"
)

// DecodeRaw decodes the base64 raw field the agent API returns for a request
// or response dump.
func DecodeRaw(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding raw dump : %w", err)
	}
	return raw, nil
}

// SplitDump splits a raw HTTP dump into its header block and body.
// The body is empty when the dump carries no payload.
func SplitDump(raw []byte) (headers []byte, body []byte) {
	parts := bytes.SplitN(raw, []byte("\r\n\r\n"), 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	// Some agents normalize dumps to bare newlines.
	parts = bytes.SplitN(raw, []byte("\n\n"), 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return raw, nil
}

// HeaderValue extracts the value of a header from the header block of a raw
// dump. The lookup is case insensitive and returns an empty string when the
// header is absent.
func HeaderValue(headers []byte, name string) string {
	prefix := strings.ToLower(name) + ":"
	for _, line := range bytes.Split(headers, []byte("\r\n")) {
		for _, subline := range bytes.Split(line, []byte("\n")) {
			if strings.HasPrefix(strings.ToLower(string(subline)), prefix) {
				return strings.TrimSpace(string(subline[len(prefix):]))
			}
		}
	}
	return ""
}

// DecompressBody reverses the content encoding applied to a body.
// Gzip and brotli are handled; any other encoding is returned untouched.
func DecompressBody(body []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		gzipReader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gzipReader.Close()

		decompressed, err := io.ReadAll(gzipReader)
		if err != nil {
			return nil, fmt.Errorf("reading gzip content: %w", err)
		}
		return decompressed, nil
	case "br":
		brotliReader := brotli.NewReader(bytes.NewReader(body))

		decompressed, err := io.ReadAll(brotliReader)
		if err != nil {
			return nil, fmt.Errorf("reading brotli content : %w", err)
		}
		return decompressed, nil
	default:
		return body, nil
	}
}

// Prettify will attempt to prettify the body or return an empty byte slice if it fails
// JSON, XML, HTML can be prettified if it cannot prettify the body it will return an empty string
func Prettify(bodyBytes []byte) ([]byte, error) {
	if len(bodyBytes) == 0 {
		return []byte{}, nil
	}

	trimmedBody := bytes.TrimSpace(bodyBytes)

	// Check JSON
	var jsonData any

	err := json.Unmarshal(trimmedBody, &jsonData)
	// Continue if there are no errors
	if err == nil {
		output, err := json.MarshalIndent(jsonData, "", "  ")
		if err != nil {
			return []byte{}, fmt.Errorf("remarshalling JSON: %w", err)
		}
		return output, nil
	}

	// Check XML
	doc := etree.NewDocument()
	err = doc.ReadFromBytes(trimmedBody)
	if err == nil && doc.Root() != nil {
		doc.Indent(1)
		var output bytes.Buffer
		_, err := doc.WriteTo(&output)
		if err != nil {
			return []byte{}, fmt.Errorf("writing indented XML : %w", err)
		}
		return output.Bytes(), nil
	}

	// Check HTML (mimetype OR prefix)
	contentType := mimetype.Detect(trimmedBody).String()
	if strings.Contains(contentType, "text/html") ||
		(bytes.HasPrefix(trimmedBody, []byte("<")) && !bytes.HasPrefix(trimmedBody, []byte("<?xml"))) {
		output := gohtml.FormatBytes(trimmedBody)

		// Check if gohtml formatted anything
		if !bytes.Equal(output, trimmedBody) && len(output) > 0 {
			return output, nil
		}
	}

	return []byte{}, nil
}

// PrettyBody decodes and prettifies the body of a raw HTTP dump.
// It returns an empty string when the body cannot be prettified, which callers
// treat as "nothing worth storing".
func PrettyBody(raw []byte) (string, error) {
	headers, body := SplitDump(raw)
	if len(body) == 0 {
		return "", nil
	}

	decompressed, err := DecompressBody(body, HeaderValue(headers, "Content-Encoding"))
	if err != nil {
		return "", fmt.Errorf("decompressing body : %w", err)
	}

	prettified, err := Prettify(decompressed)
	if err != nil || len(prettified) == 0 {
		return "", nil
	}
	return string(prettified), nil
}
