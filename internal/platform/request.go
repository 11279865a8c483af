package platform

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/peanuts-cli/internal/apperr"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

// FormFile is a file part of a multipart request.
type FormFile struct {
	Field    string
	FileName string
	Data     []byte
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return apperr.Transport(0, "building request failed", err)
	}
	if len(q) > 0 {
		req.URL.RawQuery = q.Encode()
	}

	return c.do(req, target)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return apperr.Transport(0, "encoding request failed", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), body)
	if err != nil {
		return apperr.Transport(0, "building request failed", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}

	return c.do(req, target)
}

func (c *Client) postFormData(ctx context.Context, path string, fields map[string]string, files []FormFile, target any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for key, val := range fields {
		field, err := w.CreateFormField(key)
		if err != nil {
			return apperr.Transport(0, "building form failed", err)
		}

		if _, err = io.Copy(field, strings.NewReader(val)); err != nil {
			return apperr.Transport(0, "building form failed", err)
		}
	}
	for _, file := range files {
		part, err := w.CreateFormFile(file.Field, file.FileName)
		if err != nil {
			return apperr.Transport(0, "building form failed", err)
		}
		if _, err = part.Write(file.Data); err != nil {
			return apperr.Transport(0, "building form failed", err)
		}
	}
	if err := w.Close(); err != nil {
		return apperr.Transport(0, "building form failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), &b)
	if err != nil {
		return apperr.Transport(0, "building request failed", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req, target)
}

// do executes the request and decodes a 2xx body into target.
// Non-2xx responses become apperr errors carrying the backend detail.
func (c *Client) do(req *http.Request, target any) error {
	c.setHeaders(req)

	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return apperr.Transport(0, "could not reach the server", err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return apperr.Transport(resp.StatusCode, "reading response failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := errorDetail(data)
		c.logger.Debug("bad status",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail),
		)
		return apperr.FromStatus(resp.StatusCode, detail)
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperr.Transport(resp.StatusCode, "unexpected response from server", err)
	}

	if err := decode(raw, target); err != nil {
		return apperr.Transport(resp.StatusCode, "unexpected response from server", err)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	req.Header.Set("Accept", contentType)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

// decode maps a generic json value onto target using the json tags.
// Numbers are accepted for string fields since the backend uses integer ids.
func decode(raw any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(raw)
}

// errorDetail extracts the backend "detail" field. Validation errors carry a list there.
func errorDetail(data []byte) string {
	var body struct {
		Detail any `mapstructure:"detail"`
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return strings.TrimSpace(string(data))
	}
	if err := mapstructure.Decode(raw, &body); err != nil {
		return ""
	}

	switch detail := body.Detail.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(detail)
	default:
		encoded, err := json.Marshal(detail)
		if err != nil {
			return fmt.Sprintf("%v", detail)
		}
		return string(encoded)
	}
}
