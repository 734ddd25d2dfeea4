package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// ErrInvalidRequest — запрос отклонён до отправки.
var ErrInvalidRequest = errors.New("invalid request")

// Request описывает вызов API. Path задаётся относительно BaseURL.
//
// Заголовок Authorization, заданный вызывающим в Header, отправляется как есть:
// такой запрос не участвует в обновлении токена, и его 401 возвращается
// как *HTTPError.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Query  url.Values
	// JSON и Form взаимоисключающие.
	JSON any
	Form *Multipart
	// AuthExempt — не подставлять токен и не восстанавливать 401 (логин, refresh).
	AuthExempt bool

	retries   int
	requestID string
	bearer    string
}

// Response — успешный (2xx) ответ с уже прочитанным телом.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON разбирает тело ответа в out.
func (r *Response) DecodeJSON(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ownAuthorization сообщает, что Authorization задал вызывающий.
func (r Request) ownAuthorization() bool {
	return r.bearer == "" && r.Header.Get("Authorization") != ""
}

// Retried сообщает, был ли запрос уже повторён после обновления токена.
func (r Request) Retried() bool { return r.retries > 0 }

func (r Request) validate() error {
	if r.JSON != nil && r.Form != nil {
		return fmt.Errorf("%w: JSON and Form bodies are mutually exclusive", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidRequest)
	}
	u, err := url.Parse(r.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if u.IsAbs() || u.Host != "" {
		return fmt.Errorf("%w: path %q must be relative to the base URL", ErrInvalidRequest, r.Path)
	}
	return nil
}

// replay — копия запроса для повтора с новым токеном.
func (r Request) replay(access string) Request {
	next := r
	next.Header = r.Header.Clone()
	next.retries = r.retries + 1
	next.bearer = access
	return next
}

// encodeBody собирает тело один раз; при повторах используются те же байты.
func (r Request) encodeBody() ([]byte, string, error) {
	switch {
	case r.JSON != nil:
		b, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("%w: encode json: %v", ErrInvalidRequest, err)
		}
		return b, "application/json", nil
	case r.Form != nil:
		return r.Form.encode()
	default:
		return nil, "", nil
	}
}

// Multipart — тело multipart/form-data с полями и файлами.
type Multipart struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name, value string
}

type formFile struct {
	field, filename string
	content         []byte
}

// NewMultipart создаёт пустую форму.
func NewMultipart() *Multipart { return &Multipart{} }

// AddField добавляет текстовое поле.
func (m *Multipart) AddField(name, value string) *Multipart {
	m.fields = append(m.fields, formField{name: name, value: value})
	return m
}

// AddFile читает r целиком: тело должно переживать повтор запроса.
func (m *Multipart) AddFile(field, filename string, r io.Reader) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}
	m.files = append(m.files, formFile{field: field, filename: filename, content: content})
	return nil
}

func (m *Multipart) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range m.fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.files {
		part, err := w.CreateFormFile(f.field, f.filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// resolve склеивает BaseURL (с его префиксом пути) и относительный путь.
func resolve(base *url.URL, path string, query url.Values) (string, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(rel.Path, "/")
	u.RawPath = ""
	q := rel.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), nil
}
