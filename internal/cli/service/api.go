package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"DocPlatform/internal/cli/api"
	"DocPlatform/internal/cli/model"
)

// APIClient — часть api.Client, которой пользуются сервисы.
type APIClient interface {
	Do(ctx context.Context, req api.Request) (*api.Response, error)
	GetJSON(ctx context.Context, path string, out any) error
	PostJSON(ctx context.Context, path string, in, out any) error
	PostForm(ctx context.Context, path string, form *api.Multipart, out any) error
}

var _ APIClient = (*api.Client)(nil)

// unwrapData возвращает data из конверта {success, message, data} или само
// тело, если конверта нет.
func unwrapData(body []byte) json.RawMessage {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return body
	}
	if data, ok := probe["data"]; ok && len(data) > 0 && string(data) != "null" {
		return data
	}
	return body
}

// rejection извлекает сообщение бэкенда из тела ошибки.
func rejection(err error) (string, bool) {
	var he *api.HTTPError
	if !errors.As(err, &he) || he.StatusCode >= 500 {
		return "", false
	}
	var env struct {
		model.Envelope
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(he.Body, &env) != nil {
		return "", false
	}
	for _, msg := range []string{env.Message, env.Error, env.Detail} {
		if msg = strings.TrimSpace(msg); msg != "" {
			return msg, true
		}
	}
	return fieldError(he.Body)
}

// fieldError разбирает ошибки валидации вида {"field": ["message"]}.
func fieldError(body []byte) (string, bool) {
	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) != nil {
		return "", false
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var msgs []string
		if json.Unmarshal(fields[k], &msgs) == nil && len(msgs) > 0 {
			return k + ": " + msgs[0], true
		}
	}
	return "", false
}
