package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"DocPlatform/internal/cli/model"
	"DocPlatform/internal/cli/repo"
)

const (
	DefaultTimeout        = 15 * time.Second
	DefaultRefreshTimeout = 10 * time.Second
	DefaultRefreshPath    = "/token/refresh/"

	// RequestIDHeader сохраняется неизменным при повторе запроса.
	RequestIDHeader = "X-Request-ID"

	maxRetries = 1
)

// Navigator уводит пользователя на вход после потери сессии.
type Navigator interface {
	RedirectToLogin()
}

// Refresher обменивает refresh-токен на новую пару.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
}

// Client — HTTP-клиент API с подстановкой bearer-токена, единственным
// одновременным обновлением токена и повтором запросов после обновления.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	store          repo.TokenStore
	nav            Navigator
	refresher      Refresher
	refreshPath    string
	timeout        time.Duration
	refreshTimeout time.Duration
	registerer     prometheus.Registerer
	logger         *zap.SugaredLogger

	metrics  *Metrics
	coord    *RefreshCoordinator
	logoutMu sync.Mutex
}

// Option настраивает Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout ограничивает одну попытку запроса, включая чтение тела.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

// WithRefresher заменяет обмен токена через DefaultRefreshPath.
func WithRefresher(r Refresher) Option {
	return func(c *Client) { c.refresher = r }
}

func WithRefreshPath(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.refreshPath = p
		}
	}
}

// WithRegisterer регистрирует счётчики клиента в reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) { c.registerer = reg }
}

// New создаёт клиент. baseURL должен быть абсолютным http(s) адресом.
func New(baseURL string, store repo.TokenStore, nav Navigator, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) URL", baseURL)
	}
	if store == nil {
		return nil, errors.New("token store is required")
	}
	if nav == nil {
		return nil, errors.New("navigator is required")
	}

	c := &Client{
		baseURL:        u,
		http:           &http.Client{},
		store:          store,
		nav:            nav,
		refreshPath:    DefaultRefreshPath,
		timeout:        DefaultTimeout,
		refreshTimeout: DefaultRefreshTimeout,
		logger:         zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.refresher == nil {
		c.refresher = clientRefresher{c: c, path: c.refreshPath}
	}
	if c.metrics, err = NewMetrics(c.registerer); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	c.coord = NewRefreshCoordinator(c.refreshTokens,
		WithCoordinatorLogger(c.logger),
		WithCoordinatorTimeout(c.refreshTimeout),
		WithCoordinatorMetrics(c.metrics),
	)
	return c, nil
}

// Coordinator открывает состояние обновления токена (для диагностики и тестов).
func (c *Client) Coordinator() *RefreshCoordinator { return c.coord }

// Do выполняет запрос. 2xx возвращается как Response; остальные статусы
// дают *HTTPError, транспортные сбои и таймауты *NetworkError. 401 на
// защищённый запрос ведёт к обновлению токена и одному повтору; если
// восстановить сессию нельзя, возвращается *AuthExpiredError.
func (c *Client) Do(ctx context.Context, req Request) (resp *Response, err error) {
	defer func() { c.metrics.incOutcome(err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	body, contentType, err := req.encodeBody()
	if err != nil {
		return nil, err
	}
	if req.requestID == "" {
		req.requestID = uuid.NewString()
	}
	ctx = withRequestID(ctx, req.requestID)

	for {
		res, sent, err := c.send(ctx, req, body, contentType)
		if err != nil {
			return nil, err
		}
		if res.StatusCode == http.StatusUnauthorized && !req.AuthExempt && !req.ownAuthorization() {
			access, err := c.recoverSession(ctx, req, sent)
			if err != nil {
				return nil, err
			}
			c.metrics.incReplay()
			c.logger.Debugw("replaying request", "request_id", req.requestID,
				"method", req.Method, "path", req.Path)
			req = req.replay(access)
			continue
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return nil, &HTTPError{StatusCode: res.StatusCode, Body: res.Body}
		}
		return res, nil
	}
}

// recoverSession возвращает токен для повтора запроса, получившего 401.
func (c *Client) recoverSession(ctx context.Context, req Request, sent string) (string, error) {
	if req.retries >= maxRetries {
		const reason = "access token rejected after refresh"
		c.expireToken(reason, req.bearer)
		return "", authExpired(reason, nil)
	}

	// поколение снимается до чтения хранилища: обновление, завершившееся
	// после этого, будет замечено в AwaitSince
	gen := c.coord.Generation()
	pair, err := c.store.Load()
	switch {
	case err == nil && pair.Access != "" && pair.Access != sent:
		// Токен уже обновили, пока запрос был в полёте.
		c.logger.Debugw("401 for a superseded access token, replaying with the current one",
			"request_id", req.requestID)
		return pair.Access, nil
	case errors.Is(err, repo.ErrNoTokens) && sent != "":
		// Сессию уже завершили, пока запрос был в полёте.
		return "", authExpired("session ended", err)
	}

	access, err := c.coord.AwaitSince(ctx, gen, sent)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return "", &NetworkError{Op: "await token refresh", Err: err}
		}
		return "", authExpired("token refresh failed", err)
	}
	return access, nil
}

// refreshTokens выполняется только лидером RefreshCoordinator.
func (c *Client) refreshTokens(ctx context.Context) (model.TokenPair, error) {
	pair, err := c.store.Load()
	if err != nil && !errors.Is(err, repo.ErrNoTokens) {
		return c.failRefresh(fmt.Errorf("load tokens: %w", err))
	}
	if pair.Refresh == "" {
		return c.failRefresh(ErrNoRefreshToken)
	}

	next, err := c.refresher.Refresh(ctx, pair.Refresh)
	if err != nil {
		return c.failRefresh(err)
	}
	if next.Access == "" {
		return c.failRefresh(errors.New("refresh response has no access token"))
	}
	if next.Refresh == "" {
		next.Refresh = pair.Refresh
	}
	if err := c.store.Save(next); err != nil {
		return c.failRefresh(fmt.Errorf("save tokens: %w", err))
	}
	return next, nil
}

func (c *Client) failRefresh(err error) (model.TokenPair, error) {
	c.logoutMu.Lock()
	defer c.logoutMu.Unlock()
	c.expireLocked("token refresh failed")
	return model.TokenPair{}, err
}

// expireToken завершает сессию после повторного 401, только если в хранилище
// всё ещё лежит access-токен, с которым запрос повторили. Пустое хранилище
// или более новая пара означают, что выход уже выполнен или сессия обновлена.
func (c *Client) expireToken(reason, access string) {
	c.logoutMu.Lock()
	defer c.logoutMu.Unlock()

	pair, err := c.store.Load()
	if err != nil || pair.Access != access {
		return
	}
	c.expireLocked(reason)
}

// expireLocked очищает хранилище и уводит на вход; вызывается под logoutMu.
func (c *Client) expireLocked(reason string) {
	if err := c.store.Clear(); err != nil {
		c.logger.Errorw("failed to clear tokens", "error", err)
	}
	c.metrics.incForcedLogout()
	c.logger.Warnw("session expired, redirecting to login", "reason", reason)
	c.nav.RedirectToLogin()
}

// GetJSON выполняет GET и разбирает ответ в out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return err
	}
	return resp.DecodeJSON(out)
}

// PostJSON отправляет in как JSON и разбирает ответ в out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, JSON: in})
	if err != nil {
		return err
	}
	return resp.DecodeJSON(out)
}

// PostForm отправляет multipart-форму.
func (c *Client) PostForm(ctx context.Context, path string, form *Multipart, out any) error {
	if form == nil {
		return fmt.Errorf("%w: nil form", ErrInvalidRequest)
	}
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Form: form})
	if err != nil {
		return err
	}
	return resp.DecodeJSON(out)
}

// clientRefresher — обмен через POST {refresh} на refreshPath того же API.
type clientRefresher struct {
	c    *Client
	path string
}

func (r clientRefresher) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	resp, err := r.c.Do(ctx, Request{
		Method:     http.MethodPost,
		Path:       r.path,
		JSON:       model.RefreshRequest{Refresh: refreshToken},
		AuthExempt: true,
	})
	if err != nil {
		return model.TokenPair{}, err
	}
	var pair model.TokenPair
	if err := resp.DecodeJSON(&pair); err != nil {
		return model.TokenPair{}, err
	}
	if pair.Access == "" {
		var env model.Envelope
		if json.Unmarshal(resp.Body, &env) == nil && len(env.Data) > 0 {
			_ = json.Unmarshal(env.Data, &pair)
		}
	}
	return pair, nil
}
