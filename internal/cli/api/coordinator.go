package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"DocPlatform/internal/cli/model"
)

// RefreshFunc выполняет обмен refresh-токена на новую пару.
type RefreshFunc func(ctx context.Context) (model.TokenPair, error)

var errRefreshAborted = errors.New("token refresh aborted")

type refreshResult struct {
	access string
	err    error
}

// pendingRefresh — запрос, ожидающий завершения текущего обновления.
type pendingRefresh struct {
	ticket    uint64
	requestID string
	done      chan refreshResult
}

// RefreshCoordinator гарантирует, что одновременно выполняется не больше одного
// обновления токена. Остальные вызовы Await встают в очередь и получают
// результат лидера в порядке поступления.
type RefreshCoordinator struct {
	refresh RefreshFunc
	timeout time.Duration
	logger  *zap.SugaredLogger
	metrics *Metrics

	mu         sync.Mutex
	refreshing bool
	queue      []*pendingRefresh
	tickets    uint64
	// итог последнего завершённого обновления; gen растёт на каждом release
	gen  uint64
	last refreshResult
}

// CoordinatorOption настраивает RefreshCoordinator.
type CoordinatorOption func(*RefreshCoordinator)

// WithCoordinatorLogger задаёт логгер координатора.
func WithCoordinatorLogger(l *zap.SugaredLogger) CoordinatorOption {
	return func(rc *RefreshCoordinator) {
		if l != nil {
			rc.logger = l
		}
	}
}

// WithCoordinatorTimeout ограничивает время одного обновления.
func WithCoordinatorTimeout(d time.Duration) CoordinatorOption {
	return func(rc *RefreshCoordinator) {
		if d > 0 {
			rc.timeout = d
		}
	}
}

// WithCoordinatorMetrics подключает счётчики.
func WithCoordinatorMetrics(m *Metrics) CoordinatorOption {
	return func(rc *RefreshCoordinator) { rc.metrics = m }
}

// NewRefreshCoordinator создаёт координатор поверх функции обновления.
func NewRefreshCoordinator(refresh RefreshFunc, opts ...CoordinatorOption) *RefreshCoordinator {
	rc := &RefreshCoordinator{
		refresh: refresh,
		timeout: DefaultRefreshTimeout,
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Await возвращает свежий access-токен. Первый вызов становится лидером и
// выполняет обновление; вызовы, пришедшие во время обновления, ждут его итога.
//
// Обновление идёт на контексте, отвязанном от отмены вызывающего, и
// ограничено таймаутом координатора. Ожидающий вызов с отменённым ctx
// возвращает ошибку контекста, но его место в очереди всё равно будет
// разрешено при разборе.
func (rc *RefreshCoordinator) Await(ctx context.Context) (string, error) {
	rc.mu.Lock()
	return rc.await(ctx)
}

// Generation возвращает номер последнего завершённого обновления.
func (rc *RefreshCoordinator) Generation() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.gen
}

// AwaitSince работает как Await, но если после поколения gen уже завершилось
// обновление, выдавшее токен, отличный от stale, возвращает его итог без
// нового обращения к бэкенду. Так 401, пришедший во время обновления, не
// запускает второе, даже если успел увидеть флаг уже сброшенным.
func (rc *RefreshCoordinator) AwaitSince(ctx context.Context, gen uint64, stale string) (string, error) {
	rc.mu.Lock()
	if !rc.refreshing && rc.gen != gen && (rc.last.err != nil || rc.last.access != stale) {
		res := rc.last
		rc.mu.Unlock()
		rc.logger.Debugw("token refreshed while request was in flight",
			"request_id", requestIDFrom(ctx), "ok", res.err == nil)
		return res.access, res.err
	}
	return rc.await(ctx)
}

// await вызывается с захваченным rc.mu и освобождает его.
func (rc *RefreshCoordinator) await(ctx context.Context) (string, error) {
	if rc.refreshing {
		rc.tickets++
		p := &pendingRefresh{
			ticket:    rc.tickets,
			requestID: requestIDFrom(ctx),
			done:      make(chan refreshResult, 1),
		}
		rc.queue = append(rc.queue, p)
		rc.mu.Unlock()

		rc.metrics.incQueued()
		rc.logger.Debugw("request queued behind token refresh",
			"ticket", p.ticket, "request_id", p.requestID)

		select {
		case res := <-p.done:
			return res.access, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	rc.refreshing = true
	rc.mu.Unlock()

	return rc.lead(ctx)
}

func (rc *RefreshCoordinator) lead(ctx context.Context) (access string, err error) {
	err = errRefreshAborted
	defer func() { rc.release(access, err) }()

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rc.timeout)
	defer cancel()

	rc.logger.Debugw("refreshing access token", "request_id", requestIDFrom(ctx))
	pair, rerr := rc.refresh(rctx)
	if rerr != nil {
		rc.metrics.incRefresh(false)
		return "", rerr
	}
	rc.metrics.incRefresh(true)
	return pair.Access, nil
}

// release сбрасывает флаг и разбирает очередь в порядке поступления.
func (rc *RefreshCoordinator) release(access string, err error) {
	rc.mu.Lock()
	queue := rc.queue
	rc.queue = nil
	rc.refreshing = false
	rc.gen++
	rc.last = refreshResult{access: access, err: err}
	rc.mu.Unlock()

	if err != nil {
		rc.logger.Warnw("token refresh failed", "queued", len(queue), "error", err)
	} else {
		rc.logger.Debugw("token refreshed", "queued", len(queue))
	}
	for _, p := range queue {
		rc.logger.Debugw("resolving queued request",
			"ticket", p.ticket, "request_id", p.requestID, "ok", err == nil)
		p.done <- refreshResult{access: access, err: err}
	}
}

// Refreshing сообщает, идёт ли сейчас обновление.
func (rc *RefreshCoordinator) Refreshing() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.refreshing
}

// Pending возвращает число запросов в очереди.
func (rc *RefreshCoordinator) Pending() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.queue)
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
