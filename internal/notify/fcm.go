// Package notify delivers weekly ranking announcements to member devices.
//
// The scoring engine never calls this package directly: a separate process
// reads a published week and decides whether to notify.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	resty "github.com/go-resty/resty/v2"

	"github.com/blessedfam/weeklyrank/pkg/logger"
	"github.com/blessedfam/weeklyrank/pkg/metrics"
)

const (
	defaultRetryCount   = 3
	defaultRetryWait    = 2 * time.Second
	defaultRetryMaxWait = 30 * time.Second
)

// Pusher sends one notification to one device token.
type Pusher interface {
	Send(ctx context.Context, token, title, body string) error
}

// FCMClient implements Pusher against the FCM legacy HTTP endpoint.
type FCMClient struct {
	endpoint  string
	serverKey string
	http      *resty.Client
	logger    logger.Logger
}

// fcmMessage mirrors the FCM legacy send payload.
type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Priority     string            `json:"priority"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NewFCMClient creates a push client for the given gateway endpoint.
func NewFCMClient(endpoint, serverKey string, log logger.Logger) *FCMClient {
	httpClient := resty.New()
	httpClient.SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWait).
		SetRetryMaxWaitTime(defaultRetryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r.StatusCode() == http.StatusTooManyRequests ||
				r.StatusCode() >= http.StatusInternalServerError
		})
	return &FCMClient{
		endpoint:  endpoint,
		serverKey: serverKey,
		http:      httpClient,
		logger:    log,
	}
}

// Send posts one notification to one device token.
func (c *FCMClient) Send(ctx context.Context, token, title, body string) error {
	if c.serverKey == "" {
		return ErrMissingServerKey
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "key="+c.serverKey).
		SetBody(fcmMessage{
			To:           token,
			Notification: fcmNotification{Title: title, Body: body},
			Data:         map[string]string{"kind": "weekly_ranking"},
			Priority:     "high",
		}).
		Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: gateway returned %d", ErrPushFailed, resp.StatusCode())
	}
	return nil
}

// Fanout sends the same notification to every token concurrently. Per-token
// failures are logged and counted, never fatal: a dead device token must not
// keep the rest of the congregation from hearing the news.
func Fanout(ctx context.Context, pusher Pusher, tokens []string, title, body string, log logger.Logger) int {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sent int
	)
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			if err := pusher.Send(ctx, token, title, body); err != nil {
				metrics.RecordPushFailed()
				log.Warn(ctx, "push send failed", logger.Error(err))
				return
			}
			metrics.RecordPushSent()
			mu.Lock()
			sent++
			mu.Unlock()
		}(token)
	}
	wg.Wait()
	return sent
}
