// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/z5labs/outcome/health"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type acceptFunc func() (net.Conn, error)

func (f acceptFunc) Accept() (net.Conn, error) {
	return f()
}

func (acceptFunc) Close() error   { return nil }
func (acceptFunc) Addr() net.Addr { return &net.TCPAddr{} }

func TestRuntime_Run(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if it fails to listen", func(t *testing.T) {
			listenErr := errors.New("failed to listen")
			rt := NewRuntime(ListenOnPort(0))
			rt.listen = func(s1, s2 string) (net.Listener, error) {
				return nil, listenErr
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err := rt.Run(ctx)
			if !assert.Equal(t, listenErr, err) {
				return
			}
		})

		t.Run("if it fails to acquire a connection", func(t *testing.T) {
			acceptErr := errors.New("failed to accept conn")
			rt := NewRuntime(
				Listener(acceptFunc(func() (net.Conn, error) {
					return nil, acceptErr
				})),
			)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err := rt.Run(ctx)
			if !assert.Equal(t, acceptErr, err) {
				return
			}
		})
	})

	t.Run("will not return an error", func(t *testing.T) {
		t.Run("if the context is cancelled", func(t *testing.T) {
			rt := NewRuntime(ListenOnPort(0))

			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			err := rt.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
		})
	})

	t.Run("will serve registered handlers", func(t *testing.T) {
		t.Run("until the context is cancelled", func(t *testing.T) {
			ls, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)

			rt := NewRuntime(
				Listener(ls),
				HandleFunc("GET /hello", func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, "hello, world")
				}),
			)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var g errgroup.Group
			g.Go(func() error {
				return rt.Run(ctx)
			})

			base := "http://" + ls.Addr().String()
			require.Eventually(t, func() bool {
				resp, err := http.Get(base + ReadinessPath)
				if err != nil {
					return false
				}
				defer resp.Body.Close()
				return resp.StatusCode == http.StatusOK
			}, 5*time.Second, 10*time.Millisecond)

			resp, err := http.Get(base + "/hello")
			if !assert.Nil(t, err) {
				return
			}
			defer resp.Body.Close()

			b, err := io.ReadAll(resp.Body)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello, world", string(b)) {
				return
			}

			cancel()
			if !assert.Nil(t, g.Wait()) {
				return
			}
		})
	})
}

func TestRuntime_Handler(t *testing.T) {
	testCases := []struct {
		Name    string
		Path    string
		Method  string
		Opts    []RuntimeOption
		Started bool
		Status  int
	}{
		{
			Name:   "startup is unavailable before the service starts",
			Path:   StartupPath,
			Method: http.MethodGet,
			Status: http.StatusServiceUnavailable,
		},
		{
			Name:    "startup is ok once the service starts",
			Path:    StartupPath,
			Method:  http.MethodGet,
			Started: true,
			Status:  http.StatusOK,
		},
		{
			Name:   "liveness is ok with no metrics",
			Path:   LivenessPath,
			Method: http.MethodGet,
			Status: http.StatusOK,
		},
		{
			Name:   "liveness is unavailable if a metric is unhealthy",
			Path:   LivenessPath,
			Method: http.MethodGet,
			Opts: []RuntimeOption{
				Liveness(health.MetricFunc(func(context.Context) bool { return false })),
			},
			Status: http.StatusServiceUnavailable,
		},
		{
			Name:   "readiness is unavailable before the service starts",
			Path:   ReadinessPath,
			Method: http.MethodGet,
			Status: http.StatusServiceUnavailable,
		},
		{
			Name:    "readiness is unavailable if a metric is unhealthy",
			Path:    ReadinessPath,
			Method:  http.MethodGet,
			Started: true,
			Opts: []RuntimeOption{
				Readiness(&health.Binary{}),
			},
			Status: http.StatusServiceUnavailable,
		},
		{
			Name:    "readiness is ok once started and all metrics are healthy",
			Path:    ReadinessPath,
			Method:  http.MethodGet,
			Started: true,
			Opts: []RuntimeOption{
				Readiness(health.MetricFunc(func(context.Context) bool { return true })),
			},
			Status: http.StatusOK,
		},
		{
			Name:   "health endpoints only allow GET",
			Path:   LivenessPath,
			Method: http.MethodPost,
			Status: http.StatusMethodNotAllowed,
		},
		{
			Name:   "routes can be registered in bulk",
			Path:   "/routes",
			Method: http.MethodGet,
			Opts: []RuntimeOption{
				Routes(func(mux *http.ServeMux) {
					mux.Handle("GET /routes", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						w.WriteHeader(http.StatusTeapot)
					}))
				}),
			},
			Status: http.StatusTeapot,
		},
		{
			Name:   "handlers can be registered",
			Path:   "/handle",
			Method: http.MethodPut,
			Opts: []RuntimeOption{
				Handle("PUT /handle", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusAccepted)
				})),
			},
			Status: http.StatusAccepted,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			rt := NewRuntime(testCase.Opts...)
			rt.started.Set(testCase.Started)

			w := httptest.NewRecorder()
			rt.Handler().ServeHTTP(w, httptest.NewRequest(testCase.Method, testCase.Path, nil))
			assert.Equal(t, testCase.Status, w.Code)
		})
	}
}
