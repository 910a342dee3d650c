package autoscaler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIVersion = "1.45"

func newTestDockerRuntime(t *testing.T, handler http.HandlerFunc) *dockerRuntime {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = strings.TrimPrefix(r.URL.Path, "/v"+testAPIVersion)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	cli, err := client.NewClientWithOpts(
		client.WithHTTPClient(server.Client()),
		client.WithHost("tcp://"+server.Listener.Addr().String()),
		client.WithVersion(testAPIVersion),
	)
	require.NoError(t, err)
	return newDockerRuntime(cli)
}

func TestDockerRuntime_List(t *testing.T) {
	var gotFilters string
	rt := newTestDockerRuntime(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/containers/json", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("all"))
		gotFilters = r.URL.Query().Get("filters")
		fmt.Fprint(w, `[
			{"Id":"a1","Names":["/ping-worker-1"],"State":"running","Created":1700000000},
			{"Id":"a2","Names":["/ping-worker-2"],"State":"exited","Created":1700000100},
			{"Id":"a3","Names":["/old-ping-worker-3"],"State":"running","Created":1700000200},
			{"Id":"a4","Names":[],"State":"running","Created":1700000300}
		]`)
	})

	processes, err := rt.List(context.Background(), "ping-worker-")

	require.NoError(t, err)
	assert.JSONEq(t, `{"name":{"ping-worker-":true}}`, gotFilters)
	assert.Equal(t, []WorkerProcess{
		{ID: "a1", Name: "ping-worker-1", State: "running", CreatedAt: time.Unix(1700000000, 0)},
		{ID: "a2", Name: "ping-worker-2", State: "exited", CreatedAt: time.Unix(1700000100, 0)},
	}, processes)
}

func TestDockerRuntime_List_Error(t *testing.T) {
	rt := newTestDockerRuntime(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"daemon error"}`)
	})

	_, err := rt.List(context.Background(), "ping-worker-")

	assert.ErrorContains(t, err, "daemon error")
}

func TestDockerRuntime_Run(t *testing.T) {
	spec := ProcessSpec{
		Name:    "ping-worker-4",
		Image:   "uptime/worker:latest",
		Command: []string{"/app/worker"},
		Env:     map[string]string{"QUEUE_NAME": "ping-jobs", "LOG_LEVEL": "debug"},
		Network: "uptime",
	}

	testCases := []struct {
		name        string
		createCode  int
		startCode   int
		expectedErr error
		expectErr   bool
	}{
		{name: "Success", createCode: http.StatusCreated, startCode: http.StatusNoContent},
		{name: "Already started", createCode: http.StatusCreated, startCode: http.StatusNotModified},
		{name: "Name conflict", createCode: http.StatusConflict, expectedErr: ErrProcessExists, expectErr: true},
		{name: "Start failure", createCode: http.StatusCreated, startCode: http.StatusInternalServerError, expectErr: true},
		{name: "Image missing", createCode: http.StatusNotFound, expectErr: true},
		{name: "Start failure after create", createCode: http.StatusCreated, startCode: http.StatusConflict, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var created struct {
				container.Config
				HostConfig container.HostConfig
			}
			started := false
			rt := newTestDockerRuntime(t, func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.Method == http.MethodPost && r.URL.Path == "/containers/create":
					assert.Equal(t, spec.Name, r.URL.Query().Get("name"))
					require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
					w.WriteHeader(tc.createCode)
					if tc.createCode == http.StatusCreated {
						fmt.Fprint(w, `{"Id":"new-id","Warnings":[]}`)
					} else {
						fmt.Fprint(w, `{"message":"create failed"}`)
					}
				case r.Method == http.MethodPost && r.URL.Path == "/containers/new-id/start":
					started = true
					w.WriteHeader(tc.startCode)
				default:
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
			})

			p, err := rt.Run(context.Background(), spec)

			if tc.expectErr {
				assert.Error(t, err)
				if tc.expectedErr != nil {
					assert.ErrorIs(t, err, tc.expectedErr)
					assert.False(t, started)
				} else {
					assert.NotErrorIs(t, err, ErrProcessExists)
				}
				return
			}
			require.NoError(t, err)
			assert.True(t, started)
			assert.Equal(t, "new-id", p.ID)
			assert.Equal(t, spec.Name, p.Name)
			assert.True(t, p.Running())
			assert.Equal(t, "uptime/worker:latest", created.Image)
			assert.Equal(t, []string{"/app/worker"}, []string(created.Cmd))
			assert.Equal(t, []string{"LOG_LEVEL=debug", "QUEUE_NAME=ping-jobs"}, created.Env)
			assert.Equal(t, container.RestartPolicyUnlessStopped, created.HostConfig.RestartPolicy.Name)
			assert.Equal(t, container.NetworkMode("uptime"), created.HostConfig.NetworkMode)
		})
	}
}

func TestDockerRuntime_Remove(t *testing.T) {
	testCases := []struct {
		name        string
		statusCode  int
		expectedErr error
		expectErr   bool
	}{
		{name: "Success", statusCode: http.StatusNoContent},
		{name: "Not found", statusCode: http.StatusNotFound, expectedErr: ErrProcessNotFound, expectErr: true},
		{name: "Server error", statusCode: http.StatusInternalServerError, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rt := newTestDockerRuntime(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/containers/abc", r.URL.Path)
				assert.Equal(t, "1", r.URL.Query().Get("force"))
				w.WriteHeader(tc.statusCode)
			})

			err := rt.Remove(context.Background(), "abc")

			if tc.expectErr {
				assert.Error(t, err)
				if tc.expectedErr != nil {
					assert.ErrorIs(t, err, tc.expectedErr)
				} else {
					assert.NotErrorIs(t, err, ErrProcessNotFound)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
