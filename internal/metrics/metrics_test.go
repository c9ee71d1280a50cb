package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle(t *testing.T) {
	assert.Equal(t, "like", Toggle(true, "like", "unlike"))
	assert.Equal(t, "unlike", Toggle(false, "like", "unlike"))
}

func TestMiddleware_LabelsRenderedStatus(t *testing.T) {
	e := echo.New()
	mw := Middleware(func(error) int { return http.StatusTeapot })

	req := httptest.NewRequest(http.MethodGet, "/api/posts/abc", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/posts/:id")

	boom := errors.New("boom")
	err := mw(func(echo.Context) error { return boom })(c)
	require.ErrorIs(t, err, boom)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range families {
		if mf.GetName() != "feed_http_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["route"] == "/api/posts/:id" && labels["status"] == "418" {
				found = true
				assert.Equal(t, http.MethodGet, labels["method"])
				assert.EqualValues(t, 1, m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.True(t, found, "expected a sample labelled with the rendered status")
}
