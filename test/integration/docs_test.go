package integration_test

import (
	"net/http"
	"regexp"
	"strings"
	"testing"

	"messaging_backend/test/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ginParam = regexp.MustCompile(`:(\w+)`)

func TestSwaggerDescribesEveryRoute(t *testing.T) {
	ts := helpers.NewTestServer(t, nil)

	res, body := ts.SendRequest(t, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var doc struct {
		Paths map[string]map[string]interface{} `json:"paths"`
	}
	helpers.Decode(t, body, &doc)

	engine, ok := ts.Server.Config.Handler.(*gin.Engine)
	require.True(t, ok)

	for _, route := range engine.Routes() {
		if route.Path == "/metrics" || strings.HasPrefix(route.Path, "/swagger") {
			continue
		}
		path := ginParam.ReplaceAllString(route.Path, "{$1}")
		ops, found := doc.Paths[path]
		if !assert.True(t, found, "undocumented path %s", path) {
			continue
		}
		_, found = ops[strings.ToLower(route.Method)]
		assert.True(t, found, "undocumented operation %s %s", route.Method, path)
	}
}
