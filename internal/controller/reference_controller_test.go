package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/internal/pkg/serverutils"
	"care-advisor-be/internal/repository"
	"care-advisor-be/internal/repository/memory"
	"care-advisor-be/internal/service"
	"care-advisor-be/pkg/reference"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	repo := memory.NewReferenceRepository(memory.SeedRecords()...)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler(logger.NewNopLogger())})
	api := app.Group("/api")
	for _, c := range []struct {
		kind   reference.Kind
		scheme reference.Scheme
		path   string
	}{
		{reference.KindCase, reference.CaseScheme, "/cases"},
		{reference.KindScript, reference.ScriptScheme, "/scripts"},
	} {
		idx := reference.NewIndex(c.kind, c.scheme, repository.NewKindStore(repo, c.kind))
		require.NoError(t, idx.Load(context.Background()))
		NewReferenceController(service.NewReferenceService(idx, 3), c.path, testSecret).RegisterRoutes(api)
	}
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string, auth bool) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops", "exp": time.Now().Add(time.Hour).Unix()})
		signed, err := tok.SignedString([]byte(testSecret))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+signed)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestListIsNewestFirst(t *testing.T) {
	code, env := do(t, newTestApp(t), "GET", "/api/cases", "", false)
	require.Equal(t, fiber.StatusOK, code)

	var list []reference.Summary
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "case002", list[0].ID)
	assert.Equal(t, "case001", list[1].ID)
}

func TestShowUnknownIs404(t *testing.T) {
	app := newTestApp(t)

	code, _ := do(t, app, "GET", "/api/scripts/exp002", "", false)
	assert.Equal(t, fiber.StatusOK, code)

	code, env := do(t, app, "GET", "/api/cases/nope", "", false)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestCreateRequiresTokenAndValidBody(t *testing.T) {
	app := newTestApp(t)
	body := `{"title":"剖腹产头胎","date":"2024-02-01","attributes":{"delivery_type":"剖腹产","child_count":1}}`

	code, _ := do(t, app, "POST", "/api/cases", body, false)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = do(t, app, "POST", "/api/cases", `{"attributes":{}}`, true)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = do(t, app, "POST", "/api/cases", `{"title":"x","date":"yesterday","attributes":{}}`, true)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, env := do(t, app, "POST", "/api/cases", body, true)
	require.Equal(t, fiber.StatusCreated, code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "case_3", created["id"])

	code, _ = do(t, app, "POST", "/api/cases", `{"id":"case001","title":"dup","attributes":{}}`, true)
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = do(t, app, "GET", "/api/cases/case_3", "", false)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestSearch(t *testing.T) {
	app := newTestApp(t)

	code, env := do(t, app, "POST", "/api/cases/search", `{"delivery_type":"顺产","concerns":["母乳喂养"],"child_count":1}`, false)
	require.Equal(t, fiber.StatusOK, code)
	var res struct {
		Matches []struct {
			Score  int `json:"score"`
			Record struct {
				Id string `json:"id"`
			} `json:"record"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "case001", res.Matches[0].Record.Id)
	assert.Equal(t, 6, res.Matches[0].Score)

	// a non-object body is an empty query and falls back
	code, env = do(t, app, "POST", "/api/scripts/search?mode=best", `[1,2,3]`, false)
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "exp001", res.Matches[0].Record.Id)
	assert.Equal(t, 0, res.Matches[0].Score)

	code, env = do(t, app, "POST", "/api/scripts/search?mode=similar&top_k=1", `{}`, false)
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Len(t, res.Matches, 1)
}
