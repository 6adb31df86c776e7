//go:build integration

package router_test

// End-to-end tests against Postgres y Redis reales via testcontainers.
// Ejecutar con: go test -tags integration ./internal/router/... -v
//
// Cubren el ciclo completo por HTTP:
//   - login → crear cotización → listar → obtener
//   - numeración consecutiva con el índice único real
//   - eliminación lógica: invisible por defecto, visible para auditoría,
//     y el número nunca se reutiliza
//   - reemplazo completo de items en una edición

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/config"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/infra"
	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/router"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Setup ────────────────────────────────────────────────────────────────────

type testEnv struct {
	server    *httptest.Server
	token     string // admin JWT
	clienteID string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("documentos_test"),
		tcPostgres.WithUsername("documentos"),
		tcPostgres.WithPassword("documentos"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		DBTimeoutSeconds:   5,
		WorkerPoolSize:     1,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("e2e-password"), 10)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
		INSERT INTO usuarios (username, nombre, password_hash, rol)
		VALUES ('admin@e2e.test', 'Admin E2E', ?, 'administrador')`,
		string(hash)).Error)
	require.NoError(t, db.Exec(`
		INSERT INTO clientes (razon_social, ruc)
		VALUES ('Cliente E2E SAC', '20111222333')`).Error)

	srv := httptest.NewServer(router.New(cfg, db, rdb))
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin@e2e.test", "password": "e2e-password"}), "")
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &login)
	require.NotEmpty(t, login.AccessToken)

	clientesResp := do(t, srv, "GET", "/v1/clientes", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, clientesResp.StatusCode)
	var clientes []struct {
		ID string `json:"id"`
	}
	decodeJSON(t, clientesResp, &clientes)
	require.Len(t, clientes, 1)

	return &testEnv{server: srv, token: login.AccessToken, clienteID: clientes[0].ID}
}

func (e *testEnv) crearCotizacion(t *testing.T) map[string]any {
	t.Helper()
	resp := do(t, e.server, "POST", "/v1/documentos/cotizacion", jsonBody(t, map[string]any{
		"cliente_id":    e.clienteID,
		"validez_dias":  15,
		"tasa_impuesto": "0.18",
		"items": []map[string]any{
			{"descripcion": "Alquiler de baño portátil", "cantidad": 2, "dias": 3, "precio_unitario": "10"},
		},
	}), e.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var doc map[string]any
	decodeJSON(t, resp, &doc)
	return doc
}

// assertMonto compara montos como decimales: "60", "60.0" y "60.00" son el
// mismo valor según de dónde venga la representación.
func assertMonto(t *testing.T, esperado string, got any) {
	t.Helper()
	d, err := decimal.NewFromString(fmt.Sprintf("%v", got))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString(esperado).Equal(d), "esperado %s, llegó %v", esperado, got)
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2ECicloCompletoCotizacion(t *testing.T) {
	env := setupTestEnv(t)

	doc := env.crearCotizacion(t)
	assert.Equal(t, "COT-001", doc["numero"])
	assert.Equal(t, "borrador", doc["estado"])
	assertMonto(t, "60", doc["subtotal"])
	assertMonto(t, "10.80", doc["impuesto"])
	assertMonto(t, "70.80", doc["total"])

	listResp := do(t, env.server, "GET", "/v1/documentos/cotizacion", nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var lista struct {
		Data  []map[string]any `json:"data"`
		Total int64            `json:"total"`
	}
	decodeJSON(t, listResp, &lista)
	assert.EqualValues(t, 1, lista.Total)

	getResp := do(t, env.server, "GET", fmt.Sprintf("/v1/documentos/cotizacion/%s", doc["id"]), nil, env.token)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var leido map[string]any
	decodeJSON(t, getResp, &leido)
	assert.Equal(t, doc["numero"], leido["numero"])
	cliente := leido["cliente"].(map[string]any)
	assert.Equal(t, "Cliente E2E SAC", cliente["razon_social"])
}

func TestE2ENumeracionConsecutivaYEliminacion(t *testing.T) {
	env := setupTestEnv(t)

	d1 := env.crearCotizacion(t)
	d2 := env.crearCotizacion(t)
	assert.Equal(t, "COT-001", d1["numero"])
	assert.Equal(t, "COT-002", d2["numero"])

	delResp := do(t, env.server, "DELETE", fmt.Sprintf("/v1/documentos/cotizacion/%s", d2["id"]), nil, env.token)
	require.Equal(t, http.StatusNoContent, delResp.StatusCode)

	// invisible por defecto
	getResp := do(t, env.server, "GET", fmt.Sprintf("/v1/documentos/cotizacion/%s", d2["id"]), nil, env.token)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)

	// visible con el flag de auditoría, con su marca de eliminación
	getResp = do(t, env.server, "GET", fmt.Sprintf("/v1/documentos/cotizacion/%s?incluir_eliminados=true", d2["id"]), nil, env.token)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var tombstone map[string]any
	decodeJSON(t, getResp, &tombstone)
	assert.NotEmpty(t, tombstone["deleted_at"])

	// repetir el DELETE es éxito (idempotente)
	delResp = do(t, env.server, "DELETE", fmt.Sprintf("/v1/documentos/cotizacion/%s", d2["id"]), nil, env.token)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	// el número del eliminado no se reutiliza
	d3 := env.crearCotizacion(t)
	assert.Equal(t, "COT-003", d3["numero"])
}

func TestE2EActualizacionReemplazaItems(t *testing.T) {
	env := setupTestEnv(t)
	doc := env.crearCotizacion(t)

	putResp := do(t, env.server, "PUT", fmt.Sprintf("/v1/documentos/cotizacion/%s", doc["id"]), jsonBody(t, map[string]any{
		"tasa_impuesto": "0.18",
		"items": []map[string]any{
			{"descripcion": "Caseta de obra", "cantidad": 1, "dias": 10, "precio_unitario": "20"},
		},
	}), env.token)
	require.Equal(t, http.StatusOK, putResp.StatusCode)
	var editado map[string]any
	decodeJSON(t, putResp, &editado)

	items := editado["items"].([]any)
	require.Len(t, items, 1, "el juego anterior de items se reemplaza completo")
	assertMonto(t, "200", editado["subtotal"])
	assertMonto(t, "236", editado["total"])
	assert.Equal(t, doc["numero"], editado["numero"])
}

func TestE2EVaciarItemsDeOrdenServicio(t *testing.T) {
	env := setupTestEnv(t)

	createResp := do(t, env.server, "POST", "/v1/documentos/orden_servicio", jsonBody(t, map[string]any{
		"cliente_id": env.clienteID,
		"items": []map[string]any{
			{"descripcion": "Mantenimiento de pozo", "cantidad": 1, "dias": 5, "precio_unitario": "30"},
		},
	}), env.token)
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	var doc map[string]any
	decodeJSON(t, createResp, &doc)
	assertMonto(t, "150", doc["subtotal"])

	// vaciar el juego de items es una edicion valida para este tipo
	putResp := do(t, env.server, "PUT", fmt.Sprintf("/v1/documentos/orden_servicio/%s", doc["id"]), jsonBody(t, map[string]any{
		"items": []map[string]any{},
	}), env.token)
	require.Equal(t, http.StatusOK, putResp.StatusCode)
	var editado map[string]any
	decodeJSON(t, putResp, &editado)
	assert.Empty(t, editado["items"])
	assertMonto(t, "0", editado["subtotal"])
	assertMonto(t, "0", editado["total"])
}

func TestE2EValidacionSinConsumoDeNumero(t *testing.T) {
	env := setupTestEnv(t)

	// cantidad inválida → 422 del validador, sin tocar la secuencia
	resp := do(t, env.server, "POST", "/v1/documentos/cotizacion", jsonBody(t, map[string]any{
		"cliente_id":   env.clienteID,
		"validez_dias": 15,
		"items": []map[string]any{
			{"descripcion": "x", "cantidad": -1, "precio_unitario": "10"},
		},
	}), env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	doc := env.crearCotizacion(t)
	assert.Equal(t, "COT-001", doc["numero"])
}

func TestE2ERequiereAutenticacion(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "GET", "/v1/documentos/cotizacion", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
