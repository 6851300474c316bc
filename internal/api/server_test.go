package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"hanami/internal/analytics"
	"hanami/internal/ingest"
	"hanami/internal/storage/memory"
)

const header = "id_transacao,data_venda,valor_final,subtotal,desconto_percent,canal_venda,forma_pagamento,cliente_id,idade_cliente,nome_produto,quantidade,custo_produto,regiao,estado,cidade,genero_cliente,categoria"

var sample = header + "\n" +
	"T1,2024-01-10,90,100,10,online,pix,C1,30,Caneca,2,40,Sul,RS,Porto Alegre,F,Casa\n" +
	"T2,2024-01-20,50,50,0,app mobile,boleto,C2,22,Camiseta,1,20,Sudeste,SP,São Paulo,M,Moda\n" +
	"T3,2024-02-05,200,250,20,marketplace,cartão crédito,C1,30,Caneca,4,90,Sul,RS,Porto Alegre,F,Casa\n"

func newTestServer(t *testing.T, cfg Config) (*Server, *memory.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := memory.New()
	up := &ingest.Uploader{Pipeline: ingest.New(ingest.Options{}), Repo: repo}
	return NewServer(cfg, repo, up, nil), repo
}

func uploadRequest(t *testing.T, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(body))
	w.Close()
	req := httptest.NewRequest(http.MethodPost, "/upload/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	return do(s, httptest.NewRequest(http.MethodGet, target, nil))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func seeded(t *testing.T) *Server {
	t.Helper()
	s, _ := newTestServer(t, Config{})
	if rec := do(s, uploadRequest(t, "vendas.csv", sample)); rec.Code != http.StatusOK {
		t.Fatalf("seed upload = %d: %s", rec.Code, rec.Body.String())
	}
	return s
}

func TestUpload_Accepted(t *testing.T) {
	s, repo := newTestServer(t, Config{})

	rec := do(s, uploadRequest(t, "vendas.csv", sample))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var res ingest.UploadResult
	decode(t, rec, &res)
	if res.Status != ingest.StatusOK || res.Processed != 3 || res.File != "vendas.csv" {
		t.Fatalf("result = %+v", res)
	}
	items, _ := repo.Search(t.Context(), nil, 10)
	if len(items) != 3 {
		t.Fatalf("stored = %d, want 3", len(items))
	}
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		code   string
	}{
		{
			name: "no file field",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/upload/", strings.NewReader(""))
			},
			status: http.StatusBadRequest,
			code:   CodeBadRequest,
		},
		{
			name:   "unsupported suffix",
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "vendas.json", sample) },
			status: http.StatusUnprocessableEntity,
			code:   "unsupported_format",
		},
		{
			name: "semantic violation",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "vendas.csv", strings.Replace(sample, "online", "drone", 1))
			},
			status: http.StatusUnprocessableEntity,
			code:   "semantic_validation",
		},
		{
			name:   "missing columns",
			req:    func(t *testing.T) *http.Request { return uploadRequest(t, "vendas.csv", "id_transacao\nT1\n") },
			status: http.StatusUnprocessableEntity,
			code:   "missing_columns",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, Config{})
			rec := do(s, tt.req(t))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			var env ErrorEnvelope
			decode(t, rec, &env)
			if env.Error.Code != tt.code {
				t.Fatalf("code = %q, want %q", env.Error.Code, tt.code)
			}
		})
	}
}

func TestUpload_ClientGone(t *testing.T) {
	s, repo := newTestServer(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := do(s, uploadRequest(t, "vendas.csv", sample).WithContext(ctx))
	if rec.Code != StatusClientClosedRequest {
		t.Fatalf("status = %d, want %d: %s", rec.Code, StatusClientClosedRequest, rec.Body.String())
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("body = %q, want empty", rec.Body.String())
	}
	items, _ := repo.Search(context.Background(), nil, 10)
	if len(items) != 0 {
		t.Fatalf("stored = %d, want 0", len(items))
	}
}

func TestUpload_RateLimited(t *testing.T) {
	s, _ := newTestServer(t, Config{UploadRatePerSec: 0.001, UploadBurst: 1})

	if rec := do(s, uploadRequest(t, "a.csv", sample)); rec.Code != http.StatusOK {
		t.Fatalf("first upload = %d", rec.Code)
	}
	if rec := do(s, uploadRequest(t, "b.csv", sample)); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload = %d, want 429", rec.Code)
	}
}

func TestReports_EmptyStoreIsNotFound(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	for _, path := range []string{
		"/reports/sales-summary",
		"/reports/financial-metrics",
		"/reports/product-analysis",
		"/reports/regional-performance",
		"/reports/customer-profile",
		"/reports/overview",
		"/analytics/trends",
	} {
		rec := get(s, path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s = %d, want 404", path, rec.Code)
		}
		var env ErrorEnvelope
		decode(t, rec, &env)
		if env.Error.Code != "no_data" {
			t.Fatalf("%s code = %q, want no_data", path, env.Error.Code)
		}
	}
}

func TestReports_SalesSummary(t *testing.T) {
	s := seeded(t)

	rec := get(s, "/reports/sales-summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var sum analytics.Summary
	decode(t, rec, &sum)
	if sum.Total != 340 || sum.Count != 3 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestReports_ProductAnalysisSort(t *testing.T) {
	s := seeded(t)

	rec := get(s, "/reports/product-analysis?sort_by=total_arrecadado")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var ps []analytics.Product
	decode(t, rec, &ps)
	if len(ps) != 2 || ps[0].Name != "Caneca" || ps[0].Revenue != 290 {
		t.Fatalf("products = %+v", ps)
	}

	if rec := get(s, "/reports/product-analysis?sort_by=preco"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad sort_by = %d, want 400", rec.Code)
	}
}

func TestReports_RegionalKeyedByName(t *testing.T) {
	s := seeded(t)

	rec := get(s, "/reports/regional-performance?estado=RS")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var rs map[string]analytics.Region
	decode(t, rec, &rs)
	sul, ok := rs["Sul"]
	if len(rs) != 1 || !ok {
		t.Fatalf("regions = %+v, want only Sul", rs)
	}
	if sul.TotalRevenue != 290 || sul.TransactionCount != 2 {
		t.Fatalf("Sul = %+v", sul)
	}
}

func TestTrends(t *testing.T) {
	s := seeded(t)

	rec := get(s, "/analytics/trends")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var tr analytics.Trend
	decode(t, rec, &tr)
	if tr.Frequency != analytics.Monthly || len(tr.Points) != 2 || tr.Points[0].Period != "2024-01" {
		t.Fatalf("trend = %+v", tr)
	}

	if rec := get(s, "/analytics/trends?freq=W"); rec.Code != http.StatusBadRequest {
		t.Fatalf("freq=W = %d, want 400", rec.Code)
	}
}

func TestOverview(t *testing.T) {
	s := seeded(t)

	rec := get(s, "/reports/overview?freq=Y")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var o analytics.Overview
	decode(t, rec, &o)
	if o.Summary == nil || o.Trend == nil || len(o.Unavailable) != 0 {
		t.Fatalf("overview = %+v", o)
	}
	if len(o.Trend.Points) != 1 || o.Trend.Points[0].Period != "2024" {
		t.Fatalf("trend = %+v", o.Trend)
	}
}

func TestSearch(t *testing.T) {
	s := seeded(t)

	tests := []struct {
		query  string
		status int
		total  int
	}{
		{"estado=RS", http.StatusOK, 2},
		{"produto=Cane&min_valor=100", http.StatusOK, 1},
		{"start_date=2024-01-01&end_date=2024-01-20", http.StatusOK, 2},
		{"limit=1", http.StatusOK, 1},
		{"estado=AM", http.StatusNotFound, 0},
		{"min_valor=abc", http.StatusUnprocessableEntity, 0},
		{"start_date=10/01/2024", http.StatusUnprocessableEntity, 0},
		{"limit=0", http.StatusUnprocessableEntity, 0},
	}
	for _, tt := range tests {
		rec := get(s, "/data/search?"+tt.query)
		if rec.Code != tt.status {
			t.Fatalf("%s = %d, want %d: %s", tt.query, rec.Code, tt.status, rec.Body.String())
		}
		if tt.status != http.StatusOK {
			continue
		}
		var res SearchResponse
		decode(t, rec, &res)
		if res.Total != tt.total || len(res.Items) != tt.total {
			t.Fatalf("%s total = %d, want %d", tt.query, res.Total, tt.total)
		}
	}
}

func TestIndexAndHealth(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	if rec := get(s, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	rec := get(s, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `action="/upload/"`) {
		t.Fatalf("index = %d", rec.Code)
	}
}
