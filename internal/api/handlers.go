package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hanami/internal/analytics"
	"hanami/internal/sales"
	"hanami/internal/search"
)

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(c.Writer, nil); err != nil {
		s.log.Error("api: template", "error", err)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respond(c, http.StatusRequestEntityTooLarge, CodeTooLarge,
				"upload exceeds "+strconv.FormatInt(tooBig.Limit, 10)+" bytes")
			return
		}
		respond(c, http.StatusBadRequest, CodeBadRequest, `multipart field "file" is required`)
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer f.Close()

	res, err := s.uploader.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, res)
}

// dataset loads everything stored. An empty store is sales.ErrNoData.
func (s *Server) dataset(ctx context.Context) (*sales.Dataset, error) {
	ds, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, sales.ErrNoData
	}
	return ds, nil
}

// report loads the dataset and renders compute's result.
func report[T any](s *Server, c *gin.Context, compute func(*sales.Dataset) (T, error)) {
	ds, err := s.dataset(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	out, err := compute(ds)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, out)
}

func (s *Server) handleSalesSummary(c *gin.Context) {
	report(s, c, analytics.SalesSummary)
}

func (s *Server) handleFinancialMetrics(c *gin.Context) {
	report(s, c, analytics.FinancialMetrics)
}

func (s *Server) handleProductAnalysis(c *gin.Context) {
	sortBy := c.Query("sort_by")
	report(s, c, func(ds *sales.Dataset) ([]analytics.Product, error) {
		ps, err := analytics.ProductAnalysis(ds)
		if err != nil {
			return nil, err
		}
		if err := analytics.SortProducts(ps, sortBy); err != nil {
			return nil, err
		}
		return ps, nil
	})
}

// handleRegionalPerformance renders regions keyed by name.
func (s *Server) handleRegionalPerformance(c *gin.Context) {
	state := strings.TrimSpace(c.Query("estado"))
	report(s, c, func(ds *sales.Dataset) (map[string]analytics.Region, error) {
		rs, err := analytics.RegionalMetrics(ds, state)
		if err != nil {
			return nil, err
		}
		out := make(map[string]analytics.Region, len(rs))
		for _, r := range rs {
			out[r.Name] = r
		}
		return out, nil
	})
}

func (s *Server) handleCustomerProfile(c *gin.Context) {
	report(s, c, analytics.DemographicProfile)
}

func (s *Server) handleTrends(c *gin.Context) {
	freq := c.DefaultQuery("freq", string(analytics.DefaultFrequency))
	if _, err := analytics.ParseFrequency(freq); err != nil {
		s.respondError(c, err)
		return
	}
	report(s, c, func(ds *sales.Dataset) (analytics.Trend, error) {
		return analytics.TrendSeries(ds, freq)
	})
}

func (s *Server) handleOverview(c *gin.Context) {
	freq, err := analytics.ParseFrequency(c.DefaultQuery("freq", string(analytics.DefaultFrequency)))
	if err != nil {
		s.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	report(s, c, func(ds *sales.Dataset) (*analytics.Overview, error) {
		return analytics.BuildOverview(ctx, ds, freq)
	})
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Total int          `json:"total"`
	Items []sales.Sale `json:"items"`
}

func (s *Server) handleSearch(c *gin.Context) {
	p, limit, err := parseSearch(c)
	if err != nil {
		respond(c, http.StatusUnprocessableEntity, CodeInvalidQuery, err.Error())
		return
	}
	items, err := s.repo.Search(c.Request.Context(), search.BuildFilters(p), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if len(items) == 0 {
		respond(c, http.StatusNotFound, CodeNotFound, "no sales match the given filters")
		return
	}
	respondOK(c, SearchResponse{Total: len(items), Items: items})
}

// parseSearch reads the search query. Date-only end dates cover their whole day.
func parseSearch(c *gin.Context) (search.Params, int, error) {
	var p search.Params
	text := func(key string) *string {
		if v, ok := c.GetQuery(key); ok && strings.TrimSpace(v) != "" {
			v = strings.TrimSpace(v)
			return &v
		}
		return nil
	}
	p.State = text(search.KeyState)
	p.City = text(search.KeyCity)
	p.Product = text(search.KeyProduct)
	p.Category = text(search.KeyCategory)

	var err error
	if p.StartDate, err = queryDate(c, search.KeyStartDate, false); err != nil {
		return p, 0, err
	}
	if p.EndDate, err = queryDate(c, search.KeyEndDate, true); err != nil {
		return p, 0, err
	}
	if p.MinValue, err = queryFloat(c, search.KeyMinValue); err != nil {
		return p, 0, err
	}
	if p.MaxValue, err = queryFloat(c, search.KeyMaxValue); err != nil {
		return p, 0, err
	}

	limit := search.DefaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, 0, errors.New("limit must be a positive integer")
		}
		limit = search.ClampLimit(n)
	}
	return p, limit, nil
}

func queryDate(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, errors.New(key + " must be YYYY-MM-DD or RFC 3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, errors.New(key + " must be a number")
	}
	return &f, nil
}
