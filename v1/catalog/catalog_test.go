package catalog

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	api "github.com/bww/go-rfqclient/v1"
	"github.com/bww/go-rfqclient/v1/internal/fakeservice"
	"github.com/bww/go-rfqclient/v1/resource"
)

func newCatalog(t *testing.T, opts ...func(*Config)) (*fakeservice.Service, *Catalog) {
	t.Helper()
	svc := fakeservice.New()
	t.Cleanup(svc.Close)
	conf := Config{BaseURL: svc.URL}
	for _, o := range opts {
		o(&conf)
	}
	c, err := New(conf)
	if err != nil {
		t.Fatal(err)
	}
	return svc, c
}

func TestDefaultSummaries(t *testing.T) {
	svc, cat := newCatalog(t)
	cxt := context.Background()

	cid := svc.Seed("customers", map[string]any{"name": "ACME"})
	iid := svc.Seed("items", map[string]any{"name": "Bracket"})
	pid := svc.Seed("program", map[string]any{"name": "Retrofit"})

	s, err := cat.Customers.SummaryFormat(cxt, cid)
	if assert.NoError(t, err) {
		assert.Equal(t, resource.Summary{}, s)
	}
	s, err = cat.Items.SummaryFormat(cxt, iid)
	if assert.NoError(t, err) {
		assert.Equal(t, resource.Summary{"제품명": "", "규격": "", "수량": 0, "단가": 0, "총액": 0, "납기": "", "비고": ""}, s)
	}
	s, err = cat.Programs.SummaryFormat(cxt, pid)
	if assert.NoError(t, err) {
		assert.Equal(t, resource.Summary{"프로그램명": "", "규격": "", "수량": 0, "단가": 0, "총액": 0, "납기": "", "비고": ""}, s)
	}
}

func TestPaths(t *testing.T) {
	svc, cat := newCatalog(t)
	cxt := context.Background()

	tests := []struct {
		Op     func() error
		Method string
		Path   string
	}{
		{func() error { _, err := cat.Customers.List(cxt); return err }, http.MethodGet, "/api/customers/list"},
		{func() error { _, err := cat.Items.List(cxt); return err }, http.MethodGet, "/api/items/list"},
		{func() error { _, err := cat.Programs.List(cxt); return err }, http.MethodGet, "/api/program/list"},
		{func() error { _, err := cat.RFQs.List(cxt); return err }, http.MethodGet, "/api/rfq/list"},
		{func() error { _, err := cat.Customers.Create(cxt, resource.Creation{Name: "c"}); return err }, http.MethodPost, "/api/customers/add"},
		{func() error { _, err := cat.Items.Create(cxt, resource.Creation{Name: "i"}); return err }, http.MethodPost, "/api/items/add"},
		{func() error { _, err := cat.Programs.Create(cxt, resource.Creation{Name: "p"}); return err }, http.MethodPost, "/api/program/add"},
	}
	for _, tt := range tests {
		if assert.NoError(t, tt.Op(), tt.Path) {
			last, _ := svc.LastRequest()
			assert.Equal(t, tt.Method, last.Method)
			assert.Equal(t, tt.Path, last.Path)
		}
	}
}

func TestDeleteMessages(t *testing.T) {
	svc, cat := newCatalog(t)
	cxt := context.Background()

	msg, err := cat.Customers.Delete(cxt, svc.Seed("customers", map[string]any{"name": "x"}))
	if assert.NoError(t, err) {
		assert.Equal(t, "Customer deleted successfully", msg.Message)
	}
	msg, err = cat.Items.Delete(cxt, svc.Seed("items", map[string]any{"name": "x"}))
	if assert.NoError(t, err) {
		assert.Equal(t, "Item deleted successfully", msg.Message)
	}
	msg, err = cat.Programs.Delete(cxt, svc.Seed("program", map[string]any{"name": "x"}))
	if assert.NoError(t, err) {
		assert.Equal(t, "Program deleted successfully", msg.Message)
	}
}

func TestRFQs(t *testing.T) {
	svc, cat := newCatalog(t)
	cxt := context.Background()

	id := svc.Seed("rfq", map[string]any{"title": "Brackets", "description": "500 pcs", "created_at": 1714557600})
	rfqs, err := cat.RFQs.List(cxt)
	if assert.NoError(t, err) && assert.Len(t, rfqs, 1) {
		assert.Equal(t, RFQ{ID: id, Title: "Brackets", Description: "500 pcs", CreatedAt: "1714557600"}, rfqs[0])
	}
	rfq, err := cat.RFQs.Get(cxt, id)
	if assert.NoError(t, err) {
		assert.Equal(t, "Brackets", rfq.Title)
	}
}

func TestSeparateRFQService(t *testing.T) {
	main := fakeservice.New()
	defer main.Close()
	rfqs := fakeservice.New()
	defer rfqs.Close()
	rfqs.Seed("rfq", map[string]any{"title": "Elsewhere"})

	cat, err := New(Config{BaseURL: main.URL, RFQBaseURL: rfqs.URL})
	if !assert.NoError(t, err) {
		return
	}
	res, err := cat.RFQs.List(context.Background())
	if assert.NoError(t, err) && assert.Len(t, res, 1) {
		assert.Equal(t, "Elsewhere", res[0].Title)
	}
	assert.Len(t, main.Requests(), 0)
}

func TestSnapshot(t *testing.T) {
	svc, cat := newCatalog(t)
	cxt := context.Background()

	svc.Seed("customers", map[string]any{"name": "ACME"})
	svc.Seed("items", map[string]any{"name": "Bracket"})
	svc.Seed("items", map[string]any{"name": "Hinge"})
	svc.Seed("program", map[string]any{"name": "Retrofit"})
	svc.Seed("rfq", map[string]any{"title": "Brackets"})

	snap, err := cat.Snapshot(cxt)
	if assert.NoError(t, err) {
		assert.Len(t, snap.Customers, 1)
		assert.Len(t, snap.Items, 2)
		assert.Len(t, snap.Programs, 1)
		assert.Len(t, snap.RFQs, 1)
	}

	svc.Fail(http.StatusInternalServerError)
	_, err = cat.Snapshot(cxt)
	assert.Equal(t, http.StatusInternalServerError, api.StatusCode(err))
	svc.Recover()
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	_, cat := newCatalog(t, func(c *Config) { c.Logger = zap.New(core) })
	cxt := context.Background()

	_, err := cat.Items.List(cxt)
	assert.NoError(t, err)
	_, err = cat.Items.Get(cxt, "missing")
	assert.True(t, api.IsNotFound(err))

	assert.Equal(t, 2, logs.FilterMessage("sending request").Len())
	assert.Equal(t, 1, logs.FilterMessage("received response").Len())
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestLogLevelFromConfig(t *testing.T) {
	svc := fakeservice.New()
	defer svc.Close()

	defer func(w zapcore.WriteSyncer) { logOutput = w }(logOutput)
	buf := &bytes.Buffer{}
	logOutput = zapcore.AddSync(buf)

	t.Setenv("RFQCLIENT_BASE_URL", svc.URL)
	t.Setenv("RFQCLIENT_LOG_LEVEL", "debug")
	conf, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if !assert.NoError(t, err) {
		return
	}
	assert.Nil(t, conf.Logger)

	cat, err := New(conf)
	if !assert.NoError(t, err) {
		return
	}
	_, err = cat.Items.List(context.Background())
	if assert.NoError(t, err) {
		out := buf.String()
		assert.Contains(t, out, `"msg":"sending request"`)
		assert.Contains(t, out, `"logger":"rfqclient"`)
		assert.Contains(t, out, "/api/items/list")
	}

	buf.Reset()
	conf.LogLevel = "warn"
	cat, err = New(conf)
	if assert.NoError(t, err) {
		_, err = cat.Items.List(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, "", buf.String())
	}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
	_, err = New(Config{BaseURL: "not a url"})
	assert.Error(t, err)
	_, err = New(Config{BaseURL: "http://localhost:9000", Timeout: -time.Second})
	assert.Error(t, err)
	_, err = New(Config{BaseURL: "http://localhost:9000", Timeout: time.Second, Debug: true})
	assert.NoError(t, err)
}
