package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// LogObserver writes a structured log entry for every request a client
// issues. Sends and responses are logged at debug level, failures at warn.
type LogObserver struct {
	log      *zap.Logger
	inflight sync.Map // *http.Request -> time.Time
}

func NewLogObserver(log *zap.Logger) *LogObserver {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogObserver{log: log.Named("rfqclient")}
}

func (o *LogObserver) WillSendRequest(req *http.Request) error {
	o.inflight.Store(req, time.Now())
	o.log.Debug("sending request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
	)
	return nil
}

func (o *LogObserver) DidReceiveResponse(req *http.Request, rsp *http.Response) error {
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", rsp.StatusCode),
	}
	if rsp.ContentLength >= 0 {
		fields = append(fields, zap.String("size", humanize.Bytes(uint64(rsp.ContentLength))))
	}
	fields = append(fields, o.elapsed(req)...)
	o.log.Debug("received response", fields...)
	return nil
}

func (o *LogObserver) RequestFailedWithError(req *http.Request, rsp *http.Response, err error) error {
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Error(err),
	}
	if rsp != nil {
		fields = append(fields, zap.Int("status", rsp.StatusCode))
	}
	fields = append(fields, o.elapsed(req)...)
	o.log.Warn("request failed", fields...)
	return nil
}

func (o *LogObserver) elapsed(req *http.Request) []zap.Field {
	v, ok := o.inflight.LoadAndDelete(req)
	if !ok {
		return nil
	}
	return []zap.Field{zap.Duration("duration", time.Since(v.(time.Time)))}
}
