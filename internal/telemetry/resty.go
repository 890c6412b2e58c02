package telemetry

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentResty starts a span before every request made by client and ends it
// when the response or error arrives.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(onBeforeRequest(tracer))
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func onBeforeRequest(tracer trace.Tracer) resty.RequestMiddleware {
	return func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method),
			trace.WithSpanKind(trace.SpanKindClient))
		req.SetContext(ctx)
		return nil
	}
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	span.SetAttributes(
		attribute.String("http.request.method", res.Request.Method),
		attribute.String("url.full", res.Request.URL),
		attribute.Int("http.response.status_code", res.StatusCode()),
		attribute.Int("http.response.body.size", len(res.Body())),
		attribute.Int64("http.client.duration_ms", res.Time().Milliseconds()),
	)
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.full", req.URL),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
