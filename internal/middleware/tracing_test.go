package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"careline/internal/models"
	"careline/internal/observability"
	"careline/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingMiddleware_TagsRouteAndAccount(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		observability.Tracer = prev
		_ = tp.Shutdown(context.Background())
	})

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/api/residents/:residentId", func(c *fiber.Ctx) error {
		c.Locals("subject", policy.Subject{ID: 7, Role: models.RoleCaregiver})
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusInternalServerError)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/residents/42", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	_, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)

	resident := spans[0]
	assert.Equal(t, "GET /api/residents/:residentId", resident.Name())
	attrs := spanAttrs(resident)
	assert.Equal(t, int64(7), attrs["account.id"].AsInt64())
	assert.Equal(t, "CAREGIVER", attrs["account.role"].AsString())
	assert.Equal(t, "/api/residents/:residentId", attrs["http.route"].AsString())
	assert.Equal(t, int64(200), attrs["http.status_code"].AsInt64())
	assert.Equal(t, codes.Unset, resident.Status().Code)

	boom := spans[1]
	_, tagged := spanAttrs(boom)["account.role"]
	assert.False(t, tagged, "anonymous requests carry no account")
	assert.Equal(t, codes.Error, boom.Status().Code)
}
