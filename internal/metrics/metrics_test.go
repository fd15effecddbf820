package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveGeneration(t *testing.T) {
	before := testutil.ToFloat64(Generations.WithLabelValues("gpt-test", "ok"))
	ObserveGeneration("gpt-test", "ok", 2*time.Second)
	require.Equal(t, before+1, testutil.ToFloat64(Generations.WithLabelValues("gpt-test", "ok")))
}

func TestIncLLMRequest_LabelledByProviderOnly(t *testing.T) {
	before := testutil.ToFloat64(LLMRequests.WithLabelValues("provider-test"))
	IncLLMRequest("provider-test")
	require.Equal(t, before+1, testutil.ToFloat64(LLMRequests.WithLabelValues("provider-test")))
}

func TestAddTokens_SkipsZero(t *testing.T) {
	in := testutil.ToFloat64(LLMTokens.WithLabelValues("tokens-test", "input"))
	out := testutil.ToFloat64(LLMTokens.WithLabelValues("tokens-test", "output"))

	AddTokens("tokens-test", 10, 0)
	require.Equal(t, in+10, testutil.ToFloat64(LLMTokens.WithLabelValues("tokens-test", "input")))
	require.Equal(t, out, testutil.ToFloat64(LLMTokens.WithLabelValues("tokens-test", "output")))
}

func TestIncError(t *testing.T) {
	before := testutil.ToFloat64(Errors.WithLabelValues("llm", "http_do"))
	IncError("llm", "http_do")
	IncError("llm", "http_do")
	require.Equal(t, before+2, testutil.ToFloat64(Errors.WithLabelValues("llm", "http_do")))
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	IncOutputCheck("pass")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "uigen_output_checks_total")
}
