package metrics

import (
	"kecarajocomer/internal/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors holds the Prometheus metrics the application exports.
type Collectors struct {
	Registry *prometheus.Registry

	listsGenerated prometheus.Counter
	listItems      prometheus.Histogram
	llmTokens      *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
}

// NewCollectors registers the application metrics, plus the Go runtime and
// process collectors, on a fresh registry.
func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collectors{
		Registry: reg,
		listsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "shopping_lists_generated_total",
			Help: "Number of shopping lists generated",
		}),
		listItems: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopping_list_items",
			Help:    "Number of items in generated shopping lists",
			Buckets: []float64{0, 5, 10, 20, 40, 80},
		}),
		llmTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "LLM tokens consumed by agent and kind",
		}, []string{"agent", "kind"}),
		llmLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM request latency by agent",
			Buckets: prometheus.DefBuckets,
		}, []string{"agent"}),
	}
}

// ObserveList records a generated shopping list with n items.
func (c *Collectors) ObserveList(n int) {
	c.listsGenerated.Inc()
	c.listItems.Observe(float64(n))
}

// ObserveAgent records token usage and latency of an LLM call.
func (c *Collectors) ObserveAgent(meta shared.AgentMeta) {
	if !meta.HasUsage() {
		return
	}
	c.llmTokens.WithLabelValues(meta.AgentName, "prompt").Add(float64(meta.Usage.PromptTokens))
	c.llmTokens.WithLabelValues(meta.AgentName, "completion").Add(float64(meta.Usage.CompletionTokens))
	c.llmLatency.WithLabelValues(meta.AgentName).Observe(meta.Latency.Seconds())
}
