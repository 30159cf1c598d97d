package observability

import (
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer names the X-Ray segments this service emits
type Tracer struct {
	serviceName string
}

// NewTracer creates a tracer for the given service name
func NewTracer(serviceName string) *Tracer {
	return &Tracer{
		serviceName: serviceName,
	}
}

// Middleware wraps an http.Handler so each request runs inside a trace
// segment named after the service
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	return xray.Handler(xray.NewFixedSegmentNamer(t.serviceName), next)
}

// InstrumentAWSV2 attaches X-Ray subsegments to every AWS SDK call made
// through the given config, so store and publisher latency shows up under
// the request segment
func InstrumentAWSV2(cfg *aws.Config) {
	awsv2.AWSV2Instrumentor(&cfg.APIOptions)
}
