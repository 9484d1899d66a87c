package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/domain"
)

const defaultTimeout = 5 * time.Second

type HTTPChecker struct {
	Client *http.Client
	Logger *zap.Logger
	Now    func() time.Time
}

// NewHTTPChecker returns a checker that follows redirects and verifies
// certificates. now is the clock results are stamped with; nil means
// time.Now.
func NewHTTPChecker(logger *zap.Logger, now func() time.Time) *HTTPChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &HTTPChecker{
		Client: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		Logger: logger,
		Now:    now,
	}
}

// Check issues one GET against t bounded by t.Timeout. It never returns an
// error: every failure is folded into a DOWN result.
func (h *HTTPChecker) Check(ctx context.Context, t domain.Target) domain.CheckResult {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	res := domain.CheckResult{
		CheckedAt:      h.Now(),
		TargetID:       t.ID(),
		Name:           t.Name,
		URL:            t.URL,
		ExpectedStatus: t.ExpectedStatus,
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, t.URL, nil)
	if err != nil {
		h.fail(&res, domain.FailureRequest, "Request failed", err)
		return res
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	if err != nil {
		switch classify(err) {
		case domain.FailureTimeout:
			res.Verdict = domain.VerdictUnavailable
			res.Failure = domain.FailureTimeout
			res.Message = fmt.Sprintf("Request timeout after %g seconds", timeout.Seconds())
			res.ErrorDetail = err.Error()
			h.Logger.Error("app_down",
				zap.String("app", t.Name),
				zap.String("url", t.URL),
				zap.String("error", res.Failure.String()),
				zap.Duration("timeout", timeout),
			)
		case domain.FailureUnreachable:
			h.fail(&res, domain.FailureUnreachable, "Connection failed - Application unreachable", err)
		default:
			h.fail(&res, domain.FailureRequest, "Request failed", err)
		}
		return res
	}
	latency := roundMS(time.Since(start))
	resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.LatencyMS = &latency
	res.Verdict = domain.ClassifyStatus(t.ExpectedStatus, resp.StatusCode)
	res.Message = StatusMessage(resp.StatusCode)
	res.Headers = resp.Header.Clone()

	if res.Verdict == domain.VerdictHealthy {
		h.Logger.Info("app_up",
			zap.String("app", t.Name),
			zap.Int("status", resp.StatusCode),
			zap.Float64("latency_ms", latency),
		)
	} else {
		h.Logger.Warn("app_degraded",
			zap.String("app", t.Name),
			zap.Int("expected", t.ExpectedStatus),
			zap.Int("status", resp.StatusCode),
			zap.Float64("latency_ms", latency),
		)
	}
	return res
}

func (h *HTTPChecker) fail(res *domain.CheckResult, f domain.Failure, msg string, err error) {
	res.Verdict = domain.VerdictUnavailable
	res.Failure = f
	res.Message = msg
	res.ErrorDetail = err.Error()
	h.Logger.Error("app_down",
		zap.String("app", res.Name),
		zap.String("url", res.URL),
		zap.String("error", f.String()),
		zap.String("detail", res.ErrorDetail),
	)
}

// classify maps a transport error onto the failure taxonomy. Timeouts win
// over connection errors, so a dial that times out is a timeout.
func classify(err error) domain.Failure {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.FailureTimeout
	}

	var (
		opErr   *net.OpError
		dnsErr  *net.DNSError
		certErr *tls.CertificateVerificationError
		uaErr   x509.UnknownAuthorityError
		hostErr x509.HostnameError
		invErr  x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &dnsErr),
		errors.As(err, &opErr),
		errors.As(err, &certErr),
		errors.As(err, &uaErr),
		errors.As(err, &hostErr),
		errors.As(err, &invErr):
		return domain.FailureUnreachable
	}
	return domain.FailureRequest
}

func roundMS(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
