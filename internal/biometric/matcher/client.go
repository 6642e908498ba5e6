// Package matcher wraps the external fingerprint matching service. The client
// is stateless and free of business rules: the comparison algorithm, scoring,
// and acceptance threshold all belong to the remote service.
package matcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novenantes/internal/biometric"
	"novenantes/internal/platform/config"
)

// Client calls the remote enroll/verify endpoints. No retries: a timeout is
// surfaced as ErrServiceUnavailable and the caller decides whether to rerun
// the whole workflow.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
	tracer trace.Tracer
}

func New(cfg config.MatcherConfig, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		logger: logger,
		tracer: otel.Tracer("novenantes/biometric/matcher"),
	}
}

// Wire DTOs keep the legacy field names the Java service expects.
type enrollRequest struct {
	Fingerprint string `json:"fingerprint"`
}

type enrollResponse struct {
	Success  bool   `json:"success"`
	Template string `json:"template"`
	Quality  int    `json:"quality"`
	Error    string `json:"error"`
}

type candidatePayload struct {
	ID       int64  `json:"id"`
	Template string `json:"template"`
}

type identifyRequest struct {
	Fingerprint string             `json:"fingerprint"`
	Templates   []candidatePayload `json:"templates"`
}

type identifyResponse struct {
	Success    bool    `json:"success"`
	Matched    bool    `json:"matched"`
	FraternoID int64   `json:"fraternoId"`
	Score      float64 `json:"score"`
	Error      string  `json:"error"`
}

// Enroll submits a raw sample for feature extraction and returns the opaque
// template. Quality rejections map to ErrExtractionFailed, transport failures
// to ErrServiceUnavailable.
func (c *Client) Enroll(ctx context.Context, sample biometric.Sample) (biometric.Template, error) {
	ctx, span := c.tracer.Start(ctx, "matcher.Enroll")
	defer span.End()

	var out enrollResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(enrollRequest{Fingerprint: sample.Base64()}).
		SetResult(&out).
		Post("/enroll")
	if err != nil {
		return "", fmt.Errorf("%w: %v", biometric.ErrServiceUnavailable, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: enroll returned %d", biometric.ErrServiceUnavailable, resp.StatusCode())
	}
	if !out.Success || out.Template == "" {
		if out.Error != "" {
			return "", fmt.Errorf("%w: %s", biometric.ErrExtractionFailed, out.Error)
		}
		return "", biometric.ErrExtractionFailed
	}

	span.SetAttributes(attribute.Int("sample.quality", out.Quality))
	return biometric.Template(out.Template), nil
}

// Identify submits a sample plus the full candidate set and returns the
// service's verdict. A transport failure is never reported as NoMatch.
func (c *Client) Identify(ctx context.Context, sample biometric.Sample, candidates []biometric.Candidate) (biometric.Verdict, error) {
	ctx, span := c.tracer.Start(ctx, "matcher.Identify",
		trace.WithAttributes(attribute.Int("candidates.count", len(candidates))),
	)
	defer span.End()

	req := identifyRequest{
		Fingerprint: sample.Base64(),
		Templates:   make([]candidatePayload, 0, len(candidates)),
	}
	for _, cand := range candidates {
		req.Templates = append(req.Templates, candidatePayload{
			ID:       cand.MemberID,
			Template: string(cand.Template),
		})
	}

	var out identifyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/verify")
	if err != nil {
		return biometric.Verdict{}, fmt.Errorf("%w: %v", biometric.ErrServiceUnavailable, err)
	}
	if resp.IsError() {
		return biometric.Verdict{}, fmt.Errorf("%w: verify returned %d", biometric.ErrServiceUnavailable, resp.StatusCode())
	}
	if !out.Success {
		if out.Error != "" {
			return biometric.Verdict{}, fmt.Errorf("%w: %s", biometric.ErrServiceUnavailable, out.Error)
		}
		return biometric.Verdict{}, biometric.ErrServiceUnavailable
	}

	if !out.Matched {
		return biometric.Verdict{}, nil
	}
	return biometric.Verdict{Matched: true, MemberID: out.FraternoID, Score: out.Score}, nil
}
