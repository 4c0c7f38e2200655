package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/llm"
)

// ExtractPage implements llm.PageExtractor over chat/completions with
// deterministic decoding. The schema is embedded in the prompt and the
// response is validated locally before it is trusted.
func (c *Client) ExtractPage(ctx context.Context, req llm.ExtractRequest) (llm.PageExtraction, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"run_id", common.RunIDFromContext(ctx),
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"page", req.PageIndex,
		"text_len", len(req.PageText),
	)

	schema := llm.BuildPageJSONSchema()
	sys := llm.BuildSystemPrompt()
	user := llm.BuildUserPrompt(req)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, _, httpErr := c.postJSON(ctx, rid, endpoint, body)
	if httpErr != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageExtraction{}, raw, common.NewAppError("LLM_ENDPOINT", httpErr.Error(), common.ErrLLM)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageExtraction{}, raw, common.NewAppError("LLM_DECODE", fmt.Sprintf("decode openai response: %v", err), common.ErrLLM)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageExtraction{}, raw, common.NewAppError("LLM_EMPTY", "no choices in openai response", common.ErrLLM)
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	rawContent := llm.StripCodeFences([]byte(content))

	// Validate strictly first.
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		if !c.cfg.Lenient {
			c.logger.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", err, "content", content,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.PageExtraction{}, rawContent, common.NewAppError("LLM_SCHEMA", err.Error(), common.ErrValidation)
		}
		// Lenient pass: normalize known offenders and re-validate.
		cleaned, dropped, sErr := llm.NormalizeAndSanitizeJSON(rawContent)
		if sErr != nil {
			c.logger.Error("llm.extract.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.PageExtraction{}, rawContent, common.NewAppError("LLM_SANITIZE", sErr.Error(), common.ErrLLM)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.logger.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(cleaned),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.PageExtraction{}, rawContent, common.NewAppError("LLM_SCHEMA", vErr.Error(), common.ErrValidation)
		}
		c.logger.Warn("llm.extract.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out llm.PageExtraction
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.logger.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageExtraction{}, rawContent, fmt.Errorf("unmarshal fields: %w", err)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"page", req.PageIndex,
		"doc_type", out.DocType,
		"parties", len(out.Parties),
		"line_items", len(out.LineItems),
		"payments", len(out.Payments),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
