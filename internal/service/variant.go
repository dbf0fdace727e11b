package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadflow/internal/model"
)

var (
	ErrVariantRequired      = errors.New("variant letter and message text are required")
	ErrGeneratorUnavailable = errors.New("message generator is not configured")
)

// maxParsedVariants bounds the line-split fallback when the model ignores the
// JSON-array instruction.
const maxParsedVariants = 10

// MessageGenerator produces raw model output for a prompt.
type MessageGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// VariantService generates candidate reactivation messages for a cohort and
// applies a chosen variant to every lead in it. Picking the winning variant is
// left to the human operator.
type VariantService struct {
	store ImportStore
	gen   MessageGenerator
	now   func() time.Time
}

func NewVariantService(store ImportStore, gen MessageGenerator) *VariantService {
	return &VariantService{store: store, gen: gen, now: time.Now}
}

const variantSystemPrompt = "Você é um CRO e copywriter especialista em reativação de base (clientes inativos). " +
	"Gere mensagens éticas, claras e objetivas para WhatsApp."

func buildVariantPrompt(cohort, context string) string {
	lines := []string{
		"Crie 8 variações de mensagem de WhatsApp para reativar clientes inativos.",
		"Objetivo: gerar demanda de recompra (não venda direta).",
		`CTA: peça para responder exatamente "EU QUERO" para receber mais detalhes.`,
		"Regras: curto, humano, sem promessas exageradas, sem spam, com tom respeitoso.",
		"Cohort: " + cohort + ".",
	}
	if context != "" {
		lines = append(lines, "Contexto adicional: "+context)
	}
	lines = append(lines, `Responda em JSON válido: ["mensagem 1", "mensagem 2", ...]`)
	return strings.Join(lines, "\n")
}

// ParseVariants extracts candidate messages from raw model output. A valid
// JSON array wins; otherwise each non-empty line is taken with leading list
// markers stripped.
func ParseVariants(content string) []string {
	var parsed []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err == nil {
		return parsed
	}

	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. \t")
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxParsedVariants {
			break
		}
	}
	return out
}

// GenerateVariants asks the generator for candidate messages for a cohort.
func (s *VariantService) GenerateVariants(ctx context.Context, cohort, context string) ([]string, error) {
	if s.gen == nil {
		return nil, ErrGeneratorUnavailable
	}
	content, err := s.gen.Generate(ctx, variantSystemPrompt, buildVariantPrompt(cohort, context))
	if err != nil {
		return nil, fmt.Errorf("failed to generate variants: %w", err)
	}
	return ParseVariants(content), nil
}

// ApplyVariant labels every lead in the cohort with the variant letter and
// message text, returning how many were updated.
func (s *VariantService) ApplyVariant(ctx context.Context, cohort, letter, text string) (int, error) {
	if letter == "" || text == "" {
		return 0, ErrVariantRequired
	}

	leads, err := s.store.ListLeads(ctx, model.LeadFilter{Cohort: cohort, Limit: -1})
	if err != nil {
		return 0, fmt.Errorf("failed to list cohort leads: %w", err)
	}

	updated := 0
	for _, lead := range leads {
		now := s.now()
		_, err := s.store.UpdateLead(ctx, lead.ID, model.LeadUpdate{
			MessageVariant: &letter,
			MessageText:    &text,
			LastEventAt:    &now,
		})
		if err != nil {
			return updated, fmt.Errorf("failed to apply variant to lead %s: %w", lead.ID, err)
		}
		updated++
	}
	return updated, nil
}
