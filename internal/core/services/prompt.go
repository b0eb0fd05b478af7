package services

import (
	"fmt"
	"strings"

	"github.com/askdocs-labs/askdocs-cli/internal/core/domain"
	"github.com/askdocs-labs/askdocs-cli/internal/logger"
)

const (
	groundedInstruction = "Answer the question using only the provided context. " +
		"If the answer is not contained in the context, say so explicitly."

	noContextInstruction = "No context is available for this question. " +
		"Answer from general knowledge."

	// blockSeparator joins the rendered context blocks.
	blockSeparator = "\n\n"
)

// PromptBuilder assembles the completion prompt from retrieved chunks.
// The context block is filled greedily best-first within a character
// budget; a chunk that would overflow the budget is dropped entirely
// rather than truncated mid-chunk.
type PromptBuilder struct {
	maxContextChars int
}

// NewPromptBuilder creates a prompt builder with the given context budget.
// A non-positive budget falls back to the default.
func NewPromptBuilder(maxContextChars int) *PromptBuilder {
	if maxContextChars <= 0 {
		maxContextChars = domain.DefaultMaxContextChars
	}
	return &PromptBuilder{maxContextChars: maxContextChars}
}

// Build selects the chunks that fit the budget and renders the prompt.
// Empty results switch to the no-context template variant.
func (b *PromptBuilder) Build(
	question string, results []domain.RetrievedResult,
) (string, domain.PromptContext) {
	pctx := domain.PromptContext{Question: question}

	budget := b.maxContextChars
	var blocks []string
	for _, res := range results {
		label := fmt.Sprintf("[source %d: %s]", len(pctx.Included)+1, res.Chunk.DocumentID)
		block := label + "\n" + res.Chunk.Content

		// The separator joining this block to the previous one counts
		// against the budget too.
		cost := len(block)
		if len(blocks) > 0 {
			cost += len(blockSeparator)
		}
		if cost > budget {
			// Greedy: no back-filling with later, smaller chunks.
			break
		}
		budget -= cost
		blocks = append(blocks, block)
		pctx.Included = append(pctx.Included, res.Chunk)
	}

	logger.Debug("Prompt: %d of %d chunks fit the %d char budget",
		len(pctx.Included), len(results), b.maxContextChars)

	if len(pctx.Included) == 0 {
		pctx.Variant = domain.PromptNoContext
		return b.renderNoContext(question), pctx
	}
	pctx.Variant = domain.PromptGrounded
	return b.renderGrounded(question, blocks), pctx
}

func (b *PromptBuilder) renderGrounded(question string, blocks []string) string {
	var sb strings.Builder
	sb.WriteString(groundedInstruction)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(strings.Join(blocks, blockSeparator))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\nAnswer:")
	return sb.String()
}

func (b *PromptBuilder) renderNoContext(question string) string {
	var sb strings.Builder
	sb.WriteString(noContextInstruction)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\nAnswer:")
	return sb.String()
}
