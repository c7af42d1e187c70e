// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package chat

import "strings"

// generalPrompt steers the model when no relevant context was retrieved.
const generalPrompt = `You are an expert AI assistant.
INSTRUCTIONS:
1. Provide smart, accurate, and well-reasoned answers.
2. Format your response using clear Markdown (**bold**, lists, headers).
3. Be concise and professional.`

// groundedPromptHeader precedes the retrieved context. The model is told
// to answer only from that context so the index stays the source of truth.
const groundedPromptHeader = `You are an expert research assistant.
INSTRUCTIONS:
1. Answer the user's question using ONLY the provided context below. Do not use outside knowledge.
2. If the answer is not in the context, politely state that the information is missing.
3. Format your response using clear Markdown:
   - Use **bold** for key concepts.
   - Use bullet points for lists.
   - Use ### Headers to organize long answers.
4. Keep your tone professional, accurate, and concise.

CONTEXT:
`

// buildSystemPrompt assembles the system prompt for a turn. Retrieved
// passages are joined with blank lines; an empty set falls back to the
// general prompt.
func buildSystemPrompt(passages []string) string {
	if len(passages) == 0 {
		return generalPrompt
	}
	return groundedPromptHeader + strings.Join(passages, "\n\n")
}
