package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phiguard/phiguard/core"
)

func TestBuildPromptListsUniqueCategories(t *testing.T) {
	findings := []core.Finding{
		{Category: core.CategoryEmail, Offset: 5},
		{Category: core.CategoryName, Offset: 20},
		{Category: core.CategoryEmail, Offset: 40},
	}

	prompt := BuildPrompt("some document", findings)

	assert.Contains(t, prompt, "sensitive data types: email, name")
	assert.Contains(t, prompt, "some document")
	assert.Equal(t, 1, strings.Count(prompt, "email, name"))
}

func TestBuildPromptNoFindings(t *testing.T) {
	prompt := BuildPrompt("clean document", nil)

	assert.Contains(t, prompt, "sensitive data types: none")
}

func TestBuildPromptConstraints(t *testing.T) {
	prompt := BuildPrompt("doc", nil)

	assert.Contains(t, prompt, "Do not provide medical advice")
	assert.Contains(t, prompt, `"risks"`)
	assert.Contains(t, prompt, `"suggestions"`)
}
