package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"screenshot2code-go/internal/prompts"
	"screenshot2code-go/internal/registry"
)

type modelInfo struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	Provider                string   `json:"provider"`
	SupportsInputModes      []string `json:"supports_input_modes"`
	SupportsGenerationTypes []string `json:"supports_generation_types"`
}

type stackInfo struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Components []string `json:"components"`
	InBeta     bool     `json:"in_beta"`
}

type modelsResponse struct {
	Models      []modelInfo         `json:"models"`
	Stacks      []stackInfo         `json:"stacks"`
	Defaults    map[string]string   `json:"defaults"`
	Recommended map[string][]string `json:"recommended"`
}

var stackCatalog = map[prompts.Stack]stackInfo{
	prompts.StackHTMLTailwind:  {ID: "html_tailwind", Label: "HTML + Tailwind", Components: []string{"HTML", "Tailwind"}},
	prompts.StackHTMLCSS:       {ID: "html_css", Label: "HTML + CSS", Components: []string{"HTML", "CSS"}},
	prompts.StackReactTailwind: {ID: "react_tailwind", Label: "React + Tailwind", Components: []string{"React", "Tailwind"}},
	prompts.StackBootstrap:     {ID: "bootstrap", Label: "Bootstrap", Components: []string{"Bootstrap"}},
	prompts.StackIonicTailwind: {ID: "ionic_tailwind", Label: "Ionic + Tailwind", Components: []string{"Ionic", "Tailwind"}, InBeta: true},
	prompts.StackVueTailwind:   {ID: "vue_tailwind", Label: "Vue + Tailwind", Components: []string{"Vue", "Tailwind"}, InBeta: true},
	prompts.StackSVG:           {ID: "svg", Label: "SVG", Components: []string{"SVG"}, InBeta: true},
}

// getModels publishes the model and stack catalog the frontend renders its
// pickers from. Compatibility is still enforced per request at generation
// time; this endpoint is display metadata only.
func getModels(c *gin.Context) {
	entries := registry.All()
	models := make([]modelInfo, 0, len(entries))
	for _, e := range entries {
		models = append(models, modelInfo{
			ID:                      e.ID,
			Name:                    e.DisplayName,
			Provider:                string(e.Provider),
			SupportsInputModes:      inputModeStrings(e.InputModes),
			SupportsGenerationTypes: generationTypeStrings(e.GenerationTypes),
		})
	}

	stacks := make([]stackInfo, 0, len(stackCatalog))
	for _, s := range prompts.Stacks() {
		stacks = append(stacks, stackCatalog[s])
	}

	c.JSON(http.StatusOK, modelsResponse{
		Models: models,
		Stacks: stacks,
		Defaults: map[string]string{
			"generatedCodeConfig": "html_tailwind",
			"codeGenerationModel": registry.LatestForProvider(registry.ProviderOpenAI),
			"analysisModel":       registry.LatestForProvider(registry.ProviderAnthropic),
		},
		Recommended: map[string][]string{
			"codeGenerationModels": {
				registry.LatestForProvider(registry.ProviderOpenAI),
				"claude-sonnet-4-5-20251101",
				registry.LatestForProvider(registry.ProviderGemini),
			},
			"analysisModels": {
				registry.LatestForProvider(registry.ProviderAnthropic),
				registry.LatestForProvider(registry.ProviderOpenAI),
				registry.LatestForProvider(registry.ProviderGemini),
			},
		},
	})
}

func inputModeStrings(modes []registry.InputMode) []string {
	out := make([]string, 0, len(modes))
	for _, m := range modes {
		out = append(out, string(m))
	}
	return out
}

func generationTypeStrings(types []registry.GenerationType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}
