package codegen

import "screenshot2code-go/internal/pipeline"

// NewPipeline wires the generation stages in session order.
func NewPipeline() *pipeline.Pipeline[*Context] {
	return pipeline.New[*Context]().
		Use(NewSetupStage()).
		Use(NewParamExtractionStage()).
		Use(NewStatusBroadcastStage()).
		Use(NewPromptCreationStage()).
		Use(NewGenerationStage()).
		Use(NewPostProcessingStage())
}
