// Package prompts holds the system prompt registry and conversation
// assembly for code generation requests.
package prompts

// Stack identifies the output technology the client asked for.
type Stack string

const (
	StackHTMLTailwind  Stack = "html_tailwind"
	StackHTMLCSS       Stack = "html_css"
	StackReactTailwind Stack = "react_tailwind"
	StackBootstrap     Stack = "bootstrap"
	StackIonicTailwind Stack = "ionic_tailwind"
	StackVueTailwind   Stack = "vue_tailwind"
	StackSVG           Stack = "svg"
)

// Stacks lists every supported stack in display order.
func Stacks() []Stack {
	return []Stack{
		StackHTMLTailwind,
		StackHTMLCSS,
		StackReactTailwind,
		StackBootstrap,
		StackIonicTailwind,
		StackVueTailwind,
		StackSVG,
	}
}

// Valid reports whether s names a supported stack.
func Valid(s Stack) bool {
	_, ok := screenshotSystemPrompts[s]
	return ok
}
