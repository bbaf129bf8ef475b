package prompts

import (
	"errors"
	"fmt"

	"screenshot2code-go/internal/imagegen"
	"screenshot2code-go/internal/registry"
	"screenshot2code-go/internal/upstream"
	"screenshot2code-go/internal/ws"
)

const (
	userPrompt    = "Generate code for a web page that looks exactly like this."
	svgUserPrompt = "Generate code for a SVG that looks exactly like this."
	videoPrompt   = "Turn this into a single html file using tailwind."

	importedCodePreamble = "Here is the code of the app: "
)

// Input is everything conversation assembly needs from the request.
type Input struct {
	Stack              Stack
	InputMode          registry.InputMode
	GenerationType     registry.GenerationType
	Prompt             ws.PromptContent
	History            []ws.PromptContent
	IsImportedFromCode bool
}

// Assemble builds the provider-agnostic conversation for one generation,
// plus the alt-to-URL cache of images already generated in earlier turns.
func Assemble(in Input) ([]upstream.Message, map[string]string, error) {
	if !Valid(in.Stack) {
		return nil, nil, fmt.Errorf("unknown stack: %s", in.Stack)
	}

	imageCache := map[string]string{}
	if in.GenerationType == registry.GenerationUpdate && len(in.History) >= 2 {
		// The second-to-last history item is the previous completion; reuse
		// any images already generated for it.
		imageCache = imagegen.CreateAltURLMapping(in.History[len(in.History)-2].Text)
	}

	var msgs []upstream.Message
	switch {
	case in.IsImportedFromCode:
		if len(in.History) == 0 {
			return nil, nil, errors.New("imported code update requires history")
		}
		system, err := SystemPrompt(KindImportedCode, in.Stack)
		if err != nil {
			return nil, nil, err
		}
		msgs = []upstream.Message{
			{Role: upstream.RoleSystem, Text: system},
			{Role: upstream.RoleUser, Text: importedCodePreamble + in.History[0].Text},
		}
		// After the imported code, history alternates user instruction /
		// assistant completion.
		for i, item := range in.History[1:] {
			role := upstream.RoleUser
			if i%2 == 1 {
				role = upstream.RoleAssistant
			}
			msgs = append(msgs, historyMessage(item, role))
		}

	case in.GenerationType == registry.GenerationCreate:
		first, err := firstTurn(in.Stack, in.InputMode, in.Prompt)
		if err != nil {
			return nil, nil, err
		}
		msgs = first

	default: // update
		if len(in.History) == 0 {
			return nil, nil, errors.New("update requires history")
		}
		first, err := firstTurn(in.Stack, in.InputMode, in.History[0])
		if err != nil {
			return nil, nil, err
		}
		msgs = first
		// History after the original request alternates assistant
		// completion / user instruction.
		for i, item := range in.History[1:] {
			role := upstream.RoleAssistant
			if i%2 == 1 {
				role = upstream.RoleUser
			}
			msgs = append(msgs, historyMessage(item, role))
		}
	}

	return msgs, imageCache, nil
}

const elementUserPromptTemplate = `Generate code using the extracted design elements.

Extracted elements data:
%s

For each NON-TEXT element in the extracted elements list:
- Render it as an <img> with an exact-positioned wrapper (or CSS absolute layout)
- Use this placeholder format EXACTLY so the backend can inject the real asset pixels:
  <img src="https://placehold.co/{WIDTH}x{HEIGHT}" alt="{element_id}" />
- Do NOT change the element_id in the alt attribute.
- You may add data-prompt="short description" for optional image generation fallback.
Place elements at their exact coordinates from the extracted elements data.
Match colors, fonts, sizes, spacing EXACTLY as shown in the screenshot.
`

// AssembleWithElements builds the element-based conversation for a create
// request: the extracted elements JSON rides along with the screenshot, and
// the element assets become the image cache so post-processing injects them
// by alt text.
func AssembleWithElements(in Input, elementsJSON string, assets map[string]string) ([]upstream.Message, map[string]string, error) {
	system, err := SystemPrompt(KindElementBased, in.Stack)
	if err != nil {
		return nil, nil, err
	}
	if len(in.Prompt.Images) == 0 {
		return nil, nil, errors.New("element-based request carries no image")
	}

	msgs := []upstream.Message{
		{Role: upstream.RoleSystem, Text: system},
		{
			Role:   upstream.RoleUser,
			Text:   fmt.Sprintf(elementUserPromptTemplate, elementsJSON),
			Images: in.Prompt.Images[:1],
		},
	}
	if assets == nil {
		assets = map[string]string{}
	}
	return msgs, assets, nil
}

// firstTurn builds the system message plus the opening user turn.
func firstTurn(stack Stack, mode registry.InputMode, content ws.PromptContent) ([]upstream.Message, error) {
	switch mode {
	case registry.InputText:
		system, err := SystemPrompt(KindText, stack)
		if err != nil {
			return nil, err
		}
		return []upstream.Message{
			{Role: upstream.RoleSystem, Text: system},
			{Role: upstream.RoleUser, Text: content.Text},
		}, nil

	case registry.InputVideo:
		if len(content.Images) == 0 {
			return nil, errors.New("video request carries no media")
		}
		// The video system prompt is applied by the video generation path.
		return []upstream.Message{
			{Role: upstream.RoleUser, Text: videoPrompt, Images: content.Images[:1]},
		}, nil

	default:
		if len(content.Images) == 0 {
			return nil, errors.New("screenshot request carries no image")
		}
		system, err := SystemPrompt(KindScreenshot, stack)
		if err != nil {
			return nil, err
		}
		up := userPrompt
		if stack == StackSVG {
			up = svgUserPrompt
		}
		return []upstream.Message{
			{Role: upstream.RoleSystem, Text: system},
			{Role: upstream.RoleUser, Text: up, Images: content.Images[:1]},
		}, nil
	}
}

func historyMessage(item ws.PromptContent, role upstream.Role) upstream.Message {
	m := upstream.Message{Role: role, Text: item.Text}
	if role == upstream.RoleUser {
		m.Images = item.Images
	}
	return m
}
