package prompts

import "fmt"

// Kind selects which prompt table to read for a stack.
type Kind string

const (
	KindScreenshot   Kind = "screenshot"
	KindText         Kind = "text"
	KindImportedCode Kind = "imported_code"
	KindElementBased Kind = "element_based"
)

// Shared prompt fragments. The system prompts below are composed from these
// so all stacks stay consistent when the instructions change.
const (
	commonBulletsApp = `- Make sure the app looks exactly like the screenshot.
- Do not leave out smaller UI elements. Make sure to include every single thing in the screenshot.
- Pay close attention to background color, text color, font size, font family, padding, margin, border, etc. Match the colors and sizes exactly.
- Use the exact text from the screenshot.
- Do not add comments in the code such as "<!-- Add other navigation links as needed -->" and "<!-- ... other news items ... -->" in place of writing the full code. WRITE THE FULL CODE.
- Repeat elements as needed to match the screenshot. For example, if there are 15 items, the code should have 15 items. DO NOT LEAVE comments like "<!-- Repeat for each news item -->" or bad things will happen.
- For images, use placeholder images from https://placehold.co and include a detailed description of the image in the alt text so that an image generation AI can generate the image later.`

	commonBulletsSVG = `- Make sure the SVG looks exactly like the screenshot.
- Do not leave out smaller elements. Make sure to include every single thing in the screenshot.
- Pay close attention to background color, text color, font size, font family, padding, margin, border, etc. Match the colors and sizes exactly.
- Use the exact text from the screenshot.`

	libTailwindScript = `- Use this script to include Tailwind: <script src="https://cdn.tailwindcss.com"></script>`
	libGoogleFonts    = `- You can use Google Fonts`
	libFontAwesome    = `- Font Awesome for icons: <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/5.15.3/css/all.min.css"></link>`
	libBootstrapLink  = `- Use this link to include Bootstrap: <link href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css" rel="stylesheet">`
	libReactScripts   = `- Use these script to include React so that it can run on a standalone page:
    <script src="https://unpkg.com/react/umd/react.development.js"></script>
    <script src="https://unpkg.com/react-dom/umd/react-dom.development.js"></script>
    <script src="https://unpkg.com/@babel/standalone/babel.js"></script>`
	libIonicScripts = `- Use these script to include Ionic so that it can run on a standalone page:
    <script type="module" src="https://cdn.jsdelivr.net/npm/@ionic/core/dist/ionic/ionic.esm.js"></script>
    <script nomodule src="https://cdn.jsdelivr.net/npm/@ionic/core/dist/ionic/ionic.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/@ionic/core/css/ionic.bundle.css" />`
	libIonicIonicons = `- Use these scripts for Ionicons:
    <script type="module" src="https://unpkg.com/ionicons@7.1.0/dist/ionicons/ionicons.esm.js"></script>
    <script nomodule src="https://unpkg.com/ionicons@7.1.0/dist/ionicons/ionicons.js"></script>`
	libVueScript = `- Use Vue using the global build like so: <script src="https://unpkg.com/vue@3/dist/vue.global.js"></script>`

	vueGlobalBuildExample = `- Use the global build of Vue so that the whole app can be in one HTML file. The app should be mounted on #app.`

	formatHTML = `In terms of fonts, use Google Fonts if the screenshot uses a non-standard font.

Return only the full code in <html></html> tags.
Do not include markdown "` + "```" + `" or "` + "```html" + `" at the start or end.`

	formatHTMLOnlyCode = `Return only the full code in <html></html> tags.
Do not include markdown "` + "```" + `" or "` + "```html" + `" at the start or end.`

	formatSVG = `Return only the full svg code.
Do not include markdown "` + "```" + `" or "` + "```svg" + `" at the start or end.`
)

func screenshotPrompt(expert, builds, libraries, format string) string {
	return fmt.Sprintf(`
You are an expert %s developer
You take screenshots of a reference web page from the user, and then build single page apps
using %s.

%s

In terms of libraries,

%s

%s`, expert, builds, commonBulletsApp, libraries, format)
}

func textPrompt(expert, builds, libraries, format string) string {
	return fmt.Sprintf(`
You are an expert %s developer.
You will be given a low-fidelity description of an app by the user, and your job is to build
a single page app using %s.

- Make sure the app matches the description exactly.
- Use your best judgement for colors, spacing and layout where the description is silent, and
  make the app look polished.
- Do not leave out functionality the description asks for. WRITE THE FULL CODE.
- For images, use placeholder images from https://placehold.co and include a detailed
  description of the image in the alt text so that an image generation AI can generate
  the image later.

In terms of libraries,

%s

%s`, expert, builds, libraries, format)
}

func importedCodePrompt(expert, builds, libraries, format string) string {
	return fmt.Sprintf(`
You are an expert %s developer.
You will be given the code of an existing app built with %s, followed by instructions from
the user on how to change it.

- Apply the requested changes and keep everything else exactly as it was.
- Do not add comments in the code in place of writing the full code. WRITE THE FULL CODE.
- For new images, use placeholder images from https://placehold.co and include a detailed
  description of the image in the alt text so that an image generation AI can generate
  the image later.

In terms of libraries,

%s

%s`, expert, builds, libraries, format)
}

const (
	repeatElementsRule     = "Repeat elements as needed to match the screenshot exactly"
	reusableComponentsRule = "CREATE REUSABLE COMPONENTS FOR REPEATING ELEMENTS"
)

func elementBasedPrompt(expert, builds, repeatRule, libraries, format string) string {
	return fmt.Sprintf(`
You are an expert %s developer.
You will be provided with:
1. A reference screenshot
2. A JSON structure with extracted design elements and their coordinates
3. The backend can inject original-image element assets during post-processing

Your task is to build a single page app using %s that looks EXACTLY like the screenshot.

CRITICAL INSTRUCTIONS:
- Do NOT generate new images for extracted elements
- For each NON-TEXT element, output an <img> placeholder that the backend will replace with the correct asset pixels
- Place elements at their exact coordinates from the JSON
- Match colors, fonts, sizes, spacing EXACTLY as shown in the screenshot
- Use the exact text from the screenshot
- Do not add comments - write the FULL CODE
- %s

For images/elements:
- Use this placeholder format EXACTLY (so the backend can inject the asset by matching alt):
  <img src="https://placehold.co/[WIDTH]x[HEIGHT]" alt="[element_id]" />
- Do NOT change the element_id in the alt attribute.
- You may add data-prompt="short description" for optional image generation fallback.

In terms of libraries,

%s

%s`, expert, builds, repeatRule, libraries, format)
}

const svgSystemPrompt = `
You are an expert at building SVGs.
You take screenshots of a reference web page from the user, and then build a SVG that looks exactly like the screenshot.

` + commonBulletsSVG + `
- You can use Google Fonts

` + formatSVG

var stackLibs = map[Stack]string{
	StackHTMLTailwind:  libTailwindScript + "\n" + libGoogleFonts + "\n" + libFontAwesome,
	StackHTMLCSS:       libGoogleFonts + "\n" + libFontAwesome,
	StackBootstrap:     libBootstrapLink + "\n" + libGoogleFonts + "\n" + libFontAwesome,
	StackReactTailwind: libReactScripts + "\n" + libTailwindScript + "\n" + libGoogleFonts + "\n" + libFontAwesome,
	StackIonicTailwind: libIonicScripts + "\n" + libTailwindScript + "\n" + libGoogleFonts + "\n" + libIonicIonicons,
	StackVueTailwind:   libVueScript + "\n" + libTailwindScript + "\n" + libGoogleFonts + "\n" + libFontAwesome,
}

var stackBuilds = map[Stack]string{
	StackHTMLTailwind:  "Tailwind, HTML and JS",
	StackHTMLCSS:       "CSS, HTML and JS",
	StackBootstrap:     "Bootstrap, HTML and JS",
	StackReactTailwind: "React and Tailwind CSS",
	StackIonicTailwind: "Ionic and Tailwind CSS",
	StackVueTailwind:   "Vue and Tailwind CSS",
}

var stackExperts = map[Stack]string{
	StackHTMLTailwind:  "Tailwind",
	StackHTMLCSS:       "CSS",
	StackBootstrap:     "Bootstrap",
	StackReactTailwind: "React/Tailwind",
	StackIonicTailwind: "Ionic/Tailwind",
	StackVueTailwind:   "Vue/Tailwind",
}

func stackFormat(s Stack) string {
	if s == StackVueTailwind {
		return formatHTMLOnlyCode
	}
	return formatHTML
}

var (
	screenshotSystemPrompts   = map[Stack]string{}
	textSystemPrompts         = map[Stack]string{}
	importedCodeSystemPrompts = map[Stack]string{}
	elementBasedSystemPrompts = map[Stack]string{}
)

func init() {
	// Element-based generation reuses the Tailwind prompt for every stack
	// except React, which gets its component-oriented variant.
	htmlBased := elementBasedPrompt(
		stackExperts[StackHTMLTailwind], stackBuilds[StackHTMLTailwind],
		repeatElementsRule, stackLibs[StackHTMLTailwind], formatHTML)
	reactBased := elementBasedPrompt(
		stackExperts[StackReactTailwind], stackBuilds[StackReactTailwind],
		reusableComponentsRule, stackLibs[StackReactTailwind], formatHTML)
	for _, s := range []Stack{
		StackHTMLTailwind, StackHTMLCSS, StackBootstrap,
		StackIonicTailwind, StackVueTailwind, StackSVG,
	} {
		elementBasedSystemPrompts[s] = htmlBased
	}
	elementBasedSystemPrompts[StackReactTailwind] = reactBased
	for _, s := range []Stack{
		StackHTMLTailwind, StackHTMLCSS, StackBootstrap,
		StackReactTailwind, StackIonicTailwind, StackVueTailwind,
	} {
		expert, builds, libs, format := stackExperts[s], stackBuilds[s], stackLibs[s], stackFormat(s)
		sp := screenshotPrompt(expert, builds, libs, format)
		if s == StackVueTailwind {
			sp = screenshotPrompt(expert, builds, libs+"\n"+vueGlobalBuildExample, format)
		}
		screenshotSystemPrompts[s] = sp
		textSystemPrompts[s] = textPrompt(expert, builds, libs, format)
		importedCodeSystemPrompts[s] = importedCodePrompt(expert, builds, libs, format)
	}
	screenshotSystemPrompts[StackSVG] = svgSystemPrompt
	textSystemPrompts[StackSVG] = svgSystemPrompt
	importedCodeSystemPrompts[StackSVG] = svgSystemPrompt
}

// SystemPrompt looks up the system prompt for a kind and stack.
func SystemPrompt(kind Kind, stack Stack) (string, error) {
	var table map[Stack]string
	switch kind {
	case KindScreenshot:
		table = screenshotSystemPrompts
	case KindText:
		table = textSystemPrompts
	case KindImportedCode:
		table = importedCodeSystemPrompts
	case KindElementBased:
		table = elementBasedSystemPrompts
	default:
		return "", fmt.Errorf("unknown prompt kind: %s", kind)
	}
	p, ok := table[stack]
	if !ok {
		return "", fmt.Errorf("unknown stack: %s", stack)
	}
	return p, nil
}

// VideoPrompt instructs the model to reconstruct an app from a screen
// recording of someone using it.
const VideoPrompt = `You are an expert at building single page, functional apps using HTML, Jquery and Tailwind CSS.
You also have perfect vision and pay great attention to detail.

You will be sent a recording of a user interacting with a reference app. You need to build an
app that looks exactly like the reference app and works in exactly the same way when the user
interacts with it.

- Think step by step about how the app works before writing code. Put your thinking inside
  <thinking></thinking> tags.
- Make sure the app looks exactly like the recording.
- Make sure the app has all the interactions shown in the recording.
- Use the exact text from the recording.
- Do not add comments in the code in place of writing the full code. WRITE THE FULL CODE.
- For images, use placeholder images from https://placehold.co and include a detailed
  description of the image in the alt text so that an image generation AI can generate
  the image later.
- Use this script to include Tailwind: <script src="https://cdn.tailwindcss.com"></script>
- You can use Google Fonts

Return the full code in <html></html> tags.`
