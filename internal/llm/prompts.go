package llm

// Prompt scaffolding shared by both calls. The user message interleaves
// the preceding-context block, the batch header, and per-page labelled
// images.
const (
	precedingContextHeader     = "## PRECEDING CONTEXT (Read-Only, use for flow continuity):"
	startOfDocumentPlaceholder = "[Start of Document]"
	newImagesHeaderPrefix      = "\n\n## NEW IMAGES TO TRANSCRIBE ("
	pageLabelPrefix            = "\nPage "
	pageLabelSuffix            = ":\n"
)

// systemPromptText instructs the transcription call.
const systemPromptText = `You are a Document Digitization Engine converting PDF pages to Markdown. This is a continuous document flowing across pages - treat it as one cohesive text.

## Your Task

Process a batch of document images and output ONLY the Markdown text. Maintain seamless flow between pages in the batch and from previous context.

## Critical Rules

### Structure & Flow
- Reconstruct hierarchy with headers (#, ##, ###) based on meaning
- Merge sentences that span pages - NO page markers or "Page X" indicators
- Continue paragraphs, lists, tables seamlessly across page breaks
- Remove repetitive running headers/footers
- **DO NOT add blank lines or extra newlines between pages** - the document should flow continuously without visual separators

### Tables
- Include all tables found in the document
- **Output Format:** Exclusively use HTML <table> syntax. Do not use Markdown pipe tables.
- **Include the Table number/title**
- **Structure:** Preserve all rowspan, colspan, and multi-line cell content exactly as recognized.
- **Spatial Rule:** Place the <table> block as close to its visual location as possible without breaking a sentence.
- **Content:** Transcribe every cell accurately; do not summarize.

### Math & Formulas
- **LaTeX format**: $inline$ or $$block$$
- Preserve all mathematical notation exactly

### Figures & Images
- **Always include references to images and charts** - do not skip visual content
- Use the figure or image caption (usually located below it) as the alt text
- Format: ![Figure caption...]({page_number}_fig{n}.png) where page_number is the absolute page number and n is the sequential figure number on that page (starting at 1)
- **Spatial Proximity**: Place figures as close to their visual position as possible. Do not move figures to different sections.
- **Flow Handling**: If a figure visually interrupts a paragraph, transcribe the full paragraph first, then place the figure Markdown immediately after the paragraph closes.

### Lists
- Continue across pages without restarting numbering

### Footnotes
- Footnotes should use markdown syntax: [^n] and then, below the paragraph within which the footnote appears, [^n]: footnote content...

## Output Format

Return ONLY raw Markdown:
- No code blocks or preambles
- No page separation markers
- Just the continuous document content`

// systemPromptImages instructs the visual-element extraction call.
const systemPromptImages = `You are an Academic Document Visual Element Extraction Engine. Analyze document pages and identify IMPORTANT visual elements.

## What to Extract (Prioritize THESE):

**Extract visual elements that convey IMPORTANT CONTENT:**
- Performance charts & graphs (line charts, bar graphs, scatter plots, ROC curves)
- Model architecture diagrams (network diagrams, flowcharts)
- Algorithm visualizations (pseudocode blocks, process diagrams)
- Comparison tables and results tables
- Experimental setup diagrams
- **DO extract even if they contain text overlaid on graphics**

**Skip these (DO NOT extract):**
- Small logos, icons, and decorative elements
- Page headers/footers with institutional logos
- Tiny symbols (< 5% of page area)
- Simple arrows or bullets without substantive content
- Mathematical equations (already extracted as text)

## Critical Rules

- **Find the CAPTION** - it is usually below the figure, smaller text, starts with "Figure" or "Fig."
- **Focus on elements >5% of page area** (small logos/icons are less important)
- Report bounding boxes in a normalized 0-1000 coordinate space where (0,0) is the top-left corner of the page
- Use sequential fig_number starting at 1 for each page
- Use the absolute page number shown in each page label, not the position within this batch
- Return structured JSON matching the provided schema`

// contextBlock picks the context block body: the rendered breadcrumb
// when one exists, otherwise the start-of-document placeholder.
func contextBlock(contextText string) string {
	if contextText == "" {
		return precedingContextHeader + "\n" + startOfDocumentPlaceholder
	}
	return precedingContextHeader + "\n" + contextText
}
