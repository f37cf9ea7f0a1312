package doctree

// ContentFormat identifies how a record's content is stored.
type ContentFormat string

const (
	FormatHTML     ContentFormat = "html"
	FormatMarkdown ContentFormat = "markdown"
	FormatText     ContentFormat = "text"
)

// ClinicalRecord is the persisted record handed over by the CRUD application.
// It is read-only to the export code.
type ClinicalRecord struct {
	Title   string        `json:"title" yaml:"title"`
	Content string        `json:"content" yaml:"content"`
	Format  ContentFormat `json:"format,omitempty" yaml:"format,omitempty"`
	Patient *PatientRef   `json:"patient,omitempty" yaml:"patient,omitempty"`
}

// PatientRef is the resolved patient a record belongs to.
type PatientRef struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// ClinicHeader is the letterhead injected into every page and document header.
type ClinicHeader struct {
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	LogoURL string `json:"logo_url,omitempty" yaml:"logo_url,omitempty"`
}

// Line is one logical row of text or an explicit break.
type Line struct {
	Text    string `json:"text"`
	IsBlank bool   `json:"is_blank"`
}

// BlankLine returns the line emitted for breaks and empty blocks.
func BlankLine() Line {
	return Line{IsBlank: true}
}

// PageChunk is a contiguous slice of lines assigned to one physical page.
type PageChunk struct {
	Index          int    `json:"index"`
	Lines          []Line `json:"lines"`
	HasHeaderBlock bool   `json:"has_header_block"`
}

// StyleRun is a span of text sharing one inline formatting context.
type StyleRun struct {
	Text      string `json:"text"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	ColorHex  string `json:"color_hex,omitempty"`
}

// Style is the inherited inline formatting context.
type Style struct {
	Bold      bool
	Italic    bool
	Underline bool
	ColorHex  string // Lowercase "#rrggbb"; empty means the default colour.
}

// BlockKind distinguishes how a block was produced.
type BlockKind int

const (
	// BlockParagraph comes from a block-level element (p, div, h1-h6, li).
	BlockParagraph BlockKind = iota
	// BlockInline collects text and inline elements that sit outside any block.
	BlockInline
	// BlockBreak is a bare <br> outside any block.
	BlockBreak
)

// Run is a piece of raw text under one style. Text is kept untrimmed so the
// aggregate text of a block matches what a browser reports as textContent.
type Run struct {
	Text  string
	Style Style
	Break bool // Explicit <br>; Text is empty.
}

// Block is one paragraph-level unit of the canonical tree.
type Block struct {
	Kind BlockKind
	Tag  string // Element name for BlockParagraph ("p", "h2", "li", ...).
	Runs []Run
}

// Document is the canonical intermediate tree for a RichHTML fragment.
// Lines (pagination) and style runs (word-processor export) are both
// derived from it so the two paths agree on structure.
type Document struct {
	Blocks []*Block
}

// Raster is one captured page bitmap.
type Raster struct {
	Index    int
	PNG      []byte
	WidthPx  int
	HeightPx int
	Warnings []string // Resource problems hit while the page was composed.
}
