package paper

// Segment is a labelled slice of raw paper text, in the stored paper JSON layout.
type Segment struct {
	Title string `json:"title"` // Heading as it appeared in the source
	Order int    `json:"order"` // Informational; classification follows slice order
	Text  string `json:"text"`
}

// RawDocument is a paper before classification. It is also the persisted shape
// used by the document stores.
type RawDocument struct {
	ID        string    `json:"doc_id"`
	Title     string    `json:"doc_title"`
	SourceURL string    `json:"source_url,omitempty"`
	CreatedAt string    `json:"created_at,omitempty"` // YYYY-MM-DD, kept as a string
	Segments  []Segment `json:"sections"`
}

// Document is a classified paper. Sections keep source order.
type Document struct {
	ID       string
	Title    string
	Sections []Section
}

// Section is one classified segment. Kind is set once by the classifier.
type Section struct {
	Index   int // Position of the source segment in RawDocument.Segments
	Kind    SectionKind
	Heading string
	Text    string
}

// Name is the section label used in chunk headers and metadata.
func (s Section) Name() string {
	if s.Kind == KindOther && s.Heading != "" {
		return s.Heading
	}
	return s.Kind.String()
}

// SubSegment is a piece of a split section. Body is the pre-overlap text;
// Text is what ends up in the chunk.
type SubSegment struct {
	Text               string
	Body               string
	Overlap            string
	Kind               SectionKind
	Index              int // 1-based within the section
	HasLeadingOverlap  bool
	HasTrailingOverlap bool
}

// Chunking strategies recorded in chunk metadata.
const (
	StrategyAtomic          = "atomic"
	StrategySemanticOverlap = "semantic_overlap"
)

// Metadata travels with every chunk into the vector store payload.
type Metadata struct {
	Title         string `json:"title"`
	Section       string `json:"section"`
	Part          int    `json:"part"`
	ChunkStrategy string `json:"chunk_strategy"`
	HasOverlap    bool   `json:"has_overlap"`
}

// Chunk is the unit handed to embedding and storage. It carries no id and no vector.
type Chunk struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}
