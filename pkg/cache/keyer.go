package cache

// Keyer builds cache keys. Keys depend only on the inputs and the options
// that change the cached value.
type Keyer interface {
	// LayoutKey keys a tree result by the hash of the input graph.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	// TextKey keys extracted text by the hash of the document bytes.
	TextKey(docHash string, opts TextKeyOpts) string
}

// LayoutKeyOpts are the options that change a tree result.
type LayoutKeyOpts struct {
	Engine     string  `json:"engine"`
	Guard      string  `json:"guard"`
	RootPolicy string  `json:"root_policy"`
	NodeWidth  float64 `json:"node_width"`
	NodeHeight float64 `json:"node_height"`
}

// TextKeyOpts are the options that change extracted text.
type TextKeyOpts struct {
	Backend string `json:"backend"`
}

// DefaultKeyer hashes every option into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// TextKey implements [Keyer].
func (DefaultKeyer) TextKey(docHash string, opts TextKeyOpts) string {
	return hashKey("text", docHash, opts)
}
