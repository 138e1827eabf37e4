package workflow

import (
	"fmt"
	"maps"

	"github.com/go-viper/mapstructure/v2"
)

// Patch is a partial node configuration keyed by wire field name.
type Patch map[string]any

// Config is the kind-specific configuration of a node.
// The set of implementations is closed: QueryConfig, KnowledgeConfig,
// InferenceConfig, OutputConfig and OpaqueConfig for unrecognised kinds.
type Config interface {
	Kind() NodeKind
	// Fields returns the configuration as a key/value mapping.
	Fields() map[string]any

	clone() Config
	merge(p Patch) error
}

// Attachment is a document waiting to be uploaded with the next save.
type Attachment struct {
	Name string
	Data []byte
}

// QueryConfig configures a query-intake node.
type QueryConfig struct {
	Query string `json:"query"`
}

// KnowledgeConfig configures a knowledge-retrieval node.
// UploadedFile is client-only state: it is sent once on save and never loaded back.
type KnowledgeConfig struct {
	EmbeddingModel   string      `json:"embeddingModel"`
	APIKey           string      `json:"apiKey"`
	UploadedFileName string      `json:"uploadedFileName"`
	UploadedFile     *Attachment `json:"-"`
}

// InferenceConfig configures a language-model node.
// Temperature is kept in its string form, as entered.
type InferenceConfig struct {
	Model            string `json:"model"`
	APIKey           string `json:"apiKey"`
	Temperature      string `json:"temperature"`
	SerpAPIKey       string `json:"serpApiKey"`
	WebSearchEnabled bool   `json:"webSearchEnabled"`
	Prompt           string `json:"prompt"`
}

// OutputConfig holds the last answer written into an output node.
type OutputConfig struct {
	Output string `json:"output"`
}

// OpaqueConfig carries the configuration of a node kind this package does not know.
type OpaqueConfig struct {
	NodeKind NodeKind
	Values   map[string]any
}

// FieldUploadedFile is the patch key that attaches or clears a pending document.
const FieldUploadedFile = "uploadedFile"

// DefaultConfig returns the configuration a freshly dropped node of kind starts with.
// Unknown kinds get an empty OpaqueConfig.
func DefaultConfig(kind NodeKind) Config {
	switch kind {
	case KindQuery:
		return &QueryConfig{Query: "Write your query here"}
	case KindKnowledge:
		return &KnowledgeConfig{EmbeddingModel: "text-embedding-3-large"}
	case KindInference:
		return &InferenceConfig{
			Model:            "gemini-1.5-flash",
			Temperature:      "0.7",
			WebSearchEnabled: true,
		}
	case KindOutput:
		return &OutputConfig{}
	default:
		return &OpaqueConfig{NodeKind: kind, Values: map[string]any{}}
	}
}

// EmptyConfig returns the zero configuration for kind.
func EmptyConfig(kind NodeKind) Config {
	switch kind {
	case KindQuery:
		return &QueryConfig{}
	case KindKnowledge:
		return &KnowledgeConfig{}
	case KindInference:
		return &InferenceConfig{}
	case KindOutput:
		return &OutputConfig{}
	default:
		return &OpaqueConfig{NodeKind: kind, Values: map[string]any{}}
	}
}

// DecodeConfig builds the configuration of a node of kind from a loosely typed mapping.
func DecodeConfig(kind NodeKind, values map[string]any) (Config, error) {
	c := EmptyConfig(kind)
	if err := c.merge(Patch(values)); err != nil {
		return nil, err
	}
	return c, nil
}

// MergeConfig returns a copy of c with p merged over it. c is left untouched.
func MergeConfig(c Config, p Patch) (Config, error) {
	out := c.clone()
	if err := out.merge(p); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeFields merges values into the struct pointed to by dst.
// Keys absent from values keep their current field value.
func decodeFields(dst any, values Patch) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("workflow: config decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(values)); err != nil {
		return fmt.Errorf("workflow: decode config: %w", err)
	}
	return nil
}

func (c *QueryConfig) Kind() NodeKind { return KindQuery }

func (c *QueryConfig) Fields() map[string]any {
	return map[string]any{"query": c.Query}
}

func (c *QueryConfig) clone() Config {
	cp := *c
	return &cp
}

func (c *QueryConfig) merge(p Patch) error { return decodeFields(c, p) }

func (c *KnowledgeConfig) Kind() NodeKind { return KindKnowledge }

func (c *KnowledgeConfig) Fields() map[string]any {
	var file any
	if c.UploadedFile != nil {
		file = c.UploadedFile
	}
	return map[string]any{
		"embeddingModel":   c.EmbeddingModel,
		"apiKey":           c.APIKey,
		"uploadedFileName": c.UploadedFileName,
		FieldUploadedFile:  file,
	}
}

func (c *KnowledgeConfig) clone() Config {
	cp := *c
	return &cp
}

func (c *KnowledgeConfig) merge(p Patch) error {
	if v, ok := p[FieldUploadedFile]; ok {
		switch f := v.(type) {
		case nil:
			c.UploadedFile = nil
		case *Attachment:
			c.UploadedFile = f
		case Attachment:
			c.UploadedFile = &f
		default:
			return fmt.Errorf("workflow: %s: unsupported value %T", FieldUploadedFile, v)
		}
	}
	return decodeFields(c, p)
}

func (c *InferenceConfig) Kind() NodeKind { return KindInference }

func (c *InferenceConfig) Fields() map[string]any {
	return map[string]any{
		"model":            c.Model,
		"apiKey":           c.APIKey,
		"temperature":      c.Temperature,
		"serpApiKey":       c.SerpAPIKey,
		"webSearchEnabled": c.WebSearchEnabled,
		"prompt":           c.Prompt,
	}
}

func (c *InferenceConfig) clone() Config {
	cp := *c
	return &cp
}

func (c *InferenceConfig) merge(p Patch) error { return decodeFields(c, p) }

func (c *OutputConfig) Kind() NodeKind { return KindOutput }

func (c *OutputConfig) Fields() map[string]any {
	return map[string]any{"output": c.Output}
}

func (c *OutputConfig) clone() Config {
	cp := *c
	return &cp
}

func (c *OutputConfig) merge(p Patch) error { return decodeFields(c, p) }

func (c *OpaqueConfig) Kind() NodeKind { return c.NodeKind }

func (c *OpaqueConfig) Fields() map[string]any {
	return maps.Clone(c.Values)
}

func (c *OpaqueConfig) clone() Config {
	return &OpaqueConfig{NodeKind: c.NodeKind, Values: maps.Clone(c.Values)}
}

func (c *OpaqueConfig) merge(p Patch) error {
	if c.Values == nil {
		c.Values = make(map[string]any, len(p))
	}
	maps.Copy(c.Values, p)
	return nil
}
