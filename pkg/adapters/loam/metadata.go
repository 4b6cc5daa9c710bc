package loam

// Report kinds stored in the archive.
const (
	KindAnalysis   = "analysis"
	KindValidation = "validation"
)

// ReportMetadata is the YAML front matter of an archived report.
// It uses "mapstructure" tags to match the front matter keys.
type ReportMetadata struct {
	ID      string `json:"id" mapstructure:"id"`
	Kind    string `json:"kind" mapstructure:"kind"`
	Schema  string `json:"schema" mapstructure:"schema"`
	Created string `json:"created" mapstructure:"created"`

	// Analysis summary
	Checksum string `json:"checksum,omitempty" mapstructure:"checksum"`
	Elements int    `json:"elements,omitempty" mapstructure:"elements"`
	Mixed    int    `json:"mixed,omitempty" mapstructure:"mixed"`
	Pure     int    `json:"pure,omitempty" mapstructure:"pure"`

	// Validation summary
	Instance string `json:"instance,omitempty" mapstructure:"instance"`
	Engine   string `json:"engine,omitempty" mapstructure:"engine"`
	Valid    bool   `json:"valid,omitempty" mapstructure:"valid"`
	Errors   int    `json:"errors,omitempty" mapstructure:"errors"`
}
