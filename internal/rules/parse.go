package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/thaafei/domainx/schema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRules is returned for a rules file that cannot be used.
var ErrInvalidRules = errors.New("invalid rules")

// Format is the encoding of a rules file.
type Format string

// Supported rules file formats.
const (
	JSONFormat Format = "json"
	YAMLFormat Format = "yaml"
)

// rawOption is one option category as written in a rules file.
type rawOption struct {
	DisplayName string                        `json:"display_name" yaml:"display_name"`
	Templates   map[string]map[string]float64 `json:"templates" yaml:"templates"`
}

// rawFile is the layout of a rules file. Unknown top-level sections are ignored.
type rawFile struct {
	Bool  map[string]rawOption `json:"bool" yaml:"bool"`
	Range map[string]rawOption `json:"range" yaml:"range"`
}

// FormatFromPath picks the format from the file extension. Anything but .yaml/.yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLFormat
	default:
		return JSONFormat
	}
}

// Parse decodes and validates a rules catalogue.
func Parse(data []byte, format Format) (*schema.RuleSet, error) {
	var raw rawFile
	var err error
	switch format {
	case YAMLFormat:
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}

	set := schema.NewRuleSet()
	var problems []string

	for _, optCat := range sortedKeys(raw.Bool) {
		opt := raw.Bool[optCat]
		for _, name := range sortedKeys(opt.Templates) {
			tmpl := opt.Templates[name]
			where := fmt.Sprintf("bool/%s/%s", optCat, name)
			rule := schema.BooleanRule{}
			for k, v := range tmpl {
				if msg := checkScore(v); msg != "" {
					problems = append(problems, fmt.Sprintf("%s: %q %s", where, k, msg))
					continue
				}
				switch strings.ToLower(k) {
				case "true":
					rule.TrueScore = v
				case "false":
					rule.FalseScore = v
				default:
					problems = append(problems, fmt.Sprintf("%s: unexpected key %q", where, k))
				}
			}
			set.Put(schema.RuleKey{OptionCategory: optCat, Rule: name}, opt.DisplayName, rule)
		}
	}

	for _, optCat := range sortedKeys(raw.Range) {
		opt := raw.Range[optCat]
		for _, name := range sortedKeys(opt.Templates) {
			tmpl := opt.Templates[name]
			where := fmt.Sprintf("range/%s/%s", optCat, name)
			if len(tmpl) == 0 {
				problems = append(problems, fmt.Sprintf("%s: no buckets", where))
				continue
			}
			buckets := make(map[string]float64, len(tmpl))
			for k, v := range tmpl {
				if msg := checkScore(v); msg != "" {
					problems = append(problems, fmt.Sprintf("%s: %q %s", where, k, msg))
					continue
				}
				buckets[k] = v
			}
			set.Put(schema.RuleKey{OptionCategory: optCat, Rule: name}, opt.DisplayName, schema.BucketRule{Buckets: buckets})
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRules, strings.Join(problems, "; "))
	}
	return set, nil
}

// Marshal encodes a catalogue in the rules file layout.
func Marshal(set *schema.RuleSet, format Format) ([]byte, error) {
	raw := rawFile{Bool: toRaw(set.Bool), Range: toRaw(set.Range)}
	if format == YAMLFormat {
		return yaml.Marshal(raw)
	}
	return json.MarshalIndent(raw, "", "  ")
}

func toRaw(section map[string]schema.RuleOption) map[string]rawOption {
	out := make(map[string]rawOption, len(section))
	for optCat, opt := range section {
		templates := make(map[string]map[string]float64, len(opt.Templates))
		for name, rule := range opt.Templates {
			switch r := rule.(type) {
			case schema.BooleanRule:
				templates[name] = map[string]float64{"true": r.TrueScore, "false": r.FalseScore}
			case schema.BucketRule:
				templates[name] = r.Buckets
			}
		}
		out[optCat] = rawOption{DisplayName: opt.DisplayName, Templates: templates}
	}
	return out
}

func checkScore(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "is not a finite score"
	}
	if v < 0 || v > 1 {
		return fmt.Sprintf("score %v is outside [0, 1]", v)
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
