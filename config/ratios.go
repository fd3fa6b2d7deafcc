package config

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-spectro/features"
)

// Ratios is the power_ratios mapping in file order. Each entry is either
// [lo1, hi1, lo2, hi2], ["lo1-hi1", "lo2-hi2"] or {range1, range2}.
type Ratios []features.Ratio

// UnmarshalYAML decodes the mapping without losing its key order.
func (r *Ratios) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("power_ratios: line %d: want a mapping", node.Line)
	}

	out := make(Ratios, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		var v any
		if err := val.Decode(&v); err != nil {
			return fmt.Errorf("power_ratios: %s: %w", key.Value, err)
		}

		ratio, err := features.ParseRatio(key.Value, v)
		if err != nil {
			return fmt.Errorf("power_ratios: line %d: %w", key.Line, err)
		}
		out = append(out, ratio)
	}

	*r = out
	return nil
}

// MarshalYAML encodes the ratios as a mapping of [lo1, hi1, lo2, hi2].
func (r Ratios) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	num := func(v float64) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(v, 'f', -1, 64)}
	}

	for _, ratio := range r {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		seq.Content = append(seq.Content, num(ratio.Num.Lo), num(ratio.Num.Hi), num(ratio.Den.Lo), num(ratio.Den.Hi))
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: ratio.Name}, seq)
	}

	return node, nil
}
