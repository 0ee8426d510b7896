// Package exposition turns GitLab CI exporter metrics text into pipeline and
// environment records.
package exposition

import "regexp"

var labelPair = regexp.MustCompile(`(\w+)="([^"]*)"`)

// DecodeLabels extracts key="value" pairs from the text between a metric's
// braces. Anything that is not a pair is ignored; a repeated key keeps its last
// value. It never fails: garbage yields an empty map.
func DecodeLabels(fragment string) map[string]string {
	labels := make(map[string]string)
	for _, m := range labelPair.FindAllStringSubmatch(fragment, -1) {
		labels[m[1]] = m[2]
	}
	return labels
}
