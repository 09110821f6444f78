package casestore

import (
	"encoding/json"
	"strings"

	"github.com/lexorch/agent/pkg/models"
)

// detailsToTree round-trips CaseDetails through JSON into a generic
// map[string]any so dot-path updates can walk it without a reflection-based
// field setter.
func detailsToTree(details *models.CaseDetails) (map[string]any, error) {
	data, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func treeToDetails(tree map[string]any) (*models.CaseDetails, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	var details models.CaseDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// setDotPath navigates tree along path's dot-separated segments, creating
// intermediate maps as needed. At the leaf: a list-valued existing field
// appends value unless replace is set, in which case it overwrites; any
// other field is always overwritten.
func setDotPath(tree map[string]any, path string, value any, replace bool) {
	segments := strings.Split(path, ".")
	node := tree

	for i, seg := range segments {
		last := i == len(segments)-1
		if last {
			applyLeaf(node, seg, value, replace)
			return
		}

		next, ok := node[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[seg] = next
		}
		node = next
	}
}

func applyLeaf(node map[string]any, key string, value any, replace bool) {
	existing, ok := node[key]
	if !ok {
		node[key] = value
		return
	}

	list, isList := existing.([]any)
	if !isList || replace {
		node[key] = value
		return
	}

	node[key] = append(list, value)
}
