package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/grammatch/internal/grammar"
)

// CycleWarning describes a group of rules that reference each other.
//
// Self-reference is legal: the recognizer terminates on it as long as each
// recursive alternative consumes input first. Non-consuming recursion is an
// error reported by Validate (E203).
type CycleWarning struct {
	Path    []grammar.RuleID `json:"path"`    // Cycle path: [8, 8] or [11, 12, 11]
	Message string           `json:"message"` // Human-readable description
	Level   string           `json:"level"`   // "info"
}

// AnalyzeCycles reports every self-referential rule group in g.
//
// The algorithm:
//  1. Build the rule reference graph (rule → rules its sequences mention)
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Warnings are ordered by the smallest rule id in each group.
func AnalyzeCycles(g *grammar.Grammar) []CycleWarning {
	graph := referenceGraph(g)

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			path := reconstructCyclePath(scc, graph)
			warnings = append(warnings, CycleWarning{
				Path:    path,
				Message: fmt.Sprintf("self-referential rules: %s", formatPath(path)),
				Level:   "info",
			})
		}
	}

	return warnings
}

// ruleGraph maps rule → rules it can reach in one step.
type ruleGraph map[grammar.RuleID][]grammar.RuleID

// referenceGraph has an edge for every reference. Dangling references are
// kept as nodes without successors.
func referenceGraph(g *grammar.Grammar) ruleGraph {
	graph := make(ruleGraph)
	for _, rule := range g.Rules() {
		graph[rule.ID] = append([]grammar.RuleID{}, rule.References()...)
	}
	return graph
}

// leftCornerGraph has an edge rule → ref whenever ref can be entered before
// any input is consumed: the first element of a sequence, and each further
// element while everything before it can match the empty string.
//
// A cycle in this graph is recursion that never consumes input.
func leftCornerGraph(g *grammar.Grammar) ruleGraph {
	nullable := nullableRules(g)
	graph := make(ruleGraph)
	for _, rule := range g.Rules() {
		edges := []grammar.RuleID{}
		for _, alt := range rule.Alternatives {
			seq, ok := alt.(grammar.Sequence)
			if !ok {
				continue
			}
			for _, ref := range seq.Refs {
				edges = append(edges, ref)
				if !nullable[ref] {
					break
				}
			}
		}
		graph[rule.ID] = edges
	}
	return graph
}

// nullableRules returns the rules that can match without consuming input,
// i.e. those with a sequence alternative made only of nullable rules
// (including the empty sequence). Computed as a fixpoint.
func nullableRules(g *grammar.Grammar) map[grammar.RuleID]bool {
	nullable := make(map[grammar.RuleID]bool)
	rules := g.Rules()

	for changed := true; changed; {
		changed = false
		for _, rule := range rules {
			if nullable[rule.ID] {
				continue
			}
			for _, alt := range rule.Alternatives {
				seq, ok := alt.(grammar.Sequence)
				if !ok {
					continue
				}
				all := true
				for _, ref := range seq.Refs {
					if !nullable[ref] {
						all = false
						break
					}
				}
				if all {
					nullable[rule.ID] = true
					changed = true
					break
				}
			}
		}
	}

	return nullable
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node grammar.RuleID, graph ruleGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// sortedNodes returns the graph's nodes in ascending order so traversal is
// deterministic.
func sortedNodes(graph ruleGraph) []grammar.RuleID {
	nodes := make([]grammar.RuleID, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Each SCC is sorted ascending and SCCs are ordered by their smallest id.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph ruleGraph) [][]grammar.RuleID {
	var (
		index   = 0
		stack   []grammar.RuleID
		indices = make(map[grammar.RuleID]int)
		lowlink = make(map[grammar.RuleID]int)
		onStack = make(map[grammar.RuleID]bool)
		sccs    [][]grammar.RuleID
	)

	var strongConnect func(grammar.RuleID)
	strongConnect = func(v grammar.RuleID) {
		// Set the depth index for v
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		// Consider successors of v
		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				// Successor w has not yet been visited; recurse on it
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				// Successor w is on stack and hence in the current SCC
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// If v is a root node, pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []grammar.RuleID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Slice(scc, func(i, j int) bool { return scc[i] < scc[j] })
			sccs = append(sccs, scc)
		}
	}

	for _, node := range sortedNodes(graph) {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	sort.Slice(sccs, func(i, j int) bool { return sccs[i][0] < sccs[j][0] })
	return sccs
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at the smallest node in the SCC, follow edges to other SCC
// members, continue until we return to the start node.
func reconstructCyclePath(scc []grammar.RuleID, graph ruleGraph) []grammar.RuleID {
	if len(scc) == 0 {
		return []grammar.RuleID{}
	}

	// Build set of SCC members for fast lookup
	sccSet := make(map[grammar.RuleID]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []grammar.RuleID{current}
	visited := make(map[grammar.RuleID]bool)

	// Follow edges within SCC until we return to start
	for {
		visited[current] = true

		next, found := grammar.RuleID(0), false
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next, found = neighbor, true
				break
			}
		}

		if !found {
			break
		}

		path = append(path, next)

		if next == start {
			break
		}

		current = next
	}

	return path
}

func formatPath(path []grammar.RuleID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, " → ")
}
