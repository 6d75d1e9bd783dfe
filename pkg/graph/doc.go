// Package graph provides the input types for process/dependency graphs.
//
// A [Graph] is a flat list of [Node] values and a list of directed [Edge]
// values. It carries no hierarchy of its own: the hierarchy package derives a
// single-parent tree from it.
//
// # Serialization
//
// Graphs use a simple node-link format, in JSON:
//
//	{
//	  "nodes": [{"id": "init"}, {"id": "sshd", "label": "OpenSSH"}],
//	  "edges": [{"from": "init", "to": "sshd"}]
//	}
//
// or TOML:
//
//	[[nodes]]
//	id = "init"
//
//	[[nodes]]
//	id = "sshd"
//
//	[[edges]]
//	from = "init"
//	to = "sshd"
//
// JSON edges may also use d3's "source"/"target" keys.
//
// Common operations:
//
//	g, _ := graph.ReadFile("procs.toml")   // File → Graph (format from extension)
//	graph.WriteFile(g, "procs.json")       // Graph → JSON file
//	data, _ := graph.Marshal(g)            // Graph → []byte
//	parsed, _ := graph.Unmarshal(data)     // []byte → Graph
//
// Edge order is significant and is preserved through every round trip.
package graph
